package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/anillosguillen/catalog_api/internal/service"
	"github.com/anillosguillen/catalog_api/internal/utils"
)

// ImageHandler handles admin image uploads to the object store.
type ImageHandler struct {
	ringService *service.RingService
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(ringService *service.RingService) *ImageHandler {
	return &ImageHandler{ringService: ringService}
}

// Upload handles POST /v1/admin/images (multipart field "file").
func (h *ImageHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "No se proporcionó ningún archivo")
		return
	}
	if fh.Size > service.MaxImageBytes {
		utils.ErrorFrom(c, utils.ErrImageTooLarge)
		return
	}

	f, err := fh.Open()
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Failed to read upload")
		return
	}
	defer f.Close()

	// One byte over the cap is enough to reject.
	data, err := io.ReadAll(io.LimitReader(f, service.MaxImageBytes+1))
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Failed to read upload")
		return
	}

	url, err := h.ringService.UploadImage(c.Request.Context(), fh.Filename, data)
	if err != nil {
		utils.ErrorFrom(c, err)
		return
	}
	utils.Success(c, 201, "Image uploaded", gin.H{"url": url})
}

// Delete handles DELETE /v1/admin/images with body {"url": "..."}.
func (h *ImageHandler) Delete(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := h.ringService.DeleteImage(c.Request.Context(), req.URL); err != nil {
		utils.ErrorFrom(c, err)
		return
	}
	utils.Success(c, 200, "Image deleted", nil)
}
