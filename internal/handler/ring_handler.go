package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/anillosguillen/catalog_api/internal/repository"
	"github.com/anillosguillen/catalog_api/internal/service"
	"github.com/anillosguillen/catalog_api/internal/utils"
)

// RingHandler handles the admin ring CRUD endpoints.
type RingHandler struct {
	ringService *service.RingService
}

// NewRingHandler constructs a RingHandler.
func NewRingHandler(ringService *service.RingService) *RingHandler {
	return &RingHandler{ringService: ringService}
}

// List handles GET /v1/admin/rings?search=&page=&limit=
func (h *RingHandler) List(c *gin.Context) {
	page, limit := 1, 50
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 200 {
		limit = l
	}

	rings, total, err := h.ringService.List(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		utils.ErrorFrom(c, err)
		return
	}
	utils.SuccessWithPagination(c, 200, "Rings retrieved", rings, page, limit, total)
}

// Get handles GET /v1/admin/rings/:id
func (h *RingHandler) Get(c *gin.Context) {
	id, ok := ringID(c)
	if !ok {
		return
	}
	ring, err := h.ringService.Get(c.Request.Context(), id)
	if err != nil {
		utils.ErrorFrom(c, err)
		return
	}
	utils.Success(c, 200, "Ring retrieved", ring)
}

// Create handles POST /v1/admin/rings
func (h *RingHandler) Create(c *gin.Context) {
	var req service.RingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	ring, err := h.ringService.Create(c.Request.Context(), &req)
	if err != nil {
		utils.ErrorFrom(c, err)
		return
	}
	utils.Success(c, 201, "Ring created successfully", ring)
}

// Update handles PUT /v1/admin/rings/:id
func (h *RingHandler) Update(c *gin.Context) {
	id, ok := ringID(c)
	if !ok {
		return
	}
	var req service.RingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	ring, err := h.ringService.Update(c.Request.Context(), id, &req)
	if err != nil {
		utils.ErrorFrom(c, err)
		return
	}
	utils.Success(c, 200, "Ring updated successfully", ring)
}

// Delete handles DELETE /v1/admin/rings/:id
func (h *RingHandler) Delete(c *gin.Context) {
	id, ok := ringID(c)
	if !ok {
		return
	}
	if err := h.ringService.Delete(c.Request.Context(), id); err != nil {
		utils.ErrorFrom(c, err)
		return
	}
	utils.Success(c, 200, "Ring deleted successfully", nil)
}

// ToggleActive handles PATCH /v1/admin/rings/:id/active
func (h *RingHandler) ToggleActive(c *gin.Context) {
	id, ok := ringID(c)
	if !ok {
		return
	}
	active, err := h.ringService.ToggleActive(c.Request.Context(), id)
	if err != nil {
		utils.ErrorFrom(c, err)
		return
	}
	utils.Success(c, 200, "Ring status updated", gin.H{"id": id, "isActive": active})
}

// Reorder handles PUT /v1/admin/rings/order
func (h *RingHandler) Reorder(c *gin.Context) {
	var req struct {
		Items []repository.OrderUpdate `json:"items" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := h.ringService.Reorder(c.Request.Context(), req.Items); err != nil {
		utils.ErrorFrom(c, err)
		return
	}
	utils.Success(c, 200, "Order updated", gin.H{"updated": len(req.Items)})
}

func ringID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.Error(c, 400, "INVALID_ID", "Invalid ring ID")
		return 0, false
	}
	return id, true
}
