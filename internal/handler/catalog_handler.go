package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anillosguillen/catalog_api/internal/models"
	"github.com/anillosguillen/catalog_api/internal/service"
	"github.com/anillosguillen/catalog_api/internal/utils"
)

// CatalogHandler serves the public storefront catalog.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// catalogRing is a ring as rendered on the storefront.
type catalogRing struct {
	models.Ring
	GoldInfo string `json:"goldInfo"`
}

func toCatalogRing(r *models.Ring) catalogRing {
	return catalogRing{Ring: *r, GoldInfo: r.GoldInfo()}
}

// List handles GET /v1/catalog?sort=order|price_asc|price_desc|points_desc
func (h *CatalogHandler) List(c *gin.Context) {
	rings, err := h.catalogService.List(c.Request.Context(), c.Query("sort"))
	if err != nil {
		utils.ErrorFrom(c, err)
		return
	}

	out := make([]catalogRing, len(rings))
	for i := range rings {
		out[i] = toCatalogRing(&rings[i])
	}
	utils.Success(c, 200, "Catalog retrieved", out)
}

// Get handles GET /v1/catalog/:slug
func (h *CatalogHandler) Get(c *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(c.Param("slug")))
	ring, err := h.catalogService.Get(c.Request.Context(), slug)
	if err != nil {
		utils.ErrorFrom(c, err)
		return
	}
	utils.Success(c, 200, "Ring retrieved", toCatalogRing(ring))
}
