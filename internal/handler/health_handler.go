package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anillosguillen/catalog_api/internal/utils"
)

var startTime = time.Now()

// Pinger is anything whose connectivity can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health endpoint.
type HealthHandler struct {
	db    Pinger
	redis Pinger
}

// NewHealthHandler creates a new HealthHandler. redis may be nil.
func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// GetHealth responds with service, database and cache status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "connected"
	if err := h.db.Ping(ctx); err != nil {
		dbStatus = "disconnected"
	}
	cacheStatus := "disabled"
	if h.redis != nil {
		cacheStatus = "connected"
		if err := h.redis.Ping(ctx); err != nil {
			cacheStatus = "disconnected"
		}
	}

	data := gin.H{
		"status":   "healthy",
		"version":  "1.0.0",
		"uptime":   int(time.Since(startTime).Seconds()),
		"database": dbStatus,
		"cache":    cacheStatus,
	}
	if dbStatus != "connected" {
		data["status"] = "unhealthy"
		utils.Success(c, 503, "Database unavailable", data)
		return
	}
	utils.Success(c, 200, "Service is healthy", data)
}
