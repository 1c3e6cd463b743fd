package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mossaberrahal02/CNN-Disease-Classification/internal/usecase"
)

// APIVersion is reported by the root endpoint
const APIVersion = "1.0.0"

// HealthHandler handles service metadata and health endpoints
type HealthHandler struct {
	inferenceUC usecase.InferenceUsecase
	db          *gorm.DB
}

// NewHealthHandler creates a new health handler. db may be nil.
func NewHealthHandler(inferenceUC usecase.InferenceUsecase, db *gorm.DB) *HealthHandler {
	return &HealthHandler{
		inferenceUC: inferenceUC,
		db:          db,
	}
}

// HealthStatus represents the health check response
type HealthStatus struct {
	*usecase.HealthOutput
	Components map[string]string `json:"components"`
}

// Root handles GET /
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Potato Disease Classification API",
		"version": APIVersion,
		"status":  "running",
	})
}

// Ping handles GET /ping
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Hello, World!",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Health handles GET /health. It always answers 200 so the body can be read;
// the status field carries model availability.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	out := h.inferenceUC.Health(ctx)
	components := map[string]string{"model": "not loaded"}
	if out.ModelLoaded {
		components["model"] = "ok"
	}

	// Check database
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil {
			components["database"] = "error: " + err.Error()
		} else if err := sqlDB.PingContext(ctx); err != nil {
			components["database"] = "error: " + err.Error()
		} else {
			components["database"] = "ok"
		}
	} else {
		components["database"] = "not configured"
	}

	c.JSON(http.StatusOK, HealthStatus{
		HealthOutput: out,
		Components:   components,
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.inferenceUC.Health(c.Request.Context()).ModelLoaded {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "model not loaded"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
