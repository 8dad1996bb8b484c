package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aethra/nexus/internal/entitlement"
	apperrors "github.com/aethra/nexus/internal/errors"
)

// Handler contains the general-purpose endpoints.
type Handler struct {
	svc *entitlement.Service
}

// NewHandler creates a new handler.
func NewHandler(svc *entitlement.Service) *Handler {
	return &Handler{svc: svc}
}

// Health reports liveness and database connectivity.
// GET /api/health
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.svc.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
}

// ListModules returns the global module catalog.
// GET /admin/modules
func (h *Handler) ListModules(c *gin.Context) {
	modules, err := h.svc.ListModules(c.Request.Context())
	if err != nil {
		status, body := apperrors.ToHTTPError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modules": modules})
}

// Stats returns entity totals for the console landing page.
// GET /admin/stats
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats(c.Request.Context()))
}
