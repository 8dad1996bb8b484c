package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aethra/nexus/internal/entitlement"
	apperrors "github.com/aethra/nexus/internal/errors"
)

// UnitHandler contains the unit management handlers.
type UnitHandler struct {
	svc *entitlement.Service
}

// NewUnitHandler creates a new unit handler.
func NewUnitHandler(svc *entitlement.Service) *UnitHandler {
	return &UnitHandler{svc: svc}
}

// ListUnits returns all units with member and module counts.
// GET /admin/units
func (h *UnitHandler) ListUnits(c *gin.Context) {
	summaries, err := h.svc.UnitSummaries(c.Request.Context())
	if err != nil {
		status, body := apperrors.ToHTTPError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"units": summaries})
}

// GetUnit returns a single unit.
// GET /admin/units/:id
func (h *UnitHandler) GetUnit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "invalid id"})
		return
	}

	unit, err := h.svc.GetUnit(c.Request.Context(), id)
	if err != nil {
		status, body := apperrors.ToHTTPError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, unit)
}

// CreateUnit creates a new unit.
// POST /admin/units
func (h *UnitHandler) CreateUnit(c *gin.Context) {
	var input struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": err.Error()})
		return
	}

	unit, err := h.svc.CreateUnit(c.Request.Context(), input.Name, input.Description)
	if err != nil {
		status, body := apperrors.ToHTTPError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusCreated, unit)
}

// UpdateUnit applies a partial update to a unit.
// PUT /admin/units/:id
func (h *UnitHandler) UpdateUnit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "invalid id"})
		return
	}

	var input struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": err.Error()})
		return
	}

	unit, err := h.svc.UpdateUnit(c.Request.Context(), id, entitlement.UnitUpdate{
		Name:        input.Name,
		Description: input.Description,
		IsActive:    input.IsActive,
	})
	if err != nil {
		status, body := apperrors.ToHTTPError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, unit)
}

// DeleteUnit removes a unit and its dependent rows.
// DELETE /admin/units/:id
func (h *UnitHandler) DeleteUnit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "invalid id"})
		return
	}

	if err := h.svc.DeleteUnit(c.Request.Context(), id); err != nil {
		status, body := apperrors.ToHTTPError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unit deleted"})
}

// ListUnitModules returns the module catalog joined with the unit's
// enablement state.
// GET /admin/units/:id/modules
func (h *UnitHandler) ListUnitModules(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "invalid id"})
		return
	}

	if _, err := h.svc.GetUnit(c.Request.Context(), id); err != nil {
		status, body := apperrors.ToHTTPError(err)
		c.JSON(status, body)
		return
	}

	statuses, err := h.svc.ListModulesForUnit(c.Request.Context(), id)
	if err != nil {
		status, body := apperrors.ToHTTPError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modules": statuses})
}

// ListUnitMembers returns the unit's member accounts, highest role first.
// GET /admin/units/:id/users
func (h *UnitHandler) ListUnitMembers(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "invalid id"})
		return
	}

	members, err := h.svc.ListUnitMembers(c.Request.Context(), id)
	if err != nil {
		status, body := apperrors.ToHTTPError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": members})
}

// SetModuleEnablement toggles a module for a unit.
// PUT /admin/units/:id/modules/:moduleID
func (h *UnitHandler) SetModuleEnablement(c *gin.Context) {
	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "invalid id"})
		return
	}
	moduleID, err := uuid.Parse(c.Param("moduleID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "invalid module id"})
		return
	}

	var input struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": err.Error()})
		return
	}

	actor := viewerClaims(c).UserID
	if err := h.svc.SetModuleEnablement(c.Request.Context(), unitID, moduleID, *input.Enabled, actor); err != nil {
		status, body := apperrors.ToHTTPError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": *input.Enabled})
}
