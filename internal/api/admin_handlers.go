package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aethra/nexus/internal/entitlement"
	apperrors "github.com/aethra/nexus/internal/errors"
)

// AdminHandler contains the administrator and grant management handlers.
type AdminHandler struct {
	svc *entitlement.Service
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(svc *entitlement.Service) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// ListAdministrators returns admin and super_admin accounts with their
// unit memberships.
// GET /admin/administrators
func (h *AdminHandler) ListAdministrators(c *gin.Context) {
	admins, err := h.svc.ListAdministrators(c.Request.Context())
	if err != nil {
		status, body := apperrors.ToHTTPError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"administrators": admins})
}

// GetAdministrator returns one administrator.
// GET /admin/administrators/:id
func (h *AdminHandler) GetAdministrator(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "invalid id"})
		return
	}

	admin, err := h.svc.GetAdministrator(c.Request.Context(), id)
	if err != nil {
		status, body := apperrors.ToHTTPError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, admin)
}

// CreateAdministrator creates an admin account with unit memberships.
// POST /admin/administrators
func (h *AdminHandler) CreateAdministrator(c *gin.Context) {
	var input struct {
		Email    string   `json:"email" binding:"required,email"`
		Password string   `json:"password" binding:"required,min=8"`
		Role     string   `json:"role" binding:"required"`
		UnitIDs  []string `json:"unit_ids"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": err.Error()})
		return
	}

	unitIDs := make([]uuid.UUID, 0, len(input.UnitIDs))
	for _, raw := range input.UnitIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "invalid unit id"})
			return
		}
		unitIDs = append(unitIDs, id)
	}

	admin, err := h.svc.CreateAdministrator(c.Request.Context(), input.Email, input.Password, input.Role, unitIDs)
	if err != nil {
		status, body := apperrors.ToHTTPError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusCreated, admin)
}

// SetAdministratorUnits replaces an administrator's memberships.
// PUT /admin/administrators/:id/units
func (h *AdminHandler) SetAdministratorUnits(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "invalid id"})
		return
	}

	var input struct {
		UnitIDs []string `json:"unit_ids"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": err.Error()})
		return
	}

	unitIDs := make([]uuid.UUID, 0, len(input.UnitIDs))
	for _, raw := range input.UnitIDs {
		unitID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "invalid unit id"})
			return
		}
		unitIDs = append(unitIDs, unitID)
	}

	if err := h.svc.SetAdministratorUnits(c.Request.Context(), id, unitIDs); err != nil {
		status, body := apperrors.ToHTTPError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "memberships updated"})
}

// DeleteAdministrator removes an administrator account.
// DELETE /admin/administrators/:id
func (h *AdminHandler) DeleteAdministrator(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "invalid id"})
		return
	}

	if err := h.svc.DeleteAdministrator(c.Request.Context(), id); err != nil {
		status, body := apperrors.ToHTTPError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "administrator deleted"})
}

// ListGrants lists permission grants issued by (or visible to) an admin.
// The viewer's own role drives the branch: a super admin viewing any
// admin's grants sees the full system-wide set annotated own-vs-other,
// while a plain admin sees only grants it issued itself.
// GET /admin/administrators/:id/grants
func (h *AdminHandler) ListGrants(c *gin.Context) {
	adminID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "invalid id"})
		return
	}

	role := viewerRole(c)
	if role != entitlement.RoleSuperAdmin {
		// A plain admin can only ask about itself.
		adminID = viewerClaims(c).UserID
	}

	grants, err := h.svc.ListUserGrants(c.Request.Context(), adminID, role)
	if err != nil {
		status, body := apperrors.ToHTTPError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"grants": grants})
}

// GrantRequest identifies one user/unit/module grant triple.
type GrantRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	UnitID   string `json:"unit_id" binding:"required"`
	ModuleID string `json:"module_id" binding:"required"`
}

func (r *GrantRequest) parse() (userID, unitID, moduleID uuid.UUID, err error) {
	if userID, err = uuid.Parse(r.UserID); err != nil {
		return
	}
	if unitID, err = uuid.Parse(r.UnitID); err != nil {
		return
	}
	moduleID, err = uuid.Parse(r.ModuleID)
	return
}

// GrantModule gives a user access to a module within a unit.
// POST /api/grants
func (h *AdminHandler) GrantModule(c *gin.Context) {
	var req GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": err.Error()})
		return
	}
	userID, unitID, moduleID, err := req.parse()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "invalid id"})
		return
	}

	actor := viewerClaims(c).UserID
	if err := h.svc.GrantUserModule(c.Request.Context(), userID, unitID, moduleID, actor); err != nil {
		status, body := apperrors.ToHTTPError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "module granted"})
}

// RevokeModule removes a user's module grant.
// DELETE /api/grants
func (h *AdminHandler) RevokeModule(c *gin.Context) {
	var req GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": err.Error()})
		return
	}
	userID, unitID, moduleID, err := req.parse()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "invalid id"})
		return
	}

	if err := h.svc.RevokeUserModule(c.Request.Context(), userID, unitID, moduleID); err != nil {
		status, body := apperrors.ToHTTPError(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "module revoked"})
}
