package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aethra/nexus/internal/auth"
	"github.com/aethra/nexus/internal/entitlement"
	apperrors "github.com/aethra/nexus/internal/errors"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	svc        *entitlement.Service
	jwtService *auth.JWTService
	log        *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(svc *entitlement.Service, jwtService *auth.JWTService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, jwtService: jwtService, log: log}
}

// LoginRequest represents login credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a token carrying the resolved role.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": err.Error()})
		return
	}

	user, err := h.svc.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil || !user.IsActive || !auth.CheckPassword(user.PasswordHash, req.Password) {
		h.log.Info("login rejected", zap.String("email", req.Email))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "invalid credentials"})
		return
	}

	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}
	if _, err := entitlement.ParseRole(roleName); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "account has no valid role"})
		return
	}

	token, err := h.jwtService.Generate(user.ID, user.Email, roleName)
	if err != nil {
		status, body := apperrors.ToHTTPError(apperrors.NewInternalError(err))
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Me returns the authenticated account and its visibility row.
// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims := viewerClaims(c)
	user, err := h.svc.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		status, body := apperrors.ToHTTPError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":       user,
		"visibility": viewerRole(c).Visibility(),
	})
}
