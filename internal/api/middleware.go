// Package api contains the HTTP handlers and routing for the admin console.
package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aethra/nexus/internal/auth"
	"github.com/aethra/nexus/internal/entitlement"
)

const (
	ctxClaims = "claims"
	ctxRole   = "role"
)

// AuthMiddleware validates the Bearer token and resolves the viewer role.
func AuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "authentication required"})
			c.Abort()
			return
		}

		claims, err := jwtService.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "invalid token"})
			c.Abort()
			return
		}

		role, err := entitlement.ParseRole(claims.Role)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "unknown role"})
			c.Abort()
			return
		}

		c.Set(ctxClaims, claims)
		c.Set(ctxRole, role)
		c.Next()
	}
}

// RequireVisibility gates a route group on one column of the role rule
// table, e.g. RequireVisibility(func(v entitlement.Visibility) bool {
// return v.CanToggleEnablement }).
func RequireVisibility(allowed func(entitlement.Visibility) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := viewerRole(c)
		if !allowed(role.Visibility()) {
			c.JSON(http.StatusForbidden, gin.H{"error": "PERMISSION_DENIED", "message": "permission denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func viewerClaims(c *gin.Context) *auth.Claims {
	return c.MustGet(ctxClaims).(*auth.Claims)
}

func viewerRole(c *gin.Context) entitlement.Role {
	return c.MustGet(ctxRole).(entitlement.Role)
}
