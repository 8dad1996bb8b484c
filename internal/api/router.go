// Package api - Router setup
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/aethra/nexus/internal/auth"
	"github.com/aethra/nexus/internal/entitlement"
	"github.com/aethra/nexus/internal/metrics"
)

// RouterConfig carries the router's collaborators.
type RouterConfig struct {
	Handler        *Handler
	UnitHandler    *UnitHandler
	AdminHandler   *AdminHandler
	AuthHandler    *AuthHandler
	JWTService     *auth.JWTService
	Metrics        *metrics.HTTPMetrics
	AllowedOrigins []string
}

// SetupRouter creates and configures the Gin router.
func SetupRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}

	// When credentials are used, specific origins must be provided (not *).
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/api/health", cfg.Handler.Health)
	r.GET("/metrics", metrics.Handler())

	r.POST("/auth/login", cfg.AuthHandler.Login)

	authenticated := r.Group("/")
	authenticated.Use(AuthMiddleware(cfg.JWTService))
	{
		authenticated.GET("/auth/me", cfg.AuthHandler.Me)
	}

	// Unit, administrator and catalog management: super_admin only, per the
	// role visibility table.
	admin := r.Group("/admin")
	admin.Use(AuthMiddleware(cfg.JWTService))
	admin.Use(RequireVisibility(func(v entitlement.Visibility) bool { return v.SeeAllUnits }))
	{
		admin.GET("/units", cfg.UnitHandler.ListUnits)
		admin.POST("/units", cfg.UnitHandler.CreateUnit)
		admin.GET("/units/:id", cfg.UnitHandler.GetUnit)
		admin.PUT("/units/:id", cfg.UnitHandler.UpdateUnit)
		admin.DELETE("/units/:id", cfg.UnitHandler.DeleteUnit)
		admin.GET("/units/:id/users", cfg.UnitHandler.ListUnitMembers)
		admin.GET("/units/:id/modules", cfg.UnitHandler.ListUnitModules)
		admin.PUT("/units/:id/modules/:moduleID", cfg.UnitHandler.SetModuleEnablement)

		admin.GET("/administrators", cfg.AdminHandler.ListAdministrators)
		admin.POST("/administrators", cfg.AdminHandler.CreateAdministrator)
		admin.GET("/administrators/:id", cfg.AdminHandler.GetAdministrator)
		admin.PUT("/administrators/:id/units", cfg.AdminHandler.SetAdministratorUnits)
		admin.DELETE("/administrators/:id", cfg.AdminHandler.DeleteAdministrator)

		admin.GET("/modules", cfg.Handler.ListModules)
		admin.GET("/stats", cfg.Handler.Stats)
	}

	// Grants: both admins and super admins reach these; the service branch
	// decides the visible subset.
	grants := r.Group("/")
	grants.Use(AuthMiddleware(cfg.JWTService))
	grants.Use(RequireVisibility(func(v entitlement.Visibility) bool {
		return v.Grants != entitlement.GrantScopeNone
	}))
	{
		grants.GET("/admin/administrators/:id/grants", cfg.AdminHandler.ListGrants)
		grants.POST("/api/grants", cfg.AdminHandler.GrantModule)
		grants.DELETE("/api/grants", cfg.AdminHandler.RevokeModule)
	}

	return r
}
