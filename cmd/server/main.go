// Nexus - unit administration service
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aethra/nexus/internal/api"
	"github.com/aethra/nexus/internal/auth"
	"github.com/aethra/nexus/internal/config"
	"github.com/aethra/nexus/internal/database"
	"github.com/aethra/nexus/internal/entitlement"
	"github.com/aethra/nexus/internal/logger"
	"github.com/aethra/nexus/internal/metrics"
)

var Version = "1.0.0"

func main() {
	if len(os.Args) > 1 {
		runCLI()
		return
	}
	startServer()
}

func startServer() {
	cfg := mustLoadConfig()
	log := logger.L()
	log.Info("starting", zap.String("version", Version))

	db := connectDB(cfg)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	if err := database.Seed(db); err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}

	svc := entitlement.NewService(db, log)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.SetupRouter(api.RouterConfig{
		Handler:        api.NewHandler(svc),
		UnitHandler:    api.NewUnitHandler(svc),
		AdminHandler:   api.NewAdminHandler(svc),
		AuthHandler:    api.NewAuthHandler(svc, jwtService, log),
		JWTService:     jwtService,
		Metrics:        metrics.NewHTTPMetrics(cfg.ServiceName),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	log.Info("server listening", zap.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Server.Env, cfg.ServiceName); err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func connectDB(cfg *config.Config) *gorm.DB {
	db, err := database.Open(&cfg.DB)
	if err != nil {
		logger.L().Fatal("database connection failed", zap.Error(err))
	}
	return db
}

// CLI
func runCLI() {
	switch os.Args[1] {
	case "serve":
		startServer()
	case "migrate":
		cfg := mustLoadConfig()
		db := connectDB(cfg)
		if err := database.RunMigrations(db); err != nil {
			logger.L().Fatal("migration failed", zap.Error(err))
		}
		fmt.Println("Migrations complete")
	case "seed":
		cfg := mustLoadConfig()
		db := connectDB(cfg)
		if err := database.Seed(db); err != nil {
			logger.L().Fatal("seed failed", zap.Error(err))
		}
		fmt.Println("Seed complete")
	case "unit":
		runUnitCmd()
	case "admin":
		runAdminCmd()
	default:
		printUsage()
	}
}

func printUsage() {
	fmt.Println(`Usage: nexus <command>
Commands:
  serve                                       Start server
  migrate                                     Run migrations
  seed                                        Ensure default roles and modules
  unit list                                   List units
  unit create --name=                         Create unit
  admin create --email= --password= --role=   Create administrator`)
}

func runUnitCmd() {
	if len(os.Args) < 3 {
		printUsage()
		return
	}
	cfg := mustLoadConfig()
	db := connectDB(cfg)
	svc := entitlement.NewService(db, logger.L())
	ctx := context.Background()

	switch os.Args[2] {
	case "list":
		units, err := svc.ListUnits(ctx)
		if err != nil {
			logger.L().Fatal("list units failed", zap.Error(err))
		}
		for _, u := range units {
			fmt.Printf("%s  %s\n", u.ID, u.Name)
		}
	case "create":
		name := getFlag("--name")
		if name == "" {
			printUsage()
			return
		}
		unit, err := svc.CreateUnit(ctx, name, getFlag("--description"))
		if err != nil {
			logger.L().Fatal("create unit failed", zap.Error(err))
		}
		fmt.Printf("Unit created: %s\n", unit.ID)
	default:
		printUsage()
	}
}

func runAdminCmd() {
	if len(os.Args) < 3 || os.Args[2] != "create" {
		printUsage()
		return
	}
	cfg := mustLoadConfig()
	db := connectDB(cfg)
	if err := database.Seed(db); err != nil {
		logger.L().Fatal("seed failed", zap.Error(err))
	}
	svc := entitlement.NewService(db, logger.L())

	email, password := getFlag("--email"), getFlag("--password")
	role := getFlag("--role")
	if role == "" {
		role = "super_admin"
	}
	if email == "" || password == "" {
		printUsage()
		return
	}

	admin, err := svc.CreateAdministrator(context.Background(), email, password, role, nil)
	if err != nil {
		logger.L().Fatal("create administrator failed", zap.Error(err))
	}
	fmt.Printf("Administrator created: %s\n", admin.ID)
}

func getFlag(name string) string {
	for _, arg := range os.Args {
		if strings.HasPrefix(arg, name+"=") {
			return strings.TrimPrefix(arg, name+"=")
		}
	}
	return ""
}
