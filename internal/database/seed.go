package database

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aethra/nexus/internal/logger"
	"github.com/aethra/nexus/internal/models"
)

// EnsureDefaultRoles creates the three system roles if they are missing.
// Existing roles are left untouched.
func EnsureDefaultRoles(db *gorm.DB) error {
	defaults := []models.Role{
		{Name: models.RoleSuperAdmin, DisplayName: "Super Administrator", Level: models.LevelSuperAdmin},
		{Name: models.RoleAdmin, DisplayName: "Administrator", Level: models.LevelAdmin},
		{Name: models.RoleUser, DisplayName: "User", Level: models.LevelUser},
	}

	for _, role := range defaults {
		var existing models.Role
		err := db.Where("name = ?", role.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check role %s: %w", role.Name, err)
		}
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("create role %s: %w", role.Name, err)
		}
		logger.L().Info("created default role", zap.String("role", role.Name))
	}
	return nil
}

// EnsureDefaultModules seeds the module catalog with the baseline feature
// set. Existing modules are left untouched.
func EnsureDefaultModules(db *gorm.DB) error {
	defaults := []models.Module{
		{Name: "dashboard", DisplayName: "Dashboard", Description: "Overview panels and indicators", Icon: "chart-line", OrderIndex: 1, IsActive: true},
		{Name: "administration", DisplayName: "Administration", Description: "Unit and account management", Icon: "cogs", OrderIndex: 2, IsActive: true},
		{Name: "reports", DisplayName: "Reports", Description: "Exportable reports", Icon: "file-alt", OrderIndex: 3, IsActive: true},
	}

	for _, module := range defaults {
		var existing models.Module
		err := db.Where("name = ?", module.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check module %s: %w", module.Name, err)
		}
		if err := db.Create(&module).Error; err != nil {
			return fmt.Errorf("create module %s: %w", module.Name, err)
		}
		logger.L().Info("created default module", zap.String("module", module.Name))
	}
	return nil
}

// Seed runs all seeders.
func Seed(db *gorm.DB) error {
	if err := EnsureDefaultRoles(db); err != nil {
		return err
	}
	return EnsureDefaultModules(db)
}
