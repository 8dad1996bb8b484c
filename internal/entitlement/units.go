package entitlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/aethra/nexus/internal/errors"
	"github.com/aethra/nexus/internal/models"
)

// ListUnits returns all units ordered by name. The listing is not filtered
// by viewer; route gating restricts it to super admins.
func (s *Service) ListUnits(ctx context.Context) ([]models.Unit, error) {
	var units []models.Unit
	if err := s.db.WithContext(ctx).Order("name").Find(&units).Error; err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	return units, nil
}

// GetUnit returns one unit by ID.
func (s *Service) GetUnit(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	err := s.db.WithContext(ctx).First(&unit, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("unit")
	}
	if err != nil {
		return nil, fmt.Errorf("get unit: %w", err)
	}
	return &unit, nil
}

// CreateUnit creates a unit.
func (s *Service) CreateUnit(ctx context.Context, name, description string) (*models.Unit, error) {
	if name == "" {
		return nil, apperrors.NewValidationError("name", "name is required")
	}
	unit := models.Unit{
		Name:        name,
		Description: description,
		IsActive:    true,
	}
	err := s.db.WithContext(ctx).Create(&unit).Error
	if apperrors.IsDuplicateKey(err) {
		return nil, apperrors.NewConflictError("unit")
	}
	if err != nil {
		return nil, fmt.Errorf("create unit: %w", err)
	}
	return &unit, nil
}

// UnitUpdate carries the mutable unit fields; nil means no change.
type UnitUpdate struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// UpdateUnit applies a partial update to a unit.
func (s *Service) UpdateUnit(ctx context.Context, id uuid.UUID, update UnitUpdate) (*models.Unit, error) {
	unit, err := s.GetUnit(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		unit.Name = *update.Name
	}
	if update.Description != nil {
		unit.Description = *update.Description
	}
	if update.IsActive != nil {
		unit.IsActive = *update.IsActive
	}

	err = s.db.WithContext(ctx).Save(unit).Error
	if apperrors.IsDuplicateKey(err) {
		return nil, apperrors.NewConflictError("unit")
	}
	if err != nil {
		return nil, fmt.Errorf("update unit: %w", err)
	}
	return unit, nil
}

// CountMembers counts memberships in a unit.
func (s *Service) CountMembers(ctx context.Context, unitID uuid.UUID) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.UserUnit{}).
		Where("unit_id = ?", unitID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return int(count), nil
}

// CountEnabledModules counts enabled modules of a unit.
func (s *Service) CountEnabledModules(ctx context.Context, unitID uuid.UUID) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.UnitModule{}).
		Where("unit_id = ?", unitID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count enabled modules: %w", err)
	}
	return int(count), nil
}

// ListUnitMembers returns the unit's member accounts with their roles,
// highest role level first, then by email.
func (s *Service) ListUnitMembers(ctx context.Context, unitID uuid.UUID) ([]models.User, error) {
	if _, err := s.GetUnit(ctx, unitID); err != nil {
		return nil, err
	}

	var members []models.User
	err := s.db.WithContext(ctx).
		Preload("Role").
		Joins("JOIN user_units ON user_units.user_id = users.id").
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("user_units.unit_id = ?", unitID).
		Order("roles.level DESC").
		Order("users.email").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("list unit members: %w", err)
	}
	return members, nil
}

// UnitSummary is a unit plus its badge counts. A count is nil when its
// fetch failed; the rest of the summary still renders.
type UnitSummary struct {
	Unit        models.Unit `json:"unit"`
	MemberCount *int        `json:"member_count"`
	ModuleCount *int        `json:"module_count"`
}

// UnitSummaries lists units with per-unit member and module counts. Each
// count is fetched independently; a failed count degrades to nil with a
// warning and never aborts the listing or sibling counts.
func (s *Service) UnitSummaries(ctx context.Context) ([]UnitSummary, error) {
	units, err := s.ListUnits(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]UnitSummary, 0, len(units))
	for _, unit := range units {
		summary := UnitSummary{Unit: unit}

		if members, err := s.CountMembers(ctx, unit.ID); err != nil {
			s.log.Warn("member count failed",
				zap.String("unit_id", unit.ID.String()), zap.Error(err))
		} else {
			summary.MemberCount = &members
		}

		if modules, err := s.CountEnabledModules(ctx, unit.ID); err != nil {
			s.log.Warn("module count failed",
				zap.String("unit_id", unit.ID.String()), zap.Error(err))
		} else {
			summary.ModuleCount = &modules
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// DashboardStats holds the totals shown on the console landing page.
type DashboardStats struct {
	Units   int64 `json:"units"`
	Users   int64 `json:"users"`
	Modules int64 `json:"modules"`
	Grants  int64 `json:"grants"`
}

// Stats counts the main entity populations. Each count is independent and
// degrades to zero with a warning on failure.
func (s *Service) Stats(ctx context.Context) DashboardStats {
	var stats DashboardStats
	counts := []struct {
		name  string
		model interface{}
		dest  *int64
	}{
		{"units", &models.Unit{}, &stats.Units},
		{"users", &models.User{}, &stats.Users},
		{"modules", &models.Module{}, &stats.Modules},
		{"grants", &models.UserModulePermission{}, &stats.Grants},
	}
	for _, c := range counts {
		if err := s.db.WithContext(ctx).Model(c.model).Count(c.dest).Error; err != nil {
			s.log.Warn("stats count failed", zap.String("entity", c.name), zap.Error(err))
		}
	}
	return stats
}
