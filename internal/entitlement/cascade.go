package entitlement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aethra/nexus/internal/models"
)

// DeleteUnit removes a unit after clearing its dependent rows in order:
// memberships, module enablements, permission grants, then the unit itself.
// The backend does not cascade, so the service owns the cleanup. The steps
// are best-effort and not transactional: a failed dependent step is logged
// and does not block the remaining steps, and dependents already removed
// stay removed if the final delete fails.
func (s *Service) DeleteUnit(ctx context.Context, unitID uuid.UUID) error {
	if _, err := s.GetUnit(ctx, unitID); err != nil {
		return err
	}

	steps := []struct {
		name  string
		model interface{}
	}{
		{"user_units", &models.UserUnit{}},
		{"unit_modules", &models.UnitModule{}},
		{"user_module_permissions", &models.UserModulePermission{}},
	}
	for _, step := range steps {
		err := s.db.WithContext(ctx).
			Where("unit_id = ?", unitID).
			Delete(step.model).Error
		if err != nil {
			s.log.Warn("unit cleanup step failed",
				zap.String("step", step.name),
				zap.String("unit_id", unitID.String()),
				zap.Error(err))
		}
	}

	err := s.db.WithContext(ctx).Delete(&models.Unit{}, "id = ?", unitID).Error
	if err != nil {
		return fmt.Errorf("delete unit: %w", err)
	}

	s.log.Info("unit deleted", zap.String("unit_id", unitID.String()))
	return nil
}

// DeleteAdministrator removes an admin account after clearing its
// memberships. Grants where the admin is granted_by are left in place, so
// their provenance reference goes stale after deletion.
func (s *Service) DeleteAdministrator(ctx context.Context, adminID uuid.UUID) error {
	if _, err := s.GetAdministrator(ctx, adminID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).
		Where("user_id = ?", adminID).
		Delete(&models.UserUnit{}).Error
	if err != nil {
		s.log.Warn("administrator cleanup step failed",
			zap.String("step", "user_units"),
			zap.String("admin_id", adminID.String()),
			zap.Error(err))
	}

	err = s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", adminID).Error
	if err != nil {
		return fmt.Errorf("delete administrator: %w", err)
	}

	s.log.Info("administrator deleted", zap.String("admin_id", adminID.String()))
	return nil
}
