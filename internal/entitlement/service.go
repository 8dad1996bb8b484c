package entitlement

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/aethra/nexus/internal/errors"
	"github.com/aethra/nexus/internal/models"
)

// Service answers entitlement queries and performs the writes behind the
// admin console: unit CRUD, module enablement toggles and permission grants.
type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewService creates a new entitlement service.
func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// DB exposes the underlying handle for callers that need a health ping.
func (s *Service) DB() *gorm.DB {
	return s.db
}

// ModuleStatus is one row of the per-unit module listing: every catalog
// module appears exactly once, with enablement state and provenance.
type ModuleStatus struct {
	Module         models.Module `json:"module"`
	Enabled        bool          `json:"enabled"`
	EnabledByEmail string        `json:"enabled_by_email,omitempty"`
	EnabledAt      *time.Time    `json:"enabled_at,omitempty"`
}

// ListModules returns the active module catalog in display order.
func (s *Service) ListModules(ctx context.Context) ([]models.Module, error) {
	var modules []models.Module
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("order_index").
		Order("display_name").
		Find(&modules).Error
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return modules, nil
}

// ListModulesForUnit joins the module catalog against the unit's enablement
// rows. Modules without a row come back with Enabled=false.
func (s *Service) ListModulesForUnit(ctx context.Context, unitID uuid.UUID) ([]ModuleStatus, error) {
	modules, err := s.ListModules(ctx)
	if err != nil {
		return nil, err
	}

	var enabled []models.UnitModule
	err = s.db.WithContext(ctx).
		Preload("Enabler").
		Where("unit_id = ?", unitID).
		Find(&enabled).Error
	if err != nil {
		return nil, fmt.Errorf("list unit modules: %w", err)
	}

	byModule := make(map[uuid.UUID]models.UnitModule, len(enabled))
	for _, um := range enabled {
		byModule[um.ModuleID] = um
	}

	statuses := make([]ModuleStatus, 0, len(modules))
	for _, module := range modules {
		status := ModuleStatus{Module: module}
		if um, ok := byModule[module.ID]; ok {
			status.Enabled = true
			enabledAt := um.EnabledAt
			status.EnabledAt = &enabledAt
			if um.Enabler != nil {
				status.EnabledByEmail = um.Enabler.Email
			}
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// SetModuleEnablement turns a module on or off for a unit. Enabling an
// already-enabled pair refreshes enabled_by/enabled_at instead of failing;
// disabling an absent pair is a no-op. Safe to call twice either way.
func (s *Service) SetModuleEnablement(ctx context.Context, unitID, moduleID uuid.UUID, enabled bool, actorID uuid.UUID) error {
	if !enabled {
		err := s.db.WithContext(ctx).
			Where("unit_id = ? AND module_id = ?", unitID, moduleID).
			Delete(&models.UnitModule{}).Error
		if err != nil {
			return fmt.Errorf("disable module: %w", err)
		}
		return nil
	}

	row := models.UnitModule{
		UnitID:    unitID,
		ModuleID:  moduleID,
		EnabledBy: &actorID,
		EnabledAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Create(&row).Error
	if err == nil {
		return nil
	}
	if !apperrors.IsDuplicateKey(err) {
		return fmt.Errorf("enable module: %w", err)
	}

	// Already enabled: last writer wins on provenance.
	err = s.db.WithContext(ctx).
		Model(&models.UnitModule{}).
		Where("unit_id = ? AND module_id = ?", unitID, moduleID).
		Updates(map[string]interface{}{
			"enabled_by": actorID,
			"enabled_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("refresh module enablement: %w", err)
	}
	return nil
}

// ModuleGrant is a single granted module within a unit, annotated with
// whether the viewing admin issued it.
type ModuleGrant struct {
	Module    models.Module `json:"module"`
	GrantedBy *uuid.UUID    `json:"granted_by"`
	GrantedAt time.Time     `json:"granted_at"`
	OwnGrant  bool          `json:"own_grant"`
}

// UnitGrants groups a user's grants within one unit.
type UnitGrants struct {
	Unit    models.Unit   `json:"unit"`
	Modules []ModuleGrant `json:"modules"`
}

// UserGrants groups all of one user's grants, by unit.
type UserGrants struct {
	User  models.User  `json:"user"`
	Units []UnitGrants `json:"units"`
}

// ListUserGrants lists permission grants as seen by adminID with the given
// viewer role. A super admin sees every grant annotated own-vs-other; a
// plain admin sees only grants it issued; any other role sees nothing.
func (s *Service) ListUserGrants(ctx context.Context, adminID uuid.UUID, viewer Role) ([]UserGrants, error) {
	scope := viewer.Visibility().Grants
	if scope == GrantScopeNone {
		return []UserGrants{}, nil
	}

	query := s.db.WithContext(ctx).
		Preload("User").
		Preload("User.Role").
		Preload("Unit").
		Preload("Module")
	if scope == GrantScopeOwn {
		query = query.Where("granted_by = ?", adminID)
	}

	var grants []models.UserModulePermission
	if err := query.Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}

	return groupGrants(grants, adminID), nil
}

// groupGrants shapes flat grant rows into user -> unit -> module groups,
// ordered by user email, unit name and module display order.
func groupGrants(grants []models.UserModulePermission, adminID uuid.UUID) []UserGrants {
	type unitGroup struct {
		unit    models.Unit
		modules []ModuleGrant
	}
	type userGroup struct {
		user  models.User
		units map[uuid.UUID]*unitGroup
	}

	users := make(map[uuid.UUID]*userGroup)
	for _, g := range grants {
		ug, ok := users[g.UserID]
		if !ok {
			ug = &userGroup{units: make(map[uuid.UUID]*unitGroup)}
			if g.User != nil {
				ug.user = *g.User
			} else {
				ug.user = models.User{ID: g.UserID}
			}
			users[g.UserID] = ug
		}

		un, ok := ug.units[g.UnitID]
		if !ok {
			un = &unitGroup{}
			if g.Unit != nil {
				un.unit = *g.Unit
			} else {
				un.unit = models.Unit{ID: g.UnitID}
			}
			ug.units[g.UnitID] = un
		}

		mg := ModuleGrant{
			GrantedBy: g.GrantedBy,
			GrantedAt: g.GrantedAt,
			OwnGrant:  g.GrantedBy != nil && *g.GrantedBy == adminID,
		}
		if g.Module != nil {
			mg.Module = *g.Module
		} else {
			mg.Module = models.Module{ID: g.ModuleID}
		}
		un.modules = append(un.modules, mg)
	}

	result := make([]UserGrants, 0, len(users))
	for _, ug := range users {
		entry := UserGrants{User: ug.user}
		for _, un := range ug.units {
			sort.Slice(un.modules, func(i, j int) bool {
				a, b := un.modules[i].Module, un.modules[j].Module
				if a.OrderIndex != b.OrderIndex {
					return a.OrderIndex < b.OrderIndex
				}
				return a.Name < b.Name
			})
			entry.Units = append(entry.Units, UnitGrants{Unit: un.unit, Modules: un.modules})
		}
		sort.Slice(entry.Units, func(i, j int) bool {
			return entry.Units[i].Unit.Name < entry.Units[j].Unit.Name
		})
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].User.Email < result[j].User.Email
	})
	return result
}

// GrantUserModule records that actorID gave userID access to moduleID within
// unitID. The module must already be enabled for the unit. Granting an
// existing triple refreshes granted_by/granted_at.
func (s *Service) GrantUserModule(ctx context.Context, userID, unitID, moduleID, actorID uuid.UUID) error {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.UnitModule{}).
		Where("unit_id = ? AND module_id = ?", unitID, moduleID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("check module enablement: %w", err)
	}
	if count == 0 {
		return apperrors.NewValidationError("module_id", "module is not enabled for this unit")
	}

	grant := models.UserModulePermission{
		UserID:    userID,
		UnitID:    unitID,
		ModuleID:  moduleID,
		GrantedBy: &actorID,
		GrantedAt: time.Now().UTC(),
	}
	err = s.db.WithContext(ctx).Create(&grant).Error
	if err == nil {
		return nil
	}
	if !apperrors.IsDuplicateKey(err) {
		return fmt.Errorf("create grant: %w", err)
	}

	err = s.db.WithContext(ctx).
		Model(&models.UserModulePermission{}).
		Where("user_id = ? AND unit_id = ? AND module_id = ?", userID, unitID, moduleID).
		Updates(map[string]interface{}{
			"granted_by": actorID,
			"granted_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("refresh grant: %w", err)
	}
	return nil
}

// RevokeUserModule removes a grant. Revoking an absent grant is a no-op.
func (s *Service) RevokeUserModule(ctx context.Context, userID, unitID, moduleID uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND unit_id = ? AND module_id = ?", userID, unitID, moduleID).
		Delete(&models.UserModulePermission{}).Error
	if err != nil {
		return fmt.Errorf("revoke grant: %w", err)
	}
	return nil
}
