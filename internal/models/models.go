// Package models contains the Nexus data structures.
// The schema mirrors the platform's entitlement model: units (tenants),
// users with a single role, a global module catalog, and the two join
// tables that record unit-level enablement and user-level grants.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role names. The set is closed; see internal/entitlement for the
// visibility rules attached to each.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleUser       = "user"
)

// Role levels, used for display precedence only.
const (
	LevelSuperAdmin = 100
	LevelAdmin      = 50
	LevelUser       = 10
)

// Unit represents a customer organization (tenant).
type Unit struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;not null;size:255"`
	Description string    `json:"description"`
	Settings    JSONB     `json:"settings,omitempty" gorm:"type:jsonb"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Memberships []UserUnit   `json:"memberships,omitempty" gorm:"foreignKey:UnitID"`
	Modules     []UnitModule `json:"modules,omitempty" gorm:"foreignKey:UnitID"`
}

// TableName returns the table name for Unit.
func (Unit) TableName() string { return "units" }

// BeforeCreate assigns an ID when none was set.
func (u *Unit) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Role represents a system role. Level is an ordinal used for sorting and
// badge emphasis in clients; it is not an access-control mechanism.
type Role struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;not null;size:50"`
	DisplayName string    `json:"display_name" gorm:"size:100"`
	Level       int       `json:"level" gorm:"default:0"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the table name for Role.
func (Role) TableName() string { return "roles" }

// BeforeCreate assigns an ID when none was set.
func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// User represents an account. Super admins, admins and regular users are
// one entity distinguished by RoleID.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string    `json:"-" gorm:"size:255"`
	RoleID       uuid.UUID `json:"role_id" gorm:"type:uuid;index;not null"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Role        *Role      `json:"role,omitempty" gorm:"foreignKey:RoleID"`
	Memberships []UserUnit `json:"memberships,omitempty" gorm:"foreignKey:UserID"`
}

// TableName returns the table name for User.
func (User) TableName() string { return "users" }

// BeforeCreate assigns an ID when none was set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserUnit links a user to a unit (membership). A user's accessible units
// are exactly its memberships.
type UserUnit struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_unit"`
	UnitID    uuid.UUID `json:"unit_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_unit"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Unit *Unit `json:"unit,omitempty" gorm:"foreignKey:UnitID"`
}

// TableName returns the table name for UserUnit.
func (UserUnit) TableName() string { return "user_units" }

// BeforeCreate assigns an ID when none was set.
func (m *UserUnit) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Module represents an entry in the global feature catalog, independent of
// any unit.
type Module struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;not null;size:100"`
	DisplayName string    `json:"display_name" gorm:"size:100"`
	Description string    `json:"description"`
	Icon        string    `json:"icon" gorm:"size:50"`
	OrderIndex  int       `json:"order_index" gorm:"default:0"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the table name for Module.
func (Module) TableName() string { return "modules" }

// BeforeCreate assigns an ID when none was set.
func (m *Module) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// UnitModule records that a module is enabled for a unit. Presence of a row
// means enabled; EnabledBy/EnabledAt carry provenance for audit display.
type UnitModule struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UnitID    uuid.UUID  `json:"unit_id" gorm:"type:uuid;not null;uniqueIndex:idx_unit_module"`
	ModuleID  uuid.UUID  `json:"module_id" gorm:"type:uuid;not null;uniqueIndex:idx_unit_module"`
	EnabledBy *uuid.UUID `json:"enabled_by" gorm:"type:uuid"`
	EnabledAt time.Time  `json:"enabled_at"`

	// Relations
	Unit    *Unit   `json:"unit,omitempty" gorm:"foreignKey:UnitID"`
	Module  *Module `json:"module,omitempty" gorm:"foreignKey:ModuleID"`
	Enabler *User   `json:"enabler,omitempty" gorm:"foreignKey:EnabledBy"`
}

// TableName returns the table name for UnitModule.
func (UnitModule) TableName() string { return "unit_modules" }

// BeforeCreate assigns an ID when none was set.
func (m *UnitModule) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// UserModulePermission records that GrantedBy gave a user access to a module
// within a unit. A grant is only meaningful while the matching UnitModule
// row exists.
type UserModulePermission struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_unit_module"`
	UnitID    uuid.UUID  `json:"unit_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_unit_module"`
	ModuleID  uuid.UUID  `json:"module_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_unit_module"`
	GrantedBy *uuid.UUID `json:"granted_by" gorm:"type:uuid"`
	GrantedAt time.Time  `json:"granted_at"`

	// Relations
	User    *User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Unit    *Unit   `json:"unit,omitempty" gorm:"foreignKey:UnitID"`
	Module  *Module `json:"module,omitempty" gorm:"foreignKey:ModuleID"`
	Granter *User   `json:"granter,omitempty" gorm:"foreignKey:GrantedBy"`
}

// TableName returns the table name for UserModulePermission.
func (UserModulePermission) TableName() string { return "user_module_permissions" }

// BeforeCreate assigns an ID when none was set.
func (p *UserModulePermission) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
