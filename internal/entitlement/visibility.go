// Package entitlement implements the unit/role entitlement model: what a
// viewer may see, which modules a unit has enabled, and which module grants
// individual users hold.
package entitlement

import "fmt"

// Role is the closed set of viewer roles. Branching on it is always through
// an exhaustive switch; unknown role names fail at parse time.
type Role int

const (
	RoleUser Role = iota
	RoleAdmin
	RoleSuperAdmin
)

// ParseRole maps a stored role name to a Role.
func ParseRole(name string) (Role, error) {
	switch name {
	case "super_admin":
		return RoleSuperAdmin, nil
	case "admin":
		return RoleAdmin, nil
	case "user":
		return RoleUser, nil
	default:
		return RoleUser, fmt.Errorf("unknown role %q", name)
	}
}

// String returns the stored role name.
func (r Role) String() string {
	switch r {
	case RoleSuperAdmin:
		return "super_admin"
	case RoleAdmin:
		return "admin"
	default:
		return "user"
	}
}

// GrantScope describes which permission grants a viewer may list.
type GrantScope int

const (
	// GrantScopeNone hides the grants view entirely.
	GrantScopeNone GrantScope = iota
	// GrantScopeOwn limits the listing to grants the viewer issued.
	GrantScopeOwn
	// GrantScopeAll exposes every grant, annotated own-vs-other.
	GrantScopeAll
)

// Visibility captures the per-role rule table for the admin console: which
// data subsets and affordances a viewer of that role is exposed to.
type Visibility struct {
	SeeAllUnits            bool
	SeeAdminList           bool
	Grants                 GrantScope
	CanToggleEnablement    bool
	CanCreateAdministrator bool
}

// Visibility returns the rule-table row for the role.
func (r Role) Visibility() Visibility {
	switch r {
	case RoleSuperAdmin:
		return Visibility{
			SeeAllUnits:            true,
			SeeAdminList:           true,
			Grants:                 GrantScopeAll,
			CanToggleEnablement:    true,
			CanCreateAdministrator: true,
		}
	case RoleAdmin:
		return Visibility{
			Grants: GrantScopeOwn,
		}
	default:
		return Visibility{
			Grants: GrantScopeNone,
		}
	}
}
