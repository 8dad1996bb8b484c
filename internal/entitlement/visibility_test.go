package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name string
		want Role
	}{
		{"super_admin", RoleSuperAdmin},
		{"admin", RoleAdmin},
		{"user", RoleUser},
	}
	for _, tt := range tests {
		role, err := ParseRole(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, role)
		assert.Equal(t, tt.name, role.String())
	}

	_, err := ParseRole("moderator")
	require.Error(t, err)
}

func TestVisibilityRuleTable(t *testing.T) {
	super := RoleSuperAdmin.Visibility()
	assert.True(t, super.SeeAllUnits)
	assert.True(t, super.SeeAdminList)
	assert.Equal(t, GrantScopeAll, super.Grants)
	assert.True(t, super.CanToggleEnablement)
	assert.True(t, super.CanCreateAdministrator)

	admin := RoleAdmin.Visibility()
	assert.False(t, admin.SeeAllUnits)
	assert.False(t, admin.SeeAdminList)
	assert.Equal(t, GrantScopeOwn, admin.Grants)
	assert.False(t, admin.CanToggleEnablement)
	assert.False(t, admin.CanCreateAdministrator)

	user := RoleUser.Visibility()
	assert.False(t, user.SeeAllUnits)
	assert.False(t, user.SeeAdminList)
	assert.Equal(t, GrantScopeNone, user.Grants)
	assert.False(t, user.CanToggleEnablement)
	assert.False(t, user.CanCreateAdministrator)
}
