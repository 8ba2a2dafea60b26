package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionMap_ValueScan(t *testing.T) {
	perms := PermissionMap{
		ModulePosts:      {Read: true, Write: true},
		ModuleCategories: {Read: true},
	}

	value, err := perms.Value()
	require.NoError(t, err)

	var scanned PermissionMap
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, perms, scanned)
}

func TestPermissionMap_ScanBytes(t *testing.T) {
	var perms PermissionMap
	err := perms.Scan([]byte(`{"posts":{"read":true,"write":false,"delete":false}}`))
	require.NoError(t, err)
	assert.True(t, perms[ModulePosts].Read)
	assert.False(t, perms[ModulePosts].Write)
}

func TestPermissionMap_ScanNil(t *testing.T) {
	var perms PermissionMap
	require.NoError(t, perms.Scan(nil))
	assert.NotNil(t, perms)
	assert.Empty(t, perms)
}

func TestPermissionMap_ValueNil(t *testing.T) {
	var perms PermissionMap
	value, err := perms.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", value)
}

func TestPermissionMap_ScanUnsupportedType(t *testing.T) {
	var perms PermissionMap
	assert.Error(t, perms.Scan(123))
}

func TestUserPermission_Allows(t *testing.T) {
	perm := &UserPermission{
		Enabled:  true,
		CanRead:  true,
		CanWrite: true,
	}
	assert.True(t, perm.Allows(ActionRead))
	assert.True(t, perm.Allows(ActionWrite))
	assert.False(t, perm.Allows(ActionDelete))
	assert.False(t, perm.Allows("execute"))

	// 模块停用后所有操作都被拒绝
	perm.Enabled = false
	assert.False(t, perm.Allows(ActionRead))
	assert.False(t, perm.Allows(ActionWrite))
}

func TestIsValidModule(t *testing.T) {
	for _, module := range AllModules() {
		assert.True(t, IsValidModule(module), module)
	}
	assert.False(t, IsValidModule("billing"))
	assert.False(t, IsValidModule(""))
}

func TestIsValidAction(t *testing.T) {
	assert.True(t, IsValidAction(ActionRead))
	assert.True(t, IsValidAction(ActionWrite))
	assert.True(t, IsValidAction(ActionDelete))
	assert.False(t, IsValidAction("execute"))
	assert.False(t, IsValidAction(""))
}

func TestDefaultRoles(t *testing.T) {
	roles := DefaultRoles()
	require.Len(t, roles, 3)

	byName := make(map[string]Role, len(roles))
	for _, role := range roles {
		byName[role.Name] = role
	}

	admin, ok := byName[RoleAdmin]
	require.True(t, ok)
	assert.True(t, admin.IsSystem)
	// admin 依赖系统角色旁路，权限表为空
	assert.Empty(t, admin.Permissions)

	editor, ok := byName[RoleEditor]
	require.True(t, ok)
	assert.False(t, editor.IsSystem)
	assert.True(t, editor.Permissions[ModulePosts].Write)

	viewer, ok := byName[RoleViewer]
	require.True(t, ok)
	assert.True(t, viewer.Permissions[ModulePosts].Read)
	assert.False(t, viewer.Permissions[ModulePosts].Write)
}
