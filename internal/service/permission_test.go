package service

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhice-consulting/cms-backend/internal/model"
	"github.com/zhice-consulting/cms-backend/internal/repository"
)

// 内存版仓库实现，用于验证角色与用户权限行的同步语义

type fakeRoleRepo struct {
	roles map[string]*model.Role
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: make(map[string]*model.Role)}
}

func (f *fakeRoleRepo) Create(ctx context.Context, role *model.Role) error {
	for _, r := range f.roles {
		if r.Name == role.Name {
			return repository.ErrRoleNameExists
		}
	}
	if role.ID == "" {
		role.ID = uuid.New().String()
	}
	// 存副本，避免调用方后续修改影响"库内"数据
	r := *role
	f.roles[role.ID] = &r
	return nil
}

func (f *fakeRoleRepo) GetByID(ctx context.Context, id string) (*model.Role, error) {
	role, ok := f.roles[id]
	if !ok {
		return nil, repository.ErrRoleNotFound
	}
	// 返回副本，模拟数据库读出的独立对象
	r := *role
	return &r, nil
}

func (f *fakeRoleRepo) GetByName(ctx context.Context, name string) (*model.Role, error) {
	for _, role := range f.roles {
		if role.Name == name {
			r := *role
			return &r, nil
		}
	}
	return nil, repository.ErrRoleNotFound
}

func (f *fakeRoleRepo) Update(ctx context.Context, role *model.Role) error {
	if _, ok := f.roles[role.ID]; !ok {
		return repository.ErrRoleNotFound
	}
	r := *role
	f.roles[role.ID] = &r
	return nil
}

func (f *fakeRoleRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.roles[id]; !ok {
		return repository.ErrRoleNotFound
	}
	delete(f.roles, id)
	return nil
}

func (f *fakeRoleRepo) List(ctx context.Context) ([]*model.Role, error) {
	roles := make([]*model.Role, 0, len(f.roles))
	for _, role := range f.roles {
		roles = append(roles, role)
	}
	return roles, nil
}

func (f *fakeRoleRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	_, err := f.GetByName(ctx, name)
	return err == nil, nil
}

type fakePermRepo struct {
	// userID -> module -> 权限行
	perms map[string]map[string]*model.UserPermission
}

func newFakePermRepo() *fakePermRepo {
	return &fakePermRepo{perms: make(map[string]map[string]*model.UserPermission)}
}

func (f *fakePermRepo) ListByUserID(ctx context.Context, userID string) ([]*model.UserPermission, error) {
	rows := make([]*model.UserPermission, 0, len(f.perms[userID]))
	for _, perm := range f.perms[userID] {
		rows = append(rows, perm)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Module < rows[j].Module })
	return rows, nil
}

func (f *fakePermRepo) GetByUserAndModule(ctx context.Context, userID, module string) (*model.UserPermission, error) {
	perm, ok := f.perms[userID][module]
	if !ok {
		return nil, repository.ErrPermissionNotFound
	}
	return perm, nil
}

func (f *fakePermRepo) UpsertBatch(ctx context.Context, userID string, perms []*model.UserPermission) error {
	if f.perms[userID] == nil {
		f.perms[userID] = make(map[string]*model.UserPermission)
	}
	for _, perm := range perms {
		p := *perm
		p.UserID = userID
		f.perms[userID][p.Module] = &p
	}
	return nil
}

func (f *fakePermRepo) ReplaceForUser(ctx context.Context, userID string, perms []*model.UserPermission) error {
	f.perms[userID] = make(map[string]*model.UserPermission)
	for _, perm := range perms {
		p := *perm
		p.UserID = userID
		f.perms[userID][p.Module] = &p
	}
	return nil
}

func (f *fakePermRepo) DeleteByUserID(ctx context.Context, userID string) error {
	delete(f.perms, userID)
	return nil
}

type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.Username == user.Username {
			return repository.ErrUserUsernameExists
		}
		if u.Email == user.Email {
			return repository.ErrUserEmailExists
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	u := *user
	f.users[user.ID] = &u
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	u := *user
	f.users[user.ID] = &u
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) List(ctx context.Context, filter *repository.UserFilter, page *repository.Pagination) ([]*model.User, int64, error) {
	users := make([]*model.User, 0, len(f.users))
	for _, user := range f.users {
		users = append(users, user)
	}
	return users, int64(len(users)), nil
}

func (f *fakeUserRepo) ListIDsByRole(ctx context.Context, roleID string) ([]string, error) {
	var ids []string
	for id, user := range f.users {
		if user.RoleID == roleID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := f.GetByUsername(ctx, username)
	return err == nil, nil
}

func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	return err == nil, nil
}

// fakeRecorder 收集审计记录
type fakeRecorder struct {
	activities []*model.Activity
}

func (f *fakeRecorder) Record(ctx context.Context, activity *model.Activity) {
	f.activities = append(f.activities, activity)
}

// 测试环境

type permTestEnv struct {
	roleRepo *fakeRoleRepo
	permRepo *fakePermRepo
	userRepo *fakeUserRepo
	recorder *fakeRecorder
	svc      PermissionService
}

func newPermTestEnv() *permTestEnv {
	env := &permTestEnv{
		roleRepo: newFakeRoleRepo(),
		permRepo: newFakePermRepo(),
		userRepo: newFakeUserRepo(),
		recorder: &fakeRecorder{},
	}
	env.svc = NewPermissionService(env.roleRepo, env.permRepo, env.userRepo, env.recorder)
	return env
}

func (env *permTestEnv) addRole(t *testing.T, name string, isSystem bool, perms model.PermissionMap) *model.Role {
	t.Helper()
	role := &model.Role{
		Name:        name,
		DisplayName: name,
		IsSystem:    isSystem,
		Permissions: perms,
	}
	require.NoError(t, env.roleRepo.Create(context.Background(), role))
	return role
}

func (env *permTestEnv) addUser(t *testing.T, username, roleID string) *model.User {
	t.Helper()
	user := &model.User{
		Username: username,
		Email:    username + "@example.com",
		RoleID:   roleID,
		Status:   model.StatusActive,
	}
	require.NoError(t, env.userRepo.Create(context.Background(), user))
	return user
}

// 角色管理

func TestPermissionService_CreateRole(t *testing.T) {
	ctx := context.Background()
	env := newPermTestEnv()

	role := &model.Role{
		Name:        "marketing",
		DisplayName: "市场部编辑",
		Permissions: model.PermissionMap{
			model.ModulePosts: {Read: true, Write: true},
		},
	}

	err := env.svc.CreateRole(ctx, "actor-1", role)
	assert.NoError(t, err)
	assert.NotEmpty(t, role.ID)
	assert.Len(t, env.recorder.activities, 1)
	assert.Equal(t, model.ActivityRoleCreated, env.recorder.activities[0].Type)
}

func TestPermissionService_CreateRole_NameExists(t *testing.T) {
	ctx := context.Background()
	env := newPermTestEnv()
	env.addRole(t, "editor", false, nil)

	err := env.svc.CreateRole(ctx, "actor-1", &model.Role{Name: "editor", DisplayName: "编辑"})
	assert.Equal(t, ErrRoleNameExists, err)
}

func TestPermissionService_CreateRole_InvalidModule(t *testing.T) {
	ctx := context.Background()
	env := newPermTestEnv()

	err := env.svc.CreateRole(ctx, "actor-1", &model.Role{
		Name:        "broken",
		DisplayName: "坏角色",
		Permissions: model.PermissionMap{"not_a_module": {Read: true}},
	})
	assert.Equal(t, ErrInvalidModule, err)
}

func TestPermissionService_UpdateRole_CascadesToUsers(t *testing.T) {
	ctx := context.Background()
	env := newPermTestEnv()

	role := env.addRole(t, "editor", false, model.PermissionMap{
		model.ModulePosts: {Read: true, Write: true},
	})
	user := env.addUser(t, "zhangsan", role.ID)
	other := env.addUser(t, "lisi", "") // 未持有该角色

	// 用户已有的权限行：posts 被单独收紧过，galleries 是额外授权
	require.NoError(t, env.permRepo.ReplaceForUser(ctx, user.ID, []*model.UserPermission{
		{Module: model.ModulePosts, Enabled: true, CanRead: true},
		{Module: model.ModuleGalleries, Enabled: true, CanRead: true, CanWrite: true},
	}))
	require.NoError(t, env.permRepo.ReplaceForUser(ctx, other.ID, []*model.UserPermission{
		{Module: model.ModulePosts, Enabled: true, CanRead: true},
	}))

	// 编辑角色：posts 改为可读写删，新增 consultations
	role.Permissions = model.PermissionMap{
		model.ModulePosts:         {Read: true, Write: true, Delete: true},
		model.ModuleConsultations: {Read: true},
	}
	require.NoError(t, env.svc.UpdateRole(ctx, "actor-1", role))

	// 角色提及的模块被覆盖
	posts, err := env.permRepo.GetByUserAndModule(ctx, user.ID, model.ModulePosts)
	require.NoError(t, err)
	assert.True(t, posts.CanWrite)
	assert.True(t, posts.CanDelete)
	assert.True(t, posts.Enabled)

	// 角色新增的模块出现
	consultations, err := env.permRepo.GetByUserAndModule(ctx, user.ID, model.ModuleConsultations)
	require.NoError(t, err)
	assert.True(t, consultations.CanRead)
	assert.False(t, consultations.CanWrite)

	// 角色未提及的模块保持原值
	galleries, err := env.permRepo.GetByUserAndModule(ctx, user.ID, model.ModuleGalleries)
	require.NoError(t, err)
	assert.True(t, galleries.CanWrite)

	// 未持有该角色的用户不受影响
	otherPosts, err := env.permRepo.GetByUserAndModule(ctx, other.ID, model.ModulePosts)
	require.NoError(t, err)
	assert.False(t, otherPosts.CanWrite)

	// 整次更新只记一条审计
	assert.Len(t, env.recorder.activities, 1)
	assert.Equal(t, model.ActivityRoleUpdated, env.recorder.activities[0].Type)
}

func TestPermissionService_UpdateRole_SystemRoleRename(t *testing.T) {
	ctx := context.Background()
	env := newPermTestEnv()
	role := env.addRole(t, model.RoleAdmin, true, nil)

	role.Name = "renamed"
	err := env.svc.UpdateRole(ctx, "actor-1", role)
	assert.Equal(t, ErrSystemRoleImmutable, err)
}

func TestPermissionService_DeleteRole_SystemRole(t *testing.T) {
	ctx := context.Background()
	env := newPermTestEnv()
	role := env.addRole(t, model.RoleAdmin, true, nil)

	err := env.svc.DeleteRole(ctx, "actor-1", role.ID)
	assert.Equal(t, ErrSystemRoleImmutable, err)
}

// 角色分配

func TestPermissionService_AssignRole_ResetsPermissions(t *testing.T) {
	ctx := context.Background()
	env := newPermTestEnv()

	oldRole := env.addRole(t, "editor", false, model.PermissionMap{
		model.ModulePosts:     {Read: true, Write: true},
		model.ModuleGalleries: {Read: true, Write: true},
	})
	newRole := env.addRole(t, "viewer", false, model.PermissionMap{
		model.ModulePosts: {Read: true},
	})
	user := env.addUser(t, "zhangsan", oldRole.ID)

	// 旧角色权限行 + 单独给过的 consultations 授权
	require.NoError(t, env.permRepo.ReplaceForUser(ctx, user.ID, []*model.UserPermission{
		{Module: model.ModulePosts, Enabled: true, CanRead: true, CanWrite: true},
		{Module: model.ModuleGalleries, Enabled: true, CanRead: true, CanWrite: true},
		{Module: model.ModuleConsultations, Enabled: true, CanRead: true},
	}))

	updated, err := env.svc.AssignRole(ctx, "actor-1", user.ID, newRole.ID)
	require.NoError(t, err)
	assert.Equal(t, newRole.ID, updated.RoleID)

	// 全量重置：只剩新角色声明的模块，旧授权与单独授权全部清除
	rows, err := env.permRepo.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.ModulePosts, rows[0].Module)
	assert.True(t, rows[0].Enabled)
	assert.True(t, rows[0].CanRead)
	assert.False(t, rows[0].CanWrite)
}

func TestPermissionService_AssignRole_UserNotFound(t *testing.T) {
	ctx := context.Background()
	env := newPermTestEnv()
	role := env.addRole(t, "editor", false, nil)

	_, err := env.svc.AssignRole(ctx, "actor-1", "missing", role.ID)
	assert.Equal(t, ErrUserNotFound, err)
}

func TestPermissionService_AssignRole_RoleNotFound(t *testing.T) {
	ctx := context.Background()
	env := newPermTestEnv()
	user := env.addUser(t, "zhangsan", "")

	_, err := env.svc.AssignRole(ctx, "actor-1", user.ID, "missing")
	assert.Equal(t, ErrRoleNotFound, err)
}

// 用户权限调整

func TestPermissionService_SetUserPermissions_MergeOnly(t *testing.T) {
	ctx := context.Background()
	env := newPermTestEnv()
	user := env.addUser(t, "zhangsan", "")

	require.NoError(t, env.permRepo.ReplaceForUser(ctx, user.ID, []*model.UserPermission{
		{Module: model.ModulePosts, Enabled: true, CanRead: true},
		{Module: model.ModuleGalleries, Enabled: true, CanRead: true},
	}))

	// 只调整 posts，galleries 不受影响
	err := env.svc.SetUserPermissions(ctx, "actor-1", user.ID, []*model.UserPermission{
		{Module: model.ModulePosts, Enabled: true, CanRead: true, CanWrite: true, CanDelete: true},
	})
	require.NoError(t, err)

	posts, err := env.permRepo.GetByUserAndModule(ctx, user.ID, model.ModulePosts)
	require.NoError(t, err)
	assert.True(t, posts.CanDelete)

	galleries, err := env.permRepo.GetByUserAndModule(ctx, user.ID, model.ModuleGalleries)
	require.NoError(t, err)
	assert.True(t, galleries.CanRead)
	assert.False(t, galleries.CanWrite)
}

func TestPermissionService_SetUserPermissions_InvalidModule(t *testing.T) {
	ctx := context.Background()
	env := newPermTestEnv()
	user := env.addUser(t, "zhangsan", "")

	err := env.svc.SetUserPermissions(ctx, "actor-1", user.ID, []*model.UserPermission{
		{Module: "bogus", Enabled: true},
	})
	assert.Equal(t, ErrInvalidModule, err)
}

// 权限检查

func TestPermissionService_Authorize_AdminBypass(t *testing.T) {
	ctx := context.Background()
	env := newPermTestEnv()
	admin := env.addRole(t, model.RoleAdmin, true, model.PermissionMap{})
	user := env.addUser(t, "admin", admin.ID)

	// 没有任何权限行也全部放行
	for _, module := range model.AllModules() {
		for _, action := range []string{model.ActionRead, model.ActionWrite, model.ActionDelete} {
			allowed, err := env.svc.Authorize(ctx, user.ID, module, action)
			require.NoError(t, err)
			assert.True(t, allowed, "管理员应放行 %s:%s", module, action)
		}
	}
}

func TestPermissionService_Authorize_InvalidAction(t *testing.T) {
	ctx := context.Background()
	env := newPermTestEnv()
	user := env.addUser(t, "zhangsan", "")

	_, err := env.svc.Authorize(ctx, user.ID, model.ModulePosts, "execute")
	assert.Equal(t, ErrInvalidAction, err)
}

func TestPermissionService_Authorize_InvalidModule(t *testing.T) {
	ctx := context.Background()
	env := newPermTestEnv()
	user := env.addUser(t, "zhangsan", "")

	// 未知模块和未知操作同样报错，而不是静默拒绝
	_, err := env.svc.Authorize(ctx, user.ID, "billing", model.ActionRead)
	assert.Equal(t, ErrInvalidModule, err)
}

func TestPermissionService_Authorize_UserNotFound(t *testing.T) {
	ctx := context.Background()
	env := newPermTestEnv()

	allowed, err := env.svc.Authorize(ctx, "missing", model.ModulePosts, model.ActionRead)
	assert.NoError(t, err)
	assert.False(t, allowed)
}

func TestPermissionService_Authorize_NoRow(t *testing.T) {
	ctx := context.Background()
	env := newPermTestEnv()
	user := env.addUser(t, "zhangsan", "")

	allowed, err := env.svc.Authorize(ctx, user.ID, model.ModulePosts, model.ActionRead)
	assert.NoError(t, err)
	assert.False(t, allowed)
}

func TestPermissionService_Authorize_DisabledRow(t *testing.T) {
	ctx := context.Background()
	env := newPermTestEnv()
	user := env.addUser(t, "zhangsan", "")

	require.NoError(t, env.permRepo.ReplaceForUser(ctx, user.ID, []*model.UserPermission{
		{Module: model.ModulePosts, Enabled: false, CanRead: true, CanWrite: true, CanDelete: true},
	}))

	allowed, err := env.svc.Authorize(ctx, user.ID, model.ModulePosts, model.ActionRead)
	assert.NoError(t, err)
	assert.False(t, allowed)
}

func TestPermissionService_Authorize_DanglingRoleFallsBack(t *testing.T) {
	ctx := context.Background()
	env := newPermTestEnv()
	role := env.addRole(t, "editor", false, model.PermissionMap{
		model.ModulePosts: {Read: true, Write: true},
	})
	user := env.addUser(t, "zhangsan", role.ID)

	_, err := env.svc.AssignRole(ctx, "actor-1", user.ID, role.ID)
	require.NoError(t, err)

	// 删除角色后 role_id 悬空，权限判断回退到已存储的权限行
	require.NoError(t, env.svc.DeleteRole(ctx, "actor-1", role.ID))

	allowed, err := env.svc.Authorize(ctx, user.ID, model.ModulePosts, model.ActionWrite)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = env.svc.Authorize(ctx, user.ID, model.ModulePosts, model.ActionDelete)
	require.NoError(t, err)
	assert.False(t, allowed)
}

// 默认角色

func TestPermissionService_EnsureDefaultRoles(t *testing.T) {
	ctx := context.Background()
	env := newPermTestEnv()

	require.NoError(t, env.svc.EnsureDefaultRoles(ctx))
	// 幂等
	require.NoError(t, env.svc.EnsureDefaultRoles(ctx))

	roles, err := env.svc.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 3)

	admin, err := env.svc.GetRoleByName(ctx, model.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, admin.IsSystem)
}
