// Package service 业务逻辑层
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zhice-consulting/cms-backend/internal/model"
	"github.com/zhice-consulting/cms-backend/internal/repository"
)

var (
	ErrRoleNotFound            = errors.New("角色不存在")
	ErrRoleNameExists          = errors.New("角色标识已存在")
	ErrRoleNameRequired        = errors.New("角色标识不能为空")
	ErrRoleDisplayNameRequired = errors.New("角色显示名称不能为空")
	ErrSystemRoleImmutable     = errors.New("系统内置角色不能删除或重命名")
	ErrInvalidModule           = errors.New("未知的功能模块")
	ErrInvalidAction           = errors.New("未知的权限操作")
)

// ActivityRecorder 操作日志记录器
// 权限服务的所有变更操作通过它追加审计记录；
// 记录失败只打日志，不影响主操作。
type ActivityRecorder interface {
	Record(ctx context.Context, activity *model.Activity)
}

// PermissionService 权限服务接口
// 维护角色（模块权限表）与用户权限行，并保证两者同步：
// 角色重新分配触发全量重置，角色权限编辑触发按模块合并级联。
type PermissionService interface {
	// 角色管理
	CreateRole(ctx context.Context, actorID string, role *model.Role) error
	GetRole(ctx context.Context, id string) (*model.Role, error)
	GetRoleByName(ctx context.Context, name string) (*model.Role, error)
	ListRoles(ctx context.Context) ([]*model.Role, error)
	// UpdateRole 更新角色并把新的模块权限按模块级联合并到
	// 所有持有该角色的用户（未提及的模块保持原值）
	UpdateRole(ctx context.Context, actorID string, role *model.Role) error
	DeleteRole(ctx context.Context, actorID, id string) error

	// 用户角色与权限
	// AssignRole 变更用户角色并以角色默认值全量重置其权限行
	AssignRole(ctx context.Context, actorID, userID, roleID string) (*model.User, error)
	GetUserPermissions(ctx context.Context, userID string) ([]*model.UserPermission, error)
	// SetUserPermissions 按模块覆盖用户权限，未提及的模块不受影响
	SetUserPermissions(ctx context.Context, actorID, userID string, perms []*model.UserPermission) error

	// Authorize 检查用户对模块的操作权限。
	// 系统内置角色（admin）在读取时直接放行，不依赖存储的权限行。
	Authorize(ctx context.Context, userID, module, action string) (bool, error)

	// EnsureDefaultRoles 初始化系统默认角色（幂等）
	EnsureDefaultRoles(ctx context.Context) error
}

type permissionService struct {
	roleRepo repository.RoleRepository
	permRepo repository.UserPermissionRepository
	userRepo repository.UserRepository
	recorder ActivityRecorder
}

// NewPermissionService 创建权限服务
func NewPermissionService(
	roleRepo repository.RoleRepository,
	permRepo repository.UserPermissionRepository,
	userRepo repository.UserRepository,
	recorder ActivityRecorder,
) PermissionService {
	return &permissionService{
		roleRepo: roleRepo,
		permRepo: permRepo,
		userRepo: userRepo,
		recorder: recorder,
	}
}

// 角色管理

func (s *permissionService) CreateRole(ctx context.Context, actorID string, role *model.Role) error {
	if err := validateRole(role); err != nil {
		return err
	}
	if role.Permissions == nil {
		role.Permissions = model.PermissionMap{}
	}
	if err := s.roleRepo.Create(ctx, role); err != nil {
		if errors.Is(err, repository.ErrRoleNameExists) {
			return ErrRoleNameExists
		}
		return err
	}
	s.record(ctx, &model.Activity{
		Type:        model.ActivityRoleCreated,
		Description: fmt.Sprintf("创建角色 %s (%s)", role.DisplayName, role.Name),
		EntityType:  "role",
		EntityID:    role.ID,
		CreatedBy:   actorID,
	})
	return nil
}

func (s *permissionService) GetRole(ctx context.Context, id string) (*model.Role, error) {
	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrRoleNotFound
	}
	return role, nil
}

func (s *permissionService) GetRoleByName(ctx context.Context, name string) (*model.Role, error) {
	role, err := s.roleRepo.GetByName(ctx, name)
	if err != nil {
		return nil, ErrRoleNotFound
	}
	return role, nil
}

func (s *permissionService) ListRoles(ctx context.Context) ([]*model.Role, error) {
	return s.roleRepo.List(ctx)
}

func (s *permissionService) UpdateRole(ctx context.Context, actorID string, role *model.Role) error {
	existing, err := s.roleRepo.GetByID(ctx, role.ID)
	if err != nil {
		return ErrRoleNotFound
	}
	if err := validateRole(role); err != nil {
		return err
	}

	// 系统内置角色不能改名
	if existing.IsSystem && role.Name != existing.Name {
		return ErrSystemRoleImmutable
	}
	// IsSystem 标记不可通过更新翻转
	role.IsSystem = existing.IsSystem
	if role.Permissions == nil {
		role.Permissions = model.PermissionMap{}
	}

	if err := s.roleRepo.Update(ctx, role); err != nil {
		return err
	}

	// 级联：把新的模块授权合并到所有持有该角色的用户。
	// 按模块 upsert，新权限表未提及的模块保持用户原有的值。
	if err := s.cascadeRoleUpdate(ctx, role); err != nil {
		return err
	}

	// 整次角色更新只记一条日志，而不是每个受影响用户一条
	s.record(ctx, &model.Activity{
		Type:        model.ActivityRoleUpdated,
		Description: fmt.Sprintf("更新角色 %s 并级联同步用户权限", role.Name),
		EntityType:  "role",
		EntityID:    role.ID,
		CreatedBy:   actorID,
	})
	return nil
}

// cascadeRoleUpdate 把角色的模块授权逐用户合并写入。
// 每个用户的批量 upsert 在各自事务中执行，用户之间顺序处理。
func (s *permissionService) cascadeRoleUpdate(ctx context.Context, role *model.Role) error {
	if len(role.Permissions) == 0 {
		return nil
	}
	userIDs, err := s.userRepo.ListIDsByRole(ctx, role.ID)
	if err != nil {
		return err
	}
	for _, userID := range userIDs {
		perms := expandPermissions(role.Permissions)
		if err := s.permRepo.UpsertBatch(ctx, userID, perms); err != nil {
			return fmt.Errorf("同步用户 %s 权限失败: %w", userID, err)
		}
	}
	return nil
}

func (s *permissionService) DeleteRole(ctx context.Context, actorID, id string) error {
	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		return ErrRoleNotFound
	}
	if role.IsSystem {
		return ErrSystemRoleImmutable
	}
	// 仍引用该角色的用户保留悬空 role_id；
	// Authorize 对悬空角色回退到已存储的权限行。
	if err := s.roleRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, &model.Activity{
		Type:        model.ActivityRoleDeleted,
		Description: fmt.Sprintf("删除角色 %s", role.Name),
		EntityType:  "role",
		EntityID:    role.ID,
		CreatedBy:   actorID,
	})
	return nil
}

// 用户角色与权限

func (s *permissionService) AssignRole(ctx context.Context, actorID, userID, roleID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	role, err := s.roleRepo.GetByID(ctx, roleID)
	if err != nil {
		return nil, ErrRoleNotFound
	}

	user.RoleID = role.ID
	user.Role = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	// 全量重置：删除旧权限行，再按新角色默认值写入。
	// 换角色的用户不应残留上一个角色的授权。
	perms := expandPermissions(role.Permissions)
	if err := s.permRepo.ReplaceForUser(ctx, userID, perms); err != nil {
		return nil, err
	}

	s.record(ctx, &model.Activity{
		Type:        model.ActivityRoleAssigned,
		Description: fmt.Sprintf("为用户 %s 分配角色 %s，权限已按角色默认值重置", user.Username, role.Name),
		EntityType:  "user",
		EntityID:    user.ID,
		CreatedBy:   actorID,
	})
	user.Role = role
	return user, nil
}

func (s *permissionService) GetUserPermissions(ctx context.Context, userID string) ([]*model.UserPermission, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, ErrUserNotFound
	}
	return s.permRepo.ListByUserID(ctx, userID)
}

func (s *permissionService) SetUserPermissions(ctx context.Context, actorID, userID string, perms []*model.UserPermission) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}
	for _, perm := range perms {
		if !model.IsValidModule(perm.Module) {
			return ErrInvalidModule
		}
	}
	// 按模块 upsert，未提及的模块保持不变
	if err := s.permRepo.UpsertBatch(ctx, userID, perms); err != nil {
		return err
	}
	modules := make([]string, len(perms))
	for i, perm := range perms {
		modules[i] = perm.Module
	}
	s.record(ctx, &model.Activity{
		Type:        model.ActivityPermissionsUpdated,
		Description: fmt.Sprintf("调整用户 %s 的模块权限: %s", user.Username, strings.Join(modules, ", ")),
		EntityType:  "user",
		EntityID:    user.ID,
		CreatedBy:   actorID,
	})
	return nil
}

// Authorize 权限检查

func (s *permissionService) Authorize(ctx context.Context, userID, module, action string) (bool, error) {
	if !model.IsValidModule(module) {
		return false, ErrInvalidModule
	}
	if !model.IsValidAction(action) {
		return false, ErrInvalidAction
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}

	// 系统内置角色在读取时直接放行，不依赖存储的权限行，
	// 即使权限行缺失或过期也保持正确。
	if user.RoleID != "" {
		role, err := s.roleRepo.GetByID(ctx, user.RoleID)
		if err == nil && role.IsSystem {
			return true, nil
		}
		// 角色查不到（已删除）时回退到权限行判断
	}

	perm, err := s.permRepo.GetByUserAndModule(ctx, userID, module)
	if err != nil {
		if errors.Is(err, repository.ErrPermissionNotFound) {
			// 无权限行等同于无授权
			return false, nil
		}
		return false, err
	}
	return perm.Allows(action), nil
}

// 初始化

func (s *permissionService) EnsureDefaultRoles(ctx context.Context) error {
	for _, role := range model.DefaultRoles() {
		existing, _ := s.roleRepo.GetByName(ctx, role.Name)
		if existing != nil {
			continue
		}
		r := role
		if err := s.roleRepo.Create(ctx, &r); err != nil {
			return err
		}
	}
	return nil
}

// record 追加操作日志，失败不阻断主操作
func (s *permissionService) record(ctx context.Context, activity *model.Activity) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, activity)
}

// expandPermissions 把角色权限表展开为用户权限行。
// 出现在权限表中的模块即视为对该用户开启。
func expandPermissions(permissions model.PermissionMap) []*model.UserPermission {
	perms := make([]*model.UserPermission, 0, len(permissions))
	for module, grant := range permissions {
		perms = append(perms, &model.UserPermission{
			Module:    module,
			Enabled:   true,
			CanRead:   grant.Read,
			CanWrite:  grant.Write,
			CanDelete: grant.Delete,
		})
	}
	return perms
}

// validateRole 校验角色必填字段
func validateRole(role *model.Role) error {
	if role == nil {
		return ErrRoleNameRequired
	}
	role.Name = strings.TrimSpace(role.Name)
	role.DisplayName = strings.TrimSpace(role.DisplayName)
	if role.Name == "" {
		return ErrRoleNameRequired
	}
	if role.DisplayName == "" {
		return ErrRoleDisplayNameRequired
	}
	for module := range role.Permissions {
		if !model.IsValidModule(module) {
			return ErrInvalidModule
		}
	}
	return nil
}
