// Package repository 数据访问层
package repository

import (
	"context"
	"errors"

	"github.com/zhice-consulting/cms-backend/internal/model"
	"gorm.io/gorm"
)

var (
	ErrRoleNotFound       = errors.New("角色不存在")
	ErrRoleNameExists     = errors.New("角色标识已存在")
	ErrPermissionNotFound = errors.New("权限记录不存在")
)

// RoleRepository 角色仓库接口
type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	GetByID(ctx context.Context, id string) (*model.Role, error)
	GetByName(ctx context.Context, name string) (*model.Role, error)
	Update(ctx context.Context, role *model.Role) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*model.Role, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
}

// UserPermissionRepository 用户权限仓库接口
// 角色级联同步与按用户覆盖都落到这里。
type UserPermissionRepository interface {
	ListByUserID(ctx context.Context, userID string) ([]*model.UserPermission, error)
	GetByUserAndModule(ctx context.Context, userID, module string) (*model.UserPermission, error)
	// UpsertBatch 按模块插入或更新若干权限行，单事务执行，
	// 未提及的模块保持不变。
	UpsertBatch(ctx context.Context, userID string, perms []*model.UserPermission) error
	// ReplaceForUser 删除用户的全部权限行并写入新集合，单事务执行。
	// 用于角色重新分配时的全量重置。
	ReplaceForUser(ctx context.Context, userID string, perms []*model.UserPermission) error
	DeleteByUserID(ctx context.Context, userID string) error
}

// roleRepository 角色仓库实现
type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository 创建角色仓库
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	exists, err := r.ExistsByName(ctx, role.Name)
	if err != nil {
		return err
	}
	if exists {
		return ErrRoleNameExists
	}
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *roleRepository) GetByID(ctx context.Context, id string) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	result := r.db.WithContext(ctx).Save(role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoleNotFound
	}
	return nil
}

func (r *roleRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Role{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoleNotFound
	}
	return nil
}

func (r *roleRepository) List(ctx context.Context) ([]*model.Role, error) {
	var roles []*model.Role
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Role{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

// userPermissionRepository 用户权限仓库实现
type userPermissionRepository struct {
	db *gorm.DB
}

// NewUserPermissionRepository 创建用户权限仓库
func NewUserPermissionRepository(db *gorm.DB) UserPermissionRepository {
	return &userPermissionRepository{db: db}
}

func (r *userPermissionRepository) ListByUserID(ctx context.Context, userID string) ([]*model.UserPermission, error) {
	var perms []*model.UserPermission
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("module ASC").Find(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *userPermissionRepository) GetByUserAndModule(ctx context.Context, userID, module string) (*model.UserPermission, error) {
	var perm model.UserPermission
	err := r.db.WithContext(ctx).Where("user_id = ? AND module = ?", userID, module).First(&perm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, err
	}
	return &perm, nil
}

func (r *userPermissionRepository) UpsertBatch(ctx context.Context, userID string, perms []*model.UserPermission) error {
	if len(perms) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, perm := range perms {
			perm.UserID = userID
			var existing model.UserPermission
			err := tx.Where("user_id = ? AND module = ?", userID, perm.Module).First(&existing).Error
			if err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				if err := tx.Create(perm).Error; err != nil {
					return err
				}
				continue
			}
			existing.Enabled = perm.Enabled
			existing.CanRead = perm.CanRead
			existing.CanWrite = perm.CanWrite
			existing.CanDelete = perm.CanDelete
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *userPermissionRepository) ReplaceForUser(ctx context.Context, userID string, perms []*model.UserPermission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 硬删除旧行，避免软删除残留与唯一索引冲突
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&model.UserPermission{}).Error; err != nil {
			return err
		}
		for _, perm := range perms {
			perm.UserID = userID
			if err := tx.Create(perm).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *userPermissionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Unscoped().Where("user_id = ?", userID).Delete(&model.UserPermission{}).Error
}
