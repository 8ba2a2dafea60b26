// Package model 定义数据模型
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PermissionGrant 单个模块的授权三元组
type PermissionGrant struct {
	Read   bool `json:"read"`   // 可读取
	Write  bool `json:"write"`  // 可写入（创建/更新）
	Delete bool `json:"delete"` // 可删除
}

// PermissionMap 角色权限表：模块名 -> 授权三元组
// 稀疏结构，缺少模块键表示对该模块无任何授权。
// 整体以 JSON 存储在 roles 表的单列中。
type PermissionMap map[string]PermissionGrant

// Value 实现 driver.Valuer，序列化为 JSON 存储
func (p PermissionMap) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner，从 JSON 反序列化
func (p *PermissionMap) Scan(value interface{}) error {
	if value == nil {
		*p = PermissionMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("无法将 %T 解析为 PermissionMap", value)
	}
	if len(data) == 0 {
		*p = PermissionMap{}
		return nil
	}
	return json.Unmarshal(data, p)
}

// Role 角色模型
// Permissions 为各模块的默认授权；分配给用户后由同步逻辑
// 展开为 user_permissions 行。
type Role struct {
	BaseModel
	Name        string        `gorm:"type:varchar(50);uniqueIndex" json:"name"`       // 角色标识，如 admin, editor
	DisplayName string        `gorm:"type:varchar(100);not null" json:"display_name"` // 角色显示名称
	Description string        `gorm:"type:varchar(500)" json:"description"`           // 角色描述
	IsSystem    bool          `gorm:"default:false" json:"is_system"`                 // 是否系统内置角色（admin 始终全量授权）
	Permissions PermissionMap `gorm:"type:json" json:"permissions"`                   // 模块权限表
}

// TableName 指定表名
func (Role) TableName() string {
	return "roles"
}

// UserPermission 用户级模块权限
// (user_id, module) 唯一；既是角色默认值同步的落点，
// 也可被管理员按模块单独覆盖。
type UserPermission struct {
	BaseModel
	UserID    string `gorm:"type:char(36);not null;uniqueIndex:idx_user_module" json:"user_id"`
	Module    string `gorm:"type:varchar(50);not null;uniqueIndex:idx_user_module" json:"module"`
	Enabled   bool   `gorm:"default:false" json:"enabled"`    // 模块对该用户是否可见可用
	CanRead   bool   `gorm:"default:false" json:"can_read"`   // 可读取
	CanWrite  bool   `gorm:"default:false" json:"can_write"`  // 可写入
	CanDelete bool   `gorm:"default:false" json:"can_delete"` // 可删除
}

// TableName 指定表名
func (UserPermission) TableName() string {
	return "user_permissions"
}

// 权限操作
const (
	ActionRead   = "read"   // 读取
	ActionWrite  = "write"  // 写入
	ActionDelete = "delete" // 删除
)

// 系统功能模块（权限粒度单位），前后端共用的固定枚举
const (
	ModuleUsers         = "users"         // 用户管理
	ModuleRoles         = "roles"         // 角色管理
	ModulePosts         = "posts"         // 文章管理
	ModuleCategories    = "categories"    // 分类管理
	ModuleGalleries     = "galleries"     // 图库管理
	ModuleConsultations = "consultations" // 咨询线索
	ModuleActivities    = "activities"    // 操作日志
	ModuleSettings      = "settings"      // 系统设置
)

// AllModules 返回全部功能模块
func AllModules() []string {
	return []string{
		ModuleUsers,
		ModuleRoles,
		ModulePosts,
		ModuleCategories,
		ModuleGalleries,
		ModuleConsultations,
		ModuleActivities,
		ModuleSettings,
	}
}

// IsValidModule 检查模块名是否合法
func IsValidModule(module string) bool {
	for _, m := range AllModules() {
		if m == module {
			return true
		}
	}
	return false
}

// IsValidAction 检查操作名是否合法
func IsValidAction(action string) bool {
	return action == ActionRead || action == ActionWrite || action == ActionDelete
}

// Allows 检查用户权限行是否允许指定操作
func (p *UserPermission) Allows(action string) bool {
	if !p.Enabled {
		return false
	}
	switch action {
	case ActionRead:
		return p.CanRead
	case ActionWrite:
		return p.CanWrite
	case ActionDelete:
		return p.CanDelete
	default:
		return false
	}
}

// 系统内置角色
const (
	RoleAdmin  = "admin"  // 管理员，始终全量授权
	RoleEditor = "editor" // 编辑，内容模块读写
	RoleViewer = "viewer" // 访客，内容模块只读
)

// DefaultRoles 系统默认角色列表
func DefaultRoles() []Role {
	contentRW := PermissionMap{
		ModulePosts:      {Read: true, Write: true},
		ModuleCategories: {Read: true, Write: true},
		ModuleGalleries:  {Read: true, Write: true},
	}
	contentRO := PermissionMap{
		ModulePosts:      {Read: true},
		ModuleCategories: {Read: true},
		ModuleGalleries:  {Read: true},
	}
	return []Role{
		{
			Name:        RoleAdmin,
			DisplayName: "管理员",
			Description: "系统内置管理员，拥有所有模块的全部权限",
			IsSystem:    true,
			Permissions: PermissionMap{},
		},
		{
			Name:        RoleEditor,
			DisplayName: "编辑",
			Description: "管理文章、分类和图库内容",
			Permissions: contentRW,
		},
		{
			Name:        RoleViewer,
			DisplayName: "访客",
			Description: "只读查看内容模块",
			Permissions: contentRO,
		},
	}
}
