package model

// 操作日志类型常量
const (
	ActivityRoleCreated        = "role_created"        // 创建角色
	ActivityRoleUpdated        = "role_updated"        // 更新角色（含权限级联）
	ActivityRoleDeleted        = "role_deleted"        // 删除角色
	ActivityRoleAssigned       = "role_assigned"       // 为用户分配角色（权限重置）
	ActivityPermissionsUpdated = "permissions_updated" // 单独调整用户权限
	ActivityUserCreated        = "user_created"        // 创建用户
	ActivityUserUpdated        = "user_updated"        // 更新用户
	ActivityUserDeleted        = "user_deleted"        // 删除用户
	ActivityPostCreated        = "post_created"        // 创建文章
	ActivityPostUpdated        = "post_updated"        // 更新文章
	ActivityPostDeleted        = "post_deleted"        // 删除文章
	ActivityCategoryCreated    = "category_created"    // 创建分类
	ActivityCategoryUpdated    = "category_updated"    // 更新分类
	ActivityCategoryDeleted    = "category_deleted"    // 删除分类
	ActivityGalleryCreated     = "gallery_created"     // 创建图库
	ActivityGalleryUpdated     = "gallery_updated"     // 更新图库
	ActivityGalleryDeleted     = "gallery_deleted"     // 删除图库
	ActivityImageAdded         = "gallery_image_added"   // 图库添加图片
	ActivityImageRemoved       = "gallery_image_removed" // 图库移除图片
	ActivityLeadSubmitted      = "consultation_submitted" // 官网提交咨询
	ActivityLeadUpdated        = "consultation_updated"   // 更新咨询线索状态
	ActivityLeadDeleted        = "consultation_deleted"   // 删除咨询线索
)

// Activity 操作日志模型，追加写入，不可修改
type Activity struct {
	BaseModel
	Type        string `gorm:"type:varchar(50);index;not null" json:"type"`
	Description string `gorm:"type:varchar(500)" json:"description"`
	EntityType  string `gorm:"type:varchar(50);index" json:"entity_type"`
	EntityID    string `gorm:"type:char(36);index" json:"entity_id"`
	CreatedBy   string `gorm:"type:char(36)" json:"created_by,omitempty"` // 操作者用户 ID
}

// TableName 指定表名
func (Activity) TableName() string {
	return "activities"
}
