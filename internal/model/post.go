package model

import "time"

// 文章状态常量
const (
	PostStatusDraft     = "draft"     // 草稿
	PostStatusPublished = "published" // 已发布
)

// Post 文章模型
type Post struct {
	BaseModel
	Title         string     `gorm:"type:varchar(200);not null" json:"title"`
	Slug          string     `gorm:"type:varchar(200);uniqueIndex" json:"slug"`
	Excerpt       string     `gorm:"type:varchar(500)" json:"excerpt"`
	Content       string     `gorm:"type:text" json:"content"`
	CoverImageURL string     `gorm:"type:varchar(500)" json:"cover_image_url,omitempty"`
	CategoryID    string     `gorm:"type:char(36);index" json:"category_id,omitempty"`
	Status        string     `gorm:"type:varchar(20);default:draft" json:"status"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedBy     string     `gorm:"type:char(36)" json:"created_by,omitempty"`

	// 关联
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// TableName 指定表名
func (Post) TableName() string {
	return "posts"
}

// IsPublished 检查文章是否已发布
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// Category 文章分类
type Category struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Slug        string `gorm:"type:varchar(100);uniqueIndex" json:"slug"`
	Description string `gorm:"type:varchar(500)" json:"description"`
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}
