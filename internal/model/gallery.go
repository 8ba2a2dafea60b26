package model

// Gallery 图库模型（案例展示/作品集）
type Gallery struct {
	BaseModel
	Title       string `gorm:"type:varchar(200);not null" json:"title"`
	Description string `gorm:"type:varchar(500)" json:"description"`
	CreatedBy   string `gorm:"type:char(36)" json:"created_by,omitempty"`

	// 关联
	Images []GalleryImage `gorm:"foreignKey:GalleryID" json:"images,omitempty"`
}

// TableName 指定表名
func (Gallery) TableName() string {
	return "galleries"
}

// GalleryImage 图库图片
type GalleryImage struct {
	BaseModel
	GalleryID string `gorm:"type:char(36);index;not null" json:"gallery_id"`
	URL       string `gorm:"type:varchar(500);not null" json:"url"`
	Caption   string `gorm:"type:varchar(300)" json:"caption"`
	SortOrder int    `gorm:"default:0" json:"sort_order"`
}

// TableName 指定表名
func (GalleryImage) TableName() string {
	return "gallery_images"
}
