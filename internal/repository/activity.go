package repository

import (
	"context"

	"github.com/zhice-consulting/cms-backend/internal/model"
	"gorm.io/gorm"
)

// ActivityFilter 操作日志查询过滤器
type ActivityFilter struct {
	Type       string // 日志类型
	EntityType string // 实体类型
	CreatedBy  string // 操作者
}

// ActivityRepository 操作日志仓库接口，只追加不修改
type ActivityRepository interface {
	Create(ctx context.Context, activity *model.Activity) error
	List(ctx context.Context, filter *ActivityFilter, page *Pagination) ([]*model.Activity, int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository 创建操作日志仓库
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *model.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) List(ctx context.Context, filter *ActivityFilter, page *Pagination) ([]*model.Activity, int64, error) {
	var activities []*model.Activity
	var total int64
	query := r.db.WithContext(ctx).Model(&model.Activity{})
	if filter != nil {
		if filter.Type != "" {
			query = query.Where("type = ?", filter.Type)
		}
		if filter.EntityType != "" {
			query = query.Where("entity_type = ?", filter.EntityType)
		}
		if filter.CreatedBy != "" {
			query = query.Where("created_by = ?", filter.CreatedBy)
		}
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page != nil && page.Page > 0 && page.PageSize > 0 {
		offset := (page.Page - 1) * page.PageSize
		query = query.Offset(offset).Limit(page.PageSize)
	}
	if err := query.Order("created_at DESC").Find(&activities).Error; err != nil {
		return nil, 0, err
	}
	return activities, total, nil
}
