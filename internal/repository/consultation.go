package repository

import (
	"context"
	"errors"

	"github.com/zhice-consulting/cms-backend/internal/model"
	"gorm.io/gorm"
)

var ErrConsultationNotFound = errors.New("咨询线索不存在")

// ConsultationFilter 咨询线索查询过滤器
type ConsultationFilter struct {
	Status string // 状态
	Email  string // 邮箱（模糊匹配）
}

// ConsultationRepository 咨询线索仓库接口
type ConsultationRepository interface {
	Create(ctx context.Context, consultation *model.Consultation) error
	GetByID(ctx context.Context, id string) (*model.Consultation, error)
	Update(ctx context.Context, consultation *model.Consultation) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter *ConsultationFilter, page *Pagination) ([]*model.Consultation, int64, error)
}

type consultationRepository struct {
	db *gorm.DB
}

// NewConsultationRepository 创建咨询线索仓库
func NewConsultationRepository(db *gorm.DB) ConsultationRepository {
	return &consultationRepository{db: db}
}

func (r *consultationRepository) Create(ctx context.Context, consultation *model.Consultation) error {
	return r.db.WithContext(ctx).Create(consultation).Error
}

func (r *consultationRepository) GetByID(ctx context.Context, id string) (*model.Consultation, error) {
	var consultation model.Consultation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&consultation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConsultationNotFound
		}
		return nil, err
	}
	return &consultation, nil
}

func (r *consultationRepository) Update(ctx context.Context, consultation *model.Consultation) error {
	result := r.db.WithContext(ctx).Save(consultation)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConsultationNotFound
	}
	return nil
}

func (r *consultationRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Consultation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConsultationNotFound
	}
	return nil
}

func (r *consultationRepository) List(ctx context.Context, filter *ConsultationFilter, page *Pagination) ([]*model.Consultation, int64, error) {
	var consultations []*model.Consultation
	var total int64
	query := r.db.WithContext(ctx).Model(&model.Consultation{})
	if filter != nil {
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.Email != "" {
			query = query.Where("email LIKE ?", "%"+filter.Email+"%")
		}
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page != nil && page.Page > 0 && page.PageSize > 0 {
		offset := (page.Page - 1) * page.PageSize
		query = query.Offset(offset).Limit(page.PageSize)
	}
	if err := query.Order("created_at DESC").Find(&consultations).Error; err != nil {
		return nil, 0, err
	}
	return consultations, total, nil
}
