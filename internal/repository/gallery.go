package repository

import (
	"context"
	"errors"

	"github.com/zhice-consulting/cms-backend/internal/model"
	"gorm.io/gorm"
)

var (
	ErrGalleryNotFound      = errors.New("图库不存在")
	ErrGalleryImageNotFound = errors.New("图片不存在")
)

// GalleryRepository 图库仓库接口
type GalleryRepository interface {
	Create(ctx context.Context, gallery *model.Gallery) error
	GetByID(ctx context.Context, id string) (*model.Gallery, error)
	Update(ctx context.Context, gallery *model.Gallery) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page *Pagination) ([]*model.Gallery, int64, error)
	AddImage(ctx context.Context, image *model.GalleryImage) error
	RemoveImage(ctx context.Context, imageID string) error
}

type galleryRepository struct {
	db *gorm.DB
}

// NewGalleryRepository 创建图库仓库
func NewGalleryRepository(db *gorm.DB) GalleryRepository {
	return &galleryRepository{db: db}
}

func (r *galleryRepository) Create(ctx context.Context, gallery *model.Gallery) error {
	return r.db.WithContext(ctx).Create(gallery).Error
}

func (r *galleryRepository) GetByID(ctx context.Context, id string) (*model.Gallery, error) {
	var gallery model.Gallery
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("gallery_images.sort_order ASC")
		}).
		Where("id = ?", id).First(&gallery).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGalleryNotFound
		}
		return nil, err
	}
	return &gallery, nil
}

func (r *galleryRepository) Update(ctx context.Context, gallery *model.Gallery) error {
	result := r.db.WithContext(ctx).Save(gallery)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGalleryNotFound
	}
	return nil
}

func (r *galleryRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("gallery_id = ?", id).Delete(&model.GalleryImage{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&model.Gallery{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrGalleryNotFound
		}
		return nil
	})
}

func (r *galleryRepository) List(ctx context.Context, page *Pagination) ([]*model.Gallery, int64, error) {
	var galleries []*model.Gallery
	var total int64
	query := r.db.WithContext(ctx).Model(&model.Gallery{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page != nil && page.Page > 0 && page.PageSize > 0 {
		offset := (page.Page - 1) * page.PageSize
		query = query.Offset(offset).Limit(page.PageSize)
	}
	if err := query.Preload("Images").Order("created_at DESC").Find(&galleries).Error; err != nil {
		return nil, 0, err
	}
	return galleries, total, nil
}

func (r *galleryRepository) AddImage(ctx context.Context, image *model.GalleryImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *galleryRepository) RemoveImage(ctx context.Context, imageID string) error {
	result := r.db.WithContext(ctx).Where("id = ?", imageID).Delete(&model.GalleryImage{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGalleryImageNotFound
	}
	return nil
}
