package service

import (
	"context"
	"errors"
	"strings"

	"github.com/zhice-consulting/cms-backend/internal/model"
	"github.com/zhice-consulting/cms-backend/internal/repository"
)

var (
	ErrGalleryNotFound      = errors.New("图库不存在")
	ErrGalleryTitleRequired = errors.New("图库标题不能为空")
	ErrImageURLRequired     = errors.New("图片地址不能为空")
)

// GalleryService 图库服务接口
type GalleryService interface {
	Create(ctx context.Context, gallery *model.Gallery) error
	Get(ctx context.Context, id string) (*model.Gallery, error)
	Update(ctx context.Context, actorID string, gallery *model.Gallery) error
	Delete(ctx context.Context, actorID, id string) error
	List(ctx context.Context, page *repository.Pagination) ([]*model.Gallery, int64, error)
	AddImage(ctx context.Context, actorID, galleryID string, image *model.GalleryImage) error
	RemoveImage(ctx context.Context, actorID, imageID string) error
}

type galleryService struct {
	galleryRepo repository.GalleryRepository
	recorder    ActivityRecorder
}

// NewGalleryService 创建图库服务
func NewGalleryService(galleryRepo repository.GalleryRepository, recorder ActivityRecorder) GalleryService {
	return &galleryService{galleryRepo: galleryRepo, recorder: recorder}
}

func (s *galleryService) Create(ctx context.Context, gallery *model.Gallery) error {
	gallery.Title = strings.TrimSpace(gallery.Title)
	if gallery.Title == "" {
		return ErrGalleryTitleRequired
	}
	if err := s.galleryRepo.Create(ctx, gallery); err != nil {
		return err
	}
	s.record(ctx, model.ActivityGalleryCreated, "创建图库 "+gallery.Title, gallery.ID, gallery.CreatedBy)
	return nil
}

func (s *galleryService) Get(ctx context.Context, id string) (*model.Gallery, error) {
	gallery, err := s.galleryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrGalleryNotFound
	}
	return gallery, nil
}

func (s *galleryService) Update(ctx context.Context, actorID string, gallery *model.Gallery) error {
	if _, err := s.galleryRepo.GetByID(ctx, gallery.ID); err != nil {
		return ErrGalleryNotFound
	}
	gallery.Title = strings.TrimSpace(gallery.Title)
	if gallery.Title == "" {
		return ErrGalleryTitleRequired
	}
	if err := s.galleryRepo.Update(ctx, gallery); err != nil {
		return err
	}
	s.record(ctx, model.ActivityGalleryUpdated, "更新图库 "+gallery.Title, gallery.ID, actorID)
	return nil
}

func (s *galleryService) Delete(ctx context.Context, actorID, id string) error {
	gallery, err := s.galleryRepo.GetByID(ctx, id)
	if err != nil {
		return ErrGalleryNotFound
	}
	if err := s.galleryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrGalleryNotFound) {
			return ErrGalleryNotFound
		}
		return err
	}
	s.record(ctx, model.ActivityGalleryDeleted, "删除图库 "+gallery.Title, id, actorID)
	return nil
}

func (s *galleryService) List(ctx context.Context, page *repository.Pagination) ([]*model.Gallery, int64, error) {
	if page == nil {
		page = &repository.Pagination{Page: 1, PageSize: 20}
	}
	return s.galleryRepo.List(ctx, page)
}

func (s *galleryService) AddImage(ctx context.Context, actorID, galleryID string, image *model.GalleryImage) error {
	gallery, err := s.galleryRepo.GetByID(ctx, galleryID)
	if err != nil {
		return ErrGalleryNotFound
	}
	if strings.TrimSpace(image.URL) == "" {
		return ErrImageURLRequired
	}
	image.GalleryID = galleryID
	if err := s.galleryRepo.AddImage(ctx, image); err != nil {
		return err
	}
	s.record(ctx, model.ActivityImageAdded, "向图库 "+gallery.Title+" 添加图片", galleryID, actorID)
	return nil
}

func (s *galleryService) RemoveImage(ctx context.Context, actorID, imageID string) error {
	if err := s.galleryRepo.RemoveImage(ctx, imageID); err != nil {
		return err
	}
	s.record(ctx, model.ActivityImageRemoved, "移除图库图片", imageID, actorID)
	return nil
}

func (s *galleryService) record(ctx context.Context, activityType, description, entityID, actorID string) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, &model.Activity{
		Type:        activityType,
		Description: description,
		EntityType:  "gallery",
		EntityID:    entityID,
		CreatedBy:   actorID,
	})
}
