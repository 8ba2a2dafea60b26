package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/zhice-consulting/cms-backend/internal/model"
	"github.com/zhice-consulting/cms-backend/internal/repository"
)

var (
	ErrPostNotFound      = errors.New("文章不存在")
	ErrPostTitleRequired = errors.New("文章标题不能为空")
	ErrPostSlugExists    = errors.New("文章别名已存在")
	ErrCategoryNotFound  = errors.New("分类不存在")
	ErrCategoryNameEmpty = errors.New("分类名称不能为空")
	ErrCategorySlugTaken = errors.New("分类别名已存在")
)

var slugStripRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify 把标题转成 URL 别名；非 ASCII 标题需要调用方显式给 slug
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugStripRegex.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ContentService 内容服务接口（文章与分类）
type ContentService interface {
	// 文章
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id string) (*model.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (*model.Post, error)
	UpdatePost(ctx context.Context, actorID string, post *model.Post) error
	DeletePost(ctx context.Context, actorID, id string) error
	ListPosts(ctx context.Context, filter *repository.PostFilter, page *repository.Pagination) ([]*model.Post, int64, error)
	// ListPublishedPosts 官网公开文章列表
	ListPublishedPosts(ctx context.Context, categoryID string, page *repository.Pagination) ([]*model.Post, int64, error)
	PublishPost(ctx context.Context, actorID, id string) error

	// 分类
	CreateCategory(ctx context.Context, actorID string, category *model.Category) error
	UpdateCategory(ctx context.Context, actorID string, category *model.Category) error
	DeleteCategory(ctx context.Context, actorID, id string) error
	ListCategories(ctx context.Context) ([]*model.Category, error)
}

type contentService struct {
	postRepo     repository.PostRepository
	categoryRepo repository.CategoryRepository
	recorder     ActivityRecorder
}

// NewContentService 创建内容服务
func NewContentService(postRepo repository.PostRepository, categoryRepo repository.CategoryRepository, recorder ActivityRecorder) ContentService {
	return &contentService{postRepo: postRepo, categoryRepo: categoryRepo, recorder: recorder}
}

// 文章

func (s *contentService) CreatePost(ctx context.Context, post *model.Post) error {
	post.Title = strings.TrimSpace(post.Title)
	if post.Title == "" {
		return ErrPostTitleRequired
	}
	if post.Slug == "" {
		post.Slug = Slugify(post.Title)
	}
	if post.Status == "" {
		post.Status = model.PostStatusDraft
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		if errors.Is(err, repository.ErrPostSlugExists) {
			return ErrPostSlugExists
		}
		return err
	}
	s.record(ctx, model.ActivityPostCreated, "创建文章 "+post.Title, post.ID, post.CreatedBy)
	return nil
}

func (s *contentService) GetPost(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *contentService) GetPostBySlug(ctx context.Context, slug string) (*model.Post, error) {
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *contentService) UpdatePost(ctx context.Context, actorID string, post *model.Post) error {
	if _, err := s.postRepo.GetByID(ctx, post.ID); err != nil {
		return ErrPostNotFound
	}
	post.Title = strings.TrimSpace(post.Title)
	if post.Title == "" {
		return ErrPostTitleRequired
	}
	if err := s.postRepo.Update(ctx, post); err != nil {
		return err
	}
	s.record(ctx, model.ActivityPostUpdated, "更新文章 "+post.Title, post.ID, actorID)
	return nil
}

func (s *contentService) DeletePost(ctx context.Context, actorID, id string) error {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return ErrPostNotFound
	}
	if err := s.postRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, model.ActivityPostDeleted, "删除文章 "+post.Title, id, actorID)
	return nil
}

func (s *contentService) ListPosts(ctx context.Context, filter *repository.PostFilter, page *repository.Pagination) ([]*model.Post, int64, error) {
	if page == nil {
		page = &repository.Pagination{Page: 1, PageSize: 20}
	}
	return s.postRepo.List(ctx, filter, page)
}

func (s *contentService) ListPublishedPosts(ctx context.Context, categoryID string, page *repository.Pagination) ([]*model.Post, int64, error) {
	filter := &repository.PostFilter{
		CategoryID: categoryID,
		Status:     model.PostStatusPublished,
	}
	return s.ListPosts(ctx, filter, page)
}

func (s *contentService) PublishPost(ctx context.Context, actorID, id string) error {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return ErrPostNotFound
	}
	if post.IsPublished() {
		return nil
	}
	now := time.Now()
	post.Status = model.PostStatusPublished
	post.PublishedAt = &now
	if err := s.postRepo.Update(ctx, post); err != nil {
		return err
	}
	s.record(ctx, model.ActivityPostUpdated, "发布文章 "+post.Title, id, actorID)
	return nil
}

// 分类

func (s *contentService) CreateCategory(ctx context.Context, actorID string, category *model.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return ErrCategoryNameEmpty
	}
	if category.Slug == "" {
		category.Slug = Slugify(category.Name)
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategorySlugExists) {
			return ErrCategorySlugTaken
		}
		return err
	}
	s.recordCategory(ctx, model.ActivityCategoryCreated, "创建分类 "+category.Name, category.ID, actorID)
	return nil
}

func (s *contentService) UpdateCategory(ctx context.Context, actorID string, category *model.Category) error {
	if _, err := s.categoryRepo.GetByID(ctx, category.ID); err != nil {
		return ErrCategoryNotFound
	}
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return ErrCategoryNameEmpty
	}
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return err
	}
	s.recordCategory(ctx, model.ActivityCategoryUpdated, "更新分类 "+category.Name, category.ID, actorID)
	return nil
}

func (s *contentService) DeleteCategory(ctx context.Context, actorID, id string) error {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return ErrCategoryNotFound
	}
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	s.recordCategory(ctx, model.ActivityCategoryDeleted, "删除分类 "+category.Name, id, actorID)
	return nil
}

func (s *contentService) ListCategories(ctx context.Context) ([]*model.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *contentService) record(ctx context.Context, activityType, description, entityID, actorID string) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, &model.Activity{
		Type:        activityType,
		Description: description,
		EntityType:  "post",
		EntityID:    entityID,
		CreatedBy:   actorID,
	})
}

func (s *contentService) recordCategory(ctx context.Context, activityType, description, entityID, actorID string) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, &model.Activity{
		Type:        activityType,
		Description: description,
		EntityType:  "category",
		EntityID:    entityID,
		CreatedBy:   actorID,
	})
}
