package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/zhice-consulting/cms-backend/internal/model"
	"github.com/zhice-consulting/cms-backend/internal/repository"
	"github.com/zhice-consulting/cms-backend/internal/service"
	"github.com/zhice-consulting/cms-backend/pkg/response"
)

// ContentHandler 内容处理器（文章与分类）
type ContentHandler struct {
	contentService service.ContentService
}

// NewContentHandler 创建内容处理器
func NewContentHandler(contentSvc service.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentSvc}
}

// CreatePostRequest 创建文章请求
type CreatePostRequest struct {
	Title         string `json:"title" binding:"required"`
	Slug          string `json:"slug"`
	Excerpt       string `json:"excerpt"`
	Content       string `json:"content"`
	CoverImageURL string `json:"cover_image_url"`
	CategoryID    string `json:"category_id"`
	Status        string `json:"status"`
}

// UpdatePostRequest 更新文章请求
type UpdatePostRequest struct {
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	Excerpt       string `json:"excerpt"`
	Content       string `json:"content"`
	CoverImageURL string `json:"cover_image_url"`
	CategoryID    string `json:"category_id"`
	Status        string `json:"status"`
}

// CategoryRequest 分类请求
type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// 后台文章管理

// CreatePost 创建文章
// POST /api/v1/posts
func (h *ContentHandler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	post := &model.Post{
		Title:         req.Title,
		Slug:          req.Slug,
		Excerpt:       req.Excerpt,
		Content:       req.Content,
		CoverImageURL: req.CoverImageURL,
		CategoryID:    req.CategoryID,
		Status:        req.Status,
		CreatedBy:     currentUserID(c),
	}

	if err := h.contentService.CreatePost(c.Request.Context(), post); err != nil {
		switch err {
		case service.ErrPostSlugExists:
			response.Error(c, response.CodeSlugExists)
		case service.ErrPostTitleRequired:
			response.ErrorWithMsg(c, response.CodeInvalidRequest, err.Error())
		default:
			response.Error(c, response.CodeServerError)
		}
		return
	}

	response.Success(c, post)
}

// GetPost 获取文章详情
// GET /api/v1/posts/:id
func (h *ContentHandler) GetPost(c *gin.Context) {
	post, err := h.contentService.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, response.CodePostNotFound)
		return
	}
	response.Success(c, post)
}

// UpdatePost 更新文章
// PUT /api/v1/posts/:id
func (h *ContentHandler) UpdatePost(c *gin.Context) {
	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	post, err := h.contentService.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, response.CodePostNotFound)
		return
	}

	if req.Title != "" {
		post.Title = req.Title
	}
	if req.Slug != "" {
		post.Slug = req.Slug
	}
	if req.Excerpt != "" {
		post.Excerpt = req.Excerpt
	}
	if req.Content != "" {
		post.Content = req.Content
	}
	if req.CoverImageURL != "" {
		post.CoverImageURL = req.CoverImageURL
	}
	if req.CategoryID != "" {
		post.CategoryID = req.CategoryID
	}
	if req.Status != "" {
		post.Status = req.Status
	}

	if err := h.contentService.UpdatePost(c.Request.Context(), currentUserID(c), post); err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, post)
}

// DeletePost 删除文章
// DELETE /api/v1/posts/:id
func (h *ContentHandler) DeletePost(c *gin.Context) {
	if err := h.contentService.DeletePost(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		if err == service.ErrPostNotFound {
			response.Error(c, response.CodePostNotFound)
			return
		}
		response.Error(c, response.CodeServerError)
		return
	}
	response.Success(c, gin.H{"message": "删除成功"})
}

// ListPosts 获取文章列表（后台，含草稿）
// GET /api/v1/posts
func (h *ContentHandler) ListPosts(c *gin.Context) {
	filter := &repository.PostFilter{
		CategoryID: c.Query("category_id"),
		Status:     c.Query("status"),
		Keyword:    c.Query("keyword"),
	}
	page := pageFromQuery(c)

	posts, total, err := h.contentService.ListPosts(c.Request.Context(), filter, page)
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, gin.H{
		"list":      posts,
		"total":     total,
		"page":      page.Page,
		"page_size": page.PageSize,
	})
}

// PublishPost 发布文章
// POST /api/v1/posts/:id/publish
func (h *ContentHandler) PublishPost(c *gin.Context) {
	if err := h.contentService.PublishPost(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		if err == service.ErrPostNotFound {
			response.Error(c, response.CodePostNotFound)
			return
		}
		response.Error(c, response.CodeServerError)
		return
	}
	response.Success(c, gin.H{"message": "发布成功"})
}

// 官网公开接口

// ListPublishedPosts 已发布文章列表
// GET /api/v1/public/posts
func (h *ContentHandler) ListPublishedPosts(c *gin.Context) {
	page := pageFromQuery(c)

	posts, total, err := h.contentService.ListPublishedPosts(c.Request.Context(), c.Query("category_id"), page)
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, gin.H{
		"list":      posts,
		"total":     total,
		"page":      page.Page,
		"page_size": page.PageSize,
	})
}

// GetPublishedPost 按别名获取已发布文章
// GET /api/v1/public/posts/:slug
func (h *ContentHandler) GetPublishedPost(c *gin.Context) {
	post, err := h.contentService.GetPostBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil || !post.IsPublished() {
		response.Error(c, response.CodePostNotFound)
		return
	}
	response.Success(c, post)
}

// 分类管理

// CreateCategory 创建分类
// POST /api/v1/categories
func (h *ContentHandler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	category := &model.Category{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	}

	if err := h.contentService.CreateCategory(c.Request.Context(), currentUserID(c), category); err != nil {
		switch err {
		case service.ErrCategorySlugTaken:
			response.Error(c, response.CodeSlugExists)
		case service.ErrCategoryNameEmpty:
			response.ErrorWithMsg(c, response.CodeInvalidRequest, err.Error())
		default:
			response.Error(c, response.CodeServerError)
		}
		return
	}

	response.Success(c, category)
}

// UpdateCategory 更新分类
// PUT /api/v1/categories/:id
func (h *ContentHandler) UpdateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	category := &model.Category{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	}
	category.ID = c.Param("id")

	if err := h.contentService.UpdateCategory(c.Request.Context(), currentUserID(c), category); err != nil {
		if err == service.ErrCategoryNotFound {
			response.Error(c, response.CodeCategoryNotFound)
			return
		}
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, category)
}

// DeleteCategory 删除分类
// DELETE /api/v1/categories/:id
func (h *ContentHandler) DeleteCategory(c *gin.Context) {
	if err := h.contentService.DeleteCategory(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		if err == service.ErrCategoryNotFound {
			response.Error(c, response.CodeCategoryNotFound)
			return
		}
		response.Error(c, response.CodeServerError)
		return
	}
	response.Success(c, gin.H{"message": "删除成功"})
}

// ListCategories 获取分类列表（公开）
// GET /api/v1/public/categories
func (h *ContentHandler) ListCategories(c *gin.Context) {
	categories, err := h.contentService.ListCategories(c.Request.Context())
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}
	response.Success(c, categories)
}
