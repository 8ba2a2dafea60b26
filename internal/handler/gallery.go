package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/zhice-consulting/cms-backend/internal/model"
	"github.com/zhice-consulting/cms-backend/internal/service"
	"github.com/zhice-consulting/cms-backend/pkg/response"
)

// GalleryHandler 图库处理器
type GalleryHandler struct {
	galleryService service.GalleryService
}

// NewGalleryHandler 创建图库处理器
func NewGalleryHandler(gallerySvc service.GalleryService) *GalleryHandler {
	return &GalleryHandler{galleryService: gallerySvc}
}

// GalleryRequest 图库请求
type GalleryRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// GalleryImageRequest 图库图片请求
type GalleryImageRequest struct {
	URL       string `json:"url" binding:"required"`
	Caption   string `json:"caption"`
	SortOrder int    `json:"sort_order"`
}

// Create 创建图库
// POST /api/v1/galleries
func (h *GalleryHandler) Create(c *gin.Context) {
	var req GalleryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	gallery := &model.Gallery{
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   currentUserID(c),
	}

	if err := h.galleryService.Create(c.Request.Context(), gallery); err != nil {
		if err == service.ErrGalleryTitleRequired {
			response.ErrorWithMsg(c, response.CodeInvalidRequest, err.Error())
			return
		}
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, gallery)
}

// Get 获取图库详情（含图片，公开）
// GET /api/v1/public/galleries/:id
func (h *GalleryHandler) Get(c *gin.Context) {
	gallery, err := h.galleryService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, response.CodeGalleryNotFound)
		return
	}
	response.Success(c, gallery)
}

// Update 更新图库
// PUT /api/v1/galleries/:id
func (h *GalleryHandler) Update(c *gin.Context) {
	var req GalleryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	gallery := &model.Gallery{
		Title:       req.Title,
		Description: req.Description,
	}
	gallery.ID = c.Param("id")

	if err := h.galleryService.Update(c.Request.Context(), currentUserID(c), gallery); err != nil {
		if err == service.ErrGalleryNotFound {
			response.Error(c, response.CodeGalleryNotFound)
			return
		}
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, gallery)
}

// Delete 删除图库
// DELETE /api/v1/galleries/:id
func (h *GalleryHandler) Delete(c *gin.Context) {
	if err := h.galleryService.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		if err == service.ErrGalleryNotFound {
			response.Error(c, response.CodeGalleryNotFound)
			return
		}
		response.Error(c, response.CodeServerError)
		return
	}
	response.Success(c, gin.H{"message": "删除成功"})
}

// List 获取图库列表（公开）
// GET /api/v1/public/galleries
func (h *GalleryHandler) List(c *gin.Context) {
	page := pageFromQuery(c)

	galleries, total, err := h.galleryService.List(c.Request.Context(), page)
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, gin.H{
		"list":      galleries,
		"total":     total,
		"page":      page.Page,
		"page_size": page.PageSize,
	})
}

// AddImage 向图库添加图片
// POST /api/v1/galleries/:id/images
func (h *GalleryHandler) AddImage(c *gin.Context) {
	var req GalleryImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	image := &model.GalleryImage{
		URL:       req.URL,
		Caption:   req.Caption,
		SortOrder: req.SortOrder,
	}

	if err := h.galleryService.AddImage(c.Request.Context(), currentUserID(c), c.Param("id"), image); err != nil {
		switch err {
		case service.ErrGalleryNotFound:
			response.Error(c, response.CodeGalleryNotFound)
		case service.ErrImageURLRequired:
			response.ErrorWithMsg(c, response.CodeInvalidRequest, err.Error())
		default:
			response.Error(c, response.CodeServerError)
		}
		return
	}

	response.Success(c, image)
}

// RemoveImage 从图库移除图片
// DELETE /api/v1/galleries/:id/images/:image_id
func (h *GalleryHandler) RemoveImage(c *gin.Context) {
	if err := h.galleryService.RemoveImage(c.Request.Context(), currentUserID(c), c.Param("image_id")); err != nil {
		response.Error(c, response.CodeServerError)
		return
	}
	response.Success(c, gin.H{"message": "删除成功"})
}
