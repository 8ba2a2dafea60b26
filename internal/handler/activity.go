package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/zhice-consulting/cms-backend/internal/repository"
	"github.com/zhice-consulting/cms-backend/internal/service"
	"github.com/zhice-consulting/cms-backend/pkg/response"
)

// ActivityHandler 操作日志处理器
type ActivityHandler struct {
	activityService service.ActivityService
}

// NewActivityHandler 创建操作日志处理器
func NewActivityHandler(activitySvc service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activitySvc}
}

// List 查询操作日志
// GET /api/v1/activities
func (h *ActivityHandler) List(c *gin.Context) {
	filter := &repository.ActivityFilter{
		Type:       c.Query("type"),
		EntityType: c.Query("entity_type"),
		CreatedBy:  c.Query("created_by"),
	}
	page := pageFromQuery(c)

	activities, total, err := h.activityService.List(c.Request.Context(), filter, page)
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, gin.H{
		"list":      activities,
		"total":     total,
		"page":      page.Page,
		"page_size": page.PageSize,
	})
}
