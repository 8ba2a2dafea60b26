package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/zhice-consulting/cms-backend/internal/model"
	"github.com/zhice-consulting/cms-backend/internal/repository"
	"github.com/zhice-consulting/cms-backend/internal/service"
	"github.com/zhice-consulting/cms-backend/pkg/response"
)

// ConsultationHandler 咨询线索处理器
type ConsultationHandler struct {
	consultationService service.ConsultationService
}

// NewConsultationHandler 创建咨询线索处理器
func NewConsultationHandler(consultationSvc service.ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{consultationService: consultationSvc}
}

// SubmitConsultationRequest 官网咨询表单
type SubmitConsultationRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Message string `json:"message"`
}

// Submit 提交咨询（公开，无需登录）
// POST /api/v1/public/consultations
func (h *ConsultationHandler) Submit(c *gin.Context) {
	var req SubmitConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	consultation := &model.Consultation{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		Message: req.Message,
	}

	if err := h.consultationService.Submit(c.Request.Context(), consultation); err != nil {
		switch err {
		case service.ErrConsultationNameEmpty, service.ErrConsultationEmailEmpty, service.ErrConsultationEmailFormat:
			response.ErrorWithMsg(c, response.CodeInvalidRequest, err.Error())
		default:
			response.Error(c, response.CodeServerError)
		}
		return
	}

	response.SuccessWithMsg(c, "提交成功，我们会尽快与您联系", gin.H{"id": consultation.ID})
}

// Get 获取线索详情
// GET /api/v1/consultations/:id
func (h *ConsultationHandler) Get(c *gin.Context) {
	consultation, err := h.consultationService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, response.CodeConsultationNotFound)
		return
	}
	response.Success(c, consultation)
}

// UpdateStatus 更新线索状态
// PUT /api/v1/consultations/:id/status
func (h *ConsultationHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	if err := h.consultationService.UpdateStatus(c.Request.Context(), currentUserID(c), c.Param("id"), req.Status); err != nil {
		switch err {
		case service.ErrConsultationNotFound:
			response.Error(c, response.CodeConsultationNotFound)
		case service.ErrConsultationBadStatus:
			response.ErrorWithMsg(c, response.CodeInvalidRequest, err.Error())
		default:
			response.Error(c, response.CodeServerError)
		}
		return
	}

	response.Success(c, gin.H{"message": "状态更新成功"})
}

// Delete 删除线索
// DELETE /api/v1/consultations/:id
func (h *ConsultationHandler) Delete(c *gin.Context) {
	if err := h.consultationService.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		if err == service.ErrConsultationNotFound {
			response.Error(c, response.CodeConsultationNotFound)
			return
		}
		response.Error(c, response.CodeServerError)
		return
	}
	response.Success(c, gin.H{"message": "删除成功"})
}

// List 获取线索列表
// GET /api/v1/consultations
func (h *ConsultationHandler) List(c *gin.Context) {
	filter := &repository.ConsultationFilter{
		Status: c.Query("status"),
		Email:  c.Query("email"),
	}
	page := pageFromQuery(c)

	consultations, total, err := h.consultationService.List(c.Request.Context(), filter, page)
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, gin.H{
		"list":      consultations,
		"total":     total,
		"page":      page.Page,
		"page_size": page.PageSize,
	})
}
