package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zhice-consulting/cms-backend/internal/model"
	"github.com/zhice-consulting/cms-backend/internal/repository"
	"github.com/zhice-consulting/cms-backend/internal/service"
	"github.com/zhice-consulting/cms-backend/pkg/response"
)

// UserHandler 用户处理器
type UserHandler struct {
	userService       service.UserService
	permissionService service.PermissionService
}

// NewUserHandler 创建用户处理器
func NewUserHandler(userSvc service.UserService, permissionSvc service.PermissionService) *UserHandler {
	return &UserHandler{userService: userSvc, permissionService: permissionSvc}
}

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=50"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	RoleID    string `json:"role_id"`
}

// UpdateUserRequest 更新用户请求
type UpdateUserRequest struct {
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Status          string `json:"status"`
	ProfileImageURL string `json:"profile_image_url"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// pageFromQuery 从查询串解析分页参数
func pageFromQuery(c *gin.Context) *repository.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return &repository.Pagination{Page: page, PageSize: pageSize}
}

// Create 创建用户
// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	user := &model.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Status:    model.StatusActive,
		CreatedBy: currentUserID(c),
	}

	if err := h.userService.Create(c.Request.Context(), user, req.Password); err != nil {
		switch err {
		case repository.ErrUserUsernameExists:
			response.Error(c, response.CodeUserExists)
		case repository.ErrUserEmailExists:
			response.Error(c, response.CodeEmailExists)
		case service.ErrUsernameInvalid, service.ErrUsernameTooShort, service.ErrEmailInvalid, service.ErrPasswordTooShort:
			response.ErrorWithMsg(c, response.CodeInvalidRequest, err.Error())
		default:
			response.Error(c, response.CodeServerError)
		}
		return
	}

	// 指定了角色则立即分配并按角色默认值初始化权限行
	if req.RoleID != "" {
		assigned, err := h.permissionService.AssignRole(c.Request.Context(), currentUserID(c), user.ID, req.RoleID)
		if err != nil {
			if err == service.ErrRoleNotFound {
				response.Error(c, response.CodeRoleNotFound)
				return
			}
			response.Error(c, response.CodeServerError)
			return
		}
		user = assigned
	}

	response.Success(c, user)
}

// Get 获取用户详情
// GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id := c.Param("id")
	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, response.CodeUserNotFound)
		return
	}
	response.Success(c, user)
}

// Update 更新用户
// PUT /api/v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id := c.Param("id")
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, response.CodeUserNotFound)
		return
	}

	if req.Email != "" {
		user.Email = req.Email
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Status != "" {
		user.Status = req.Status
	}
	if req.ProfileImageURL != "" {
		user.ProfileImageURL = req.ProfileImageURL
	}

	if err := h.userService.Update(c.Request.Context(), user); err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, user)
}

// Delete 删除用户
// DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	// 不允许删除自己
	if id == currentUserID(c) {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "不能删除当前登录用户")
		return
	}

	if err := h.userService.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		if err == repository.ErrUserNotFound {
			response.Error(c, response.CodeUserNotFound)
			return
		}
		response.Error(c, response.CodeServerError)
		return
	}
	response.Success(c, gin.H{"message": "删除成功"})
}

// List 获取用户列表
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	filter := &repository.UserFilter{
		Username: c.Query("username"),
		Email:    c.Query("email"),
		RoleID:   c.Query("role_id"),
		Status:   c.Query("status"),
	}
	page := pageFromQuery(c)

	users, total, err := h.userService.List(c.Request.Context(), filter, page)
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, gin.H{
		"list":      users,
		"total":     total,
		"page":      page.Page,
		"page_size": page.PageSize,
	})
}

// ChangePassword 修改当前用户密码
// PUT /api/v1/auth/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		response.Error(c, response.CodeInvalidToken)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), userID.(string), req.OldPassword, req.NewPassword); err != nil {
		switch err {
		case service.ErrPasswordIncorrect:
			response.ErrorWithMsg(c, response.CodeInvalidCredentials, "原密码错误")
		case service.ErrPasswordTooShort:
			response.ErrorWithMsg(c, response.CodeInvalidRequest, err.Error())
		default:
			response.Error(c, response.CodeServerError)
		}
		return
	}

	response.Success(c, gin.H{"message": "密码修改成功"})
}
