// Package handler HTTP 处理器
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/zhice-consulting/cms-backend/internal/model"
	"github.com/zhice-consulting/cms-backend/internal/service"
	"github.com/zhice-consulting/cms-backend/pkg/response"
)

// PermissionHandler 角色与权限处理器
type PermissionHandler struct {
	permissionService service.PermissionService
}

// NewPermissionHandler 创建角色与权限处理器
func NewPermissionHandler(permissionSvc service.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissionService: permissionSvc}
}

// PermissionGrantRequest 单模块授权
type PermissionGrantRequest struct {
	Read   bool `json:"read"`
	Write  bool `json:"write"`
	Delete bool `json:"delete"`
}

// CreateRoleRequest 创建角色请求
type CreateRoleRequest struct {
	Name        string                            `json:"name" binding:"required"`
	DisplayName string                            `json:"display_name" binding:"required"`
	Description string                            `json:"description"`
	Permissions map[string]PermissionGrantRequest `json:"permissions"`
}

// UpdateRoleRequest 更新角色请求
type UpdateRoleRequest struct {
	Name        string                            `json:"name"`
	DisplayName string                            `json:"display_name"`
	Description string                            `json:"description"`
	Permissions map[string]PermissionGrantRequest `json:"permissions"`
}

// UserPermissionRequest 单条用户权限行
type UserPermissionRequest struct {
	Module    string `json:"module" binding:"required"`
	Enabled   bool   `json:"enabled"`
	CanRead   bool   `json:"can_read"`
	CanWrite  bool   `json:"can_write"`
	CanDelete bool   `json:"can_delete"`
}

func toPermissionMap(in map[string]PermissionGrantRequest) model.PermissionMap {
	perms := model.PermissionMap{}
	for module, grant := range in {
		perms[module] = model.PermissionGrant{
			Read:   grant.Read,
			Write:  grant.Write,
			Delete: grant.Delete,
		}
	}
	return perms
}

// CreateRole 创建角色
// POST /api/v1/roles
func (h *PermissionHandler) CreateRole(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	role := &model.Role{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Permissions: toPermissionMap(req.Permissions),
	}

	if err := h.permissionService.CreateRole(c.Request.Context(), currentUserID(c), role); err != nil {
		switch err {
		case service.ErrRoleNameExists:
			response.Error(c, response.CodeRoleExists)
		case service.ErrRoleNameRequired, service.ErrRoleDisplayNameRequired, service.ErrInvalidModule:
			response.ErrorWithMsg(c, response.CodeInvalidRequest, err.Error())
		default:
			response.Error(c, response.CodeServerError)
		}
		return
	}

	response.Success(c, role)
}

// GetRole 获取角色详情
// GET /api/v1/roles/:id
func (h *PermissionHandler) GetRole(c *gin.Context) {
	id := c.Param("id")
	role, err := h.permissionService.GetRole(c.Request.Context(), id)
	if err != nil {
		response.Error(c, response.CodeRoleNotFound)
		return
	}
	response.Success(c, role)
}

// ListRoles 获取角色列表
// GET /api/v1/roles
func (h *PermissionHandler) ListRoles(c *gin.Context) {
	roles, err := h.permissionService.ListRoles(c.Request.Context())
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}
	response.Success(c, roles)
}

// UpdateRole 更新角色（权限变化会级联合并到持有该角色的用户）
// PUT /api/v1/roles/:id
func (h *PermissionHandler) UpdateRole(c *gin.Context) {
	id := c.Param("id")
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	role, err := h.permissionService.GetRole(c.Request.Context(), id)
	if err != nil {
		response.Error(c, response.CodeRoleNotFound)
		return
	}

	if req.Name != "" {
		role.Name = req.Name
	}
	if req.DisplayName != "" {
		role.DisplayName = req.DisplayName
	}
	if req.Description != "" {
		role.Description = req.Description
	}
	if req.Permissions != nil {
		role.Permissions = toPermissionMap(req.Permissions)
	}

	if err := h.permissionService.UpdateRole(c.Request.Context(), currentUserID(c), role); err != nil {
		switch err {
		case service.ErrSystemRoleImmutable:
			response.ErrorWithMsg(c, response.CodeForbidden, "系统角色不能重命名")
		case service.ErrInvalidModule:
			response.ErrorWithMsg(c, response.CodeInvalidRequest, err.Error())
		default:
			response.Error(c, response.CodeServerError)
		}
		return
	}

	response.Success(c, role)
}

// DeleteRole 删除角色
// DELETE /api/v1/roles/:id
func (h *PermissionHandler) DeleteRole(c *gin.Context) {
	id := c.Param("id")
	if err := h.permissionService.DeleteRole(c.Request.Context(), currentUserID(c), id); err != nil {
		switch err {
		case service.ErrRoleNotFound:
			response.Error(c, response.CodeRoleNotFound)
		case service.ErrSystemRoleImmutable:
			response.ErrorWithMsg(c, response.CodeForbidden, "系统角色不能删除")
		default:
			response.Error(c, response.CodeServerError)
		}
		return
	}
	response.Success(c, gin.H{"message": "删除成功"})
}

// AssignRole 为用户分配角色（权限行按角色默认值全量重置）
// POST /api/v1/users/:id/role
func (h *PermissionHandler) AssignRole(c *gin.Context) {
	userID := c.Param("id")
	var req struct {
		RoleID string `json:"role_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	user, err := h.permissionService.AssignRole(c.Request.Context(), currentUserID(c), userID, req.RoleID)
	if err != nil {
		switch err {
		case service.ErrUserNotFound:
			response.Error(c, response.CodeUserNotFound)
		case service.ErrRoleNotFound:
			response.Error(c, response.CodeRoleNotFound)
		default:
			response.Error(c, response.CodeServerError)
		}
		return
	}

	response.Success(c, user)
}

// GetUserPermissions 获取用户权限行
// GET /api/v1/users/:id/permissions
func (h *PermissionHandler) GetUserPermissions(c *gin.Context) {
	userID := c.Param("id")
	perms, err := h.permissionService.GetUserPermissions(c.Request.Context(), userID)
	if err != nil {
		if err == service.ErrUserNotFound {
			response.Error(c, response.CodeUserNotFound)
			return
		}
		response.Error(c, response.CodeServerError)
		return
	}
	response.Success(c, perms)
}

// SetUserPermissions 按模块调整用户权限（未提及的模块不受影响）
// PUT /api/v1/users/:id/permissions
func (h *PermissionHandler) SetUserPermissions(c *gin.Context) {
	userID := c.Param("id")
	var req struct {
		Permissions []UserPermissionRequest `json:"permissions" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	perms := make([]*model.UserPermission, len(req.Permissions))
	for i, p := range req.Permissions {
		perms[i] = &model.UserPermission{
			Module:    p.Module,
			Enabled:   p.Enabled,
			CanRead:   p.CanRead,
			CanWrite:  p.CanWrite,
			CanDelete: p.CanDelete,
		}
	}

	if err := h.permissionService.SetUserPermissions(c.Request.Context(), currentUserID(c), userID, perms); err != nil {
		switch err {
		case service.ErrUserNotFound:
			response.Error(c, response.CodeUserNotFound)
		case service.ErrInvalidModule:
			response.ErrorWithMsg(c, response.CodeInvalidRequest, err.Error())
		default:
			response.Error(c, response.CodeServerError)
		}
		return
	}

	response.Success(c, gin.H{"message": "权限更新成功"})
}

// CheckPermission 查询当前用户对某模块的操作权限
// GET /api/v1/auth/check?module=posts&action=write
func (h *PermissionHandler) CheckPermission(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		response.Error(c, response.CodeInvalidToken)
		return
	}

	module := c.Query("module")
	action := c.Query("action")

	allowed, err := h.permissionService.Authorize(c.Request.Context(), userID.(string), module, action)
	if err != nil {
		if err == service.ErrInvalidModule || err == service.ErrInvalidAction {
			response.ErrorWithMsg(c, response.CodeInvalidRequest, err.Error())
			return
		}
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, gin.H{
		"module":  module,
		"action":  action,
		"allowed": allowed,
	})
}

// GetMyPermissions 获取当前用户权限行
// GET /api/v1/auth/permissions
func (h *PermissionHandler) GetMyPermissions(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		response.Error(c, response.CodeInvalidToken)
		return
	}

	perms, err := h.permissionService.GetUserPermissions(c.Request.Context(), userID.(string))
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}
	response.Success(c, perms)
}

// currentUserID 从上下文取当前操作者 ID，用于审计记录
func currentUserID(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		return userID.(string)
	}
	return ""
}
