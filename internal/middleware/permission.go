// Package middleware 中间件
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/zhice-consulting/cms-backend/internal/service"
	"github.com/zhice-consulting/cms-backend/pkg/response"
)

// RequirePermission 权限检查中间件
// 检查当前用户对指定模块是否拥有指定动作的权限
func RequirePermission(permissionService service.PermissionService, module, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 获取用户 ID
		userID, exists := c.Get("user_id")
		if !exists {
			response.Error(c, response.CodeInvalidToken)
			c.Abort()
			return
		}

		// 检查权限
		allowed, err := permissionService.Authorize(c.Request.Context(), userID.(string), module, action)
		if err != nil {
			response.Error(c, response.CodeServerError)
			c.Abort()
			return
		}

		if !allowed {
			response.ErrorWithMsg(c, response.CodeForbidden, "没有权限执行此操作")
			c.Abort()
			return
		}

		c.Next()
	}
}

// LoadUserPermissions 加载用户权限到上下文
// 用于前端渲染菜单时一次性取回全部模块权限
func LoadUserPermissions(permissionService service.PermissionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.Next()
			return
		}

		permissions, err := permissionService.GetUserPermissions(c.Request.Context(), userID.(string))
		if err == nil {
			c.Set("permissions", permissions)
		}

		c.Next()
	}
}
