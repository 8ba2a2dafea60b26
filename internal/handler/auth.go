package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/zhice-consulting/cms-backend/internal/model"
	"github.com/zhice-consulting/cms-backend/internal/service"
	"github.com/zhice-consulting/cms-backend/pkg/response"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	userService       service.UserService
	tokenService      service.TokenService
	sessionService    service.SessionService
	permissionService service.PermissionService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(
	userSvc service.UserService,
	tokenSvc service.TokenService,
	sessionSvc service.SessionService,
	permissionSvc service.PermissionService,
) *AuthHandler {
	return &AuthHandler{
		userService:       userSvc,
		tokenService:      tokenSvc,
		sessionService:    sessionSvc,
		permissionService: permissionSvc,
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Login    string `json:"login" binding:"required"` // 用户名或邮箱
	Password string `json:"password" binding:"required"`
}

// TokenResponse 令牌响应
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // 秒
}

// Login 后台登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		switch err {
		case service.ErrPasswordIncorrect:
			response.Error(c, response.CodeInvalidCredentials)
		case service.ErrUserSuspended:
			response.Error(c, response.CodeAccountSuspended)
		case service.ErrUserInactive:
			response.Error(c, response.CodeAccountInactive)
		default:
			response.Error(c, response.CodeServerError)
		}
		return
	}

	// 创建会话
	session := &model.Session{
		UserID:    user.ID,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if err := h.sessionService.Create(c.Request.Context(), session); err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	// 生成令牌
	claims := &service.TokenClaims{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		SessionID: session.ID,
	}

	accessToken, err := h.tokenService.GenerateAccessToken(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	refreshToken, err := h.tokenService.GenerateRefreshToken(c.Request.Context(), &service.TokenClaims{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		SessionID: session.ID,
	})
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, gin.H{
		"token": TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    int(service.DefaultAccessExpiry.Seconds()),
		},
		"user": user,
	})
}

// RefreshToken 刷新令牌
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.CodeInvalidRequest)
		return
	}

	// 验证刷新令牌
	claims, err := h.tokenService.ValidateToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, response.CodeInvalidToken)
		return
	}

	if claims.Type != "refresh" {
		response.Error(c, response.CodeInvalidToken)
		return
	}

	// 会话必须仍然有效
	if _, err := h.sessionService.Get(c.Request.Context(), claims.SessionID); err != nil {
		response.Error(c, response.CodeInvalidToken)
		return
	}

	// 撤销旧的刷新令牌（轮换）
	h.tokenService.RevokeToken(c.Request.Context(), req.RefreshToken)

	newClaims := &service.TokenClaims{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Email:     claims.Email,
		SessionID: claims.SessionID,
	}

	accessToken, err := h.tokenService.GenerateAccessToken(c.Request.Context(), newClaims)
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}
	refreshToken, err := h.tokenService.GenerateRefreshToken(c.Request.Context(), &service.TokenClaims{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Email:     claims.Email,
		SessionID: claims.SessionID,
	})
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(service.DefaultAccessExpiry.Seconds()),
	})
}

// Logout 登出
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	// 撤销当前访问令牌
	token := c.GetHeader("Authorization")
	if len(token) > 7 && token[:7] == "Bearer " {
		h.tokenService.RevokeToken(c.Request.Context(), token[7:])
	}

	// 删除会话
	if sessionID, exists := c.Get("session_id"); exists {
		if id, ok := sessionID.(string); ok && id != "" {
			h.sessionService.Delete(c.Request.Context(), id)
		}
	}

	response.Success(c, gin.H{"message": "登出成功"})
}

// GetCurrentUser 获取当前用户信息及其模块权限
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	// 从上下文获取用户 ID（由认证中间件设置）
	userID, exists := c.Get("user_id")
	if !exists {
		response.Error(c, response.CodeInvalidToken)
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID.(string))
	if err != nil {
		response.Error(c, response.CodeUserNotFound)
		return
	}

	permissions, err := h.permissionService.GetUserPermissions(c.Request.Context(), user.ID)
	if err != nil {
		permissions = nil
	}

	response.Success(c, gin.H{
		"id":                user.ID,
		"username":          user.Username,
		"email":             user.Email,
		"first_name":        user.FirstName,
		"last_name":         user.LastName,
		"role":              user.Role,
		"status":            user.Status,
		"profile_image_url": user.ProfileImageURL,
		"permissions":       permissions,
		"created_at":        user.CreatedAt,
	})
}
