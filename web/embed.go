// Package web 嵌入后台管理前端的构建产物并提供静态文件服务
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed dist/*
var embeddedFS embed.FS

// StaticMode 静态文件服务模式
type StaticMode string

const (
	// ModeEmbed 使用 go:embed 嵌入的文件
	ModeEmbed StaticMode = "embed"
	// ModeDisk 直接读取磁盘文件，开发时支持热更新
	ModeDisk StaticMode = "disk"
)

// 按扩展名判定的静态资源，其余 GET 路径交给 SPA 路由
var staticExt = map[string]bool{
	".js": true, ".css": true, ".map": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true, ".ico": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".json": true, ".xml": true, ".txt": true, ".html": true, ".htm": true,
}

// StaticConfig 静态文件服务配置
type StaticConfig struct {
	Mode      StaticMode
	DiskPath  string
	IndexFile string
	// APIPrefix 下的路径不做静态文件处理
	APIPrefix []string
}

// DefaultConfig 返回默认配置
func DefaultConfig() *StaticConfig {
	return &StaticConfig{
		Mode:      ModeEmbed,
		DiskPath:  "./web/dist",
		IndexFile: "index.html",
		APIPrefix: []string{"/api/", "/uploads/", "/health"},
	}
}

// StaticHandler 静态文件处理器
type StaticHandler struct {
	config *StaticConfig
	fs     http.FileSystem
}

// NewStaticHandler 创建静态文件处理器，config 为 nil 时使用默认配置
func NewStaticHandler(config *StaticConfig) *StaticHandler {
	if config == nil {
		config = DefaultConfig()
	}

	handler := &StaticHandler{config: config}
	if config.Mode == ModeDisk {
		handler.fs = http.Dir(config.DiskPath)
		return handler
	}

	subFS, err := fs.Sub(embeddedFS, "dist")
	if err != nil {
		// 构建产物未嵌入时回退到磁盘
		handler.fs = http.Dir(config.DiskPath)
		return handler
	}
	handler.fs = http.FS(subFS)
	return handler
}

// IsAPIPath 检查路径是否为 API 路径
func (h *StaticHandler) IsAPIPath(path string) bool {
	for _, prefix := range h.config.APIPrefix {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// IsStaticFile 检查路径是否为静态资源文件
func (h *StaticHandler) IsStaticFile(path string) bool {
	return staticExt[strings.ToLower(filepath.Ext(path))]
}

// ServeFile 服务单个文件，找不到时回退到首页供前端路由接管
func (h *StaticHandler) ServeFile(c *gin.Context, path string) {
	file, err := h.fs.Open(path)
	if err != nil {
		h.serveIndex(c)
		return
	}
	stat, statErr := file.Stat()
	file.Close()
	if statErr != nil || stat.IsDir() {
		h.serveIndex(c)
		return
	}
	c.FileFromFS(path, h.fs)
}

func (h *StaticHandler) serveIndex(c *gin.Context) {
	c.FileFromFS(h.config.IndexFile, h.fs)
}

// Middleware 返回静态资源中间件，只拦截带静态扩展名的 GET/HEAD 请求
func (h *StaticHandler) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if h.IsAPIPath(path) {
			c.Next()
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Next()
			return
		}
		if h.IsStaticFile(path) {
			h.ServeFile(c, path)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SPAHandler 返回兜底路由处理器，未匹配的 GET 请求都交给前端路由
func (h *StaticHandler) SPAHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if h.IsAPIPath(path) {
			c.JSON(http.StatusNotFound, gin.H{
				"code": 404,
				"msg":  "接口不存在",
			})
			return
		}
		if c.Request.Method != http.MethodGet {
			c.JSON(http.StatusMethodNotAllowed, gin.H{
				"code": 405,
				"msg":  "方法不允许",
			})
			return
		}
		h.serveIndex(c)
	}
}

// SetupRoutes 挂载静态资源中间件和 SPA 兜底路由
func (h *StaticHandler) SetupRoutes(router *gin.Engine) {
	router.Use(h.Middleware())
	router.NoRoute(h.SPAHandler())
}
