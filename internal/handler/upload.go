package handler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zhice-consulting/cms-backend/pkg/response"
)

// UploadHandler 文件上传处理器（本地磁盘存储）
type UploadHandler struct {
	dir     string // 存储目录
	baseURL string // 访问前缀，如 /uploads
	maxSize int64  // 单文件大小上限（字节）
}

// 允许上传的图片扩展名
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

// NewUploadHandler 创建上传处理器
func NewUploadHandler(dir, baseURL string, maxSize int64) *UploadHandler {
	if maxSize <= 0 {
		maxSize = 10 << 20 // 默认 10MB
	}
	return &UploadHandler{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), maxSize: maxSize}
}

// Upload 上传图片
// POST /api/v1/upload
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "未找到上传文件")
		return
	}

	if file.Size > h.maxSize {
		response.ErrorWithMsg(c, response.CodeInvalidRequest,
			fmt.Sprintf("文件大小不能超过 %dMB", h.maxSize>>20))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		response.ErrorWithMsg(c, response.CodeInvalidFormat, "不支持的文件类型: "+ext)
		return
	}

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	// 随机文件名防止覆盖与路径穿越
	filename := uuid.New().String() + ext
	dst := filepath.Join(h.dir, filename)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, gin.H{
		"filename": filename,
		"url":      h.baseURL + "/" + filename,
		"size":     file.Size,
	})
}
