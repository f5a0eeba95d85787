// internal/api/response_helpers.go
package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/StoryboardMCP/internal/models"
	"github.com/Corphon/StoryboardMCP/internal/services"
	"github.com/Corphon/StoryboardMCP/internal/utils"
)

// APIResponse 标准API响应格式
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"` // 用于调试和追踪
}

// APIError 标准错误格式
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ResponseHelper 响应助手
type ResponseHelper struct {
	logger *utils.Logger
}

// NewResponseHelper 创建响应助手
func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{
		logger: utils.GetLogger().WithFields(map[string]interface{}{"component": "api"}),
	}
}

func (rh *ResponseHelper) write(c *gin.Context, status int, data interface{}, message []string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: c.GetString(requestIDKey),
	}
	if len(message) > 0 {
		response.Message = message[0]
	}
	c.JSON(status, response)
}

// Success 成功响应
func (rh *ResponseHelper) Success(c *gin.Context, data interface{}, message ...string) {
	rh.write(c, http.StatusOK, data, message)
}

// Created 创建成功响应
func (rh *ResponseHelper) Created(c *gin.Context, data interface{}, message ...string) {
	rh.write(c, http.StatusCreated, data, message)
}

// Accepted 异步任务已受理
func (rh *ResponseHelper) Accepted(c *gin.Context, data interface{}, message ...string) {
	rh.write(c, http.StatusAccepted, data, message)
}

// Error 错误响应
func (rh *ResponseHelper) Error(c *gin.Context, statusCode int, errorCode, message string, details ...string) {
	apiError := &APIError{
		Code:    errorCode,
		Message: message,
	}
	if len(details) > 0 {
		apiError.Details = details[0]
	}

	c.JSON(statusCode, &APIResponse{
		Success:   false,
		Error:     apiError,
		Timestamp: time.Now(),
		RequestID: c.GetString(requestIDKey),
	})
}

// BadRequest 400错误响应
func (rh *ResponseHelper) BadRequest(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusBadRequest, ErrorBadRequest, message, details...)
}

// NotFound 404错误响应
func (rh *ResponseHelper) NotFound(c *gin.Context, resource string, details ...string) {
	rh.Error(c, http.StatusNotFound, notFoundCode(resource), resource+" not found", details...)
}

// InternalError 500错误响应
func (rh *ResponseHelper) InternalError(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusInternalServerError, ErrorInternalError, message, details...)
}

// HandleError 按应用错误类型返回对应的状态码；资源名用于细化 not_found 的错误代码
func (rh *ResponseHelper) HandleError(c *gin.Context, err error, resource string) {
	status, code := statusForError(err)
	if code == ErrorNotFound && resource != "" {
		code = notFoundCode(resource)
	}

	if status >= http.StatusInternalServerError {
		rh.logger.Error("Request failed", map[string]interface{}{
			"path":   c.FullPath(),
			"error":  err.Error(),
			"status": status,
		})
	}
	rh.Error(c, status, code, err.Error())
}

// notFoundCode 根据资源类型生成错误代码
func notFoundCode(resource string) string {
	switch resource {
	case "storyboard":
		return ErrorStoryboardNotFound
	case "character":
		return ErrorCharacterNotFound
	case "task":
		return ErrorTaskNotFound
	default:
		return ErrorNotFound
	}
}

// FileResponse 文件下载响应
func (rh *ResponseHelper) FileResponse(c *gin.Context, content, filename, contentType string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", len(content)))
	c.Data(http.StatusOK, contentType, []byte(content))
}

// ExportResponse json 走标准响应，yaml 和 markdown 作为文件下载
func (rh *ResponseHelper) ExportResponse(c *gin.Context, result *models.ExportResult) {
	name := result.StoryboardID
	switch strings.ToLower(result.Format) {
	case services.ExportYAML:
		rh.FileResponse(c, result.Content, name+".yaml", "application/yaml; charset=utf-8")
	case services.ExportMarkdown:
		rh.FileResponse(c, result.Content, name+".md", "text/markdown; charset=utf-8")
	default:
		rh.Success(c, result, "export completed")
	}
}
