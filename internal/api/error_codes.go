// internal/api/error_codes.go
package api

import (
	stderrors "errors"
	"net/http"

	"github.com/Corphon/StoryboardMCP/internal/errors"
)

// API错误代码常量
const (
	// 通用错误
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorValidation    = "VALIDATION_ERROR"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorTimeout       = "TIMEOUT"
	ErrorRateLimited   = "RATE_LIMIT_EXCEEDED"

	// 分镜相关错误
	ErrorStoryboardNotFound  = "STORYBOARD_NOT_FOUND"
	ErrorScreenplayInvalid   = "SCREENPLAY_INVALID"
	ErrorUnsupportedPlatform = "UNSUPPORTED_PLATFORM"

	// 角色相关错误
	ErrorCharacterNotFound = "CHARACTER_NOT_FOUND"

	// 任务相关错误
	ErrorTaskNotFound = "TASK_NOT_FOUND"

	// 导出相关错误
	ErrorExportFormatInvalid = "EXPORT_FORMAT_INVALID"
)

// statusForError 把应用错误类型映射为 HTTP 状态码和错误代码
func statusForError(err error) (int, string) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return http.StatusInternalServerError, ErrorInternalError
	}

	switch appErr.Type {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest, ErrorValidation
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound, ErrorNotFound
	case errors.ErrorTypeUnsupportedPlatform:
		return http.StatusBadRequest, ErrorUnsupportedPlatform
	case errors.ErrorTypeTimeout:
		return http.StatusGatewayTimeout, ErrorTimeout
	default:
		return http.StatusInternalServerError, ErrorInternalError
	}
}
