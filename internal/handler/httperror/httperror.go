// Package httperror 将服务层错误映射为HTTP状态码与统一的JSON错误体
package httperror

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/zhouzirui/z-apology/backend/internal/service/ai"
	chatService "github.com/zhouzirui/z-apology/backend/internal/service/chat"
	"github.com/zhouzirui/z-apology/backend/internal/service/session"
	"github.com/zhouzirui/z-apology/backend/pkg/utils"
)

const (
	KindValidation = "Validation Error"
	KindNotFound   = "Not Found"
	KindInternal   = "Internal Server Error"

	redactedMessage = "An unexpected error occurred"
)

// Responder 负责所有错误响应; 非开发环境下隐藏未分类错误的细节
type Responder struct {
	development bool
	logger      *zap.Logger
}

// NewResponder 创建错误响应器
func NewResponder(development bool, logger *zap.Logger) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{development: development, logger: logger.Named("http")}
}

// Write 根据错误类型写出响应
func (rp *Responder) Write(w http.ResponseWriter, r *http.Request, err error) {
	if gwErr, ok := ai.AsError(err); ok {
		status := StatusFor(gwErr)
		rp.logger.Warn("llm request failed",
			zap.String("path", r.URL.Path),
			zap.String("code", string(gwErr.Code)),
			zap.Int("status", status),
			zap.Error(gwErr.Cause))
		utils.RespondError(w, status, string(gwErr.Code), gwErr.Message)
		return
	}

	switch {
	case errors.Is(err, chatService.ErrMessageRequired),
		errors.Is(err, chatService.ErrSessionIDRequired),
		errors.Is(err, session.ErrInvalidRole):
		rp.Validation(w, err.Error())
		return
	case errors.Is(err, chatService.ErrSessionNotFound):
		rp.NotFound(w, "Session not found")
		return
	}

	rp.Internal(w, r, err)
}

// Validation 400
func (rp *Responder) Validation(w http.ResponseWriter, message string) {
	utils.RespondError(w, http.StatusBadRequest, KindValidation, message)
}

// NotFound 404
func (rp *Responder) NotFound(w http.ResponseWriter, message string) {
	utils.RespondError(w, http.StatusNotFound, KindNotFound, message)
}

// Internal 500, 非开发环境下消息被替换为通用文案
func (rp *Responder) Internal(w http.ResponseWriter, r *http.Request, err error) {
	rp.logger.Error("unhandled error", zap.String("path", r.URL.Path), zap.Error(err))

	message := redactedMessage
	if rp.development && err != nil {
		message = err.Error()
	}
	utils.RespondError(w, http.StatusInternalServerError, KindInternal, message)
}

// StatusFor 网关错误码到HTTP状态码的映射
func StatusFor(err *ai.Error) int {
	switch err.Code {
	case ai.CodeConnectionRefused:
		return http.StatusServiceUnavailable
	case ai.CodeTimeout:
		return http.StatusGatewayTimeout
	case ai.CodeAPIError:
		if err.StatusCode >= 100 && err.StatusCode <= 599 {
			return err.StatusCode
		}
		return http.StatusBadGateway
	case ai.CodeNetworkError:
		return http.StatusBadGateway
	case ai.CodeUnknownError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
