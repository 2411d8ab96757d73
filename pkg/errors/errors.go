// Package errors 统一的 HTTP 错误响应
package errors

import (
	"errors"
	"net/http"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/middleware"
	"github.com/haierkeys/preppal-study-sync/pkg/app"
	"github.com/haierkeys/preppal-study-sync/pkg/code"

	"github.com/gin-gonic/gin"
)

// AppError 统一应用错误结构体
// 包含错误码、消息、详情、追踪ID和时间戳
type AppError struct {
	// Code 错误码
	Code int `json:"code"`
	// Status 恒为 false，与成功响应的 Res 结构对齐
	Status bool `json:"status"`
	// Message 错误消息
	Message string `json:"message"`
	// Kind 错误分类
	Kind string `json:"kind"`
	// Details 错误详情（可选）
	Details []string `json:"details,omitempty"`
	// TraceID 请求追踪ID
	TraceID string `json:"traceId,omitempty"`
	// Cause 原始错误（不序列化到JSON）
	Cause error `json:"-"`
	// Timestamp 错误发生时间
	Timestamp time.Time `json:"timestamp"`

	httpStatus int
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap 实现 errors.Unwrap 接口，支持错误链路追踪
func (e *AppError) Unwrap() error {
	return e.Cause
}

// HTTPStatus 响应使用的 HTTP 状态码
func (e *AppError) HTTPStatus() int {
	if e.httpStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.httpStatus
}

// NewAppError 从 Code 对象创建 AppError
func NewAppError(c *code.Code, cause error, lang string) *AppError {
	return &AppError{
		Code:       c.Code(),
		Message:    c.MsgIn(lang),
		Kind:       c.Kind().String(),
		Details:    c.Details(),
		Cause:      cause,
		Timestamp:  time.Now(),
		httpStatus: c.StatusCode(),
	}
}

// FromError 将任意错误转换为 AppError，未知错误归为内部错误
func FromError(err error, lang string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var codeErr *code.Code
	if errors.As(err, &codeErr) {
		return NewAppError(codeErr, err, lang)
	}
	return NewAppError(code.ErrorServerInternal, err, lang)
}

// WithTraceID 设置 TraceID 并返回自身（链式调用）
func (e *AppError) WithTraceID(traceID string) *AppError {
	e.TraceID = traceID
	return e
}

// ErrorResponse 统一错误响应处理
// 从 gin.Context 获取 TraceID 和语言，将错误转换为 AppError 并返回 JSON 响应
func ErrorResponse(c *gin.Context, err error) {
	appErr := FromError(err, app.Lang(c)).WithTraceID(middleware.GetTraceIDFromGin(c))
	if appErr.Kind == code.KindInternal.String() && appErr.Cause != nil {
		_ = c.Error(appErr.Cause)
	}
	c.Set(app.StatusCodeKey, appErr.HTTPStatus())
	c.JSON(appErr.HTTPStatus(), appErr)
}

// IsAppError 检查错误是否为 AppError 类型
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}
