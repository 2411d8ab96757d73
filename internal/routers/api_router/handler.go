// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"context"

	"github.com/haierkeys/preppal-study-sync/internal/app"
	"github.com/haierkeys/preppal-study-sync/internal/middleware"
	pkgapp "github.com/haierkeys/preppal-study-sync/pkg/app"
	"github.com/haierkeys/preppal-study-sync/pkg/code"
	"github.com/haierkeys/preppal-study-sync/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 基础 Handler 结构体，封装 App Container
// 所有 API Handler 都应该嵌入此结构体以获得依赖注入能力
type Handler struct {
	App *app.App
}

// NewHandler 创建基础 Handler 实例
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// bind 参数绑定和验证，失败时直接输出参数错误
func (h *Handler) bind(c *gin.Context, method string, params any) bool {
	valid, errs := pkgapp.BindAndValid(c, params)
	if valid {
		return true
	}
	h.App.Logger().Warn(method+".BindAndValid err",
		zap.String(logger.FieldTraceID, middleware.GetTraceIDFromGin(c)),
		zap.Error(errs),
	)
	pkgapp.NewResponse(c).ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
	return false
}

// logError 记录错误日志，包含 Trace ID 与档案；校验与不存在类错误降级为 Debug
func (h *Handler) logError(ctx context.Context, c *gin.Context, method string, err error) {
	fields := []zap.Field{
		zap.String(logger.FieldTraceID, middleware.GetTraceID(ctx)),
		zap.String(logger.FieldProfile, middleware.ProfileFrom(c)),
		zap.Error(err),
	}
	if code.IsValidation(err) || code.IsNotFound(err) {
		h.App.Logger().Debug(method, fields...)
		return
	}
	h.App.Logger().Error(method, fields...)
}
