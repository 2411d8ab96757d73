// Package websocket_router 提供 WebSocket 路由处理器
package websocket_router

import (
	"github.com/haierkeys/preppal-study-sync/internal/app"
	"github.com/haierkeys/preppal-study-sync/internal/middleware"
	pkgapp "github.com/haierkeys/preppal-study-sync/pkg/app"
	"github.com/haierkeys/preppal-study-sync/pkg/logger"

	"go.uber.org/zap"
)

// WSHandler WebSocket 基础 Handler 结构体，封装 App Container
type WSHandler struct {
	App *app.App
}

// NewWSHandler 创建 WebSocket 基础 Handler 实例
func NewWSHandler(a *app.App) *WSHandler {
	return &WSHandler{App: a}
}

// logError 记录错误日志，包含 Trace ID 与档案
func (h *WSHandler) logError(c *pkgapp.WebsocketClient, method string, err error) {
	h.App.Logger().Error(method,
		zap.String(logger.FieldTraceID, middleware.GetTraceIDFromGin(c.Ctx)),
		zap.String(logger.FieldProfile, c.Profile),
		zap.Error(err),
	)
}
