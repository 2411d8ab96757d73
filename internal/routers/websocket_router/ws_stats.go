package websocket_router

import (
	"context"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/app"
	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/internal/dto"
	pkgapp "github.com/haierkeys/preppal-study-sync/pkg/app"
	"github.com/haierkeys/preppal-study-sync/pkg/code"
	"github.com/haierkeys/preppal-study-sync/pkg/logger"

	"go.uber.org/zap"
)

// statsTimeout 单条 WebSocket 请求的处理上限
const statsTimeout = 10 * time.Second

// StatsWSHandler 累计统计实时推送
type StatsWSHandler struct {
	*WSHandler
}

// NewStatsWSHandler 创建 StatsWSHandler 实例
func NewStatsWSHandler(a *app.App) *StatsWSHandler {
	return &StatsWSHandler{WSHandler: NewWSHandler(a)}
}

// OnConnect 连接建立后推送当前统计，并订阅该档案后续的每次发布；连接关闭时取消订阅
func (h *StatsWSHandler) OnConnect(c *pkgapp.WebsocketClient) {
	unsubscribe := h.App.StatsService.Subscribe(c.Profile, func(st domain.StudyStats) {
		if err := c.Send(dto.WsActionStats, dto.NewStatsDTO(st)); err != nil {
			h.App.Logger().Debug("StatsWSHandler.push failed",
				zap.String(logger.FieldProfile, c.Profile),
				zap.Error(err),
			)
		}
	})
	c.OnClose(unsubscribe)

	h.StatsGet(c, nil)
}

// StatsGet 读取当前累计统计
func (h *StatsWSHandler) StatsGet(c *pkgapp.WebsocketClient, _ *pkgapp.WebSocketMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()

	st, err := h.App.StatsService.Load(ctx, c.Profile)
	if err != nil {
		h.logError(c, "StatsWSHandler.StatsGet", err)
		c.ToResponse(code.ErrorStorage.WithDetails(err.Error()), dto.WsActionStatsGet)
		return
	}
	c.ToResponse(code.Success.WithData(dto.NewStatsDTO(st)), dto.WsActionStatsGet)
}

// StatsReset 清零累计统计，清零后的快照经订阅推送
func (h *StatsWSHandler) StatsReset(c *pkgapp.WebsocketClient, _ *pkgapp.WebSocketMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()

	st, err := h.App.StatsService.Reset(ctx, c.Profile)
	if err != nil {
		h.logError(c, "StatsWSHandler.StatsReset", err)
		c.ToResponse(code.ErrorStorage.WithDetails(err.Error()), dto.WsActionStatsReset)
		return
	}
	c.ToResponse(code.Success.WithData(dto.NewStatsDTO(st)), dto.WsActionStatsReset)
}
