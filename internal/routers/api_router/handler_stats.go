package api_router

import (
	"github.com/haierkeys/preppal-study-sync/internal/app"
	"github.com/haierkeys/preppal-study-sync/internal/dto"
	"github.com/haierkeys/preppal-study-sync/internal/middleware"
	pkgapp "github.com/haierkeys/preppal-study-sync/pkg/app"
	"github.com/haierkeys/preppal-study-sync/pkg/code"
	apperrors "github.com/haierkeys/preppal-study-sync/pkg/errors"

	"github.com/gin-gonic/gin"
)

// StatsHandler 累计学习统计 API 路由处理器
type StatsHandler struct {
	*Handler
}

// NewStatsHandler 创建 StatsHandler 实例
func NewStatsHandler(a *app.App) *StatsHandler {
	return &StatsHandler{Handler: NewHandler(a)}
}

// Get 读取累计统计
// @Router /api/stats [get]
func (h *StatsHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	stats, err := h.App.StatsService.Load(ctx, middleware.ProfileFrom(c))
	if err != nil {
		h.logError(ctx, c, "StatsHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(dto.NewStatsDTO(stats)))
}

// Reset 清零累计统计，并推送给订阅者
// @Router /api/stats/reset [post]
func (h *StatsHandler) Reset(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	stats, err := h.App.StatsService.Reset(ctx, middleware.ProfileFrom(c))
	if err != nil {
		h.logError(ctx, c, "StatsHandler.Reset", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(dto.NewStatsDTO(stats)))
}
