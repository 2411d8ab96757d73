package api_router

import (
	"github.com/haierkeys/preppal-study-sync/internal/app"
	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/internal/dto"
	"github.com/haierkeys/preppal-study-sync/internal/middleware"
	"github.com/haierkeys/preppal-study-sync/internal/service"
	pkgapp "github.com/haierkeys/preppal-study-sync/pkg/app"
	"github.com/haierkeys/preppal-study-sync/pkg/code"
	apperrors "github.com/haierkeys/preppal-study-sync/pkg/errors"

	"github.com/gin-gonic/gin"
)

// CardHandler 闪卡卡组 API 路由处理器
type CardHandler struct {
	*Handler
}

// NewCardHandler 创建 CardHandler 实例
func NewCardHandler(a *app.App) *CardHandler {
	return &CardHandler{Handler: NewHandler(a)}
}

// List 列出卡片，可按来源过滤
// @Router /api/cards [get]
func (h *CardHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.CardListRequest{}
	if !h.bind(c, "CardHandler.List", params) {
		return
	}

	ctx := c.Request.Context()
	filter := service.CardFilter{Kind: domain.SourceKind(params.Kind), SourceID: params.Source}
	cards, err := h.App.DeckService.List(ctx, middleware.ProfileFrom(c), filter)
	if err != nil {
		h.logError(ctx, c, "CardHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponseList(code.Success, dto.NewCardDTOList(cards), len(cards))
}

// Rebuild 由来源文本重建该来源的卡片
// @Router /api/cards/rebuild [post]
func (h *CardHandler) Rebuild(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.CardRebuildRequest{}
	if !h.bind(c, "CardHandler.Rebuild", params) {
		return
	}

	ctx := c.Request.Context()
	cards, err := h.App.DeckService.RebuildForSource(ctx, middleware.ProfileFrom(c), params.Source())
	if err != nil {
		h.logError(ctx, c, "CardHandler.Rebuild", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(dto.CardRebuildResponse{
		Count: len(cards),
		Cards: dto.NewCardDTOList(cards),
	}))
}

// RebuildNotes 为所有笔记重建卡片
// @Router /api/cards/rebuild/notes [post]
func (h *CardHandler) RebuildNotes(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	n, err := h.App.DeckService.RebuildNotes(ctx, middleware.ProfileFrom(c))
	if err != nil {
		h.logError(ctx, c, "CardHandler.RebuildNotes", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(dto.CardRebuildResponse{Count: n}))
}

// RebuildRecordings 由所有后端录音摘要重建整个卡组
// @Router /api/cards/rebuild/recordings [post]
func (h *CardHandler) RebuildRecordings(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()
	done := h.App.TrackOperation()
	defer done()

	n, err := h.App.RecordingService.RebuildDeck(ctx, middleware.ProfileFrom(c))
	if err != nil {
		h.logError(ctx, c, "CardHandler.RebuildRecordings", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(dto.CardRebuildResponse{Count: n}))
}
