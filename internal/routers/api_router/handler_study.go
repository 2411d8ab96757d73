package api_router

import (
	"context"

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

// StudyHandler 学习会话 API 路由处理器
type StudyHandler struct {
	*Handler
}

// NewStudyHandler 创建 StudyHandler 实例
func NewStudyHandler(a *app.App) *StudyHandler {
	return &StudyHandler{Handler: NewHandler(a)}
}

type studyStep func(ctx context.Context, profile, id string) (*service.StudyView, error)

// step 对会话执行一次操作并返回最新视图
func (h *StudyHandler) step(c *gin.Context, method string, fn studyStep) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	v, err := fn(ctx, middleware.ProfileFrom(c), c.Param("id"))
	if err != nil {
		h.logError(ctx, c, method, err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(v))
}

// Start 以卡组开始新会话
// @Router /api/study [post]
func (h *StudyHandler) Start(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.StudyStartRequest{}
	if !h.bind(c, "StudyHandler.Start", params) {
		return
	}

	ctx := c.Request.Context()
	filter := service.CardFilter{Kind: domain.SourceKind(params.Kind), SourceID: params.Source}
	v, err := h.App.StudyService.Start(ctx, middleware.ProfileFrom(c), filter)
	if err != nil {
		h.logError(ctx, c, "StudyHandler.Start", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(v))
}

// Get 会话当前视图
// @Router /api/study/{id} [get]
func (h *StudyHandler) Get(c *gin.Context) {
	h.step(c, "StudyHandler.Get", h.App.StudyService.Get)
}

// Flip 翻面
// @Router /api/study/{id}/flip [post]
func (h *StudyHandler) Flip(c *gin.Context) {
	h.step(c, "StudyHandler.Flip", h.App.StudyService.Flip)
}

// Answer 作答并前进，累计统计经总线推送
// @Router /api/study/{id}/answer [post]
func (h *StudyHandler) Answer(c *gin.Context) {
	params := &dto.StudyAnswerRequest{}
	if !h.bind(c, "StudyHandler.Answer", params) {
		return
	}
	h.step(c, "StudyHandler.Answer", func(ctx context.Context, profile, id string) (*service.StudyView, error) {
		return h.App.StudyService.Answer(ctx, profile, id, *params.Correct)
	})
}

// Next 下一张
// @Router /api/study/{id}/next [post]
func (h *StudyHandler) Next(c *gin.Context) {
	h.step(c, "StudyHandler.Next", h.App.StudyService.Next)
}

// Back 上一张
// @Router /api/study/{id}/back [post]
func (h *StudyHandler) Back(c *gin.Context) {
	h.step(c, "StudyHandler.Back", h.App.StudyService.Back)
}

// Reset 重新开始
// @Router /api/study/{id}/reset [post]
func (h *StudyHandler) Reset(c *gin.Context) {
	h.step(c, "StudyHandler.Reset", h.App.StudyService.Reset)
}

// End 结束会话
// @Router /api/study/{id} [delete]
func (h *StudyHandler) End(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	if err := h.App.StudyService.End(ctx, middleware.ProfileFrom(c), c.Param("id")); err != nil {
		h.logError(ctx, c, "StudyHandler.End", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success)
}
