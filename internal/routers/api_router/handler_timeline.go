package api_router

import (
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/app"
	"github.com/haierkeys/preppal-study-sync/internal/dto"
	"github.com/haierkeys/preppal-study-sync/internal/middleware"
	"github.com/haierkeys/preppal-study-sync/internal/service"
	pkgapp "github.com/haierkeys/preppal-study-sync/pkg/app"
	"github.com/haierkeys/preppal-study-sync/pkg/code"
	apperrors "github.com/haierkeys/preppal-study-sync/pkg/errors"
	"github.com/haierkeys/preppal-study-sync/pkg/util"

	"github.com/gin-gonic/gin"
)

// TimelineHandler 复习时间线 API 路由处理器
type TimelineHandler struct {
	*Handler
}

// NewTimelineHandler 创建 TimelineHandler 实例
func NewTimelineHandler(a *app.App) *TimelineHandler {
	return &TimelineHandler{Handler: NewHandler(a)}
}

// List 按时间升序列出
// @Router /api/timeline [get]
func (h *TimelineHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	list, err := h.App.TimelineService.List(ctx, middleware.ProfileFrom(c))
	if err != nil {
		h.logError(ctx, c, "TimelineHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponseList(code.Success, dto.NewTimelineDTOList(list), len(list))
}

// Add 新增条目
// @Router /api/timeline [post]
func (h *TimelineHandler) Add(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.TimelineAddRequest{}
	if !h.bind(c, "TimelineHandler.Add", params) {
		return
	}

	ctx := c.Request.Context()
	entry, err := h.App.TimelineService.Add(ctx, middleware.ProfileFrom(c), service.TimelineInput{
		When:        params.When,
		Label:       params.Label,
		RecordingID: params.RecordingID,
		Email:       params.Email,
	})
	if err != nil {
		h.logError(ctx, c, "TimelineHandler.Add", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(dto.NewTimelineDTO(entry)))
}

// Done 完成并移除条目
// @Router /api/timeline/{id} [delete]
func (h *TimelineHandler) Done(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	if err := h.App.TimelineService.Done(ctx, middleware.ProfileFrom(c), c.Param("id")); err != nil {
		h.logError(ctx, c, "TimelineHandler.Done", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success)
}

// Review 根据目标日期安排下一次复习
// @Router /api/timeline/review [post]
func (h *TimelineHandler) Review(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.TimelineReviewRequest{}
	if !h.bind(c, "TimelineHandler.Review", params) {
		return
	}

	var goal *time.Time
	if params.GoalDate != "" {
		d, err := util.ParseDate(params.GoalDate, time.Local)
		if err != nil {
			apperrors.ErrorResponse(c, code.ErrorInvalidParams.WithDetails("goalDate: "+err.Error()))
			return
		}
		goal = &d
	}

	ctx := c.Request.Context()
	entry, err := h.App.TimelineService.ScheduleReview(ctx, middleware.ProfileFrom(c), service.ReviewRequest{
		RecordingID: params.RecordingID,
		Label:       params.Label,
		Email:       params.Email,
		GoalDate:    goal,
		Demo:        params.Demo,
	})
	if err != nil {
		h.logError(ctx, c, "TimelineHandler.Review", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(dto.NewTimelineDTO(entry)))
}
