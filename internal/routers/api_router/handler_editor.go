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

// EditorHandler 自动保存编辑器 API 路由处理器
type EditorHandler struct {
	*Handler
}

// NewEditorHandler 创建 EditorHandler 实例
func NewEditorHandler(a *app.App) *EditorHandler {
	return &EditorHandler{Handler: NewHandler(a)}
}

// Open 打开编辑器
// @Router /api/editors [post]
func (h *EditorHandler) Open(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.EditorOpenRequest{}
	if !h.bind(c, "EditorHandler.Open", params) {
		return
	}

	ctx := c.Request.Context()
	state, err := h.App.EditorService.Open(ctx, middleware.ProfileFrom(c), params.NoteID)
	if err != nil {
		h.logError(ctx, c, "EditorHandler.Open", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(state))
}

// Change 提交草稿，防抖窗口结束后静默保存
// @Router /api/editors/{id} [put]
func (h *EditorHandler) Change(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.EditorChangeRequest{}
	if !h.bind(c, "EditorHandler.Change", params) {
		return
	}

	ctx := c.Request.Context()
	state, err := h.App.EditorService.Change(ctx, middleware.ProfileFrom(c), c.Param("id"), params.Draft())
	if err != nil {
		h.logError(ctx, c, "EditorHandler.Change", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(state))
}

// Save 立即保存
// @Router /api/editors/{id}/save [post]
func (h *EditorHandler) Save(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	note, err := h.App.EditorService.Save(ctx, middleware.ProfileFrom(c), c.Param("id"))
	if err != nil {
		h.logError(ctx, c, "EditorHandler.Save", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(dto.NewNoteDTO(note)))
}

// Close 保存未写入的草稿并关闭
// @Router /api/editors/{id} [delete]
func (h *EditorHandler) Close(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	state, err := h.App.EditorService.Close(ctx, middleware.ProfileFrom(c), c.Param("id"))
	if err != nil {
		h.logError(ctx, c, "EditorHandler.Close", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(state))
}
