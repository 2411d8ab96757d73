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

// NoteHandler 笔记 API 路由处理器
// 使用 App Container 注入依赖，支持统一错误处理
type NoteHandler struct {
	*Handler
}

// NewNoteHandler 创建 NoteHandler 实例
func NewNoteHandler(a *app.App) *NoteHandler {
	return &NoteHandler{Handler: NewHandler(a)}
}

// List 获取笔记列表，置顶优先、按更新时间倒序
// @Router /api/notes [get]
func (h *NoteHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteListRequest{}
	if !h.bind(c, "NoteHandler.List", params) {
		return
	}

	ctx := c.Request.Context()
	notes, err := h.App.NoteService.List(ctx, middleware.ProfileFrom(c), params.Query)
	if err != nil {
		h.logError(ctx, c, "NoteHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponseList(code.Success, dto.NewNoteDTOList(notes), len(notes))
}

// Create 新建笔记
// @Router /api/notes [post]
func (h *NoteHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteCreateRequest{}
	if !h.bind(c, "NoteHandler.Create", params) {
		return
	}

	ctx := c.Request.Context()
	note, err := h.App.NoteService.Create(ctx, middleware.ProfileFrom(c), params.Draft())
	if err != nil {
		h.logError(ctx, c, "NoteHandler.Create", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(dto.NewNoteDTO(note)))
}

// Get 获取单条笔记
// @Router /api/notes/{id} [get]
func (h *NoteHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	note, err := h.App.NoteService.Get(ctx, middleware.ProfileFrom(c), c.Param("id"))
	if err != nil {
		h.logError(ctx, c, "NoteHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(dto.NewNoteDTO(note)))
}

// Update 更新笔记字段，缺省字段保持不变
// @Router /api/notes/{id} [put]
func (h *NoteHandler) Update(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteUpdateRequest{}
	if !h.bind(c, "NoteHandler.Update", params) {
		return
	}

	ctx := c.Request.Context()
	note, err := h.App.NoteService.Update(ctx, middleware.ProfileFrom(c), c.Param("id"), params.Patch())
	if err != nil {
		h.logError(ctx, c, "NoteHandler.Update", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(dto.NewNoteDTO(note)))
}

// Delete 删除笔记及其卡片
// @Router /api/notes/{id} [delete]
func (h *NoteHandler) Delete(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	if err := h.App.NoteService.Delete(ctx, middleware.ProfileFrom(c), c.Param("id")); err != nil {
		h.logError(ctx, c, "NoteHandler.Delete", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success)
}

// Versions 快照列表，最新在前
// @Router /api/notes/{id}/versions [get]
func (h *NoteHandler) Versions(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	versions, err := h.App.NoteService.Versions(ctx, middleware.ProfileFrom(c), c.Param("id"))
	if err != nil {
		h.logError(ctx, c, "NoteHandler.Versions", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponseList(code.Success, dto.NewNoteVersionDTOList(versions), len(versions))
}

// Restore 用快照覆盖当前正文
// @Router /api/notes/{id}/restore [post]
func (h *NoteHandler) Restore(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteRestoreRequest{}
	if !h.bind(c, "NoteHandler.Restore", params) {
		return
	}

	ctx := c.Request.Context()
	note, err := h.App.NoteService.RestoreVersion(ctx, middleware.ProfileFrom(c), c.Param("id"), params.VersionID)
	if err != nil {
		h.logError(ctx, c, "NoteHandler.Restore", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(dto.NewNoteDTO(note)))
}

// Diff 快照与当前正文的差异
// @Router /api/notes/{id}/diff [get]
func (h *NoteHandler) Diff(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteDiffRequest{}
	if !h.bind(c, "NoteHandler.Diff", params) {
		return
	}

	ctx := c.Request.Context()
	diff, err := h.App.NoteService.VersionDiff(ctx, middleware.ProfileFrom(c), c.Param("id"), params.VersionID)
	if err != nil {
		h.logError(ctx, c, "NoteHandler.Diff", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(diff))
}
