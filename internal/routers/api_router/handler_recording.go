package api_router

import (
	"github.com/haierkeys/preppal-study-sync/internal/app"
	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/internal/dto"
	"github.com/haierkeys/preppal-study-sync/internal/middleware"
	pkgapp "github.com/haierkeys/preppal-study-sync/pkg/app"
	"github.com/haierkeys/preppal-study-sync/pkg/code"
	"github.com/haierkeys/preppal-study-sync/pkg/convert"
	apperrors "github.com/haierkeys/preppal-study-sync/pkg/errors"

	"github.com/gin-gonic/gin"
)

// RecordingHandler 后端录音与测验 API 路由处理器
type RecordingHandler struct {
	*Handler
}

// NewRecordingHandler 创建 RecordingHandler 实例
func NewRecordingHandler(a *app.App) *RecordingHandler {
	return &RecordingHandler{Handler: NewHandler(a)}
}

// List 录音列表
// @Router /api/recordings [get]
func (h *RecordingHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	list, err := h.App.RecordingService.List(ctx)
	if err != nil {
		h.logError(ctx, c, "RecordingHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponseList(code.Success, list, len(list))
}

// Upload 上传音频，转写与摘要由后端完成
// multipart 字段: file, language, durationSec, useRag
// @Router /api/recordings [post]
func (h *RecordingHandler) Upload(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	fh, err := c.FormFile("file")
	if err != nil {
		response.ToResponse(code.ErrorInvalidParams.WithDetails("file"))
		return
	}
	if max := h.App.Config().GetUploadMaxSize(); fh.Size > max {
		response.ToResponse(code.ErrorInvalidParams.WithDetails("file exceeds upload-max-size"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(err.Error()))
		return
	}
	defer f.Close()

	req := domain.TranscribeRequest{
		Audio:    f,
		FileName: fh.Filename,
		Language: c.DefaultPostForm("language", "ja"),
		UseRAG:   c.PostForm("useRag") == "true",
	}
	if d, err := convert.StrTo(c.PostForm("durationSec")).Float64(); err == nil {
		req.DurationSec = &d
	}

	ctx := c.Request.Context()
	result, err := h.App.RecordingService.Upload(ctx, req)
	if err != nil {
		h.logError(ctx, c, "RecordingHandler.Upload", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(result))
}

// Import 将录音导入为本地笔记
// @Router /api/recordings/{id}/import [post]
func (h *RecordingHandler) Import(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	note, err := h.App.RecordingService.Import(ctx, middleware.ProfileFrom(c), c.Param("id"))
	if err != nil {
		h.logError(ctx, c, "RecordingHandler.Import", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(dto.NewNoteDTO(note)))
}

// UpdateTitle 修改录音标题
// @Router /api/recordings/{id}/title [post]
func (h *RecordingHandler) UpdateTitle(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.RecordingTitleRequest{}
	if !h.bind(c, "RecordingHandler.UpdateTitle", params) {
		return
	}

	ctx := c.Request.Context()
	if err := h.App.RecordingService.UpdateTitle(ctx, c.Param("id"), params.Title); err != nil {
		h.logError(ctx, c, "RecordingHandler.UpdateTitle", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success)
}

// CreateQuiz 以笔记内容在后端生成测验
// @Router /api/notes/{id}/quiz [post]
func (h *RecordingHandler) CreateQuiz(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteQuizRequest{}
	if !h.bind(c, "RecordingHandler.CreateQuiz", params) {
		return
	}

	ctx := c.Request.Context()
	quiz, err := h.App.RecordingService.CreateQuizFromNote(ctx, middleware.ProfileFrom(c), c.Param("id"), params.Category, params.Difficulty)
	if err != nil {
		h.logError(ctx, c, "RecordingHandler.CreateQuiz", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(quiz))
}

// ListQuizzes 测验列表
// @Router /api/quizzes [get]
func (h *RecordingHandler) ListQuizzes(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	list, err := h.App.RecordingService.ListQuizzes(ctx)
	if err != nil {
		h.logError(ctx, c, "RecordingHandler.ListQuizzes", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponseList(code.Success, list, len(list))
}

// GetQuiz 测验详情
// @Router /api/quizzes/{id} [get]
func (h *RecordingHandler) GetQuiz(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	quiz, err := h.App.RecordingService.GetQuiz(ctx, c.Param("id"))
	if err != nil {
		h.logError(ctx, c, "RecordingHandler.GetQuiz", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(quiz))
}
