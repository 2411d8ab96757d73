package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/haierkeys/preppal-study-sync/internal/backend"
	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/pkg/code"
	"github.com/haierkeys/preppal-study-sync/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// fetchConcurrency 重建卡组时并发拉取录音详情的上限
const fetchConcurrency = 4

// RecordingService 定义后端录音与测验服务接口
type RecordingService interface {
	// Upload 上传音频并获取转写与摘要
	Upload(ctx context.Context, req domain.TranscribeRequest) (*domain.TranscribeResult, error)

	// List 录音列表
	List(ctx context.Context) ([]domain.RecordingLight, error)

	// Get 录音详情
	Get(ctx context.Context, id string) (*domain.Recording, error)

	// UpdateTitle 修改录音标题
	UpdateTitle(ctx context.Context, id, title string) error

	// Import 将录音导入为本地笔记
	Import(ctx context.Context, profile, id string) (*domain.Note, error)

	// RebuildDeck 由所有录音摘要重建整个卡组
	RebuildDeck(ctx context.Context, profile string) (int, error)

	// CreateQuizFromNote 以笔记内容在后端生成测验
	CreateQuizFromNote(ctx context.Context, profile, noteID, category, difficulty string) (*domain.QuizLight, error)

	// ListQuizzes 测验列表
	ListQuizzes(ctx context.Context) ([]domain.QuizLight, error)

	// GetQuiz 测验详情
	GetQuiz(ctx context.Context, id string) (*domain.Quiz, error)
}

// recordingService 实现 RecordingService 接口
type recordingService struct {
	remote domain.RemoteClient
	notes  NoteService
	deck   DeckService
	logger *zap.Logger
}

// NewRecordingService 创建 RecordingService 实例
func NewRecordingService(remote domain.RemoteClient, notes NoteService, deck DeckService, lg *zap.Logger) RecordingService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &recordingService{remote: remote, notes: notes, deck: deck, logger: lg}
}

// remoteError 将后端错误映射为业务错误码
func remoteError(err error, id string) error {
	if err == nil {
		return nil
	}
	var c *code.Code
	if errors.As(err, &c) {
		return err
	}
	var re *backend.RemoteError
	if errors.As(err, &re) && re.StatusCode == http.StatusNotFound && id != "" {
		return code.ErrorSourceNotFound.WithDetails(id)
	}
	return code.ErrorRemote.WithDetails(err.Error())
}

// Upload 上传音频
func (s *recordingService) Upload(ctx context.Context, req domain.TranscribeRequest) (*domain.TranscribeResult, error) {
	if req.Audio == nil {
		return nil, code.ErrorInvalidParams.WithDetails("audio is required")
	}
	res, err := s.remote.TranscribeAndSummarize(ctx, req)
	return res, remoteError(err, "")
}

// List 录音列表
func (s *recordingService) List(ctx context.Context) ([]domain.RecordingLight, error) {
	list, err := s.remote.ListRecordings(ctx)
	return list, remoteError(err, "")
}

// Get 录音详情
func (s *recordingService) Get(ctx context.Context, id string) (*domain.Recording, error) {
	rec, err := s.remote.GetRecording(ctx, id)
	return rec, remoteError(err, id)
}

// UpdateTitle 修改录音标题
func (s *recordingService) UpdateTitle(ctx context.Context, id, title string) error {
	if strings.TrimSpace(title) == "" {
		return code.ErrorInvalidParams.WithDetails("title is required")
	}
	return remoteError(s.remote.UpdateRecordingTitle(ctx, id, title), id)
}

// ImportDraft 由录音生成笔记草稿：标题 "From: <录音标题>"，正文优先摘要，其次转写
func ImportDraft(rec *domain.Recording) domain.NoteDraft {
	title := "From Recording"
	if t := strings.TrimSpace(rec.Title); t != "" {
		title = "From: " + t
	}
	body := rec.Summary
	if strings.TrimSpace(body) == "" {
		body = rec.Transcript
	}
	return domain.NoteDraft{Title: title, Body: body, RecordingID: rec.ID}
}

// Import 将录音导入为本地笔记
func (s *recordingService) Import(ctx context.Context, profile, id string) (*domain.Note, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return s.notes.Create(ctx, profile, ImportDraft(rec))
}

// RebuildDeck 并发拉取所有录音摘要后整体重建卡组
func (s *recordingService) RebuildDeck(ctx context.Context, profile string) (int, error) {
	list, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	sources := make([]domain.Source, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, item := range list {
		g.Go(func() error {
			rec, err := s.remote.GetRecording(gctx, item.ID)
			if err != nil {
				return remoteError(err, item.ID)
			}
			sources[i] = domain.RecordingSource(item.ID, rec.Summary)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	cards, err := s.deck.RebuildAll(ctx, profile, sources)
	if err != nil {
		return 0, err
	}
	s.logger.Info("deck rebuilt from recordings",
		zap.String(logger.FieldProfile, profile),
		zap.Int("recordings", len(list)),
		zap.Int("cards", len(cards)),
	)
	return len(cards), nil
}

// CreateQuizFromNote 以笔记生成测验
func (s *recordingService) CreateQuizFromNote(ctx context.Context, profile, noteID, category, difficulty string) (*domain.QuizLight, error) {
	n, err := s.notes.Get(ctx, profile, noteID)
	if err != nil {
		return nil, err
	}
	title := n.Title
	if strings.TrimSpace(title) == "" {
		title = "Note Quiz"
	}
	quiz, err := s.remote.CreateQuizFromSummary(ctx, domain.QuizFromSummaryRequest{
		RecordingID: n.RecordingID,
		Title:       title,
		Summary:     n.Body,
		Category:    category,
		Difficulty:  difficulty,
	})
	return quiz, remoteError(err, "")
}

// ListQuizzes 测验列表
func (s *recordingService) ListQuizzes(ctx context.Context) ([]domain.QuizLight, error) {
	list, err := s.remote.ListQuizzes(ctx)
	return list, remoteError(err, "")
}

// GetQuiz 测验详情
func (s *recordingService) GetQuiz(ctx context.Context, id string) (*domain.Quiz, error) {
	q, err := s.remote.GetQuiz(ctx, id)
	return q, remoteError(err, id)
}
