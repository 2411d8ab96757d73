package service

import (
	"context"
	"sync"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/pkg/code"
	"github.com/haierkeys/preppal-study-sync/pkg/diff"
	"github.com/haierkeys/preppal-study-sync/pkg/logger"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// EditorState 编辑器状态
type EditorState struct {
	ID        string    `json:"id"`
	NoteID    string    `json:"noteId,omitempty"`
	Dirty     bool      `json:"dirty"`
	SavedAt   time.Time `json:"savedAt,omitempty"`
	LastError string    `json:"lastError,omitempty"`
}

// EditorService 定义带防抖自动保存的笔记编辑器服务接口
type EditorService interface {
	// Open 打开编辑器，noteID 为空时编辑新笔记
	Open(ctx context.Context, profile, noteID string) (*EditorState, error)

	// Change 记录最新草稿，防抖窗口结束后静默保存
	Change(ctx context.Context, profile, editorID string, draft domain.NoteDraft) (*EditorState, error)

	// Save 立即保存，空笔记返回校验错误
	Save(ctx context.Context, profile, editorID string) (*domain.Note, error)

	// Close 保存未写入的草稿并关闭编辑器
	Close(ctx context.Context, profile, editorID string) (*EditorState, error)

	// Shutdown 保存并关闭所有编辑器
	Shutdown(ctx context.Context)
}

// editor 一个打开的编辑器，替代全局的 currentId
type editor struct {
	id      string
	profile string
	delay   time.Duration
	notes   NoteService
	logger  *zap.Logger

	saveMu sync.Mutex // 串行化保存，避免新笔记被重复创建

	mu      sync.Mutex
	noteID  string
	base    string // 最近一次加载或保存时的正文，作为三方合并的祖先
	draft   domain.NoteDraft
	dirty   bool
	closed  bool
	timer   *time.Timer
	savedAt time.Time
	lastErr error
}

func (e *editor) state() *EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := &EditorState{ID: e.id, NoteID: e.noteID, Dirty: e.dirty, SavedAt: e.savedAt}
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	return st
}

func (e *editor) change(draft domain.NoteDraft) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return code.ErrorEditorClosed
	}
	e.draft = draft
	e.dirty = true
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, _ = e.flush(ctx, true)
	})
	return nil
}

// flush 保存待写入的草稿；没有改动时直接返回
func (e *editor) flush(ctx context.Context, silent bool) (*domain.Note, error) {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if !e.dirty && silent {
		e.mu.Unlock()
		return nil, nil
	}
	noteID, base, draft := e.noteID, e.base, e.draft
	e.dirty = false
	e.mu.Unlock()

	if noteID != "" {
		draft.Body = e.mergeConcurrent(ctx, noteID, base, draft.Body)
	}
	n, saved, err := e.notes.Save(ctx, e.profile, noteID, draft, silent)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastErr = err
	if err != nil {
		e.dirty = true
		e.logger.Warn("editor save failed",
			zap.String(logger.FieldProfile, e.profile),
			zap.String(logger.FieldNoteID, noteID),
			zap.Bool("silent", silent),
			zap.Error(err),
		)
		return nil, err
	}
	if saved {
		e.noteID = n.ID
		e.base = n.Body
		e.savedAt = n.UpdatedAt
	}
	return n, nil
}

// mergeConcurrent 笔记在编辑期间被其他途径修改时，把那部分改动合并进草稿；冲突时以草稿为准
func (e *editor) mergeConcurrent(ctx context.Context, noteID, base, body string) string {
	current, err := e.notes.Get(ctx, e.profile, noteID)
	if err != nil || current.Body == base {
		return body
	}
	res := diff.MergeTexts(base, body, current.Body)
	if res.HasConflict {
		e.logger.Warn("editor merge conflict, keeping draft",
			zap.String(logger.FieldProfile, e.profile),
			zap.String(logger.FieldNoteID, noteID),
		)
	}
	return res.Content
}

func (e *editor) close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()
	_, err := e.flush(ctx, true)
	return err
}

// editorService 实现 EditorService 接口
type editorService struct {
	notes   NoteService
	config  *ServiceConfig
	logger  *zap.Logger
	editors *cache.Cache
}

// NewEditorService 创建 EditorService 实例；空闲编辑器过期时会先保存
func NewEditorService(notes NoteService, config *ServiceConfig, lg *zap.Logger) EditorService {
	if lg == nil {
		lg = zap.NewNop()
	}
	idle := config.Editor.IdleTimeout
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	s := &editorService{
		notes:   notes,
		config:  config,
		logger:  lg,
		editors: cache.New(idle, idle/2),
	}
	s.editors.OnEvicted(func(_ string, v any) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = v.(*editor).close(ctx)
	})
	return s
}

func editorKey(profile, id string) string {
	return profile + "/" + id
}

func (s *editorService) get(profile, id string) (*editor, error) {
	key := editorKey(profile, id)
	v, ok := s.editors.Get(key)
	if !ok {
		return nil, code.ErrorEditorNotFound.WithDetails(id)
	}
	// 续期
	s.editors.SetDefault(key, v)
	return v.(*editor), nil
}

// Open 打开编辑器
func (s *editorService) Open(ctx context.Context, profile, noteID string) (*EditorState, error) {
	e := &editor{
		id:      uuid.NewString(),
		profile: profile,
		delay:   s.config.Editor.AutosaveDelay,
		notes:   s.notes,
		logger:  s.logger,
	}
	if e.delay <= 0 {
		e.delay = 800 * time.Millisecond
	}
	if noteID != "" {
		n, err := s.notes.Get(ctx, profile, noteID)
		if err != nil {
			return nil, err
		}
		e.noteID = n.ID
		e.base = n.Body
		e.savedAt = n.UpdatedAt
		e.draft = domain.NoteDraft{
			Title:       n.Title,
			Body:        n.Body,
			Tags:        n.Tags,
			Pinned:      n.Pinned,
			RecordingID: n.RecordingID,
		}
	}
	s.editors.SetDefault(editorKey(profile, e.id), e)
	return e.state(), nil
}

// Change 记录草稿
func (s *editorService) Change(ctx context.Context, profile, editorID string, draft domain.NoteDraft) (*EditorState, error) {
	e, err := s.get(profile, editorID)
	if err != nil {
		return nil, err
	}
	if err := e.change(draft); err != nil {
		return nil, err
	}
	return e.state(), nil
}

// Save 立即保存
func (s *editorService) Save(ctx context.Context, profile, editorID string) (*domain.Note, error) {
	e, err := s.get(profile, editorID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return nil, code.ErrorEditorClosed
	}
	return e.flush(ctx, false)
}

// Close 关闭编辑器
func (s *editorService) Close(ctx context.Context, profile, editorID string) (*EditorState, error) {
	e, err := s.get(profile, editorID)
	if err != nil {
		return nil, err
	}
	err = e.close(ctx)
	s.editors.Delete(editorKey(profile, editorID))
	st := e.state()
	return st, err
}

// Shutdown 保存并关闭所有编辑器
func (s *editorService) Shutdown(ctx context.Context) {
	for key, item := range s.editors.Items() {
		if err := item.Object.(*editor).close(ctx); err != nil {
			s.logger.Warn("flush editor on shutdown failed", zap.String("editor", key), zap.Error(err))
		}
	}
	s.editors.Flush()
}
