package service

import (
	"context"
	"sort"
	"strings"

	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/pkg/code"
	"github.com/haierkeys/preppal-study-sync/pkg/logger"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// NoteService 定义笔记业务服务接口
type NoteService interface {
	// Create 新建笔记，记录初始快照并同步卡片
	Create(ctx context.Context, profile string, draft domain.NoteDraft) (*domain.Note, error)

	// Update 合并字段，刷新 updatedAt，追加快照并同步卡片
	Update(ctx context.Context, profile, id string, patch domain.NotePatch) (*domain.Note, error)

	// Save 编辑器保存：id 为空时新建，否则整体覆盖字段。
	// silent 模式下空笔记被跳过，返回 (nil, false, nil)
	Save(ctx context.Context, profile, id string, draft domain.NoteDraft, silent bool) (*domain.Note, bool, error)

	// Delete 删除笔记并级联删除其卡片，不存在时不报错
	Delete(ctx context.Context, profile, id string) error

	// RestoreVersion 用快照正文覆盖当前正文，本身也会产生新快照
	RestoreVersion(ctx context.Context, profile, id, versionID string) (*domain.Note, error)

	// Get 获取单条笔记
	Get(ctx context.Context, profile, id string) (*domain.Note, error)

	// List 置顶优先、按更新时间倒序，query 不区分大小写匹配标题、正文与标签
	List(ctx context.Context, profile, query string) ([]domain.Note, error)

	// Versions 快照列表，最新在前
	Versions(ctx context.Context, profile, id string) ([]domain.NoteVersion, error)

	// VersionDiff 快照与当前正文的差异
	VersionDiff(ctx context.Context, profile, id, versionID string) (*VersionDiff, error)
}

// DiffChunk 差异片段
type DiffChunk struct {
	Op   string `json:"op"` // insert | delete | equal
	Text string `json:"text"`
}

// VersionDiff 快照差异
type VersionDiff struct {
	NoteID    string      `json:"noteId"`
	VersionID string      `json:"versionId"`
	Chunks    []DiffChunk `json:"chunks"`
	Patch     string      `json:"patch"`
}

// noteService 实现 NoteService 接口
type noteService struct {
	store  *Store
	deck   DeckService
	config *ServiceConfig
	logger *zap.Logger
}

// NewNoteService 创建 NoteService 实例
func NewNoteService(store *Store, deck DeckService, config *ServiceConfig, lg *zap.Logger) NoteService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &noteService{store: store, deck: deck, config: config, logger: lg}
}

func (s *noteService) load(ctx context.Context, profile string) []domain.Note {
	return loadJSON(ctx, s.store, profile, domain.KeyNotes, []domain.Note{})
}

// loadLocked 读失败时返回错误，写队列内的读-改-写使用
func (s *noteService) loadLocked(ctx context.Context, profile string) ([]domain.Note, error) {
	return loadJSONStrict(ctx, s.store, profile, domain.KeyNotes, []domain.Note{})
}

func indexOf(notes []domain.Note, id string) int {
	for i := range notes {
		if notes[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked 写回笔记集合并同步该笔记的卡片，需在档案写队列内调用
func (s *noteService) persistLocked(ctx context.Context, profile string, notes []domain.Note, n *domain.Note) error {
	if err := saveJSON(ctx, s.store, profile, domain.KeyNotes, notes); err != nil {
		return err
	}
	if _, err := s.deck.rebuildLocked(ctx, profile, domain.NoteSource(n)); err != nil {
		s.logger.Warn("sync note cards failed",
			zap.String(logger.FieldProfile, profile),
			zap.String(logger.FieldNoteID, n.ID),
			zap.Error(err),
		)
	}
	return nil
}

func (s *noteService) createLocked(ctx context.Context, profile string, draft domain.NoteDraft) (*domain.Note, error) {
	now := s.config.now()
	n := domain.Note{
		ID:          uuid.NewString(),
		RecordingID: draft.RecordingID,
		Title:       draft.Title,
		Body:        draft.Body,
		Tags:        append([]string{}, draft.Tags...),
		Pinned:      draft.Pinned,
		CreatedAt:   now,
		UpdatedAt:   now,
		Versions:    []domain.NoteVersion{},
	}
	if n.IsEmpty() {
		return nil, code.ErrorNoteEmpty
	}
	n.TakeSnapshot(uuid.NewString(), now)

	existing, err := s.loadLocked(ctx, profile)
	if err != nil {
		return nil, err
	}
	notes := append([]domain.Note{n}, existing...)
	if err := s.persistLocked(ctx, profile, notes, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *noteService) updateLocked(ctx context.Context, profile, id string, patch domain.NotePatch) (*domain.Note, error) {
	notes, err := s.loadLocked(ctx, profile)
	if err != nil {
		return nil, err
	}
	i := indexOf(notes, id)
	if i < 0 {
		return nil, code.ErrorNoteNotFound.WithDetails(id)
	}
	n := notes[i]
	n.Tags = append([]string{}, n.Tags...)
	patch.Apply(&n)
	if n.IsEmpty() {
		return nil, code.ErrorNoteEmpty
	}
	now := s.config.now()
	n.UpdatedAt = now
	n.TakeSnapshot(uuid.NewString(), now)
	notes[i] = n

	if err := s.persistLocked(ctx, profile, notes, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Create 新建笔记
func (s *noteService) Create(ctx context.Context, profile string, draft domain.NoteDraft) (*domain.Note, error) {
	var out *domain.Note
	err := s.store.Mutate(ctx, profile, func(ctx context.Context) error {
		var err error
		out, err = s.createLocked(ctx, profile, draft)
		return err
	})
	return out, err
}

// Update 更新笔记
func (s *noteService) Update(ctx context.Context, profile, id string, patch domain.NotePatch) (*domain.Note, error) {
	var out *domain.Note
	err := s.store.Mutate(ctx, profile, func(ctx context.Context) error {
		var err error
		out, err = s.updateLocked(ctx, profile, id, patch)
		return err
	})
	return out, err
}

// Save 编辑器保存
func (s *noteService) Save(ctx context.Context, profile, id string, draft domain.NoteDraft, silent bool) (*domain.Note, bool, error) {
	candidate := domain.Note{Title: draft.Title, Body: draft.Body}
	if candidate.IsEmpty() {
		if silent {
			return nil, false, nil
		}
		return nil, false, code.ErrorNoteEmpty
	}
	if id == "" {
		n, err := s.Create(ctx, profile, draft)
		return n, err == nil, err
	}
	n, err := s.Update(ctx, profile, id, domain.NotePatch{
		Title:   &draft.Title,
		Body:    &draft.Body,
		Tags:    draft.Tags,
		SetTags: true,
		Pinned:  &draft.Pinned,
	})
	return n, err == nil, err
}

// Delete 删除笔记
func (s *noteService) Delete(ctx context.Context, profile, id string) error {
	return s.store.Mutate(ctx, profile, func(ctx context.Context) error {
		notes, err := s.loadLocked(ctx, profile)
		if err != nil {
			return err
		}
		i := indexOf(notes, id)
		if i < 0 {
			return nil
		}
		notes = append(notes[:i], notes[i+1:]...)
		if err := saveJSON(ctx, s.store, profile, domain.KeyNotes, notes); err != nil {
			return err
		}
		removed, err := s.deck.removeLocked(ctx, profile, domain.SourceNote, id)
		if err != nil {
			return err
		}
		s.logger.Info("note deleted",
			zap.String(logger.FieldProfile, profile),
			zap.String(logger.FieldNoteID, id),
			zap.Int("cards", removed),
		)
		return nil
	})
}

// RestoreVersion 恢复快照
func (s *noteService) RestoreVersion(ctx context.Context, profile, id, versionID string) (*domain.Note, error) {
	var out *domain.Note
	err := s.store.Mutate(ctx, profile, func(ctx context.Context) error {
		notes, err := s.loadLocked(ctx, profile)
		if err != nil {
			return err
		}
		i := indexOf(notes, id)
		if i < 0 {
			return code.ErrorNoteNotFound.WithDetails(id)
		}
		v, ok := notes[i].Version(versionID)
		if !ok {
			return code.ErrorVersionNotFound.WithDetails(versionID)
		}
		out, err = s.updateLocked(ctx, profile, id, domain.NotePatch{Body: &v.Body})
		return err
	})
	return out, err
}

// Get 获取单条笔记
func (s *noteService) Get(ctx context.Context, profile, id string) (*domain.Note, error) {
	notes := s.load(ctx, profile)
	i := indexOf(notes, id)
	if i < 0 {
		return nil, code.ErrorNoteNotFound.WithDetails(id)
	}
	return &notes[i], nil
}

// List 获取笔记列表
func (s *noteService) List(ctx context.Context, profile, query string) ([]domain.Note, error) {
	notes := s.load(ctx, profile)

	if q := strings.TrimSpace(query); q != "" {
		// Caser 有状态，不能跨协程共享
		fold := cases.Fold()
		needle := fold.String(q)
		matched := notes[:0:0]
		for _, n := range notes {
			if noteMatches(n, needle, fold.String) {
				matched = append(matched, n)
			}
		}
		notes = matched
	}

	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].Pinned != notes[j].Pinned {
			return notes[i].Pinned
		}
		return notes[i].SortTime().After(notes[j].SortTime())
	})
	return notes, nil
}

func noteMatches(n domain.Note, needle string, fold func(string) string) bool {
	if strings.Contains(fold(n.Title), needle) || strings.Contains(fold(n.Body), needle) {
		return true
	}
	for _, t := range n.Tags {
		if strings.Contains(fold(t), needle) {
			return true
		}
	}
	return false
}

// Versions 快照列表
func (s *noteService) Versions(ctx context.Context, profile, id string) ([]domain.NoteVersion, error) {
	n, err := s.Get(ctx, profile, id)
	if err != nil {
		return nil, err
	}
	out := make([]domain.NoteVersion, len(n.Versions))
	for i, v := range n.Versions {
		out[len(out)-1-i] = v
	}
	return out, nil
}

// VersionDiff 快照与当前正文的差异
func (s *noteService) VersionDiff(ctx context.Context, profile, id, versionID string) (*VersionDiff, error) {
	n, err := s.Get(ctx, profile, id)
	if err != nil {
		return nil, err
	}
	v, ok := n.Version(versionID)
	if !ok {
		return nil, code.ErrorVersionNotFound.WithDetails(versionID)
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(v.Body, n.Body, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	chunks := make([]DiffChunk, 0, len(diffs))
	for _, d := range diffs {
		op := "equal"
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = "insert"
		case diffmatchpatch.DiffDelete:
			op = "delete"
		}
		chunks = append(chunks, DiffChunk{Op: op, Text: d.Text})
	}
	return &VersionDiff{
		NoteID:    id,
		VersionID: versionID,
		Chunks:    chunks,
		Patch:     dmp.PatchToText(dmp.PatchMake(v.Body, diffs)),
	}, nil
}
