package service

import (
	"context"

	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/pkg/code"
	"github.com/haierkeys/preppal-study-sync/pkg/logger"
	"github.com/haierkeys/preppal-study-sync/pkg/qa"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CardFilter 卡片过滤条件，零值表示全部
type CardFilter struct {
	Kind     domain.SourceKind
	SourceID string
}

// DeckService 定义闪卡卡组业务服务接口
type DeckService interface {
	// List 列出卡片
	List(ctx context.Context, profile string, filter CardFilter) ([]domain.Flashcard, error)

	// RebuildForSource 从来源文本重新抽取卡片，替换该来源的旧卡片
	RebuildForSource(ctx context.Context, profile string, src domain.Source) ([]domain.Flashcard, error)

	// RebuildAll 由给定来源重建整个卡组
	RebuildAll(ctx context.Context, profile string, sources []domain.Source) ([]domain.Flashcard, error)

	// RebuildNotes 为所有笔记重建卡片，录音卡片保持不变
	RebuildNotes(ctx context.Context, profile string) (int, error)

	// RemoveSource 删除某来源的全部卡片
	RemoveSource(ctx context.Context, profile string, kind domain.SourceKind, id string) (int, error)

	// CleanupOrphans 删除所属笔记已不存在的卡片
	CleanupOrphans(ctx context.Context, profile string) (int, error)

	// 以下两个方法需在档案写队列内调用，供笔记服务在同一次写入中同步卡片。
	// 未导出，DeckService 只能由本包实现或嵌入本包的实现
	rebuildLocked(ctx context.Context, profile string, sources ...domain.Source) ([]domain.Flashcard, error)
	removeLocked(ctx context.Context, profile string, kind domain.SourceKind, id string) (int, error)
}

// deckService 实现 DeckService 接口
type deckService struct {
	store  *Store
	logger *zap.Logger
}

// NewDeckService 创建 DeckService 实例
func NewDeckService(store *Store, lg *zap.Logger) DeckService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &deckService{store: store, logger: lg}
}

func (s *deckService) load(ctx context.Context, profile string) []domain.Flashcard {
	return loadJSON(ctx, s.store, profile, domain.KeyCards, []domain.Flashcard{})
}

// loadLocked 读失败时返回错误，写队列内的读-改-写使用
func (s *deckService) loadLocked(ctx context.Context, profile string) ([]domain.Flashcard, error) {
	return loadJSONStrict(ctx, s.store, profile, domain.KeyCards, []domain.Flashcard{})
}

// List 列出卡片
func (s *deckService) List(ctx context.Context, profile string, filter CardFilter) ([]domain.Flashcard, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, code.ErrorUnknownSourceKind.WithDetails(string(filter.Kind))
	}
	cards := s.load(ctx, profile)
	if filter.Kind == "" && filter.SourceID == "" {
		return cards, nil
	}
	out := make([]domain.Flashcard, 0, len(cards))
	for _, c := range cards {
		kind, id := c.SourceRef()
		if filter.Kind != "" && kind != filter.Kind {
			continue
		}
		if filter.SourceID != "" && id != filter.SourceID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// extractCards 从来源文本抽取卡片，每张卡片只引用该来源
func extractCards(src domain.Source) []domain.Flashcard {
	pairs := qa.Extract(src.Text)
	cards := make([]domain.Flashcard, 0, len(pairs))
	for _, p := range pairs {
		c := domain.Flashcard{ID: uuid.NewString(), Question: p.Question, Answer: p.Answer}
		if src.Kind == domain.SourceNote {
			c.NoteID = src.ID
		} else {
			c.RecordingID = src.ID
		}
		cards = append(cards, c)
	}
	return cards
}

// replaceSources 去掉这些来源的旧卡片后追加新卡片，其它来源不受影响
func replaceSources(cards []domain.Flashcard, sources []domain.Source) ([]domain.Flashcard, []domain.Flashcard) {
	out := make([]domain.Flashcard, 0, len(cards))
	for _, c := range cards {
		replaced := false
		for _, src := range sources {
			if c.BelongsTo(src.Kind, src.ID) {
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, c)
		}
	}
	added := []domain.Flashcard{}
	for _, src := range sources {
		added = append(added, extractCards(src)...)
	}
	return append(out, added...), added
}

func validateSource(src domain.Source) error {
	if !src.Kind.Valid() {
		return code.ErrorUnknownSourceKind.WithDetails(string(src.Kind))
	}
	if src.ID == "" {
		return code.ErrorInvalidParams.WithDetails("source id is required")
	}
	return nil
}

// rebuildLocked 需在档案写队列内调用
func (s *deckService) rebuildLocked(ctx context.Context, profile string, sources ...domain.Source) ([]domain.Flashcard, error) {
	current, err := s.loadLocked(ctx, profile)
	if err != nil {
		return nil, err
	}
	cards, added := replaceSources(current, sources)
	if err := saveJSON(ctx, s.store, profile, domain.KeyCards, cards); err != nil {
		return nil, err
	}
	return added, nil
}

// removeLocked 需在档案写队列内调用
func (s *deckService) removeLocked(ctx context.Context, profile string, kind domain.SourceKind, id string) (int, error) {
	cards, err := s.loadLocked(ctx, profile)
	if err != nil {
		return 0, err
	}
	kept := cards[:0:0]
	for _, c := range cards {
		if !c.BelongsTo(kind, id) {
			kept = append(kept, c)
		}
	}
	removed := len(cards) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, saveJSON(ctx, s.store, profile, domain.KeyCards, kept)
}

// RebuildForSource 重建单个来源的卡片；抽取为空时同样清除旧卡片
func (s *deckService) RebuildForSource(ctx context.Context, profile string, src domain.Source) ([]domain.Flashcard, error) {
	if err := validateSource(src); err != nil {
		return nil, err
	}
	var added []domain.Flashcard
	err := s.store.Mutate(ctx, profile, func(ctx context.Context) error {
		var err error
		added, err = s.rebuildLocked(ctx, profile, src)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("deck rebuilt for source",
		zap.String(logger.FieldProfile, profile),
		zap.String(logger.FieldSource, string(src.Kind)+":"+src.ID),
		zap.Int("cards", len(added)),
	)
	return added, nil
}

// RebuildAll 用给定来源抽取的卡片整体替换卡组
func (s *deckService) RebuildAll(ctx context.Context, profile string, sources []domain.Source) ([]domain.Flashcard, error) {
	for _, src := range sources {
		if err := validateSource(src); err != nil {
			return nil, err
		}
	}
	cards := []domain.Flashcard{}
	for _, src := range sources {
		cards = append(cards, extractCards(src)...)
	}
	err := s.store.Mutate(ctx, profile, func(ctx context.Context) error {
		return saveJSON(ctx, s.store, profile, domain.KeyCards, cards)
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// RebuildNotes 为所有笔记重建卡片
func (s *deckService) RebuildNotes(ctx context.Context, profile string) (int, error) {
	var count int
	err := s.store.Mutate(ctx, profile, func(ctx context.Context) error {
		notes, err := loadJSONStrict(ctx, s.store, profile, domain.KeyNotes, []domain.Note{})
		if err != nil {
			return err
		}
		sources := make([]domain.Source, 0, len(notes))
		for i := range notes {
			sources = append(sources, domain.NoteSource(&notes[i]))
		}
		added, err := s.rebuildLocked(ctx, profile, sources...)
		count = len(added)
		return err
	})
	return count, err
}

// RemoveSource 删除某来源的全部卡片
func (s *deckService) RemoveSource(ctx context.Context, profile string, kind domain.SourceKind, id string) (int, error) {
	if !kind.Valid() {
		return 0, code.ErrorUnknownSourceKind.WithDetails(string(kind))
	}
	var removed int
	err := s.store.Mutate(ctx, profile, func(ctx context.Context) error {
		var err error
		removed, err = s.removeLocked(ctx, profile, kind, id)
		return err
	})
	return removed, err
}

// CleanupOrphans 删除所属笔记已不存在的笔记卡片
func (s *deckService) CleanupOrphans(ctx context.Context, profile string) (int, error) {
	var removed int
	err := s.store.Mutate(ctx, profile, func(ctx context.Context) error {
		notes, err := loadJSONStrict(ctx, s.store, profile, domain.KeyNotes, []domain.Note{})
		if err != nil {
			return err
		}
		exists := make(map[string]struct{}, len(notes))
		for _, n := range notes {
			exists[n.ID] = struct{}{}
		}
		cards, err := s.loadLocked(ctx, profile)
		if err != nil {
			return err
		}
		kept := make([]domain.Flashcard, 0, len(cards))
		for _, c := range cards {
			if c.NoteID != "" {
				if _, ok := exists[c.NoteID]; !ok {
					continue
				}
			}
			kept = append(kept, c)
		}
		removed = len(cards) - len(kept)
		if removed == 0 {
			return nil
		}
		return saveJSON(ctx, s.store, profile, domain.KeyCards, kept)
	})
	return removed, err
}
