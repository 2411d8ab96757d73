package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/dao"
	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/pkg/writequeue"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestStore(t testing.TB) *Store {
	t.Helper()
	return NewStore(newTestRepo(t), newTestQueue(t), nil)
}

func newTestQueue(t testing.TB) *writequeue.Manager {
	t.Helper()
	wq := writequeue.New(nil, nil)
	t.Cleanup(func() { _ = wq.Shutdown(context.Background()) })
	return wq
}

func newTestRepo(t testing.TB) domain.KVRepository {
	t.Helper()
	db, err := dao.NewDBEngine(dao.DatabaseConfig{
		Type:         "sqlite",
		Path:         fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	require.NoError(t, err)
	d := dao.New(db)
	t.Cleanup(func() { _ = d.Close() })
	return dao.NewKVRepository(d)
}

// flakyRepo 可按需让读取失败的 KVRepository
type flakyRepo struct {
	domain.KVRepository
	failGet atomic.Bool
}

func (r *flakyRepo) Get(ctx context.Context, profile, key string) (string, bool, error) {
	if r.failGet.Load() {
		return "", false, errors.New("disk I/O error")
	}
	return r.KVRepository.Get(ctx, profile, key)
}

// fixedClock 每次调用前进一秒，保证 updatedAt 严格递增
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fixedClock {
	return &fixedClock{now: time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type testServices struct {
	store    *Store
	config   *ServiceConfig
	deck     DeckService
	notes    NoteService
	bus      *StatsBus
	stats    StatsService
	timeline TimelineService
}

func newTestServices(t testing.TB) *testServices {
	t.Helper()
	cfg := DefaultServiceConfig()
	cfg.Clock = newClock().Now
	store := newTestStore(t)
	deck := NewDeckService(store, nil)
	bus := NewStatsBus()
	stats := NewStatsService(store, bus, nil)
	t.Cleanup(stats.Close)
	return &testServices{
		store:    store,
		config:   cfg,
		deck:     deck,
		notes:    NewNoteService(store, deck, cfg, nil),
		bus:      bus,
		stats:    stats,
		timeline: NewTimelineService(store, cfg, nil),
	}
}

func cardsFor(cards []domain.Flashcard, kind domain.SourceKind, id string) []domain.Flashcard {
	out := []domain.Flashcard{}
	for _, c := range cards {
		if c.BelongsTo(kind, id) {
			out = append(out, c)
		}
	}
	return out
}

func qaContent(cards []domain.Flashcard) [][2]string {
	out := make([][2]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, [2]string{c.Question, c.Answer})
	}
	return out
}
