package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/internal/study"
	"github.com/haierkeys/preppal-study-sync/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudyStartEmptyDeck(t *testing.T) {
	ts := newTestServices(t)
	svc := NewStudyService(ts.deck, ts.stats, ts.config, nil)

	_, err := svc.Start(context.Background(), "default", CardFilter{})
	assert.ErrorIs(t, err, code.ErrorDeckEmpty)
}

func TestStudyAnswerPersistsCumulativeStats(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	svc := NewStudyService(ts.deck, ts.stats, ts.config, nil)

	_, err := ts.deck.RebuildForSource(ctx, "default", domain.RecordingSource("r1", "Q: 1\nA: 1\nQ: 2\nA: 2"))
	require.NoError(t, err)
	ts.stats.Publish("default", domain.StudyStats{Correct: 3, Incorrect: 1, TotalAnswered: 4, Accuracy: 75})

	var pushed []domain.StudyStats
	defer ts.stats.Subscribe("default", func(s domain.StudyStats) { pushed = append(pushed, s) })()

	v, err := svc.Start(ctx, "default", CardFilter{})
	require.NoError(t, err)
	assert.Equal(t, study.ShowingQuestion, v.State)
	assert.Empty(t, v.Card.Answer)

	v, err = svc.Flip(ctx, "default", v.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, v.Card.Answer)

	v, err = svc.Answer(ctx, "default", v.ID, true)
	require.NoError(t, err)
	v, err = svc.Answer(ctx, "default", v.ID, false)
	require.NoError(t, err)
	assert.Equal(t, study.Finished, v.State)

	want := domain.StudyStats{Correct: 4, Incorrect: 2, TotalAnswered: 6, Accuracy: 67}
	require.Len(t, pushed, 2)
	assert.Equal(t, want, pushed[1])

	loaded, err := ts.stats.Load(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, want, loaded)

	_, err = svc.Answer(ctx, "default", v.ID, true)
	assert.ErrorIs(t, err, code.ErrorStudyFinished)
}

func TestStudyFilterAndEnd(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	svc := NewStudyService(ts.deck, ts.stats, ts.config, nil)

	_, err := ts.deck.RebuildForSource(ctx, "default", domain.RecordingSource("r1", "Q: 1\nA: 1"))
	require.NoError(t, err)
	_, err = ts.deck.RebuildForSource(ctx, "default", domain.RecordingSource("r2", "Q: 2\nA: 2\nQ: 3\nA: 3"))
	require.NoError(t, err)

	v, err := svc.Start(ctx, "default", CardFilter{Kind: domain.SourceRecording, SourceID: "r2"})
	require.NoError(t, err)
	assert.Equal(t, 2, v.Total)

	_, err = svc.Get(ctx, "other", v.ID)
	assert.ErrorIs(t, err, code.ErrorStudyNotFound)

	require.NoError(t, svc.End(ctx, "default", v.ID))
	assert.ErrorIs(t, svc.End(ctx, "default", v.ID), code.ErrorStudyNotFound)
	_, err = svc.Next(ctx, "default", v.ID)
	assert.ErrorIs(t, err, code.ErrorStudyNotFound)
}

func seedRecordingDeck(t *testing.T, deck DeckService, profile string, n int) {
	t.Helper()
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "Q: q%d\nA: a%d\n", i, i)
	}
	_, err := deck.RebuildForSource(context.Background(), profile, domain.RecordingSource("r1", b.String()))
	require.NoError(t, err)
}

func TestStudyConcurrentSessionsCountEveryAnswer(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	svc := NewStudyService(ts.deck, ts.stats, ts.config, nil)
	seedRecordingDeck(t, ts.deck, "default", 10)

	const sessions = 16
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		v, err := svc.Start(ctx, "default", CardFilter{})
		require.NoError(t, err)
		require.Equal(t, 10, v.Total)

		wg.Add(1)
		go func(id string, correct bool) {
			defer wg.Done()
			for {
				v, err := svc.Answer(ctx, "default", id, correct)
				if !assert.NoError(t, err) || v.State == study.Finished {
					return
				}
			}
		}(v.ID, i%4 == 0)
	}
	wg.Wait()

	got, err := ts.stats.Load(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, domain.StudyStats{Correct: 40, Incorrect: 120, TotalAnswered: 160, Accuracy: 25}, got)
}

func TestStudyAnswerAfterStatsResetDoesNotRestoreOldTotals(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	svc := NewStudyService(ts.deck, ts.stats, ts.config, nil)
	seedRecordingDeck(t, ts.deck, "default", 3)
	require.NoError(t, Set(ctx, ts.store, "default", domain.KeyStats, domain.StudyStats{Correct: 30, Incorrect: 10, TotalAnswered: 40}))

	v, err := svc.Start(ctx, "default", CardFilter{})
	require.NoError(t, err)
	assert.Equal(t, 40, v.Cumulative.TotalAnswered)

	_, err = ts.stats.Reset(ctx, "default")
	require.NoError(t, err)

	v, err = svc.Answer(ctx, "default", v.ID, true)
	require.NoError(t, err)
	want := domain.StudyStats{Correct: 1, TotalAnswered: 1, Accuracy: 100}
	assert.Equal(t, want, v.Cumulative)

	loaded, err := ts.stats.Load(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, want, loaded)
}

func TestStudyAnswerFailsWhenStatsUnreadable(t *testing.T) {
	repo := &flakyRepo{KVRepository: newTestRepo(t)}
	store := NewStore(repo, newTestQueue(t), nil)
	deck := NewDeckService(store, nil)
	stats := NewStatsService(store, NewStatsBus(), nil)
	defer stats.Close()
	svc := NewStudyService(deck, stats, DefaultServiceConfig(), nil)
	ctx := context.Background()

	seedRecordingDeck(t, deck, "default", 2)
	seed := domain.StudyStats{Correct: 30, Incorrect: 10, TotalAnswered: 40, Accuracy: 75}
	require.NoError(t, Set(ctx, store, "default", domain.KeyStats, seed))

	v, err := svc.Start(ctx, "default", CardFilter{})
	require.NoError(t, err)

	repo.failGet.Store(true)
	_, err = svc.Answer(ctx, "default", v.ID, true)
	assert.ErrorIs(t, err, code.ErrorStorage)
	repo.failGet.Store(false)

	v, err = svc.Get(ctx, "default", v.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Index)
	assert.Equal(t, domain.StudyStats{}, v.Session)

	loaded, err := stats.Load(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, seed, loaded)
}
