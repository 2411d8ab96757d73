package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/dao"
	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/internal/service"
	"github.com/haierkeys/preppal-study-sync/pkg/code"

	"github.com/creasty/defaults"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := &AppConfig{}
	require.NoError(t, defaults.Set(cfg))
	cfg.Database.Path = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	cfg.Database.MaxOpenConns = 1

	db, err := dao.NewDBEngine(cfg.GetDatabaseConfig())
	require.NoError(t, err)

	a, err := NewApp(cfg, zap.NewNop(), db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func TestNewAppRequiresDependencies(t *testing.T) {
	_, err := NewApp(nil, zap.NewNop(), nil)
	assert.Error(t, err)
	_, err = NewApp(&AppConfig{}, nil, nil)
	assert.Error(t, err)
	_, err = NewApp(&AppConfig{}, zap.NewNop(), nil)
	assert.Error(t, err)
}

func TestAppWiresServices(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	assert.Nil(t, a.Mailer)
	assert.Equal(t, Version, a.Version().Version)

	n, err := a.NoteService.Create(ctx, "default", domain.NoteDraft{Title: "t", Body: "質問：Aとは\n回答：B"})
	require.NoError(t, err)

	cards, err := a.DeckService.List(ctx, "default", serviceFilterNote(n.ID))
	require.NoError(t, err)
	assert.Len(t, cards, 1)

	_, err = a.RecordingService.List(ctx)
	assert.ErrorIs(t, err, code.ErrorRemoteNotConfigure)

	view, err := a.StudyService.Start(ctx, "default", serviceFilterNote(n.ID))
	require.NoError(t, err)
	_, err = a.StudyService.Answer(ctx, "default", view.ID, true)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.StatsEvents))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.Answers.WithLabelValues("correct")))
	assert.Greater(t, testutil.CollectAndCount(a.Metrics.Registry()), 0)
}

func TestAppShutdownIsIdempotent(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.Shutdown(context.Background()))
	assert.True(t, a.IsShuttingDown())
	assert.NoError(t, a.Shutdown(context.Background()))

	select {
	case <-a.ShutdownCh():
	default:
		t.Fatal("shutdown channel not closed")
	}
}

func TestAppShutdownWaitsForTrackedOperations(t *testing.T) {
	a := newTestApp(t)
	done := a.TrackOperation()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, a.Shutdown(ctx), context.DeadlineExceeded)
	done()
}

func serviceFilterNote(id string) service.CardFilter {
	return service.CardFilter{Kind: domain.SourceNote, SourceID: id}
}
