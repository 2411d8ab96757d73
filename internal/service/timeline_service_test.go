package service

import (
	"context"
	"testing"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimelineSortedAfterInsert(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	base := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	for _, d := range []int{5, 1, 3} {
		_, err := ts.timeline.Add(ctx, "default", TimelineInput{When: base.AddDate(0, 0, d)})
		require.NoError(t, err)
	}
	list, err := ts.timeline.List(ctx, "default")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, base.AddDate(0, 0, 1), list[0].When.UTC())
	assert.Equal(t, base.AddDate(0, 0, 5), list[2].When.UTC())
	assert.Equal(t, domain.DefaultTimelineLabel, list[0].Label)

	// 存储中的顺序同样有序
	raw := Get(ctx, ts.store, "default", domain.KeyTimeline, []domain.TimelineEntry{})
	assert.True(t, raw[0].When.Before(raw[1].When) && raw[1].When.Before(raw[2].When))
}

func TestTimelineDone(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	e, err := ts.timeline.Add(ctx, "default", TimelineInput{When: time.Now(), Label: "Exam"})
	require.NoError(t, err)
	require.NoError(t, ts.timeline.Done(ctx, "default", e.ID))
	assert.ErrorIs(t, ts.timeline.Done(ctx, "default", e.ID), code.ErrorTimelineNotFound)

	_, err = ts.timeline.Add(ctx, "default", TimelineInput{})
	assert.ErrorIs(t, err, code.ErrorInvalidParams)
}

func TestNextReviewAt(t *testing.T) {
	cfg := DefaultServiceConfig().Study
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	at := func(days int) *time.Time {
		g := now.AddDate(0, 0, days)
		return &g
	}

	tests := []struct {
		name string
		goal *time.Time
		demo bool
		want time.Time
	}{
		{"demo", nil, true, now.Add(30 * time.Second)},
		{"ten days uses 20%", at(10), false, now.AddDate(0, 0, 2)},
		{"thirty days uses 20%", at(30), false, now.AddDate(0, 0, 6)},
		{"sixty days uses 10%", at(60), false, now.AddDate(0, 0, 6)},
		{"short goal is at least one day", at(2), false, now.AddDate(0, 0, 1)},
		{"past goal is at least one day", at(-5), false, now.AddDate(0, 0, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextReviewAt(cfg, now, tt.goal, tt.demo)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NextReviewAt(cfg, now, nil, false)
	assert.ErrorIs(t, err, code.ErrorInvalidReviewGoal)
}

func TestScheduleReviewUsesStoredEmail(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	require.NoError(t, ts.timeline.SetNotifyEmail(ctx, "default", "me@example.com"))
	e, err := ts.timeline.ScheduleReview(ctx, "default", ReviewRequest{RecordingID: "r1", Demo: true, Label: "講義1"})
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", e.Email)
	assert.Equal(t, "講義1", e.Label)

	due, err := ts.timeline.Due(ctx, "default", e.When.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, due, 1)

	require.NoError(t, ts.timeline.MarkNotified(ctx, "default", []string{e.ID}))
	due, err = ts.timeline.Due(ctx, "default", e.When.Add(time.Second))
	require.NoError(t, err)
	assert.Empty(t, due)

	require.NoError(t, ts.timeline.SetNotifyEmail(ctx, "default", ""))
	assert.Empty(t, ts.timeline.NotifyEmail(ctx, "default"))
}
