package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/app"
	"github.com/haierkeys/preppal-study-sync/internal/dao"
	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/internal/service"
	"github.com/haierkeys/preppal-study-sync/pkg/safe_close"

	"github.com/creasty/defaults"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type sentMail struct {
	to      []string
	subject string
	body    string
}

type fakeMailer struct {
	sent chan sentMail
	err  error
}

func (f *fakeMailer) Send(to []string, subject, body string) error {
	f.sent <- sentMail{to: to, subject: subject, body: body}
	return f.err
}

func newTestApp(t *testing.T, opts ...app.Option) *app.App {
	t.Helper()
	cfg := &app.AppConfig{}
	require.NoError(t, defaults.Set(cfg))
	cfg.Database.Path = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	cfg.Database.MaxOpenConns = 1

	db, err := dao.NewDBEngine(cfg.GetDatabaseConfig())
	require.NoError(t, err)

	a, err := app.NewApp(cfg, zap.NewNop(), db, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func TestReviewReminderSendsDueEntries(t *testing.T) {
	m := &fakeMailer{sent: make(chan sentMail, 4)}
	a := newTestApp(t, app.WithMailer(m))
	ctx := context.Background()
	now := time.Now()

	_, err := a.TimelineService.Add(ctx, "alice", service.TimelineInput{When: now.Add(-time.Minute), Label: "Lecture 3", Email: "alice@example.com"})
	require.NoError(t, err)
	_, err = a.TimelineService.Add(ctx, "alice", service.TimelineInput{When: now.Add(time.Hour), Label: "later"})
	require.NoError(t, err)
	_, err = a.TimelineService.Add(ctx, "bob", service.TimelineInput{When: now.Add(-time.Minute)})
	require.NoError(t, err)

	task, err := NewReviewReminderTask(a)
	require.NoError(t, err)
	require.NoError(t, task.Run(ctx))

	select {
	case mail := <-m.sent:
		assert.Equal(t, []string{"alice@example.com"}, mail.to)
		assert.Equal(t, a.Config().Mail.Subject, mail.subject)
		assert.Contains(t, mail.body, "Lecture 3")
	case <-time.After(2 * time.Second):
		t.Fatal("reminder not sent")
	}

	for _, p := range []string{"alice", "bob"} {
		due, err := a.TimelineService.Due(ctx, p, time.Now())
		require.NoError(t, err)
		assert.Empty(t, due, p)
	}
	list, err := a.TimelineService.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[1].Notified)

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(a.Metrics.Reminders.WithLabelValues(reminderSent)) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(a.Metrics.Reminders.WithLabelValues(reminderSkipped)))

	// 已提醒的条目不再发送
	require.NoError(t, task.Run(ctx))
	select {
	case mail := <-m.sent:
		t.Fatalf("unexpected mail %v", mail)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestReviewReminderUsesProfileEmailAndCountsFailures(t *testing.T) {
	m := &fakeMailer{sent: make(chan sentMail, 1), err: errors.New("smtp down")}
	a := newTestApp(t, app.WithMailer(m))
	ctx := context.Background()

	require.NoError(t, a.TimelineService.SetNotifyEmail(ctx, "alice", "me@example.com"))
	_, err := a.TimelineService.Add(ctx, "alice", service.TimelineInput{When: time.Now().Add(-time.Second)})
	require.NoError(t, err)

	task, err := NewReviewReminderTask(a)
	require.NoError(t, err)
	require.NoError(t, task.Run(ctx))

	mail := <-m.sent
	assert.Equal(t, []string{"me@example.com"}, mail.to)
	assert.Contains(t, mail.body, domain.DefaultTimelineLabel)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(a.Metrics.Reminders.WithLabelValues(reminderFailed)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	due, err := a.TimelineService.Due(ctx, "alice", time.Now())
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestDeckOrphanCleanup(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	n, err := a.NoteService.Create(ctx, "alice", domain.NoteDraft{Body: "Q: a\nA: b"})
	require.NoError(t, err)
	ghost := &domain.Note{ID: "ghost", Body: "Q: c\nA: d"}
	_, err = a.DeckService.RebuildForSource(ctx, "alice", domain.NoteSource(ghost))
	require.NoError(t, err)
	_, err = a.DeckService.RebuildForSource(ctx, "alice", domain.RecordingSource("r1", "Q: e\nA: f"))
	require.NoError(t, err)

	task, err := NewDeckOrphanCleanupTask(a)
	require.NoError(t, err)
	require.NotNil(t, task)
	require.NoError(t, task.Run(ctx))

	cards, err := a.DeckService.List(ctx, "alice", service.CardFilter{})
	require.NoError(t, err)
	require.Len(t, cards, 2)
	owners := []string{}
	for _, c := range cards {
		owners = append(owners, c.NoteID+c.RecordingID)
	}
	assert.ElementsMatch(t, []string{n.ID, "r1"}, owners)
}

func TestDeckOrphanCleanupDisabled(t *testing.T) {
	a := newTestApp(t)
	a.Config().App.OrphanCleanupCron = ""
	task, err := NewDeckOrphanCleanupTask(a)
	require.NoError(t, err)
	assert.Nil(t, task)

	a.Config().App.OrphanCleanupCron = "not cron"
	_, err = NewDeckOrphanCleanupTask(a)
	assert.Error(t, err)
}

type every time.Duration

func (e every) Next(t time.Time) time.Time { return t.Add(time.Duration(e)) }

type countTask struct {
	name     string
	schedule cron.Schedule
	startup  bool
	runs     atomic.Int32
	fail     bool
	panics   bool
}

func (c *countTask) Name() string { return c.name }
func (c *countTask) Schedule() cron.Schedule { return c.schedule }
func (c *countTask) IsStartupRun() bool { return c.startup }
func (c *countTask) Run(context.Context) error {
	c.runs.Add(1)
	if c.panics {
		panic("boom")
	}
	if c.fail {
		return errors.New("failed")
	}
	return nil
}

func TestSchedulerRunsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var mu sync.Mutex
	results := map[string]int{}
	observer := func(name string, _ time.Duration, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			name += ":err"
		}
		results[name]++
	}

	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc, observer)
	loop := &countTask{name: "loop", schedule: every(10 * time.Millisecond)}
	once := &countTask{name: "once", startup: true, fail: true}
	bad := &countTask{name: "bad", startup: true, panics: true}
	s.AddTask(loop)
	s.AddTask(once)
	s.AddTask(bad)
	assert.Equal(t, []string{"loop", "once", "bad"}, s.Tasks())

	s.Start()
	assert.Eventually(t, func() bool { return loop.runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	sc.SendCloseSignal(nil)
	require.NoError(t, sc.WaitClosed())

	assert.Equal(t, int32(1), once.runs.Load())
	assert.Equal(t, int32(1), bad.runs.Load())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, results["once:err"])
	assert.Equal(t, 1, results["bad:err"])
	assert.GreaterOrEqual(t, results["loop"], 2)
}

func TestManagerRegistersTasks(t *testing.T) {
	a := newTestApp(t)
	sc := safe_close.NewSafeClose()
	m := NewManager(a, sc)
	require.NoError(t, m.RegisterTasks())
	assert.ElementsMatch(t, []string{"ReviewReminder", "DeckOrphanCleanup"}, m.Tasks())

	m.Start()
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(a.Metrics.TaskRuns.WithLabelValues("DeckOrphanCleanup", "success")) == 1 &&
			testutil.ToFloat64(a.Metrics.TaskRuns.WithLabelValues("ReviewReminder", "success")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	sc.SendCloseSignal(nil)
	require.NoError(t, sc.WaitClosed())
}
