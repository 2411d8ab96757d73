package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/app"
	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/internal/middleware"
	"github.com/haierkeys/preppal-study-sync/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func init() {
	Register(NewReviewReminderTask)
}

// 提醒结果标签
const (
	reminderSent    = "sent"
	reminderSkipped = "skipped"
	reminderFailed  = "failed"
)

// ReviewReminderTask 扫描各档案到期的复习条目并发送提醒邮件
// 无论是否发送成功，条目都会被标记为已提醒，避免重复打扰
type ReviewReminderTask struct {
	app      *app.App
	interval time.Duration
	now      func() time.Time
}

// NewReviewReminderTask 创建复习提醒任务
func NewReviewReminderTask(a *app.App) (Task, error) {
	return &ReviewReminderTask{
		app:      a,
		interval: a.Config().GetReminderInterval(),
		now:      time.Now,
	}, nil
}

// Name 返回任务名称
func (t *ReviewReminderTask) Name() string {
	return "ReviewReminder"
}

// Schedule 固定间隔执行
func (t *ReviewReminderTask) Schedule() cron.Schedule {
	return cron.Every(t.interval)
}

// IsStartupRun 启动时先补发一次
func (t *ReviewReminderTask) IsStartupRun() bool {
	return true
}

// Run 执行一次扫描
func (t *ReviewReminderTask) Run(ctx context.Context) error {
	profiles, err := t.app.Store.Profiles(ctx)
	if err != nil {
		return err
	}

	var firstErr error
	now := t.now()
	for _, profile := range profiles {
		if err := t.remindProfile(ctx, profile, now); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *ReviewReminderTask) remindProfile(ctx context.Context, profile string, now time.Time) error {
	timeline := t.app.TimelineService
	due, err := timeline.Due(ctx, profile, now)
	if err != nil || len(due) == 0 {
		return err
	}

	fallback := timeline.NotifyEmail(ctx, profile)
	ids := make([]string, 0, len(due))
	for _, e := range due {
		ids = append(ids, e.ID)
		t.notify(ctx, profile, e, fallback)
	}
	return timeline.MarkNotified(ctx, profile, ids)
}

// notify 通过 Worker Pool 异步发送，邮件未配置或无收件人时跳过
func (t *ReviewReminderTask) notify(ctx context.Context, profile string, e domain.TimelineEntry, fallback string) {
	to := strings.TrimSpace(e.Email)
	if to == "" {
		to = fallback
	}
	sender := t.app.Mailer
	if sender == nil || to == "" {
		t.count(reminderSkipped)
		return
	}

	subject := t.app.Config().Mail.Subject
	body := reminderBody(e)
	err := t.app.SubmitTaskAsync(context.WithoutCancel(ctx), func(context.Context) error {
		if err := sender.Send([]string{to}, subject, body); err != nil {
			t.count(reminderFailed)
			t.app.Logger().Warn("review reminder send failed",
				zap.String(logger.FieldTraceID, middleware.GetTraceID(ctx)),
				zap.String(logger.FieldProfile, profile),
				zap.String("entry", e.ID),
				zap.Error(err))
			return err
		}
		t.count(reminderSent)
		return nil
	})
	if err != nil {
		t.count(reminderFailed)
		t.app.Logger().Warn("review reminder not queued",
			zap.String(logger.FieldTraceID, middleware.GetTraceID(ctx)),
			zap.String(logger.FieldProfile, profile),
			zap.String("entry", e.ID),
			zap.Error(err))
	}
}

func (t *ReviewReminderTask) count(result string) {
	if t.app.Metrics != nil {
		t.app.Metrics.Reminders.WithLabelValues(result).Inc()
	}
}

func reminderBody(e domain.TimelineEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", e.Label)
	fmt.Fprintf(&b, "%s\n", e.When.Local().Format("2006-01-02 15:04"))
	if e.RecordingID != "" {
		fmt.Fprintf(&b, "recording: %s\n", e.RecordingID)
	}
	return b.String()
}
