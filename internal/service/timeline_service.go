package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/pkg/code"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TimelineInput 新增时间线条目的参数
type TimelineInput struct {
	When        time.Time
	Label       string
	RecordingID string
	Email       string
}

// ReviewRequest 安排复习的参数；Demo 为 false 时 GoalDate 必填
type ReviewRequest struct {
	RecordingID string
	Label       string
	Email       string
	GoalDate    *time.Time
	Demo        bool
}

// TimelineService 定义复习时间线服务接口
type TimelineService interface {
	// List 按时间升序列出
	List(ctx context.Context, profile string) ([]domain.TimelineEntry, error)

	// Add 新增条目，标签为空时使用 "Review"
	Add(ctx context.Context, profile string, in TimelineInput) (*domain.TimelineEntry, error)

	// Done 完成并移除条目
	Done(ctx context.Context, profile, id string) error

	// ScheduleReview 根据目标日期计算下次复习时间并加入时间线
	ScheduleReview(ctx context.Context, profile string, req ReviewRequest) (*domain.TimelineEntry, error)

	// Due 已到期且未提醒的条目
	Due(ctx context.Context, profile string, now time.Time) ([]domain.TimelineEntry, error)

	// MarkNotified 标记条目已提醒
	MarkNotified(ctx context.Context, profile string, ids []string) error

	// SetNotifyEmail 设置档案的提醒邮箱
	SetNotifyEmail(ctx context.Context, profile, email string) error

	// NotifyEmail 档案的提醒邮箱
	NotifyEmail(ctx context.Context, profile string) string
}

// timelineService 实现 TimelineService 接口
type timelineService struct {
	store  *Store
	config *ServiceConfig
	logger *zap.Logger
}

// NewTimelineService 创建 TimelineService 实例
func NewTimelineService(store *Store, config *ServiceConfig, lg *zap.Logger) TimelineService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &timelineService{store: store, config: config, logger: lg}
}

func (s *timelineService) load(ctx context.Context, profile string) []domain.TimelineEntry {
	return loadJSON(ctx, s.store, profile, domain.KeyTimeline, []domain.TimelineEntry{})
}

// loadLocked 读失败时返回错误，写队列内的读-改-写使用
func (s *timelineService) loadLocked(ctx context.Context, profile string) ([]domain.TimelineEntry, error) {
	return loadJSONStrict(ctx, s.store, profile, domain.KeyTimeline, []domain.TimelineEntry{})
}

// List 按时间升序列出
func (s *timelineService) List(ctx context.Context, profile string) ([]domain.TimelineEntry, error) {
	list := s.load(ctx, profile)
	sortTimeline(list)
	return list, nil
}

func sortTimeline(list []domain.TimelineEntry) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].When.Before(list[j].When)
	})
}

// Add 新增条目
func (s *timelineService) Add(ctx context.Context, profile string, in TimelineInput) (*domain.TimelineEntry, error) {
	if in.When.IsZero() {
		return nil, code.ErrorInvalidParams.WithDetails("when is required")
	}
	label := strings.TrimSpace(in.Label)
	if label == "" {
		label = domain.DefaultTimelineLabel
	}
	e := domain.TimelineEntry{
		ID:          uuid.NewString(),
		When:        in.When,
		Label:       label,
		CreatedAt:   s.config.now(),
		RecordingID: in.RecordingID,
		Email:       in.Email,
	}
	err := s.store.Mutate(ctx, profile, func(ctx context.Context) error {
		list, err := s.loadLocked(ctx, profile)
		if err != nil {
			return err
		}
		list = append(list, e)
		sortTimeline(list)
		return saveJSON(ctx, s.store, profile, domain.KeyTimeline, list)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Done 完成并移除条目
func (s *timelineService) Done(ctx context.Context, profile, id string) error {
	return s.store.Mutate(ctx, profile, func(ctx context.Context) error {
		list, err := s.loadLocked(ctx, profile)
		if err != nil {
			return err
		}
		kept := list[:0:0]
		for _, e := range list {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		if len(kept) == len(list) {
			return code.ErrorTimelineNotFound.WithDetails(id)
		}
		return saveJSON(ctx, s.store, profile, domain.KeyTimeline, kept)
	})
}

// NextReviewAt 下次复习时间：演示模式固定延迟；否则取剩余天数的 20%（超过阈值时 10%），至少 1 天
func NextReviewAt(cfg StudyServiceConfig, now time.Time, goal *time.Time, demo bool) (time.Time, error) {
	if demo {
		return now.Add(cfg.DemoDelay), nil
	}
	if goal == nil || goal.IsZero() {
		return time.Time{}, code.ErrorInvalidReviewGoal.WithDetails("goal date is required")
	}
	days := int(goal.Sub(now).Hours() / 24)
	if days < 1 {
		days = 1
	}
	ratio := cfg.ReviewRatioLong
	if days <= cfg.ShortGoalDays {
		ratio = cfg.ReviewRatioShort
	}
	step := int(float64(days) * ratio)
	if step < 1 {
		step = 1
	}
	return now.AddDate(0, 0, step), nil
}

// ScheduleReview 安排下一次复习
func (s *timelineService) ScheduleReview(ctx context.Context, profile string, req ReviewRequest) (*domain.TimelineEntry, error) {
	when, err := NextReviewAt(s.config.Study, s.config.now(), req.GoalDate, req.Demo)
	if err != nil {
		return nil, err
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = s.NotifyEmail(ctx, profile)
	}
	return s.Add(ctx, profile, TimelineInput{
		When:        when,
		Label:       req.Label,
		RecordingID: req.RecordingID,
		Email:       email,
	})
}

// Due 已到期且未提醒的条目
func (s *timelineService) Due(ctx context.Context, profile string, now time.Time) ([]domain.TimelineEntry, error) {
	due := []domain.TimelineEntry{}
	for _, e := range s.load(ctx, profile) {
		if e.Due(now) {
			due = append(due, e)
		}
	}
	return due, nil
}

// MarkNotified 标记条目已提醒
func (s *timelineService) MarkNotified(ctx context.Context, profile string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return s.store.Mutate(ctx, profile, func(ctx context.Context) error {
		list, err := s.loadLocked(ctx, profile)
		if err != nil {
			return err
		}
		for i := range list {
			if _, ok := set[list[i].ID]; ok {
				list[i].Notified = true
			}
		}
		return saveJSON(ctx, s.store, profile, domain.KeyTimeline, list)
	})
}

// SetNotifyEmail 设置提醒邮箱，空字符串表示关闭
func (s *timelineService) SetNotifyEmail(ctx context.Context, profile, email string) error {
	email = strings.TrimSpace(email)
	return s.store.Mutate(ctx, profile, func(ctx context.Context) error {
		if email == "" {
			if err := s.store.repo.Delete(ctx, profile, domain.KeyEmail); err != nil {
				return code.ErrorStorage.WithDetails(err.Error())
			}
			return nil
		}
		return saveJSON(ctx, s.store, profile, domain.KeyEmail, email)
	})
}

// NotifyEmail 档案的提醒邮箱
func (s *timelineService) NotifyEmail(ctx context.Context, profile string) string {
	return loadJSON(ctx, s.store, profile, domain.KeyEmail, "")
}
