package service

import (
	"context"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/pkg/eventbus"
	"github.com/haierkeys/preppal-study-sync/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// StatsBus 累计统计总线
type StatsBus = eventbus.Bus[domain.StatsEvent]

// NewStatsBus 创建统计总线
func NewStatsBus() *StatsBus {
	return eventbus.New[domain.StatsEvent]()
}

// StatsService 定义累计学习统计服务接口
type StatsService interface {
	// Load 读取累计统计，计数按存储值重新计算正确率
	Load(ctx context.Context, profile string) (domain.StudyStats, error)

	// Record 在档案写队列内把一次作答计入累计统计，落库后广播并返回新值。
	// 读失败时不写入，返回错误
	Record(ctx context.Context, profile string, correct bool) (domain.StudyStats, error)

	// Publish 在总线上广播统计快照，持久化由订阅者完成
	Publish(profile string, stats domain.StudyStats)

	// Reset 用户主动清零累计统计
	Reset(ctx context.Context, profile string) (domain.StudyStats, error)

	// Subscribe 订阅某档案的统计更新
	Subscribe(profile string, fn func(domain.StudyStats)) (unsubscribe func())

	// Close 取消持久化订阅
	Close()
}

// statsService 实现 StatsService 接口
type statsService struct {
	store       *Store
	bus         *StatsBus
	sf          *singleflight.Group
	logger      *zap.Logger
	unsubscribe func()
}

// NewStatsService 创建 StatsService 实例，并订阅总线将快照写入存储
func NewStatsService(store *Store, bus *StatsBus, lg *zap.Logger) StatsService {
	if lg == nil {
		lg = zap.NewNop()
	}
	s := &statsService{store: store, bus: bus, sf: &singleflight.Group{}, logger: lg}
	s.unsubscribe = bus.Subscribe(s.persist)
	return s
}

func (s *statsService) persist(ev domain.StatsEvent) {
	if ev.Stored {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.store.Mutate(ctx, ev.Profile, func(ctx context.Context) error {
		return saveJSON(ctx, s.store, ev.Profile, domain.KeyStats, ev.Stats)
	})
	if err != nil {
		s.logger.Error("persist study stats failed",
			zap.String(logger.FieldProfile, ev.Profile),
			zap.Error(err),
		)
	}
}

// Load 读取累计统计；并发读合并为一次，合并后的读取不受单个调用方取消的影响
func (s *statsService) Load(ctx context.Context, profile string) (domain.StudyStats, error) {
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.sf.Do(profile, func() (any, error) {
		st, err := loadJSONStrict(shared, s.store, profile, domain.KeyStats, domain.StudyStats{})
		if err != nil {
			return nil, err
		}
		return st.Normalize(), nil
	})
	if err != nil {
		return domain.StudyStats{}, err
	}
	return v.(domain.StudyStats), nil
}

// Record 计入一次作答
func (s *statsService) Record(ctx context.Context, profile string, correct bool) (domain.StudyStats, error) {
	var next domain.StudyStats
	err := s.store.Mutate(ctx, profile, func(ctx context.Context) error {
		cur, err := loadJSONStrict(ctx, s.store, profile, domain.KeyStats, domain.StudyStats{})
		if err != nil {
			return err
		}
		next = cur.Normalize().Record(correct)
		return saveJSON(ctx, s.store, profile, domain.KeyStats, next)
	})
	if err != nil {
		s.logger.Warn("record study answer failed",
			zap.String(logger.FieldProfile, profile),
			zap.Error(err),
		)
		return domain.StudyStats{}, err
	}
	s.bus.Publish(domain.StatsEvent{
		Profile:  profile,
		Stats:    next,
		Stored:   true,
		Answered: true,
		Correct:  correct,
	})
	return next, nil
}

// Publish 广播统计快照
func (s *statsService) Publish(profile string, stats domain.StudyStats) {
	s.bus.Publish(domain.StatsEvent{Profile: profile, Stats: stats})
}

// Reset 清零累计统计
func (s *statsService) Reset(ctx context.Context, profile string) (domain.StudyStats, error) {
	zero := domain.StudyStats{}
	err := s.store.Mutate(ctx, profile, func(ctx context.Context) error {
		return saveJSON(ctx, s.store, profile, domain.KeyStats, zero)
	})
	if err != nil {
		return zero, err
	}
	s.bus.Publish(domain.StatsEvent{Profile: profile, Stats: zero, Stored: true})
	return zero, nil
}

// Subscribe 订阅某档案的统计更新
func (s *statsService) Subscribe(profile string, fn func(domain.StudyStats)) func() {
	return s.bus.Subscribe(func(ev domain.StatsEvent) {
		if ev.Profile == profile {
			fn(ev.Stats)
		}
	})
}

// Close 取消持久化订阅
func (s *statsService) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}
