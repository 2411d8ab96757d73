package service

import (
	"context"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/internal/study"
	"github.com/haierkeys/preppal-study-sync/pkg/code"
	"github.com/haierkeys/preppal-study-sync/pkg/logger"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// recordTimeout 单次作答写入累计统计的上限
const recordTimeout = 10 * time.Second

// StudyView 学习会话视图
type StudyView struct {
	ID string `json:"id"`
	study.View
}

// StudyService 定义服务端学习会话服务接口
type StudyService interface {
	// Start 以卡组（可按来源过滤）开始新会话
	Start(ctx context.Context, profile string, filter CardFilter) (*StudyView, error)

	// Get 会话当前视图
	Get(ctx context.Context, profile, id string) (*StudyView, error)

	// Flip 翻面
	Flip(ctx context.Context, profile, id string) (*StudyView, error)

	// Answer 作答并前进
	Answer(ctx context.Context, profile, id string, correct bool) (*StudyView, error)

	// Next 下一张
	Next(ctx context.Context, profile, id string) (*StudyView, error)

	// Back 上一张
	Back(ctx context.Context, profile, id string) (*StudyView, error)

	// Reset 重新开始，累计统计不变
	Reset(ctx context.Context, profile, id string) (*StudyView, error)

	// End 结束会话
	End(ctx context.Context, profile, id string) error
}

// studyService 实现 StudyService 接口
type studyService struct {
	deck     DeckService
	stats    StatsService
	logger   *zap.Logger
	sessions *cache.Cache
}

// NewStudyService 创建 StudyService 实例
func NewStudyService(deck DeckService, stats StatsService, config *ServiceConfig, lg *zap.Logger) StudyService {
	if lg == nil {
		lg = zap.NewNop()
	}
	idle := config.Study.SessionIdleTimeout
	if idle <= 0 {
		idle = 2 * time.Hour
	}
	return &studyService{
		deck:     deck,
		stats:    stats,
		logger:   lg,
		sessions: cache.New(idle, idle/2),
	}
}

func sessionKey(profile, id string) string {
	return profile + "/" + id
}

func (s *studyService) get(profile, id string) (*study.Session, error) {
	key := sessionKey(profile, id)
	v, ok := s.sessions.Get(key)
	if !ok {
		return nil, code.ErrorStudyNotFound.WithDetails(id)
	}
	s.sessions.SetDefault(key, v)
	return v.(*study.Session), nil
}

func view(id string, sess *study.Session) *StudyView {
	return &StudyView{ID: id, View: sess.Snapshot()}
}

// Start 开始新会话
func (s *studyService) Start(ctx context.Context, profile string, filter CardFilter) (*StudyView, error) {
	cards, err := s.deck.List(ctx, profile, filter)
	if err != nil {
		return nil, err
	}
	cumulative, err := s.stats.Load(ctx, profile)
	if err != nil {
		return nil, err
	}

	// 累计统计以存储为准，每次作答在档案写队列内读-改-写，并由 StatsService 广播
	sess := study.New(cumulative,
		study.WithRecorder(func(correct bool) (domain.StudyStats, error) {
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()
			return s.stats.Record(ctx, profile, correct)
		}),
	)
	if err := sess.Start(cards); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	s.sessions.SetDefault(sessionKey(profile, id), sess)
	s.logger.Debug("study session started",
		zap.String(logger.FieldProfile, profile),
		zap.String(logger.FieldSessionID, id),
		zap.Int("cards", len(cards)),
	)
	return view(id, sess), nil
}

func (s *studyService) apply(profile, id string, fn func(*study.Session) error) (*StudyView, error) {
	sess, err := s.get(profile, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	return view(id, sess), nil
}

// Get 会话视图
func (s *studyService) Get(ctx context.Context, profile, id string) (*StudyView, error) {
	return s.apply(profile, id, func(*study.Session) error { return nil })
}

// Flip 翻面
func (s *studyService) Flip(ctx context.Context, profile, id string) (*StudyView, error) {
	return s.apply(profile, id, (*study.Session).Flip)
}

// Answer 作答
func (s *studyService) Answer(ctx context.Context, profile, id string, correct bool) (*StudyView, error) {
	return s.apply(profile, id, func(sess *study.Session) error {
		_, err := sess.Answer(correct)
		return err
	})
}

// Next 下一张
func (s *studyService) Next(ctx context.Context, profile, id string) (*StudyView, error) {
	return s.apply(profile, id, (*study.Session).Next)
}

// Back 上一张
func (s *studyService) Back(ctx context.Context, profile, id string) (*StudyView, error) {
	return s.apply(profile, id, (*study.Session).Back)
}

// Reset 重新开始
func (s *studyService) Reset(ctx context.Context, profile, id string) (*StudyView, error) {
	return s.apply(profile, id, (*study.Session).Reset)
}

// End 结束会话
func (s *studyService) End(ctx context.Context, profile, id string) error {
	key := sessionKey(profile, id)
	if _, ok := s.sessions.Get(key); !ok {
		return code.ErrorStudyNotFound.WithDetails(id)
	}
	s.sessions.Delete(key)
	return nil
}
