// Package study 实现闪卡学习会话状态机
package study

import (
	"math/rand"
	"sync"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/pkg/code"
)

// State 会话状态
type State int

const (
	NotStarted State = iota
	ShowingQuestion
	ShowingAnswer
	Finished
)

func (s State) String() string {
	switch s {
	case ShowingQuestion:
		return "question"
	case ShowingAnswer:
		return "answer"
	case Finished:
		return "finished"
	}
	return "not_started"
}

// MarshalText 以字符串形式输出状态
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Publisher 接收每次作答后的累计统计
type Publisher func(domain.StudyStats)

// Option 会话可选项
type Option func(*Session)

// WithRand 指定洗牌使用的随机源
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rand = r }
}

// WithPublisher 设置累计统计的发布函数
func WithPublisher(p Publisher) Option {
	return func(s *Session) { s.publish = p }
}

// Recorder 把一次作答计入累计统计的存储值，返回计入后的累计统计
type Recorder func(correct bool) (domain.StudyStats, error)

// WithRecorder 设置累计统计的记录函数。设置后累计值以其返回为准，
// 记录失败时本次作答不生效
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.record = r }
}

// Session 一次学习会话。导航在首尾处截断，不循环。
type Session struct {
	mu sync.Mutex

	deck       []domain.Flashcard
	order      []domain.Flashcard
	index      int
	state      State
	counters   domain.StudyStats
	cumulative domain.StudyStats

	rand    *rand.Rand
	publish Publisher
	record  Recorder
}

// New 创建会话，cumulative 为加载时的累计统计
func New(cumulative domain.StudyStats, opts ...Option) *Session {
	s := &Session{cumulative: cumulative.Normalize()}
	for _, opt := range opts {
		opt(s)
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Start 洗牌并进入第一张卡片的问题面，会话计数清零
func (s *Session) Start(deck []domain.Flashcard) error {
	if len(deck) == 0 {
		return code.ErrorDeckEmpty
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deck = append([]domain.Flashcard(nil), deck...)
	s.restart()
	return nil
}

func (s *Session) restart() {
	s.order = append(s.order[:0], s.deck...)
	s.rand.Shuffle(len(s.order), func(i, j int) {
		s.order[i], s.order[j] = s.order[j], s.order[i]
	})
	s.index = 0
	s.counters = domain.StudyStats{}
	s.state = ShowingQuestion
}

// Flip 在问题面和答案面之间切换
func (s *Session) Flip() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.active(); err != nil {
		return err
	}
	if s.state == ShowingQuestion {
		s.state = ShowingAnswer
	} else {
		s.state = ShowingQuestion
	}
	return nil
}

// Answer 记录当前卡片的作答结果并前进；问题面作答视为先翻面。
// 返回更新后的累计统计。Recorder 在会话锁内调用，同一会话的作答按顺序计入
func (s *Session) Answer(correct bool) (domain.StudyStats, error) {
	s.mu.Lock()
	if err := s.active(); err != nil {
		s.mu.Unlock()
		return domain.StudyStats{}, err
	}
	cumulative := s.cumulative.Record(correct)
	if s.record != nil {
		st, err := s.record(correct)
		if err != nil {
			s.mu.Unlock()
			return domain.StudyStats{}, err
		}
		cumulative = st.Normalize()
	}
	s.counters = s.counters.Record(correct)
	s.cumulative = cumulative

	s.index++
	if s.index >= len(s.order) {
		s.state = Finished
	} else {
		s.state = ShowingQuestion
	}
	publish := s.publish
	s.mu.Unlock()

	// 锁外发布，订阅者可以回读会话
	if publish != nil {
		publish(cumulative)
	}
	return cumulative, nil
}

// Next 跳到下一张，不计分；已在最后一张时保持不动
func (s *Session) Next() error {
	return s.move(1)
}

// Back 回到上一张，不计分；已在第一张时保持不动
func (s *Session) Back() error {
	return s.move(-1)
}

func (s *Session) move(step int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.active(); err != nil {
		return err
	}
	i := s.index + step
	if i < 0 {
		i = 0
	}
	if i > len(s.order)-1 {
		i = len(s.order) - 1
	}
	s.index = i
	s.state = ShowingQuestion
	return nil
}

// Reset 重新洗牌并清零会话计数，累计统计保持不变
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.deck) == 0 {
		s.state = NotStarted
		s.counters = domain.StudyStats{}
		return nil
	}
	s.restart()
	return nil
}

func (s *Session) active() error {
	switch s.state {
	case NotStarted:
		return code.ErrorStudyNotStarted
	case Finished:
		return code.ErrorStudyFinished
	}
	return nil
}

// View 会话快照
type View struct {
	State      State             `json:"state"`
	Index      int               `json:"index"`
	Total      int               `json:"total"`
	Card       *domain.Flashcard `json:"card,omitempty"`
	Session    domain.StudyStats `json:"session"`
	Cumulative domain.StudyStats `json:"cumulative"`
}

// Snapshot 返回当前视图；问题面不包含答案
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		State:      s.state,
		Index:      s.index,
		Total:      len(s.order),
		Session:    s.counters,
		Cumulative: s.cumulative,
	}
	if s.state == ShowingQuestion || s.state == ShowingAnswer {
		card := s.order[s.index]
		if s.state == ShowingQuestion {
			card.Answer = ""
		}
		v.Card = &card
	}
	return v
}

// Counters 返回会话计数
func (s *Session) Counters() domain.StudyStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}
