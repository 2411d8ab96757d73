// Package writequeue serializes read-modify-write operations per profile
// Package writequeue 按档案串行化读-改-写操作
// Each profile owns one FIFO queue drained by a single worker, so two mutations of the
// same stored collection never interleave.
// 每个档案拥有一个由单一 worker 处理的 FIFO 队列，同一集合的两次修改不会交错。
package writequeue

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrWriteQueueFull returned when a profile queue is full
	// ErrWriteQueueFull 档案写队列已满
	ErrWriteQueueFull = errors.New("write queue is full")
	// ErrWriteQueueClosed returned after Shutdown
	// ErrWriteQueueClosed 写队列管理器已关闭
	ErrWriteQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout returned when an operation waited longer than WriteTimeout
	// ErrWriteTimeout 写操作等待超时
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config write queue configuration
// Config 写队列配置
type Config struct {
	// QueueCapacity per-profile queue capacity, default 100
	// QueueCapacity 每档案队列容量，默认 100
	QueueCapacity int
	// WriteTimeout wait limit for one operation, default 30 seconds
	// WriteTimeout 单个操作的等待上限，默认 30 秒
	WriteTimeout time.Duration
	// IdleTimeout idle queues are stopped after this, default 10 minutes
	// IdleTimeout 空闲队列在此时间后停止，默认 10 分钟
	IdleTimeout time.Duration
}

// DefaultConfig returns default configuration
// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 100,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

type writeOp struct {
	ctx    context.Context
	fn     func() error
	result chan error
}

type profileQueue struct {
	profile  string
	ch       chan writeOp
	stop     chan struct{}
	done     chan struct{}
	lastUsed time.Time
}

// Manager owns the queues of all profiles
// Manager 管理所有档案的写队列
type Manager struct {
	config Config
	logger *zap.Logger

	mu     sync.Mutex
	queues map[string]*profileQueue
	closed bool

	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// New creates a write queue manager, nil cfg uses defaults
// New 创建写队列管理器，cfg 为 nil 时使用默认配置
func New(cfg *Config, logger *zap.Logger) *Manager {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.QueueCapacity > 0 {
			c.QueueCapacity = cfg.QueueCapacity
		}
		if cfg.WriteTimeout > 0 {
			c.WriteTimeout = cfg.WriteTimeout
		}
		if cfg.IdleTimeout > 0 {
			c.IdleTimeout = cfg.IdleTimeout
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		config:      c,
		logger:      logger,
		queues:      make(map[string]*profileQueue),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
	go m.cleanupLoop()

	m.logger.Info("write queue manager started",
		zap.Int("queueCapacity", c.QueueCapacity),
		zap.Duration("writeTimeout", c.WriteTimeout),
		zap.Duration("idleTimeout", c.IdleTimeout))
	return m
}

// Execute runs fn on the profile's queue and waits for its result
// Execute 在档案队列上执行 fn 并等待结果
func (m *Manager) Execute(ctx context.Context, profile string, fn func() error) error {
	q, err := m.queue(profile)
	if err != nil {
		return err
	}

	op := writeOp{ctx: ctx, fn: fn, result: make(chan error, 1)}
	select {
	case q.ch <- op:
	default:
		return ErrWriteQueueFull
	}

	timer := time.NewTimer(m.config.WriteTimeout)
	defer timer.Stop()

	select {
	case err := <-op.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrWriteTimeout
	}
}

func (m *Manager) queue(profile string) (*profileQueue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrWriteQueueClosed
	}
	if q, ok := m.queues[profile]; ok {
		q.lastUsed = time.Now()
		return q, nil
	}

	q := &profileQueue{
		profile:  profile,
		ch:       make(chan writeOp, m.config.QueueCapacity),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		lastUsed: time.Now(),
	}
	m.queues[profile] = q
	go m.worker(q)

	m.logger.Debug("created write queue", zap.String("profile", profile))
	return q, nil
}

func (m *Manager) worker(q *profileQueue) {
	defer close(q.done)
	for {
		select {
		case op := <-q.ch:
			m.run(op)
		case <-q.stop:
			// drain what was accepted before the stop
			for {
				select {
				case op := <-q.ch:
					m.run(op)
				default:
					return
				}
			}
		}
	}
}

func (m *Manager) run(op writeOp) {
	if err := op.ctx.Err(); err != nil {
		op.result <- err
		return
	}
	op.result <- op.fn()
}

func (m *Manager) cleanupLoop() {
	defer close(m.cleanupDone)
	ticker := time.NewTicker(m.config.IdleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCleanup:
			return
		case <-ticker.C:
			m.cleanupIdle(time.Now())
		}
	}
}

func (m *Manager) cleanupIdle(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for profile, q := range m.queues {
		if now.Sub(q.lastUsed) > m.config.IdleTimeout && len(q.ch) == 0 {
			close(q.stop)
			delete(m.queues, profile)
			m.logger.Debug("stopped idle write queue", zap.String("profile", profile))
		}
	}
}

// Shutdown stops accepting work and waits for queued operations to finish
// Shutdown 停止接收新操作并等待已排队操作完成
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	queues := make([]*profileQueue, 0, len(m.queues))
	for _, q := range m.queues {
		close(q.stop)
		queues = append(queues, q)
	}
	m.queues = map[string]*profileQueue{}
	m.mu.Unlock()

	close(m.stopCleanup)
	m.logger.Info("write queue manager shutting down", zap.Int("queues", len(queues)))

	waits := []<-chan struct{}{m.cleanupDone}
	for _, q := range queues {
		waits = append(waits, q.done)
	}
	for _, done := range waits {
		select {
		case <-done:
		case <-ctx.Done():
			m.logger.Warn("write queue manager shutdown timeout")
			return ctx.Err()
		}
	}
	m.logger.Info("write queue manager shutdown completed")
	return nil
}

// QueueCount returns the number of live profile queues
// QueueCount 返回活跃档案队列数量
func (m *Manager) QueueCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues)
}
