// Package workerpool 提供有界的后台任务池
// 用于限制并发 goroutine 数量（后端请求、提醒邮件等）
package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrWorkerPoolFull 任务队列已满
	ErrWorkerPoolFull = errors.New("worker pool queue is full")
	// ErrWorkerPoolClosed Worker Pool 已关闭
	ErrWorkerPoolClosed = errors.New("worker pool is closed")
)

// Config Worker Pool 配置
type Config struct {
	// MaxWorkers 最大并发 worker 数量，默认 16
	MaxWorkers int
	// QueueSize 任务队列大小，默认 256
	QueueSize int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{MaxWorkers: 16, QueueSize: 256}
}

type job struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

// Pool 固定数量 worker 的任务池
type Pool struct {
	config Config
	logger *zap.Logger

	jobs    chan job
	wg      sync.WaitGroup
	active  atomic.Int64
	failed  atomic.Int64
	mu      sync.RWMutex
	closed  bool
}

// New 创建新的 Worker Pool，cfg 为 nil 时使用默认配置
func New(cfg *Config, logger *zap.Logger) *Pool {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.MaxWorkers > 0 {
			c.MaxWorkers = cfg.MaxWorkers
		}
		if cfg.QueueSize > 0 {
			c.QueueSize = cfg.QueueSize
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{
		config: c,
		logger: logger,
		jobs:   make(chan job, c.QueueSize),
	}
	for i := 0; i < c.MaxWorkers; i++ {
		p.wg.Add(1)
		go p.work()
	}

	p.logger.Info("worker pool started",
		zap.Int("maxWorkers", c.MaxWorkers),
		zap.Int("queueSize", c.QueueSize))
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	p.active.Add(1)
	defer p.active.Add(-1)

	var err error
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker pool task panic", zap.Any("panic", r), zap.Stack("stack"))
			err = errors.New("worker pool task panicked")
		}
		if err != nil {
			p.failed.Add(1)
		}
		if j.done != nil {
			j.done <- err
		}
	}()

	if err = j.ctx.Err(); err != nil {
		return
	}
	err = j.fn(j.ctx)
}

func (p *Pool) enqueue(j job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrWorkerPoolClosed
	}
	select {
	case p.jobs <- j:
		return nil
	default:
		return ErrWorkerPoolFull
	}
}

// Submit 提交任务并等待完成
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) error {
	done := make(chan error, 1)
	if err := p.enqueue(job{ctx: ctx, fn: fn, done: done}); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitAsync 异步提交任务（不等待结果）
func (p *Pool) SubmitAsync(ctx context.Context, fn func(context.Context) error) error {
	return p.enqueue(job{ctx: ctx, fn: fn})
}

// Shutdown 关闭 Worker Pool，等待已排队任务完成
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.logger.Info("worker pool shutting down",
		zap.Int64("activeCount", p.active.Load()),
		zap.Int("queuedCount", len(p.jobs)))

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool shutdown completed")
		return nil
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timeout")
		return ctx.Err()
	}
}

// Metrics Worker Pool 指标
type Metrics struct {
	MaxWorkers  int
	ActiveCount int64
	QueuedCount int
	FailedCount int64
}

// GetMetrics 获取当前指标
func (p *Pool) GetMetrics() Metrics {
	return Metrics{
		MaxWorkers:  p.config.MaxWorkers,
		ActiveCount: p.active.Load(),
		QueuedCount: len(p.jobs),
		FailedCount: p.failed.Load(),
	}
}
