// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/backend"
	"github.com/haierkeys/preppal-study-sync/internal/dao"
	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/internal/service"
	pkgapp "github.com/haierkeys/preppal-study-sync/pkg/app"
	"github.com/haierkeys/preppal-study-sync/pkg/mailer"
	"github.com/haierkeys/preppal-study-sync/pkg/workerpool"
	"github.com/haierkeys/preppal-study-sync/pkg/writequeue"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	// 并发控制组件
	workerPool    *workerpool.Pool
	writeQueueMgr *writequeue.Manager

	// Repository 层
	KVRepo domain.KVRepository
	Store  *service.Store

	// 外部依赖
	Remote domain.RemoteClient
	Mailer mailer.Sender

	// Service 层
	StatsBus         *service.StatsBus
	DeckService      service.DeckService
	NoteService      service.NoteService
	StatsService     service.StatsService
	TimelineService  service.TimelineService
	RecordingService service.RecordingService
	EditorService    service.EditorService
	StudyService     service.StudyService

	// 指标
	Metrics *Metrics

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// Option NewApp 可选项
type Option func(*options)

type options struct {
	remote   domain.RemoteClient
	mailer   mailer.Sender
	registry *prometheus.Registry
}

// WithRemoteClient 替换后端客户端
func WithRemoteClient(c domain.RemoteClient) Option {
	return func(o *options) { o.remote = c }
}

// WithMailer 替换邮件发送器
func WithMailer(m mailer.Sender) Option {
	return func(o *options) { o.mailer = m }
}

// WithRegistry 使用指定的指标注册表
func WithRegistry(r *prometheus.Registry) Option {
	return func(o *options) { o.registry = r }
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
// db: 数据库连接（必须）
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		DB:         db,
		shutdownCh: make(chan struct{}),
	}

	// 初始化 Worker Pool
	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	// 初始化 Write Queue Manager
	wqConfig := cfg.GetWriteQueueConfig()
	a.writeQueueMgr = writequeue.New(&wqConfig, logger)

	// 初始化 DAO 与 Repository 层
	a.Dao = dao.New(db, dao.WithLogger(logger))
	a.KVRepo = dao.NewKVRepository(a.Dao)
	a.Store = service.NewStore(a.KVRepo, a.writeQueueMgr, logger)

	// 外部依赖
	a.Remote = o.remote
	if a.Remote == nil {
		a.Remote = backend.New(cfg.GetBackendConfig(), nil, logger)
	}
	a.Mailer = o.mailer
	if a.Mailer == nil {
		// New 在未配置时返回 nil，避免把 typed nil 放进接口
		if m := mailer.New(cfg.GetMailerConfig()); m != nil {
			a.Mailer = m
		}
	}

	// 初始化 Service 层（依赖注入）
	svcConfig := cfg.GetServiceConfig()
	a.StatsBus = service.NewStatsBus()
	a.DeckService = service.NewDeckService(a.Store, logger)
	a.NoteService = service.NewNoteService(a.Store, a.DeckService, svcConfig, logger)
	a.StatsService = service.NewStatsService(a.Store, a.StatsBus, logger)
	a.TimelineService = service.NewTimelineService(a.Store, svcConfig, logger)
	a.RecordingService = service.NewRecordingService(a.Remote, a.NoteService, a.DeckService, logger)
	a.EditorService = service.NewEditorService(a.NoteService, svcConfig, logger)
	a.StudyService = service.NewStudyService(a.DeckService, a.StatsService, svcConfig, logger)

	// 初始化指标
	registry := o.registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if err := a.initMetrics(registry); err != nil {
		a.StatsService.Close()
		return nil, err
	}

	logger.Info("App container initialized successfully",
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.Int("writeQueueCapacity", wqConfig.QueueCapacity),
		zap.Bool("backendConfigured", cfg.Backend.BaseURL != ""),
		zap.Bool("mailConfigured", a.Mailer != nil))

	return a, nil
}

func (a *App) initMetrics(registry *prometheus.Registry) error {
	m, err := NewMetrics(registry)
	if err != nil {
		return err
	}
	gauges := []struct {
		name, help string
		fn         func() float64
	}{
		{"preppal_worker_pool_active", "Active worker pool jobs", func() float64 {
			return float64(a.workerPool.GetMetrics().ActiveCount)
		}},
		{"preppal_worker_pool_queued", "Queued worker pool jobs", func() float64 {
			return float64(a.workerPool.GetMetrics().QueuedCount)
		}},
		{"preppal_write_queues", "Live per-profile write queues", func() float64 {
			return float64(a.writeQueueMgr.QueueCount())
		}},
		{"preppal_stats_subscribers", "Stats bus subscribers", func() float64 {
			return float64(a.StatsBus.Len())
		}},
	}
	for _, g := range gauges {
		if err := m.gauge(g.name, g.help, g.fn); err != nil {
			return err
		}
	}
	m.unsubscribeBus = a.StatsBus.Subscribe(m.observeStats())
	a.Metrics = m
	return nil
}

// Close 释放应用容器持有的资源
func (a *App) Close() error {
	if a.Dao != nil {
		if err := a.Dao.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		a.logger.Info("Database connection closed")
	}
	return nil
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// SubmitTaskAsync 异步提交任务到 Worker Pool（不等待结果）
// 返回错误如果池已满或已关闭
func (a *App) SubmitTaskAsync(ctx context.Context, task func(context.Context) error) error {
	return a.workerPool.SubmitAsync(ctx, task)
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown 优雅关闭应用容器
// 按顺序关闭：编辑器 -> 统计订阅 -> Worker Pool -> Write Queue Manager -> Database
// ctx 用于控制关闭超时，如果为 nil 则使用默认 30 秒超时
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("App container shutting down...")

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	// 标记关闭
	select {
	case <-a.shutdownCh:
		return nil
	default:
		close(a.shutdownCh)
	}

	var errs []error

	// 0. 保存并关闭所有编辑器，写入仍经过 Write Queue
	if a.EditorService != nil {
		a.logger.Info("Flushing open editors...")
		a.EditorService.Shutdown(ctx)
	}

	// 1. 取消统计总线订阅
	if a.Metrics != nil && a.Metrics.unsubscribeBus != nil {
		a.Metrics.unsubscribeBus()
	}
	if a.StatsService != nil {
		a.StatsService.Close()
	}

	// 2. 关闭 Worker Pool（停止接受新任务，等待现有任务完成）
	if a.workerPool != nil {
		a.logger.Info("Shutting down worker pool...")
		if err := a.workerPool.Shutdown(ctx); err != nil {
			a.logger.Warn("Worker pool shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("worker pool shutdown: %w", err))
		} else {
			a.logger.Info("Worker pool shutdown completed")
		}
	}

	// 3. 关闭 Write Queue Manager（排空所有队列）
	if a.writeQueueMgr != nil {
		a.logger.Info("Shutting down write queue manager...")
		if err := a.writeQueueMgr.Shutdown(ctx); err != nil {
			a.logger.Warn("write queue manager shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("write queue manager shutdown: %w", err))
		} else {
			a.logger.Info("write queue manager shutdown completed")
		}
	}

	// 4. 等待所有后台操作完成
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("All background operations completed")
	case <-ctx.Done():
		a.logger.Warn("Shutdown timeout waiting for background operations")
		errs = append(errs, fmt.Errorf("background operations timeout: %w", ctx.Err()))
	}

	// 5. 关闭数据库连接
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		a.logger.Warn("App container shutdown completed with errors",
			zap.Int("errorCount", len(errs)))
		return fmt.Errorf("shutdown completed with %d errors: %w", len(errs), errors.Join(errs...))
	}

	a.logger.Info("App container shutdown completed successfully")
	return nil
}

// IsShuttingDown 检查应用是否正在关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownCh 返回关闭信号通道（用于监听关闭事件）
func (a *App) ShutdownCh() <-chan struct{} {
	return a.shutdownCh
}

// TrackOperation 跟踪后台操作（用于优雅关闭时等待）
// 返回一个函数，在操作完成时调用
func (a *App) TrackOperation() func() {
	a.wg.Add(1)
	return func() {
		a.wg.Done()
	}
}
