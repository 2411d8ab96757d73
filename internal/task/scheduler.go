package task

import (
	"context"
	"sync"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/middleware"
	"github.com/haierkeys/preppal-study-sync/pkg/logger"
	"github.com/haierkeys/preppal-study-sync/pkg/safe_close"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task 定义任务接口
type Task interface {
	Name() string                  // 任务名称
	Run(ctx context.Context) error // 执行任务
	Schedule() cron.Schedule       // 执行计划，nil 表示不循环执行
	IsStartupRun() bool            // 是否立即执行一次
}

// Observer 每次任务执行结束后回调，用于指标统计
type Observer func(name string, elapsed time.Duration, err error)

// Scheduler 任务调度器，循环执行交给 cron，退出跟随 safe_close
type Scheduler struct {
	logger   *zap.Logger
	tasks    []Task
	sc       *safe_close.SafeClose
	observer Observer
}

// NewScheduler 创建任务调度器
func NewScheduler(logger *zap.Logger, sc *safe_close.SafeClose, observer Observer) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		logger:   logger,
		tasks:    make([]Task, 0),
		sc:       sc,
		observer: observer,
	}
}

// AddTask 添加任务
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Tasks 已添加的任务名称
func (s *Scheduler) Tasks() []string {
	names := make([]string, 0, len(s.tasks))
	for _, t := range s.tasks {
		names = append(names, t.Name())
	}
	return names
}

// Start 启动所有任务
func (s *Scheduler) Start() {
	if len(s.tasks) == 0 {
		s.logger.Info("no tasks to schedule")
		return
	}

	s.logger.Info("tasks starting", zap.Int("count", len(s.tasks)))

	lg := cronLogger{s.logger}
	c := cron.New(cron.WithLogger(lg), cron.WithChain(cron.SkipIfStillRunning(lg)))
	ctx, cancel := context.WithCancel(context.Background())

	var startup []Task
	for _, task := range s.tasks {
		if sch := task.Schedule(); sch != nil {
			c.Schedule(sch, cron.FuncJob(func() { s.run(ctx, task, "loopRun") }))
		}
		if task.IsStartupRun() {
			startup = append(startup, task)
		}
	}

	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()

		var wg sync.WaitGroup
		for _, task := range startup {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.run(ctx, task, "startupRun")
			}()
		}
		c.Start()

		<-closeSignal
		cancel()
		<-c.Stop().Done()
		wg.Wait()
		s.logger.Info("tasks stopped", zap.Int("count", len(s.tasks)))
	})
}

// run 执行一次任务，panic 转为错误
func (s *Scheduler) run(ctx context.Context, task Task, kind string) {
	traceID := middleware.NewTraceID()
	ctx = middleware.ContextWithTraceID(ctx, traceID)
	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("task panic",
					zap.String(logger.FieldTraceID, traceID),
					zap.String(logger.FieldTask, task.Name()),
					zap.String("type", kind),
					zap.Any("panic", r),
					zap.Stack("stack"))
				err = errors.Errorf("task %s panic: %v", task.Name(), r)
			}
		}()
		return task.Run(ctx)
	}()
	elapsed := time.Since(start)

	if err != nil {
		s.logger.Error("task log",
			zap.String(logger.FieldTraceID, traceID),
			zap.String(logger.FieldTask, task.Name()),
			zap.String("type", kind),
			zap.Duration(logger.FieldDuration, elapsed),
			zap.Error(err))
	} else {
		s.logger.Debug("task log",
			zap.String(logger.FieldTraceID, traceID),
			zap.String(logger.FieldTask, task.Name()),
			zap.String("type", kind),
			zap.Duration(logger.FieldDuration, elapsed),
			zap.String("msg", "success"))
	}

	if s.observer != nil {
		s.observer(task.Name(), elapsed, err)
	}
}

// cronLogger 将 cron 内部日志转到 zap
type cronLogger struct {
	l *zap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
