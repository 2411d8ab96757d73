package task

import (
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/app"
	"github.com/haierkeys/preppal-study-sync/pkg/safe_close"

	"go.uber.org/zap"
)

// Manager 任务管理器,负责创建和管理所有任务
type Manager struct {
	app       *app.App
	scheduler *Scheduler
	logger    *zap.Logger
}

// NewManager 创建任务管理器，执行结果计入应用指标
func NewManager(a *app.App, sc *safe_close.SafeClose) *Manager {
	return &Manager{
		app:       a,
		scheduler: NewScheduler(a.Logger(), sc, metricsObserver(a.Metrics)),
		logger:    a.Logger(),
	}
}

func metricsObserver(m *app.Metrics) Observer {
	if m == nil {
		return nil
	}
	return func(name string, elapsed time.Duration, err error) {
		status := "success"
		if err != nil {
			status = "failed"
		}
		m.TaskRuns.WithLabelValues(name, status).Inc()
		m.TaskDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	}
}

// RegisterTasks 通过注册表创建所有任务
func (m *Manager) RegisterTasks() error {
	for _, factory := range GetFactories() {
		t, err := factory(m.app)
		if err != nil {
			m.logger.Warn("failed to create task", zap.Error(err))
			return err
		}
		if t == nil {
			continue
		}
		m.scheduler.AddTask(t)
	}
	m.logger.Info("tasks registered", zap.Strings("tasks", m.scheduler.Tasks()))
	return nil
}

// Tasks 已注册的任务名称
func (m *Manager) Tasks() []string {
	return m.scheduler.Tasks()
}

// Start 启动所有已注册的任务
func (m *Manager) Start() {
	m.scheduler.Start()
}
