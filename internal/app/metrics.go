package app

import (
	"github.com/haierkeys/preppal-study-sync/internal/domain"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics 业务指标
type Metrics struct {
	StatsEvents    prometheus.Counter       // 统计总线上发布的快照数
	Answers        *prometheus.CounterVec   // 作答次数，按结果区分
	Reminders      *prometheus.CounterVec   // 复习提醒，按结果区分 sent | skipped | failed
	TaskRuns       *prometheus.CounterVec   // 定时任务执行次数
	TaskDuration   *prometheus.HistogramVec // 定时任务耗时
	registry       *prometheus.Registry
	unsubscribeBus func()
}

// NewMetrics 创建并注册业务指标与运行时指标
func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		registry: registry,
		StatsEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "preppal_stats_events_total",
			Help: "Study stats snapshots published on the bus",
		}),
		Answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "preppal_study_answers_total",
			Help: "Study answers recorded by result",
		}, []string{"result"}),
		Reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "preppal_review_reminders_total",
			Help: "Review reminders processed by result",
		}, []string{"result"}),
		TaskRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "preppal_task_runs_total",
			Help: "Scheduled task runs by task and status",
		}, []string{"task", "status"}),
		TaskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "preppal_task_duration_seconds",
			Help:    "Scheduled task duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"task"}),
	}

	for _, c := range []prometheus.Collector{
		m.StatsEvents, m.Answers, m.Reminders, m.TaskRuns, m.TaskDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := registry.Register(c); err != nil {
			return nil, errors.Wrap(err, "register metrics failed")
		}
	}
	return m, nil
}

// Registry 指标注册表
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// observeStats 统计总线订阅者：计数快照与作答结果
func (m *Metrics) observeStats() func(domain.StatsEvent) {
	return func(ev domain.StatsEvent) {
		m.StatsEvents.Inc()
		if !ev.Answered {
			return
		}
		if ev.Correct {
			m.Answers.WithLabelValues("correct").Inc()
		} else {
			m.Answers.WithLabelValues("incorrect").Inc()
		}
	}
}

// gauge 注册读取回调的 Gauge
func (m *Metrics) gauge(name, help string, fn func() float64) error {
	if err := m.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn)); err != nil {
		return errors.Wrapf(err, "register %s failed", name)
	}
	return nil
}
