package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics API 请求指标
type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec   // 按路由、方法、状态码统计请求数
	RequestDuration *prometheus.HistogramVec // 按路由、方法统计耗时
	InFlight        prometheus.Gauge         // 处理中的请求
}

// NewHTTPMetrics 创建并注册 API 请求指标
func NewHTTPMetrics(reg prometheus.Registerer) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "preppal_http_requests_total",
				Help: "Total number of API requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "preppal_http_request_duration_seconds",
				Help:    "API request latency by route and method",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"route", "method"},
		),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "preppal_http_requests_in_flight",
			Help: "Number of API requests being served",
		}),
	}
	for _, c := range []prometheus.Collector{m.RequestsTotal, m.RequestDuration, m.InFlight} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register http metrics failed")
		}
	}
	return m, nil
}

// Metrics 记录请求指标；未匹配路由的请求归入 "unmatched"
func Metrics(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		m.InFlight.Inc()
		defer m.InFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
