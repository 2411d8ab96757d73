package routers

import (
	"expvar"
	"net/http"
	"net/http/pprof"

	"github.com/haierkeys/preppal-study-sync/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DefaultPrefix pprof 路由前缀
const DefaultPrefix = "/debug/pprof"

// pprofProfiles runtime/pprof 内置的命名 profile
var pprofProfiles = []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"}

// NewPrivateRouterWithLogger 创建私有路由：/metrics、/debug/vars，debug 模式下附带 pprof。
// 只应监听在内网地址上
func NewPrivateRouterWithLogger(runMode string, logger *zap.Logger, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RecoveryWithLogger(logger))

	r.GET("/debug/vars", gin.WrapH(expvar.Handler()))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(logger),
	})))

	if runMode == gin.DebugMode {
		registerPprof(r.Group(DefaultPrefix))
	}
	return r
}

func registerPprof(g *gin.RouterGroup) {
	g.GET("/", gin.WrapF(pprof.Index))
	g.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	g.GET("/profile", gin.WrapF(pprof.Profile))
	g.GET("/trace", gin.WrapF(pprof.Trace))
	g.Match([]string{http.MethodGet, http.MethodPost}, "/symbol", gin.WrapF(pprof.Symbol))
	for _, name := range pprofProfiles {
		g.GET("/"+name, gin.WrapH(pprof.Handler(name)))
	}
}
