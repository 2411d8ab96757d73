package routers

import (
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/app"
	"github.com/haierkeys/preppal-study-sync/internal/dto"
	"github.com/haierkeys/preppal-study-sync/internal/middleware"
	"github.com/haierkeys/preppal-study-sync/internal/routers/api_router"
	"github.com/haierkeys/preppal-study-sync/internal/routers/websocket_router"
	pkgapp "github.com/haierkeys/preppal-study-sync/pkg/app"
	"github.com/haierkeys/preppal-study-sync/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/lxzan/gws"
)

// NewRouter 创建 API 路由，所有接口位于 /api 下，档案取自 X-Profile 请求头或 profile 查询参数
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator, httpMetrics *middleware.HTTPMetrics) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()

	wss := pkgapp.NewWebsocketServer(pkgapp.WebsocketServerConfig{
		GWSOption: gws.ServerOption{
			CheckUtf8Enabled:    true,
			ParallelEnabled:     true,                                 // 开启并行消息处理
			Recovery:            gws.Recovery,                         // 开启异常恢复
			PermessageDeflate:   gws.PermessageDeflate{Enabled: true}, // 开启压缩
			ParallelGolimit:     8,
			ReadMaxPayloadSize:  cfg.Server.WsMaxPayloadSize,
			WriteMaxPayloadSize: cfg.Server.WsMaxPayloadSize,
		},
	}, appContainer.Logger())

	// 统计实时推送
	statsWSHandler := websocket_router.NewStatsWSHandler(appContainer)
	wss.OnConnect(statsWSHandler.OnConnect)
	wss.Use(dto.WsActionStatsGet, statsWSHandler.StatsGet)
	wss.Use(dto.WsActionStatsReset, statsWSHandler.StatsReset)

	methodLimiters := limiter.NewMethodLimiter().AddBuckets(cfg.GetLimiterRules()...)

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfoWithConfig(app.Name, appContainer.Version().Version))
		api.Use(middleware.Metrics(httpMetrics))
		api.Use(middleware.TraceMiddlewareWithConfig(cfg.Tracer.Enabled, cfg.Tracer.Header)) // Trace ID 中间件
		api.Use(middleware.RateLimiter(methodLimiters))
		api.Use(middleware.ContextTimeout(time.Duration(cfg.App.DefaultContextTimeout) * time.Second))
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLogWithLogger(appContainer.Logger()))
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))
		api.Use(middleware.Profile())

		// 创建 Handlers（注入 App Container）
		noteHandler := api_router.NewNoteHandler(appContainer)
		editorHandler := api_router.NewEditorHandler(appContainer)
		cardHandler := api_router.NewCardHandler(appContainer)
		statsHandler := api_router.NewStatsHandler(appContainer)
		studyHandler := api_router.NewStudyHandler(appContainer)
		timelineHandler := api_router.NewTimelineHandler(appContainer)
		recordingHandler := api_router.NewRecordingHandler(appContainer)
		versionHandler := api_router.NewVersionHandler(appContainer)

		api.GET("/version", versionHandler.ServerVersion)

		api.GET("/notes", noteHandler.List)
		api.POST("/notes", noteHandler.Create)
		api.GET("/notes/:id", noteHandler.Get)
		api.PUT("/notes/:id", noteHandler.Update)
		api.DELETE("/notes/:id", noteHandler.Delete)
		api.GET("/notes/:id/versions", noteHandler.Versions)
		api.POST("/notes/:id/restore", noteHandler.Restore)
		api.GET("/notes/:id/diff", noteHandler.Diff)
		api.POST("/notes/:id/quiz", recordingHandler.CreateQuiz)

		api.POST("/editors", editorHandler.Open)
		api.PUT("/editors/:id", editorHandler.Change)
		api.POST("/editors/:id/save", editorHandler.Save)
		api.DELETE("/editors/:id", editorHandler.Close)

		api.GET("/cards", cardHandler.List)
		api.POST("/cards/rebuild", cardHandler.Rebuild)
		api.POST("/cards/rebuild/notes", cardHandler.RebuildNotes)
		api.POST("/cards/rebuild/recordings", cardHandler.RebuildRecordings)

		api.GET("/stats", statsHandler.Get)
		api.POST("/stats/reset", statsHandler.Reset)
		api.GET("/stats/ws", wss.Run(middleware.ProfileFrom))

		api.POST("/study", studyHandler.Start)
		api.GET("/study/:id", studyHandler.Get)
		api.POST("/study/:id/flip", studyHandler.Flip)
		api.POST("/study/:id/answer", studyHandler.Answer)
		api.POST("/study/:id/next", studyHandler.Next)
		api.POST("/study/:id/back", studyHandler.Back)
		api.POST("/study/:id/reset", studyHandler.Reset)
		api.DELETE("/study/:id", studyHandler.End)

		api.GET("/timeline", timelineHandler.List)
		api.POST("/timeline", timelineHandler.Add)
		api.POST("/timeline/review", timelineHandler.Review)
		api.DELETE("/timeline/:id", timelineHandler.Done)

		api.GET("/recordings", recordingHandler.List)
		api.POST("/recordings", recordingHandler.Upload)
		api.POST("/recordings/:id/import", recordingHandler.Import)
		api.POST("/recordings/:id/title", recordingHandler.UpdateTitle)
		api.GET("/quizzes", recordingHandler.ListQuizzes)
		api.GET("/quizzes/:id", recordingHandler.GetQuiz)
	}

	r.NoRoute(middleware.NoFound())

	return r
}
