package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	internalApp "github.com/haierkeys/preppal-study-sync/internal/app"
	"github.com/haierkeys/preppal-study-sync/internal/dao"
	"github.com/haierkeys/preppal-study-sync/internal/middleware"
	"github.com/haierkeys/preppal-study-sync/internal/routers"
	"github.com/haierkeys/preppal-study-sync/internal/task"
	"github.com/haierkeys/preppal-study-sync/internal/upgrade"
	"github.com/haierkeys/preppal-study-sync/pkg/logger"
	"github.com/haierkeys/preppal-study-sync/pkg/safe_close"
	"github.com/haierkeys/preppal-study-sync/pkg/validator"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Server struct {
	logger            *zap.Logger             // 日志对象
	config            *internalApp.AppConfig  // 应用配置
	ut                *ut.UniversalTranslator // 翻译器
	httpServer        *http.Server
	privateHttpServer *http.Server
	sc                *safe_close.SafeClose
	app               *internalApp.App // App Container
}

func NewServer(runEnv *runFlags) (*Server, error) {

	appConfig, configRealpath, err := internalApp.LoadConfig(runEnv.config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	// 命令行参数优先于配置文件
	if len(runEnv.runMode) > 0 {
		appConfig.Server.RunMode = runEnv.runMode
	}
	if len(runEnv.port) > 0 {
		appConfig.Server.HttpPort = ":" + runEnv.port
	}

	if len(appConfig.Server.RunMode) > 0 {
		gin.SetMode(appConfig.Server.RunMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config: appConfig,
		sc:     safe_close.NewSafeClose(),
	}

	lg, err := logger.NewLogger(appConfig.GetLoggerConfig())
	if err != nil {
		return nil, errors.Wrap(err, "initLogger")
	}
	s.logger = lg

	if err := initStorageWithConfig(appConfig); err != nil {
		return nil, errors.Wrap(err, "initStorage")
	}

	db, err := dao.NewDBEngine(appConfig.GetDatabaseConfig())
	if err != nil {
		return nil, errors.Wrap(err, "initDatabase")
	}
	if appConfig.Database.AutoMigrate {
		if err := upgrade.Execute(context.Background(), db, s.logger); err != nil {
			return nil, errors.Wrap(err, "upgrade")
		}
	}

	app, err := internalApp.NewApp(appConfig, s.logger, db)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create app container")
	}
	s.app = app

	uni, err := validator.Setup()
	if err != nil {
		_ = app.Shutdown(context.Background())
		return nil, errors.Wrap(err, "initValidator")
	}
	s.ut = uni

	// HTTP 指标与应用指标共用一个注册表，由私有路由统一暴露
	httpMetrics, err := middleware.NewHTTPMetrics(app.Metrics.Registry())
	if err != nil {
		_ = app.Shutdown(context.Background())
		return nil, errors.Wrap(err, "initHTTPMetrics")
	}

	initScheduler(s)

	s.logger.Warn(fmt.Sprintf("%s v%s\nGit: %s\nBuildTime: %s\n", internalApp.Name, internalApp.Version, internalApp.GitTag, internalApp.BuildTime))
	s.logger.Warn("config loaded", zap.String("path", configRealpath))

	if httpAddr := appConfig.Server.HttpPort; len(httpAddr) > 0 {
		s.logger.Warn("api_router", zap.String("config.server.HttpPort", httpAddr))
		s.httpServer = &http.Server{
			Addr:           httpAddr,
			Handler:        routers.NewRouter(s.app, s.ut, httpMetrics),
			ReadTimeout:    time.Duration(appConfig.Server.ReadTimeout) * time.Second,
			WriteTimeout:   time.Duration(appConfig.Server.WriteTimeout) * time.Second,
			MaxHeaderBytes: 1 << 20,
		}
		s.serve(s.httpServer, "api service")
	}

	if httpAddr := appConfig.Server.PrivateHttpListen; len(httpAddr) > 0 {
		s.logger.Info("api_router", zap.String("config.server.PrivateHttpListen", httpAddr))
		s.privateHttpServer = &http.Server{
			Addr:           httpAddr,
			Handler:        routers.NewPrivateRouterWithLogger(appConfig.Server.RunMode, s.logger, app.Metrics.Registry()),
			ReadTimeout:    time.Duration(appConfig.Server.ReadTimeout) * time.Second,
			WriteTimeout:   time.Duration(appConfig.Server.WriteTimeout) * time.Second,
			MaxHeaderBytes: 1 << 20,
		}
		s.serve(s.privateHttpServer, "private api service")
	}

	// App Container 的优雅关闭：先保存编辑器草稿，再停 Worker Pool 与写队列，最后关闭数据库
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal

		ctx, cancel := context.WithTimeout(context.Background(), internalApp.DefaultShutdownTimeout)
		defer cancel()

		if err := s.app.Shutdown(ctx); err != nil {
			s.logger.Error("failed to shutdown app container", zap.Error(err))
		} else {
			s.logger.Info("App container shutdown gracefully")
		}
		_ = s.logger.Sync()
	})

	return s, nil
}

// serve 启动 HTTP 服务并挂到 safe_close；监听失败时触发整体关闭
func (s *Server) serve(srv *http.Server, name string) {
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		errChan := make(chan error, 1)
		go func() {
			errChan <- srv.ListenAndServe()
		}()
		select {
		case err := <-errChan:
			s.logger.Error(name+" err", zap.Error(err))
			s.sc.SendCloseSignal(err)
		case <-closeSignal:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				s.logger.Error(name+" shutdown error", zap.Error(err))
			}
		}
	})
}

func initScheduler(s *Server) {
	manager := task.NewManager(s.app, s.sc)

	// 注册所有任务(业务层控制)
	if err := manager.RegisterTasks(); err != nil {
		s.logger.Error("failed to register tasks", zap.Error(err))
		return
	}

	manager.Start()
}

// initStorageWithConfig 创建日志与数据库所在目录
func initStorageWithConfig(cfg *internalApp.AppConfig) error {
	dirs := []string{
		filepath.Dir(cfg.Log.File),
	}
	if cfg.Database.Type == "sqlite" || cfg.Database.Type == "sqlite-cgo" {
		dirs = append(dirs, filepath.Dir(cfg.Database.Path))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0754); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}
	return nil
}

// GetApp 获取 App Container
func (s *Server) GetApp() *internalApp.App {
	return s.app
}

// GetConfig 获取应用配置
func (s *Server) GetConfig() *internalApp.AppConfig {
	return s.config
}
