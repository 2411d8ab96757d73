package cmd

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/haierkeys/preppal-study-sync/pkg/fileurl"

	"github.com/pkg/errors"
	"github.com/radovskyb/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runFlags struct {
	dir     string // 项目根目录
	port    string // 启动端口
	runMode string // 启动模式
	config  string // 指定要使用的配置文件路径
}

// defaultConfigPath 未指定配置时使用的路径
const defaultConfigPath = "config/config.yaml"

// resolveConfig 查找配置文件，都不存在时写出内置默认配置
func resolveConfig(path string) (string, error) {
	if len(path) > 0 {
		return path, nil
	}
	if p := fileurl.FirstExisting("config/config-dev.yaml", "config.yaml", defaultConfigPath); p != "" {
		return p, nil
	}

	bootstrapLogger.Warn("config file not found, creating default config")
	if err := fileurl.CreatePath(defaultConfigPath, os.ModePerm); err != nil {
		return "", errors.Wrap(err, "config file auto create error")
	}
	if err := os.WriteFile(defaultConfigPath, []byte(configDefault), 0644); err != nil {
		return "", errors.Wrap(err, "config file auto create writing error")
	}
	bootstrapLogger.Info("config file auto create successfully", zap.String("path", defaultConfigPath))
	return defaultConfigPath, nil
}

func init() {
	runEnv := new(runFlags)

	var runCommand = &cobra.Command{
		Use:   "run [-c config_file] [-d working_dir] [-p port]",
		Short: "Run service",
		Run: func(cmd *cobra.Command, args []string) {
			if len(runEnv.dir) > 0 {
				if err := os.Chdir(runEnv.dir); err != nil {
					bootstrapLogger.Error("failed to change the current working directory", zap.Error(err))
				}
				bootstrapLogger.Info("working directory changed", zap.String("dir", runEnv.dir))
			}

			configPath, err := resolveConfig(runEnv.config)
			if err != nil {
				bootstrapLogger.Error("resolve config failed", zap.Error(err))
				return
			}
			runEnv.config = configPath

			s, err := NewServer(runEnv)
			if err != nil {
				bootstrapLogger.Error("api service start err", zap.Error(err))
				return
			}
			// 重载时替换 s，主协程退出时读取
			var mu sync.Mutex

			w := watcher.New()
			// 每个监听周期至多接收 1 个事件，只关心写入
			w.SetMaxEvents(1)
			w.FilterOps(watcher.Write)

			go func() {
				for {
					select {
					case event := <-w.Event:
						bootstrapLogger.Info("config watcher change", zap.String("event", event.Op.String()), zap.String("file", event.Path))

						// 先等旧实例释放端口与数据库，再按新配置重建
						mu.Lock()
						s.sc.SendCloseSignal(nil)
						if err := s.sc.WaitClosed(); err != nil {
							s.logger.Error("shutdown before reload failed", zap.Error(err))
						}
						if next, err := NewServer(runEnv); err != nil {
							bootstrapLogger.Error("service restart err", zap.Error(err))
						} else {
							s = next
						}
						mu.Unlock()
					case err := <-w.Error:
						bootstrapLogger.Error("config watcher error", zap.Error(err))
					case <-w.Closed:
						bootstrapLogger.Info("config watcher closed")
						return
					}
				}
			}()

			if err := w.Add(runEnv.config); err != nil {
				bootstrapLogger.Error("config watcher file error", zap.Error(err))
			}
			go func() {
				if err := w.Start(time.Second * 5); err != nil {
					bootstrapLogger.Error("config watcher start error", zap.Error(err))
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			w.Close()
			mu.Lock()
			defer mu.Unlock()
			s.logger.Info("Received shutdown signal, initiating graceful shutdown...")
			s.sc.SendCloseSignal(nil)

			// 等待所有关闭处理器完成（包括 App Container 的优雅关闭）
			if err := s.sc.WaitClosed(); err != nil {
				s.logger.Error("Shutdown completed with error", zap.Error(err))
			} else {
				s.logger.Info("Service has been shut down gracefully.")
			}
		},
	}

	rootCmd.AddCommand(runCommand)
	fs := runCommand.Flags()
	fs.StringVarP(&runEnv.dir, "dir", "d", "", "run dir")
	fs.StringVarP(&runEnv.port, "port", "p", "", "run port")
	fs.StringVarP(&runEnv.runMode, "mode", "m", "", "run mode")
	fs.StringVarP(&runEnv.config, "config", "c", "", "config file")
}
