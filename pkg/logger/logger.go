// Package logger builds the runtime zap logger from config
// Package logger 根据配置构建运行期 zap 日志器
package logger

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config logger configuration
// Config 日志配置
type Config struct {
	// Level see zapcore.ParseLevel
	// Level 日志级别
	Level string
	// File log file path, empty writes to stderr only
	// File 日志文件路径，为空时只输出到 stderr
	File string
	// Production JSON output when true
	// Production 为 true 时输出 JSON
	Production bool
}

// NewLogger creates a logger writing to stderr and, when set, to the log file
// NewLogger 创建日志器，输出到 stderr，配置文件路径时同时写入文件
func NewLogger(cfg Config) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
		}
		level = l
	}

	var zc zap.Config
	if cfg.Production {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0754); err != nil {
			return nil, errors.Wrap(err, "create log directory failed")
		}
		zc.OutputPaths = append(zc.OutputPaths, cfg.File)
	}

	lg, err := zc.Build(zap.AddCaller())
	if err != nil {
		return nil, errors.Wrap(err, "build logger failed")
	}
	return lg, nil
}
