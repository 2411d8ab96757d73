package middleware

import (
	"net/http"
	"time"

	"github.com/haierkeys/preppal-study-sync/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AccessLogWithLogger 访问日志中间件，5xx 记为 Warn
func AccessLogWithLogger(lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		url := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			url += "?" + q
		}

		c.Next()

		status := c.Writer.Status()
		level := zapcore.InfoLevel
		if status >= http.StatusInternalServerError {
			level = zapcore.WarnLevel
		}
		fields := []zap.Field{
			zap.String(logger.FieldMethod, c.Request.Method),
			zap.String(logger.FieldURL, url),
			zap.Int("status", status),
			zap.String(logger.FieldProfile, ProfileFrom(c)),
			zap.String(logger.FieldTraceID, GetTraceIDFromGin(c)),
			zap.Duration(logger.FieldDuration, time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("user-agent", c.Request.UserAgent()),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, zap.String("errors", errs))
		}
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		lg.Log(level, route, fields...)
	}
}
