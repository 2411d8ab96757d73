package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// DefaultTraceIDHeader 默认的 Trace ID 请求头名称
	DefaultTraceIDHeader = "X-Trace-ID"
	// TraceIDKey gin.Context 中存储 Trace ID 的键
	TraceIDKey = "trace_id"

	maxTraceIDLen = 64
)

type traceCtxKey struct{}

// NewTraceID 生成 32 位十六进制 Trace ID
func NewTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ContextWithTraceID 将 Trace ID 写入 context，后台任务也用它串联日志
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceCtxKey{}, traceID)
}

// TraceMiddlewareWithConfig 创建请求追踪中间件。
// 沿用上游传入的 Trace ID（过长或含空白时重新生成），写入 gin.Context 与 request.Context，并回写响应头
func TraceMiddlewareWithConfig(enabled bool, headerName string) gin.HandlerFunc {
	if headerName == "" {
		headerName = DefaultTraceIDHeader
	}
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		traceID := c.GetHeader(headerName)
		if traceID == "" || len(traceID) > maxTraceIDLen || strings.ContainsAny(traceID, " \t\r\n") {
			traceID = NewTraceID()
		}

		c.Set(TraceIDKey, traceID)
		c.Request = c.Request.WithContext(ContextWithTraceID(c.Request.Context(), traceID))
		c.Header(headerName, traceID)

		c.Next()
	}
}

// GetTraceID 从 context.Context 获取 Trace ID
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceCtxKey{}).(string)
	return id
}

// GetTraceIDFromGin 从 gin.Context 获取 Trace ID
func GetTraceIDFromGin(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(TraceIDKey)
}
