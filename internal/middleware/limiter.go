package middleware

import (
	"math"
	"strconv"

	"github.com/haierkeys/preppal-study-sync/pkg/app"
	"github.com/haierkeys/preppal-study-sync/pkg/code"
	"github.com/haierkeys/preppal-study-sync/pkg/limiter"

	"github.com/gin-gonic/gin"
)

// RateLimiter 按路由令牌桶限流，桶空时返回 429 并给出 Retry-After（秒）
func RateLimiter(l limiter.Face) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := l.Key(c)
		bucket, ok := l.GetBucket(key)
		if !ok || bucket.TakeAvailable(1) > 0 {
			c.Next()
			return
		}

		if rate := bucket.Rate(); rate > 0 {
			c.Header("Retry-After", strconv.Itoa(max(int(math.Round(1/rate)), 1)))
		}
		app.NewResponse(c).ToResponse(code.ErrorTooManyRequests.WithDetails(key))
		c.Abort()
	}
}
