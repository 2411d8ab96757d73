// Package limiter 基于令牌桶的请求限流
package limiter

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// Face 限流器接口
type Face interface {
	Key(c *gin.Context) string
	GetBucket(key string) (*ratelimit.Bucket, bool)
	AddBuckets(rules ...BucketRule) Face
}

// BucketRule 令牌桶规则
type BucketRule struct {
	// Key 路由路径
	Key          string
	FillInterval time.Duration
	Capacity     int64
	Quantum      int64
}

type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*ratelimit.Bucket
}

func (l *Limiter) GetBucket(key string) (*ratelimit.Bucket, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	bucket, ok := l.buckets[key]
	return bucket, ok
}

func (l *Limiter) add(rules []BucketRule) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rule := range rules {
		if rule.Key == "" || rule.Capacity <= 0 || rule.FillInterval <= 0 {
			continue
		}
		if _, ok := l.buckets[rule.Key]; ok {
			continue
		}
		quantum := rule.Quantum
		if quantum <= 0 {
			quantum = 1
		}
		l.buckets[rule.Key] = ratelimit.NewBucketWithQuantum(rule.FillInterval, rule.Capacity, quantum)
	}
}

// MethodLimiter 按路由限流，所有调用方共享一个桶
type MethodLimiter struct {
	*Limiter
}

func NewMethodLimiter() Face {
	return MethodLimiter{Limiter: &Limiter{buckets: make(map[string]*ratelimit.Bucket)}}
}

// Key 优先使用路由模板，未匹配时取去掉查询串的 URI
func (l MethodLimiter) Key(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	uri := c.Request.RequestURI
	if i := strings.Index(uri, "?"); i != -1 {
		return uri[:i]
	}
	return uri
}

func (l MethodLimiter) AddBuckets(rules ...BucketRule) Face {
	l.add(rules)
	return l
}
