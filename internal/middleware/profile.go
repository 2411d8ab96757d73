package middleware

import (
	"strings"

	"github.com/haierkeys/preppal-study-sync/pkg/app"
	"github.com/haierkeys/preppal-study-sync/pkg/code"
	"github.com/haierkeys/preppal-study-sync/pkg/validator"

	"github.com/gin-gonic/gin"
)

const (
	// ProfileHeader 档案请求头
	ProfileHeader = "X-Profile"
	// ProfileKey Context 中存储档案的键
	ProfileKey = "profile"
	// DefaultProfile 未指定档案时使用
	DefaultProfile = "default"
)

// Profile 解析本次请求所属档案：X-Profile 请求头，其次 profile 查询参数
func Profile() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := strings.TrimSpace(c.GetHeader(ProfileHeader))
		if p == "" {
			p = strings.TrimSpace(c.Query("profile"))
		}
		if p == "" {
			p = DefaultProfile
		}
		if !validator.ValidProfile(p) {
			app.NewResponse(c).ToResponse(code.ErrorInvalidParams.WithDetails("invalid profile"))
			c.Abort()
			return
		}
		c.Set(ProfileKey, p)
		c.Next()
	}
}

// ProfileFrom 当前请求的档案
func ProfileFrom(c *gin.Context) string {
	if v, ok := c.Get(ProfileKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return DefaultProfile
}
