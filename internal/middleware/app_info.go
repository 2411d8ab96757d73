package middleware

import (
	"github.com/gin-gonic/gin"
)

// AppInfoWithConfig 在响应头和上下文中写入应用名称与版本
func AppInfoWithConfig(name, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("app_name", name)
		c.Set("app_version", version)
		c.Header("X-App-Version", version)

		c.Next()
	}
}
