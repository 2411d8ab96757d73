// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

import "time"

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	Study  StudyServiceConfig  // Study related config // 学习相关配置
	Editor EditorServiceConfig // Editor related config // 编辑器相关配置

	// Clock time source, nil means time.Now // 时间源，nil 时使用 time.Now
	Clock func() time.Time
}

// StudyServiceConfig study service configuration
// StudyServiceConfig 学习服务配置
type StudyServiceConfig struct {
	SessionIdleTimeout time.Duration // Idle sessions are dropped after this // 空闲会话的过期时间
	ReviewRatioShort   float64       // Review ratio when the goal is within ShortGoalDays // 目标日期较近时的复习间隔比例
	ReviewRatioLong    float64       // Review ratio otherwise // 其它情况的复习间隔比例
	ShortGoalDays      int           // Threshold in days // 天数阈值
	DemoDelay          time.Duration // Review delay in demo mode // 演示模式的复习延迟
}

// EditorServiceConfig editor service configuration
// EditorServiceConfig 编辑器服务配置
type EditorServiceConfig struct {
	AutosaveDelay time.Duration // Debounce window // 自动保存防抖窗口
	IdleTimeout   time.Duration // Idle editors are flushed and closed // 空闲编辑器被保存并关闭
}

// DefaultServiceConfig returns defaults matching the original apps
// DefaultServiceConfig 返回默认配置
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Study: StudyServiceConfig{
			SessionIdleTimeout: 2 * time.Hour,
			ReviewRatioShort:   0.20,
			ReviewRatioLong:    0.10,
			ShortGoalDays:      30,
			DemoDelay:          30 * time.Second,
		},
		Editor: EditorServiceConfig{
			AutosaveDelay: 800 * time.Millisecond,
			IdleTimeout:   30 * time.Minute,
		},
	}
}

func (c *ServiceConfig) now() time.Time {
	if c != nil && c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}
