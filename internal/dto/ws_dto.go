package dto

import "github.com/haierkeys/preppal-study-sync/internal/domain"

// WebSocket 消息类型
const (
	WsActionStats      = "Stats"
	WsActionStatsReset = "StatsReset"
	WsActionStatsGet   = "StatsGet"
)

// StatsDTO 累计学习统计
type StatsDTO struct {
	Correct       int `json:"correct"`
	Incorrect     int `json:"incorrect"`
	TotalAnswered int `json:"totalAnswered"`
	Accuracy      int `json:"accuracy"`
}

// NewStatsDTO 统计转换
func NewStatsDTO(s domain.StudyStats) StatsDTO {
	return StatsDTO(s)
}
