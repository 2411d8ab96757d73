package dto

import (
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/domain"

	"github.com/jinzhu/copier"
)

// TimelineDTO 时间线条目
type TimelineDTO struct {
	ID          string    `json:"id"`
	When        time.Time `json:"when"`
	Label       string    `json:"label"`
	CreatedAt   time.Time `json:"createdAt"`
	RecordingID string    `json:"recordingId,omitempty"`
	Notified    bool      `json:"notified"`
}

// TimelineAddRequest 新增条目
type TimelineAddRequest struct {
	When        time.Time `json:"when" form:"when" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	Label       string    `json:"label" form:"label" binding:"max=256"`
	RecordingID string    `json:"recordingId" form:"recordingId"`
	Email       string    `json:"email" form:"email" binding:"omitempty,email"`
}

// TimelineReviewRequest 安排复习；demo 为 false 时 goalDate 必填
type TimelineReviewRequest struct {
	RecordingID string     `json:"recordingId" form:"recordingId"`
	Label       string     `json:"label" form:"label" binding:"max=256"`
	Email       string     `json:"email" form:"email" binding:"omitempty,email"`
	// GoalDate YYYY-MM-DD（按本地时区）或 RFC3339
	GoalDate string `json:"goalDate" form:"goalDate"`
	Demo        bool       `json:"demo" form:"demo"`
}

// NewTimelineDTO 条目转换
func NewTimelineDTO(e *domain.TimelineEntry) *TimelineDTO {
	if e == nil {
		return nil
	}
	out := &TimelineDTO{}
	_ = copier.Copy(out, e)
	return out
}

// NewTimelineDTOList 批量转换
func NewTimelineDTOList(list []domain.TimelineEntry) []*TimelineDTO {
	out := make([]*TimelineDTO, 0, len(list))
	for i := range list {
		out = append(out, NewTimelineDTO(&list[i]))
	}
	return out
}
