package domain

import "time"

// DefaultTimelineLabel 未指定标签时使用
const DefaultTimelineLabel = "Review"

// TimelineEntry 复习时间线条目，集合始终按 When 升序
type TimelineEntry struct {
	ID          string    `json:"id"`
	When        time.Time `json:"when"`
	Label       string    `json:"label"`
	CreatedAt   time.Time `json:"created_at"`
	RecordingID string    `json:"recording_id,omitempty"`
	Email       string    `json:"email,omitempty"`
	Notified    bool      `json:"notified,omitempty"`
}

// Due 是否已到期且未提醒
func (e TimelineEntry) Due(now time.Time) bool {
	return !e.Notified && !e.When.After(now)
}
