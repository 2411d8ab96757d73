// Package domain 定义领域模型和接口
package domain

import (
	"strings"
	"time"
)

// MaxNoteVersions 每个笔记保留的快照数量上限，超出时淘汰最旧的
const MaxNoteVersions = 20

// NoteVersion 笔记正文快照
type NoteVersion struct {
	ID      string    `json:"id"`
	TakenAt time.Time `json:"at"`
	Body    string    `json:"body"`
}

// Note 笔记领域模型
type Note struct {
	ID          string        `json:"id"`
	RecordingID string        `json:"recording_id,omitempty"`
	Title       string        `json:"title"`
	Body        string        `json:"body"`
	Tags        []string      `json:"tags"`
	Pinned      bool          `json:"pinned"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Versions    []NoteVersion `json:"versions"`
}

// IsEmpty 标题和正文均为空的笔记不允许保存
func (n *Note) IsEmpty() bool {
	return strings.TrimSpace(n.Title) == "" && strings.TrimSpace(n.Body) == ""
}

// TakeSnapshot 追加当前正文的快照，超过上限时按 FIFO 淘汰
func (n *Note) TakeSnapshot(id string, at time.Time) {
	n.Versions = append(n.Versions, NoteVersion{ID: id, TakenAt: at, Body: n.Body})
	if over := len(n.Versions) - MaxNoteVersions; over > 0 {
		n.Versions = append([]NoteVersion(nil), n.Versions[over:]...)
	}
}

// Version 根据 ID 查找快照
func (n *Note) Version(id string) (NoteVersion, bool) {
	for _, v := range n.Versions {
		if v.ID == id {
			return v, true
		}
	}
	return NoteVersion{}, false
}

// SortTime 排序使用的时间，旧数据缺少 updated_at 时退回 created_at
func (n *Note) SortTime() time.Time {
	if n.UpdatedAt.IsZero() {
		return n.CreatedAt
	}
	return n.UpdatedAt
}

// NoteDraft 新建笔记的输入
type NoteDraft struct {
	Title       string
	Body        string
	Tags        []string
	Pinned      bool
	RecordingID string
}

// NotePatch 更新笔记的字段，nil 表示不修改
type NotePatch struct {
	Title  *string
	Body   *string
	Tags   []string
	Pinned *bool
	// SetTags 为 true 时用 Tags 覆盖（允许清空）
	SetTags bool
}

// Apply 将字段合并到笔记
func (p NotePatch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Body != nil {
		n.Body = *p.Body
	}
	if p.SetTags {
		n.Tags = append([]string{}, p.Tags...)
	}
	if p.Pinned != nil {
		n.Pinned = *p.Pinned
	}
}

// ParseTags 解析逗号分隔的标签，去除空白和空项
func ParseTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
