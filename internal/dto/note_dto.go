// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import (
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/domain"

	"github.com/jinzhu/copier"
)

// NoteDTO Note data transfer object
// NoteDTO 笔记数据传输对象
type NoteDTO struct {
	ID           string    `json:"id"`
	RecordingID  string    `json:"recordingId,omitempty"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Tags         []string  `json:"tags"`
	Pinned       bool      `json:"pinned"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	VersionCount int       `json:"versionCount"`
}

// NoteVersionDTO 笔记快照
type NoteVersionDTO struct {
	ID      string    `json:"id"`
	TakenAt time.Time `json:"at"`
	Body    string    `json:"body"`
}

// NoteListRequest 笔记列表查询参数
type NoteListRequest struct {
	Query string `json:"q" form:"q"`
}

// NoteCreateRequest Request parameters for creating a note
// 新建笔记的请求参数，tags 为逗号分隔的字符串
type NoteCreateRequest struct {
	Title       string `json:"title" form:"title" binding:"max=512"`
	Body        string `json:"body" form:"body"`
	Tags        string `json:"tags" form:"tags"`
	Pinned      bool   `json:"pinned" form:"pinned"`
	RecordingID string `json:"recordingId" form:"recordingId"`
}

// NoteUpdateRequest 更新笔记的请求参数，缺省字段保持不变
type NoteUpdateRequest struct {
	Title  *string `json:"title" form:"title" binding:"omitempty,max=512"`
	Body   *string `json:"body" form:"body"`
	Tags   *string `json:"tags" form:"tags"`
	Pinned *bool   `json:"pinned" form:"pinned"`
}

// NoteRestoreRequest 恢复快照
type NoteRestoreRequest struct {
	VersionID string `json:"versionId" form:"versionId" binding:"required"`
}

// NoteDiffRequest 快照差异
type NoteDiffRequest struct {
	VersionID string `json:"versionId" form:"versionId" binding:"required"`
}

// NoteQuizRequest 以笔记生成后端测验
type NoteQuizRequest struct {
	Category   string `json:"category" form:"category"`
	Difficulty string `json:"difficulty" form:"difficulty" binding:"omitempty,oneof=easy medium hard"`
}

// Draft 转换为领域草稿
func (r *NoteCreateRequest) Draft() domain.NoteDraft {
	return domain.NoteDraft{
		Title:       r.Title,
		Body:        r.Body,
		Tags:        domain.ParseTags(r.Tags),
		Pinned:      r.Pinned,
		RecordingID: r.RecordingID,
	}
}

// Patch 转换为领域补丁
func (r *NoteUpdateRequest) Patch() domain.NotePatch {
	p := domain.NotePatch{Title: r.Title, Body: r.Body, Pinned: r.Pinned}
	if r.Tags != nil {
		p.SetTags = true
		p.Tags = domain.ParseTags(*r.Tags)
	}
	return p
}

// NewNoteDTO converts a domain note
// NewNoteDTO 领域笔记转 DTO
func NewNoteDTO(n *domain.Note) *NoteDTO {
	if n == nil {
		return nil
	}
	out := &NoteDTO{}
	_ = copier.Copy(out, n)
	if out.Tags == nil {
		out.Tags = []string{}
	}
	out.VersionCount = len(n.Versions)
	return out
}

// NewNoteDTOList 批量转换
func NewNoteDTOList(notes []domain.Note) []*NoteDTO {
	out := make([]*NoteDTO, 0, len(notes))
	for i := range notes {
		out = append(out, NewNoteDTO(&notes[i]))
	}
	return out
}

// NewNoteVersionDTOList 快照转换
func NewNoteVersionDTOList(versions []domain.NoteVersion) []*NoteVersionDTO {
	out := make([]*NoteVersionDTO, 0, len(versions))
	for i := range versions {
		v := &NoteVersionDTO{}
		_ = copier.Copy(v, &versions[i])
		out = append(out, v)
	}
	return out
}
