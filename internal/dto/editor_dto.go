package dto

import "github.com/haierkeys/preppal-study-sync/internal/domain"

// EditorOpenRequest 打开编辑器，noteId 为空时编辑新笔记
type EditorOpenRequest struct {
	NoteID string `json:"noteId" form:"noteId"`
}

// EditorChangeRequest 编辑器草稿
type EditorChangeRequest struct {
	Title  string `json:"title" form:"title" binding:"max=512"`
	Body   string `json:"body" form:"body"`
	Tags   string `json:"tags" form:"tags"`
	Pinned bool   `json:"pinned" form:"pinned"`
}

// Draft 转换为领域草稿
func (r *EditorChangeRequest) Draft() domain.NoteDraft {
	return domain.NoteDraft{
		Title:  r.Title,
		Body:   r.Body,
		Tags:   domain.ParseTags(r.Tags),
		Pinned: r.Pinned,
	}
}
