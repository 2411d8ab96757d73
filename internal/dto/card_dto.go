package dto

import (
	"github.com/haierkeys/preppal-study-sync/internal/domain"

	"github.com/jinzhu/copier"
)

// CardDTO 闪卡
type CardDTO struct {
	ID          string `json:"id"`
	Question    string `json:"q"`
	Answer      string `json:"a"`
	NoteID      string `json:"noteId,omitempty"`
	RecordingID string `json:"recordingId,omitempty"`
}

// CardListRequest 卡片过滤：source 为来源 ID，kind 为 note 或 recording
type CardListRequest struct {
	Source string `json:"source" form:"source"`
	Kind   string `json:"kind" form:"kind" binding:"omitempty,sourcekind"`
}

// CardRebuildRequest 由来源文本重建卡片
type CardRebuildRequest struct {
	Kind string `json:"kind" form:"kind" binding:"required"`
	ID   string `json:"id" form:"id" binding:"required"`
	Text string `json:"text" form:"text"`
}

// CardRebuildResponse 重建结果
type CardRebuildResponse struct {
	Count int        `json:"count"`
	Cards []*CardDTO `json:"cards,omitempty"`
}

// Source 转换为领域来源，kind 的合法性由服务层校验
func (r *CardRebuildRequest) Source() domain.Source {
	return domain.Source{Kind: domain.SourceKind(r.Kind), ID: r.ID, Text: r.Text}
}

// NewCardDTOList 卡片转换
func NewCardDTOList(cards []domain.Flashcard) []*CardDTO {
	out := make([]*CardDTO, 0, len(cards))
	for i := range cards {
		c := &CardDTO{}
		_ = copier.Copy(c, &cards[i])
		out = append(out, c)
	}
	return out
}
