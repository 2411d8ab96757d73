package domain

// SourceKind 卡片来源类型
type SourceKind string

const (
	SourceNote      SourceKind = "note"
	SourceRecording SourceKind = "recording"
)

// Valid 是否为已知来源类型
func (k SourceKind) Valid() bool {
	return k == SourceNote || k == SourceRecording
}

// Source 卡片来源：本地笔记或后端录音，按 Kind 区分
type Source struct {
	Kind SourceKind
	ID   string
	Text string
}

// NoteSource 以笔记正文作为来源
func NoteSource(n *Note) Source {
	return Source{Kind: SourceNote, ID: n.ID, Text: n.Body}
}

// RecordingSource 以录音摘要作为来源
func RecordingSource(id, summary string) Source {
	return Source{Kind: SourceRecording, ID: id, Text: summary}
}

// Flashcard 由问答对派生的卡片，NoteID 与 RecordingID 恰好有一个非空
type Flashcard struct {
	ID          string `json:"id"`
	Question    string `json:"q"`
	Answer      string `json:"a"`
	NoteID      string `json:"note_id,omitempty"`
	RecordingID string `json:"recording_id,omitempty"`
}

// SourceRef 返回卡片的来源类型和 ID
func (c Flashcard) SourceRef() (SourceKind, string) {
	if c.NoteID != "" {
		return SourceNote, c.NoteID
	}
	return SourceRecording, c.RecordingID
}

// BelongsTo 卡片是否来自指定来源
func (c Flashcard) BelongsTo(kind SourceKind, id string) bool {
	switch kind {
	case SourceNote:
		return c.NoteID == id
	case SourceRecording:
		return c.NoteID == "" && c.RecordingID == id
	}
	return false
}
