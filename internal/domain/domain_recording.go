package domain

import (
	"context"
	"io"
)

// Recording 后端录音记录（仅镜像，不在本地持久化）
type Recording struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	CreatedAt   string      `json:"created_at"`
	DurationSec float64     `json:"duration_sec,omitempty"`
	Transcript  string      `json:"transcript,omitempty"`
	Segments    []Segment   `json:"segments,omitempty"`
	Summary     string      `json:"summary,omitempty"`
	AudioPath   string      `json:"audio_path,omitempty"`
	Highlights  []Highlight `json:"highlights,omitempty"`
	Category    string      `json:"category,omitempty"`
}

// Segment 转写片段
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Highlight 摘要重点
type Highlight struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

// RecordingLight 录音列表项
type RecordingLight struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	CreatedAt   string  `json:"created_at"`
	DurationSec float64 `json:"duration_sec,omitempty"`
	Category    string  `json:"category,omitempty"`
}

// TranscribeRequest 上传音频请求
type TranscribeRequest struct {
	Audio       io.Reader
	FileName    string
	Language    string
	DurationSec *float64
	UseRAG      bool
}

// TranscribeResult 转写与摘要结果
type TranscribeResult struct {
	ID         string `json:"id"`
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
}

// QuizLight 测验列表项
type QuizLight struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Category     string `json:"category"`
	Difficulty   string `json:"difficulty"`
	NumQuestions int    `json:"num_questions"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// QuizQuestion 测验题目，Type 为 cloze / bool / short
type QuizQuestion struct {
	Type       string `json:"type"`
	Q          string `json:"q"`
	A          string `json:"a"`
	Difficulty string `json:"difficulty"`
}

// Quiz 测验详情
type Quiz struct {
	QuizLight
	Questions []QuizQuestion `json:"questions"`
}

// QuizFromSummaryRequest 由摘要生成测验
type QuizFromSummaryRequest struct {
	RecordingID string
	Title       string
	Summary     string
	Category    string
	Difficulty  string
}

// RemoteClient 外部录音/测验后端
type RemoteClient interface {
	TranscribeAndSummarize(ctx context.Context, req TranscribeRequest) (*TranscribeResult, error)
	ListRecordings(ctx context.Context) ([]RecordingLight, error)
	GetRecording(ctx context.Context, id string) (*Recording, error)
	UpdateRecordingTitle(ctx context.Context, id, title string) error
	CreateQuizFromSummary(ctx context.Context, req QuizFromSummaryRequest) (*QuizLight, error)
	ListQuizzes(ctx context.Context) ([]QuizLight, error)
	GetQuiz(ctx context.Context, id string) (*Quiz, error)
}
