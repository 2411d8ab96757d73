// Package backend 录音/测验后端的 HTTP 客户端
package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/pkg/code"
	"github.com/haierkeys/preppal-study-sync/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Config 后端配置
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// RemoteError 后端返回非 2xx 状态
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		body = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, body)
}

// Client 实现 domain.RemoteClient
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

var _ domain.RemoteClient = (*Client)(nil)

// New 创建客户端，hc 为 nil 时使用带超时的默认客户端
func New(cfg Config, hc *http.Client, lg *zap.Logger) *Client {
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		logger:  lg,
	}
}

// Configured 是否设置了后端地址
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

func (c *Client) do(ctx context.Context, method, endpoint, contentType string, body io.Reader, out any) error {
	if !c.Configured() {
		return code.ErrorRemoteNotConfigure
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, endpoint)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	c.logger.Debug("backend request",
		zap.String(logger.FieldMethod, method),
		zap.String(logger.FieldURL, endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration(logger.FieldDuration, time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || len(data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "decode %s response", endpoint)
	}
	return nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, build func(w *multipart.Writer) error, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := build(w); err != nil {
		return errors.Wrap(err, "build form")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "close form")
	}
	return c.do(ctx, http.MethodPost, endpoint, w.FormDataContentType(), &buf, out)
}

// TranscribeAndSummarize 上传音频，返回转写与摘要
func (c *Client) TranscribeAndSummarize(ctx context.Context, req domain.TranscribeRequest) (*domain.TranscribeResult, error) {
	var out domain.TranscribeResult
	err := c.postForm(ctx, "/api/transcribe_and_summarize", func(w *multipart.Writer) error {
		name := req.FileName
		if name == "" {
			name = "recording.webm"
		}
		part, err := w.CreateFormFile("audio", name)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, req.Audio); err != nil {
			return err
		}
		language := req.Language
		if language == "" {
			language = "ja"
		}
		_ = w.WriteField("language", language)
		if req.DurationSec != nil {
			_ = w.WriteField("duration_sec", strconv.FormatFloat(*req.DurationSec, 'f', -1, 64))
		}
		return w.WriteField("use_rag", strconv.FormatBool(req.UseRAG))
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRecordings 录音列表
func (c *Client) ListRecordings(ctx context.Context) ([]domain.RecordingLight, error) {
	out := []domain.RecordingLight{}
	if err := c.do(ctx, http.MethodGet, "/api/recordings", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRecording 录音详情
func (c *Client) GetRecording(ctx context.Context, id string) (*domain.Recording, error) {
	var out domain.Recording
	if err := c.do(ctx, http.MethodGet, "/api/recordings/"+url.PathEscape(id), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRecordingTitle 修改录音标题
func (c *Client) UpdateRecordingTitle(ctx context.Context, id, title string) error {
	var out struct {
		OK bool `json:"ok"`
	}
	err := c.postForm(ctx, "/api/recordings/"+url.PathEscape(id)+"/title", func(w *multipart.Writer) error {
		return w.WriteField("title", title)
	}, &out)
	if err != nil {
		return err
	}
	if !out.OK {
		return errors.New("backend rejected title update")
	}
	return nil
}

// CreateQuizFromSummary 由摘要生成测验
func (c *Client) CreateQuizFromSummary(ctx context.Context, req domain.QuizFromSummaryRequest) (*domain.QuizLight, error) {
	var out struct {
		OK   bool             `json:"ok"`
		Quiz domain.QuizLight `json:"quiz"`
	}
	err := c.postForm(ctx, "/api/quizzes/from_summary", func(w *multipart.Writer) error {
		if req.RecordingID != "" {
			_ = w.WriteField("recording_id", req.RecordingID)
		}
		category := req.Category
		if category == "" {
			category = "general"
		}
		difficulty := req.Difficulty
		if difficulty == "" {
			difficulty = "normal"
		}
		_ = w.WriteField("title", req.Title)
		_ = w.WriteField("summary", req.Summary)
		_ = w.WriteField("category", category)
		return w.WriteField("difficulty", difficulty)
	}, &out)
	if err != nil {
		return nil, err
	}
	if !out.OK {
		return nil, errors.New("backend rejected quiz creation")
	}
	return &out.Quiz, nil
}

// ListQuizzes 测验列表
func (c *Client) ListQuizzes(ctx context.Context) ([]domain.QuizLight, error) {
	var out struct {
		Quizzes []domain.QuizLight `json:"quizzes"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/quizzes", "", nil, &out); err != nil {
		return nil, err
	}
	if out.Quizzes == nil {
		out.Quizzes = []domain.QuizLight{}
	}
	return out.Quizzes, nil
}

// GetQuiz 测验详情
func (c *Client) GetQuiz(ctx context.Context, id string) (*domain.Quiz, error) {
	var out domain.Quiz
	if err := c.do(ctx, http.MethodGet, "/api/quizzes/"+url.PathEscape(id), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
