package backend

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/haierkeys/preppal-study-sync/internal/domain"
	"github.com/haierkeys/preppal-study-sync/pkg/code"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "http://backend.test"

func newMockedClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()
	mt := httpmock.NewMockTransport()
	return New(Config{BaseURL: testBase + "/"}, &http.Client{Transport: mt}, nil), mt
}

func TestListRecordings(t *testing.T) {
	c, mt := newMockedClient(t)
	mt.RegisterResponder("GET", testBase+"/api/recordings",
		httpmock.NewStringResponder(200, `[{"id":"r1","title":"講義1","created_at":"2025-01-01T10:00:00"},{"id":"r2","title":"講義2","created_at":"2025-01-02T10:00:00"}]`))

	got, err := c.ListRecordings(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r1", got[0].ID)
	assert.Equal(t, "講義2", got[1].Title)
}

func TestGetRecordingNotFound(t *testing.T) {
	c, mt := newMockedClient(t)
	mt.RegisterResponder("GET", testBase+"/api/recordings/missing",
		httpmock.NewStringResponder(404, `{"detail":"not found"}`))

	_, err := c.GetRecording(context.Background(), "missing")
	require.Error(t, err)

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, 404, remote.StatusCode)
	assert.Contains(t, remote.Error(), "not found")
}

func TestTranscribeAndSummarizeSendsMultipart(t *testing.T) {
	c, mt := newMockedClient(t)
	mt.RegisterResponder("POST", testBase+"/api/transcribe_and_summarize",
		func(req *http.Request) (*http.Response, error) {
			if err := req.ParseMultipartForm(1 << 20); err != nil {
				return httpmock.NewStringResponse(400, err.Error()), nil
			}
			if req.FormValue("language") != "ja" || req.FormValue("duration_sec") != "12.5" || req.FormValue("use_rag") != "true" {
				return httpmock.NewStringResponse(400, "bad fields"), nil
			}
			if _, _, err := req.FormFile("audio"); err != nil {
				return httpmock.NewStringResponse(400, "missing audio"), nil
			}
			return httpmock.NewStringResponse(200, `{"id":"r9","transcript":"全文","summary":"Q: 何\nA: これ"}`), nil
		})

	d := 12.5
	got, err := c.TranscribeAndSummarize(context.Background(), domain.TranscribeRequest{
		Audio:       strings.NewReader("RIFF...."),
		DurationSec: &d,
		UseRAG:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, "r9", got.ID)
	assert.Equal(t, "Q: 何\nA: これ", got.Summary)
}

func TestCreateQuizFromSummaryDefaults(t *testing.T) {
	c, mt := newMockedClient(t)
	mt.RegisterResponder("POST", testBase+"/api/quizzes/from_summary",
		func(req *http.Request) (*http.Response, error) {
			_ = req.ParseMultipartForm(1 << 20)
			if req.FormValue("category") != "general" || req.FormValue("difficulty") != "normal" {
				return httpmock.NewStringResponse(400, "defaults missing"), nil
			}
			if _, ok := req.MultipartForm.Value["recording_id"]; ok {
				return httpmock.NewStringResponse(400, "unexpected recording_id"), nil
			}
			return httpmock.NewStringResponse(200, `{"ok":true,"quiz":{"id":"q1","title":"t","category":"general","difficulty":"normal","num_questions":5}}`), nil
		})

	got, err := c.CreateQuizFromSummary(context.Background(), domain.QuizFromSummaryRequest{Title: "t", Summary: "s"})
	require.NoError(t, err)
	assert.Equal(t, 5, got.NumQuestions)
}

func TestListQuizzesAndGetQuiz(t *testing.T) {
	c, mt := newMockedClient(t)
	mt.RegisterResponder("GET", testBase+"/api/quizzes",
		httpmock.NewStringResponder(200, `{"quizzes":[{"id":"q1","title":"t","category":"general","difficulty":"easy","num_questions":1}]}`))
	mt.RegisterResponder("GET", testBase+"/api/quizzes/q1",
		httpmock.NewStringResponder(200, `{"id":"q1","title":"t","category":"general","difficulty":"easy","num_questions":1,"questions":[{"type":"short","q":"何？","a":"これ","difficulty":"easy"}]}`))

	list, err := c.ListQuizzes(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	quiz, err := c.GetQuiz(context.Background(), "q1")
	require.NoError(t, err)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, "これ", quiz.Questions[0].A)
	assert.Equal(t, "q1", quiz.ID)
}

func TestUpdateRecordingTitle(t *testing.T) {
	c, mt := newMockedClient(t)
	mt.RegisterResponder("POST", testBase+"/api/recordings/r1/title",
		func(req *http.Request) (*http.Response, error) {
			_ = req.ParseMultipartForm(1 << 20)
			return httpmock.NewStringResponse(200, `{"ok":`+boolJSON(req.FormValue("title") == "新しい題")+`}`), nil
		})

	assert.NoError(t, c.UpdateRecordingTitle(context.Background(), "r1", "新しい題"))
	assert.Error(t, c.UpdateRecordingTitle(context.Background(), "r1", "other"))
}

func TestNotConfigured(t *testing.T) {
	c := New(Config{}, nil, nil)
	_, err := c.ListRecordings(context.Background())
	assert.ErrorIs(t, err, code.ErrorRemoteNotConfigure)
}

func boolJSON(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
