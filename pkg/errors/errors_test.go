package errors

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haierkeys/preppal-study-sync/internal/middleware"
	"github.com/haierkeys/preppal-study-sync/pkg/app"
	"github.com/haierkeys/preppal-study-sync/pkg/code"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		lang    string
		status  int
		code    int
		message string
	}{
		{"not found", code.ErrorNoteNotFound.WithDetails("n1"), "en", http.StatusNotFound, 40401, "Note not found"},
		{"validation zh", code.ErrorNoteEmpty, "zh_cn", http.StatusBadRequest, 40002, "标题和正文均为空"},
		{"unknown", stderrors.New("boom"), "en", http.StatusInternalServerError, 50001, "Internal server error"},
		{"remote", code.ErrorRemote, "en", http.StatusBadGateway, 50201, "Backend request failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Set(app.LangKey, tt.lang)
			c.Set(middleware.TraceIDKey, "trace-1")

			ErrorResponse(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var got AppError
			require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.message, got.Message)
			assert.Equal(t, "trace-1", got.TraceID)
			assert.False(t, got.Status)
		})
	}
}

func TestFromErrorKeepsCause(t *testing.T) {
	cause := code.ErrorStorage.WithDetails("disk")
	appErr := FromError(cause, "en")
	assert.ErrorIs(t, appErr, code.ErrorStorage)
	assert.Equal(t, []string{"disk"}, appErr.Details)
	assert.True(t, IsAppError(appErr))
}
