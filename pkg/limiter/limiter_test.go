package limiter

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodLimiterBuckets(t *testing.T) {
	l := NewMethodLimiter().AddBuckets(
		BucketRule{Key: "/api/cards/rebuild/recordings", FillInterval: time.Hour, Capacity: 2, Quantum: 1},
		BucketRule{Key: "", FillInterval: time.Second, Capacity: 1},
	)

	b, ok := l.GetBucket("/api/cards/rebuild/recordings")
	require.True(t, ok)
	assert.Equal(t, int64(1), b.TakeAvailable(1))
	assert.Equal(t, int64(1), b.TakeAvailable(1))
	assert.Equal(t, int64(0), b.TakeAvailable(1))

	_, ok = l.GetBucket("/api/notes")
	assert.False(t, ok)
}

func TestMethodLimiterKeyStripsQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/notes?q=x", nil)

	assert.Equal(t, "/api/notes", NewMethodLimiter().Key(c))
}
