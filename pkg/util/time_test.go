package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"7d":    7 * 24 * time.Hour,
		"30":    30 * time.Second,
		"800ms": 800 * time.Millisecond,
		" 1h ":  time.Hour,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDuration("xd")
	assert.Error(t, err)
}

func TestDurationOr(t *testing.T) {
	assert.Equal(t, time.Second, DurationOr("", time.Second))
	assert.Equal(t, time.Second, DurationOr("bogus", time.Second))
	assert.Equal(t, time.Second, DurationOr("0s", time.Second))
	assert.Equal(t, 2*time.Minute, DurationOr("2m", time.Second))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-11-01", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2026-11-01T10:00:00Z", time.Local)
	require.NoError(t, err)
	assert.Equal(t, 10, d.UTC().Hour())

	_, err = ParseDate("soon", time.UTC)
	assert.Error(t, err)
}
