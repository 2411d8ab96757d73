package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"512", 512},
		{"64B", 64},
		{"2kb", 2048},
		{" 200MB ", 200 << 20},
		{"1gb", 1 << 30},
	}
	for _, tt := range tests {
		got, err := StrTo(tt.in).ToSize()
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := StrTo("lots").ToSize()
	assert.Error(t, err)
	assert.Equal(t, int64(7), StrTo("lots").MustToSize(7))
	assert.Equal(t, int64(7), StrTo("0MB").MustToSize(7))
}

func TestFloat64(t *testing.T) {
	f, err := StrTo("12.5").Float64()
	require.NoError(t, err)
	assert.Equal(t, 12.5, f)
	_, err = StrTo("").Float64()
	assert.Error(t, err)
}
