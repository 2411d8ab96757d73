package writequeue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestExecuteSerializesPerProfile(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	// unsynchronized counter: only safe if operations never overlap
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.Execute(context.Background(), "alice", func() error {
				v := counter
				time.Sleep(time.Microsecond)
				counter = v + 1
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 1, m.QueueCount())
}

func TestExecuteAfterShutdown(t *testing.T) {
	m := New(nil, nil)
	require.NoError(t, m.Shutdown(context.Background()))

	err := m.Execute(context.Background(), "alice", func() error { return nil })
	assert.ErrorIs(t, err, ErrWriteQueueClosed)
}

func TestExecuteCancelledContext(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := m.Execute(ctx, "bob", func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestCleanupIdle(t *testing.T) {
	m := New(&Config{IdleTimeout: time.Hour}, nil)
	defer m.Shutdown(context.Background())

	require.NoError(t, m.Execute(context.Background(), "carol", func() error { return nil }))
	m.cleanupIdle(time.Now().Add(2 * time.Hour))

	assert.Equal(t, 0, m.QueueCount())
	require.NoError(t, m.Execute(context.Background(), "carol", func() error { return nil }))
}
