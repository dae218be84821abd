package writequeue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_FIFOPerKey(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	var mu sync.Mutex
	var order []int

	results := make([]<-chan error, 0, 10)
	for i := 0; i < 10; i++ {
		i := i
		ch, err := m.Enqueue(context.Background(), "0xabc", func() error {
			time.Sleep(time.Millisecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
		results = append(results, ch)
	}
	for _, ch := range results {
		assert.NoError(t, <-ch)
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestManager_ExecuteReturnsError(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	want := assert.AnError
	err := m.Execute(context.Background(), "k", func() error { return want })
	assert.ErrorIs(t, err, want)
}

func TestManager_QueueFull(t *testing.T) {
	m := New(&Config{QueueCapacity: 1}, nil)
	defer m.Shutdown(context.Background())

	block := make(chan struct{})
	started := make(chan struct{})
	_, err := m.Enqueue(context.Background(), "k", func() error {
		close(started)
		<-block
		return nil
	})
	require.NoError(t, err)
	<-started

	_, err = m.Enqueue(context.Background(), "k", func() error { return nil })
	require.NoError(t, err)

	_, err = m.Enqueue(context.Background(), "k", func() error { return nil })
	assert.ErrorIs(t, err, ErrWriteQueueFull)

	close(block)
}

func TestManager_CancelledContextSkipsOp(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	ch, err := m.Enqueue(ctx, "k", func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, <-ch, context.Canceled)
	assert.False(t, called)
}

func TestManager_ShutdownDrainsAndRejects(t *testing.T) {
	m := New(nil, nil)

	ch, err := m.Enqueue(context.Background(), "k", func() error { return nil })
	require.NoError(t, err)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.NoError(t, <-ch)
	assert.True(t, m.IsClosed())

	_, err = m.Enqueue(context.Background(), "k", func() error { return nil })
	assert.ErrorIs(t, err, ErrWriteQueueClosed)
}
