package helper

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyLoader_ConcurrentFirstCallsShareOneInit(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})

	loader := NewLazyLoader(func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "session", nil
	})

	const callers = 32
	var wg sync.WaitGroup
	results := make(chan string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := loader.Get(context.Background())
			assert.NoError(t, err)
			results <- v
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for v := range results {
		assert.Equal(t, "session", v)
	}
	assert.Equal(t, int32(1), calls.Load())

	// 初期化後は再実行しない
	v, err := loader.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLazyLoader_FailureIsNotMemoized(t *testing.T) {
	var calls atomic.Int32
	loader := NewLazyLoader(func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, errors.New("token endpoint unavailable")
		}
		return 42, nil
	})

	_, err := loader.Get(context.Background())
	require.Error(t, err)

	v, err := loader.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLazyLoader_CallerCancelDoesNotAbortInit(t *testing.T) {
	release := make(chan struct{})
	loader := NewLazyLoader(func(ctx context.Context) (string, error) {
		<-release
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "ok", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := loader.Get(ctx)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()
	v, err := loader.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}
