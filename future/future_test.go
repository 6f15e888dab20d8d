package future_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/corvid-systems/go-semihsm/future"
)

func TestFuture_Completed(t *testing.T) {
	f := future.Completed(42)
	require.True(t, f.Ready())
	require.Equal(t, 42, f.Get())
}

func TestFuture_PendingThenResolve(t *testing.T) {
	f, resolve := future.New[string]()
	require.False(t, f.Ready())

	done := make(chan struct{})
	go func() {
		defer close(done)
		resolve("hello")
	}()
	<-done

	require.Equal(t, "hello", f.Get())
	require.True(t, f.Ready())
}

func TestFuture_ResolveIsIdempotent(t *testing.T) {
	f, resolve := future.New[int]()
	resolve(1)
	resolve(2)
	require.Equal(t, 1, f.Get())
}

func TestFuture_Go(t *testing.T) {
	f := future.Go(func() int { return 7 })
	require.Equal(t, 7, f.Get())
}

func TestFuture_GetContext_Timeout(t *testing.T) {
	f, _ := future.New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.GetContext(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFuture_GetContext_ResolvesBeforeTimeout(t *testing.T) {
	f := future.Go(func() int {
		time.Sleep(5 * time.Millisecond)
		return 99
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	v, err := f.GetContext(ctx)
	require.NoError(t, err)
	require.Equal(t, 99, v)
}
