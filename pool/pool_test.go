package pool_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/corvid-systems/go-semihsm/pool"
)

func TestPool_SubmitReturnsResult(t *testing.T) {
	p, err := pool.New(2)
	require.NoError(t, err)
	defer p.Close()

	f, err := pool.Submit(p, func() int { return 21 * 2 })
	require.NoError(t, err)
	require.Equal(t, 42, f.Get())
}

func TestPool_RunsManyTasksConcurrently(t *testing.T) {
	p, err := pool.New(4)
	require.NoError(t, err)
	defer p.Close()

	var counter atomic.Int64
	const n = 50

	results := make([]int, n)
	done := make(chan struct{})
	var remaining atomic.Int64
	remaining.Store(n)
	for i := 0; i < n; i++ {
		i := i
		f, err := pool.Submit(p, func() int {
			counter.Add(1)
			return i
		})
		require.NoError(t, err)
		go func() {
			results[i] = f.Get()
			if remaining.Add(-1) == 0 {
				close(done)
			}
		}()
	}
	<-done

	require.Equal(t, int64(n), counter.Load())
	for i, v := range results {
		require.Equal(t, i, v)
	}
}

func TestPool_SubmitAfterCloseErrors(t *testing.T) {
	p, err := pool.New(1)
	require.NoError(t, err)
	p.Close()

	_, err = pool.Submit(p, func() int { return 1 })
	require.Error(t, err)
}

func TestPool_SubmitCtx_NoLimiterBehavesLikeSubmit(t *testing.T) {
	p, err := pool.New(1)
	require.NoError(t, err)
	defer p.Close()

	f, err := pool.SubmitCtx(context.Background(), p, func() string { return "ok" })
	require.NoError(t, err)
	require.Equal(t, "ok", f.Get())
}

func TestPool_SubmitCtx_RateLimited(t *testing.T) {
	p, err := pool.New(1, pool.WithRateLimit(map[time.Duration]int{
		100 * time.Millisecond: 1,
	}))
	require.NoError(t, err)
	defer p.Close()

	f1, err := pool.SubmitCtx(context.Background(), p, func() int { return 1 })
	require.NoError(t, err)
	require.Equal(t, 1, f1.Get())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = pool.SubmitCtx(ctx, p, func() int { return 2 })
	require.Error(t, err)
}
