package queue_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvid-systems/go-semihsm/queue"
)

func TestQueue_FIFOOrder(t *testing.T) {
	q := queue.New[int]()
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Push(i))
	}
	require.Equal(t, 5, q.Len())

	for i := 0; i < 5; i++ {
		v, ok := q.TryPop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	_, ok := q.TryPop()
	require.False(t, ok)
}

func TestQueue_SpansMultipleChunks(t *testing.T) {
	q := queue.New[int]()
	const n = 500 // several multiples of the internal chunk size
	for i := 0; i < n; i++ {
		require.NoError(t, q.Push(i))
	}
	for i := 0; i < n; i++ {
		v, ok := q.TryPop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}

func TestQueue_BlockingPopWakesOnPush(t *testing.T) {
	q := queue.New[string]()
	done := make(chan string)
	go func() {
		v, ok := q.Pop()
		if !ok {
			v = "<closed>"
		}
		done <- v
	}()

	require.NoError(t, q.Push("hello"))
	require.Equal(t, "hello", <-done)
}

func TestQueue_CloseUnblocksPendingPop(t *testing.T) {
	q := queue.New[int]()
	done := make(chan bool)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	q.Close()
	require.False(t, <-done)
}

func TestQueue_PushAfterCloseErrors(t *testing.T) {
	q := queue.New[int]()
	q.Close()
	require.Error(t, q.Push(1))
}

func TestQueue_ConcurrentProducersSingleConsumer(t *testing.T) {
	q := queue.New[int]()
	const producers = 8
	const perProducer = 200

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				require.NoError(t, q.Push(i))
			}
		}()
	}

	received := 0
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		for received < producers*perProducer {
			if _, ok := q.TryPop(); ok {
				received++
			}
		}
	}()

	wg.Wait()
	<-consumerDone
	require.Equal(t, producers*perProducer, received)
}
