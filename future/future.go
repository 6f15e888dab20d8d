// Package future provides Future[T], a value-or-pending result cell
// for handing off work between goroutines — typically the result of a
// pool.Submit call, or an asynchronous guard evaluation feeding a
// monitor outside the owning goroutine.
//
// Grounded on original_source/Tools/include/Async/ValueTask.hpp: a
// ValueTask<T> is a variant<T, Task<T>> with an inline fast path for
// an already-known value. Task<T> itself is a C++20-coroutine type
// with no Go equivalent shape (Go has no stackless coroutines); here
// the pending branch stores the value once and closes a done channel
// (Go runs the computation in its own goroutine), the idiom
// eventloop's own promise.go uses for the same handoff.
package future

import "context"

// Future is a value that becomes available at most once. The zero
// value is not usable; construct one with Completed or New.
type Future[T any] struct {
	done  chan struct{}
	value T
}

// Completed returns a Future that is already resolved with value — the
// "inline value" branch of the original's variant.
func Completed[T any](value T) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	f.value = value
	close(f.done)
	return f
}

// New returns a pending Future and the function that resolves it. Fn
// must be called exactly once; later calls are ignored.
func New[T any]() (*Future[T], func(T)) {
	f := &Future[T]{done: make(chan struct{})}
	resolved := false
	return f, func(v T) {
		if resolved {
			return
		}
		resolved = true
		f.value = v
		close(f.done)
	}
}

// Go runs fn in a new goroutine and returns a Future for its result,
// mirroring from_task(Task<T>) for the common case of "run this
// asynchronously and hand me a Future".
func Go[T any](fn func() T) *Future[T] {
	f, resolve := New[T]()
	go func() { resolve(fn()) }()
	return f
}

// Ready reports whether the result is already available, without
// blocking — is_ready() in the original.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Get blocks until the result is available and returns it — get() /
// get_blocking() in the original; Go has one synchronous call, not two.
func (f *Future[T]) Get() T {
	<-f.done
	return f.value
}

// GetContext blocks until the result is available or ctx is done,
// whichever comes first.
func (f *Future[T]) GetContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel closed once the result is available, for use
// in a select alongside other events.
func (f *Future[T]) Done() <-chan struct{} { return f.done }
