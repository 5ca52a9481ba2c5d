package dispatch

import (
	"context"
	"sync"
)

// Future is a per-submission result cell. Each bridged call gets its own
// Future, uniquely correlated to that call: an error from one submission
// can never surface through another submission's Future.
//
// A Future resolves exactly once. All waiters observe the same value and
// error.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// NewFuture creates an unresolved Future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved creates a Future that is already resolved with the given
// value and error.
func Resolved[T any](val T, err error) *Future[T] {
	f := NewFuture[T]()
	f.resolve(val, err)
	return f
}

// resolve sets the result. Only the first call has any effect.
func (f *Future[T]) resolve(val T, err error) {
	f.once.Do(func() {
		f.val = val
		f.err = err
		close(f.done)
	})
}

// Done returns a channel that is closed when the Future resolves.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the Future resolves or ctx is canceled. Cancellation
// is cooperative: the underlying task keeps running to completion and
// its result is discarded.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	// Prefer a ready result over a concurrently canceled context.
	select {
	case <-f.done:
		return f.val, f.err
	default:
	}

	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryResult returns the result without blocking. The boolean reports
// whether the Future has resolved.
func (f *Future[T]) TryResult() (T, error, bool) {
	select {
	case <-f.done:
		return f.val, f.err, true
	default:
		var zero T
		return zero, nil, false
	}
}
