package dispatch

import (
	"context"
	"fmt"

	gberrors "github.com/vnykmshr/gobridge/pkg/common/errors"
	"github.com/vnykmshr/gobridge/pkg/metrics"
)

// SyncFunc is a blocking implementation of an operation. It is written
// as an ordinary function with no special context requirements.
type SyncFunc[P, R any] func(ctx context.Context, arg P) (R, error)

// AsyncFunc is a genuinely non-blocking implementation of the same
// operation, backed by a native async driver. It requires no bridging.
type AsyncFunc[P, R any] func(ctx context.Context, arg P) (R, error)

// Operation pairs a synchronous implementation with an optional native
// asynchronous one and dispatches between them based on the caller's
// execution context.
//
// An Operation is immutable after construction. The observable result,
// error type, and side effects are identical regardless of which path
// (direct sync, bridged, or native async) executed it.
type Operation[P, R any] struct {
	name     string
	pool     *Pool
	detector Detector
	reg      *metrics.Registry
	syncFn   SyncFunc[P, R]
	asyncFn  AsyncFunc[P, R]
}

// Option configures an Operation at construction time.
type Option[P, R any] func(*Operation[P, R])

// WithNativeAsync supplies a genuinely non-blocking implementation.
// Async callers then bypass the worker pool entirely.
func WithNativeAsync[P, R any](fn AsyncFunc[P, R]) Option[P, R] {
	return func(o *Operation[P, R]) {
		o.asyncFn = fn
	}
}

// WithDetector replaces the default execution-context detector.
func WithDetector[P, R any](d Detector) Option[P, R] {
	return func(o *Operation[P, R]) {
		o.detector = d
	}
}

// WithName labels the operation in metrics.
func WithName[P, R any](name string) Option[P, R] {
	return func(o *Operation[P, R]) {
		o.name = name
	}
}

// WithMetrics enables per-path call counting for the operation.
func WithMetrics[P, R any](cfg metrics.Config) Option[P, R] {
	return func(o *Operation[P, R]) {
		o.reg = cfg.Resolve()
	}
}

// New builds a dual-mode Operation from a blocking implementation. This
// is the declarative facade: author the function once, as if purely
// synchronous, and let dispatch route each call.
//
// With only a sync implementation the operation is always correct but
// consumes a worker when called from async context; supplying a native
// async implementation via WithNativeAsync gives true non-blocking
// behavior.
func New[P, R any](pool *Pool, syncFn SyncFunc[P, R], opts ...Option[P, R]) (*Operation[P, R], error) {
	if pool == nil {
		return nil, gberrors.NewCallerError("dispatch", "pool", nil, "cannot be nil").
			WithHint("provide the pool that bridges async callers")
	}
	if syncFn == nil {
		return nil, gberrors.NewCallerError("dispatch", "syncFn", nil, "cannot be nil")
	}

	o := &Operation[P, R]{
		name:     "operation",
		pool:     pool,
		detector: DefaultDetector,
		syncFn:   syncFn,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// MustNew is like New but panics on invalid arguments.
func MustNew[P, R any](pool *Pool, syncFn SyncFunc[P, R], opts ...Option[P, R]) *Operation[P, R] {
	o, err := New(pool, syncFn, opts...)
	if err != nil {
		panic(err)
	}
	return o
}

// Name returns the operation's metric label.
func (o *Operation[P, R]) Name() string {
	return o.name
}

// Call probes the caller's execution context and routes to the correct
// path. Sync callers get a direct call on their own goroutine with no
// added indirection; async callers get the native implementation if one
// exists, or a bridged call through the pool.
func (o *Operation[P, R]) Call(ctx context.Context, arg P) (R, error) {
	mode, err := o.detector.Mode(ctx)
	if err != nil {
		var zero R
		return zero, fmt.Errorf("%w: %v", gberrors.ErrContextDetection, err)
	}

	switch mode {
	case ModeAsync:
		if o.asyncFn != nil {
			o.countPath(pathNative)
			return o.asyncFn(ctx, arg)
		}
		o.countPath(pathBridged)
		f, err := Submit(ctx, o.pool, func(ctx context.Context) (R, error) {
			return o.syncFn(ctx, arg)
		})
		if err != nil {
			var zero R
			return zero, err
		}
		return f.Wait(ctx)
	default:
		o.countPath(pathSync)
		return o.syncFn(ctx, arg)
	}
}

// Sync invokes the synchronous implementation directly, bypassing
// detection. Intended for tests and context-aware callers.
func (o *Operation[P, R]) Sync(ctx context.Context, arg P) (R, error) {
	o.countPath(pathSync)
	return o.syncFn(ctx, arg)
}

// Async returns an awaitable for the operation, bypassing detection.
// With a native implementation the Future resolves from the native
// backend without consuming a worker; otherwise the call bridges through
// the pool. Submission failures resolve the Future with a BridgeError so
// the accessor itself never fails.
func (o *Operation[P, R]) Async(ctx context.Context, arg P) *Future[R] {
	if o.asyncFn != nil {
		o.countPath(pathNative)
		f := NewFuture[R]()
		go func() {
			v, err := o.asyncFn(ctx, arg)
			f.resolve(v, err)
		}()
		return f
	}

	o.countPath(pathBridged)
	f, err := Submit(ctx, o.pool, func(ctx context.Context) (R, error) {
		return o.syncFn(ctx, arg)
	})
	if err != nil {
		var zero R
		return Resolved(zero, err)
	}
	return f
}
