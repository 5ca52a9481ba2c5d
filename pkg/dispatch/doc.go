/*
Package dispatch implements the unified sync/async execution core: a
bounded worker pool with per-submission Futures, an execution-context
detector, and a dual-mode Operation type that routes each call to the
right path at call time.

The problem this package solves is letting one business-logic
implementation run correctly whether invoked from an ordinary blocking
call site or from inside a non-blocking region, without the caller
branching on which.

Basic usage:

	pool := dispatch.NewPool(4, 100) // 4 workers, queue 100
	defer pool.Shutdown()

	op := dispatch.MustNew(pool, func(ctx context.Context, id string) (User, error) {
		return loadUserBlocking(id) // written once, as plain blocking code
	})

	// Plain call site: runs directly on this goroutine.
	user, err := op.Call(ctx, "u-1")

	// Non-blocking region: same call bridges through the pool.
	user, err = op.Call(dispatch.WithAsync(ctx), "u-1")

	// Explicit awaitable:
	fut := op.Async(ctx, "u-1")
	user, err = fut.Wait(ctx)

Execution paths:

Each call goes through exactly one of three paths, decided fresh per
call by the injected Detector:

  - direct sync: the blocking implementation runs on the calling
    goroutine with no added latency or indirection
  - bridged: the blocking implementation is submitted to the pool and
    its completion exposed as a Future
  - native async: a separately supplied non-blocking implementation
    runs without consuming a worker

Guarantees:

  - Transparency: result and error are identical on every path. Resource
    errors pass through unwrapped, so errors.Is/As against driver
    sentinels holds regardless of path.
  - Correlation: every submission gets its own Future; one task's error
    or panic can never surface through another submission.
  - Boundedness: at most Workers tasks run concurrently; excess
    submissions queue up to QueueSize.
  - Containment: a panicking task resolves its own Future with a
    BridgeError and the worker survives.

Cancellation is cooperative. Canceling the context passed to Wait
abandons the wait; a bridged call already running on a worker completes
and its result is discarded.

Pool submission and shutdown errors are BridgeErrors, distinguishable
from errors raised by the dispatched function itself so callers can
retry bridge-level congestion and fail on resource-level errors.
*/
package dispatch
