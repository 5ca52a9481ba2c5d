/*
Package gobridge provides a unified sync/async execution dispatch layer
for Go applications, plus thin resource adapters built on top of it.

A single operation is authored once, as an ordinary blocking function,
and declared dual-mode. At call time the dispatcher inspects the caller's
execution context and routes to the right path: a direct call on the
calling goroutine, a genuinely non-blocking native implementation, or a
bridged call through a bounded worker pool exposed as an awaitable
Future. Result and error behavior is identical on every path.

Dispatch Core (pkg/dispatch):
  - Pool: bounded worker pool delivering per-submission Futures
  - Future: exactly-once result cell with context-aware Wait
  - Operation: dual-mode operation with Call/Sync/Async accessors
  - Detector: injected execution-context probe

Resource Adapters (pkg/resource):
  - database: query/exec over an injected *sql.DB handle
  - apiclient: get/post over an injected *http.Client
  - fileops: whole-file read/write
  - cache: in-memory TTL store with an optional Redis native backend

Example usage:

	import (
		"github.com/vnykmshr/gobridge/pkg/dispatch"
	)

	pool := dispatch.NewPool(4, 100) // 4 workers, queue 100
	defer pool.Shutdown()

	op := dispatch.MustNew(pool, func(ctx context.Context, n int) (int, error) {
		return n * 2, nil // blocking work goes here
	})

	v, _ := op.Call(ctx, 21)                    // direct on the caller
	v, _ = op.Call(dispatch.WithAsync(ctx), 21) // bridged through the pool
*/
package gobridge
