package dispatch

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	gberrors "github.com/vnykmshr/gobridge/pkg/common/errors"
	"github.com/vnykmshr/gobridge/pkg/common/validation"
	"github.com/vnykmshr/gobridge/pkg/metrics"
)

// task is a queued unit of work. run returns the task-level error so the
// pool can record completion status; result delivery happens through the
// submission's Future, never through a shared channel.
type task struct {
	ctx context.Context
	run func(ctx context.Context) error
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// Workers is the number of worker goroutines in the pool.
	// Must be greater than 0.
	Workers int

	// QueueSize is the maximum number of tasks that can be queued.
	// Must be >= 0. With a full queue, Submit blocks and TrySubmit
	// fails fast.
	QueueSize int

	// Name labels this pool in metrics.
	Name string

	// Metrics configures Prometheus instrumentation for the pool.
	Metrics metrics.Config
}

// DefaultConfig returns a default pool configuration sized to the host.
func DefaultConfig() Config {
	return Config{
		Workers:   runtime.NumCPU(),
		QueueSize: 64,
		Name:      "default",
	}
}

// Pool is a bounded pool of worker goroutines that executes blocking
// functions off the caller's execution context and delivers their
// completion through per-submission Futures.
//
// The pool never runs more than Workers tasks concurrently; excess
// submissions queue up to QueueSize. After Shutdown begins, new
// submissions fail with a BridgeError while queued tasks drain.
type Pool struct {
	config Config
	reg    *metrics.Registry

	taskQueue    chan task
	doneCh       chan struct{}
	shutdownOnce sync.Once

	mu         sync.RWMutex
	isShutdown bool

	active    int64
	submitted int64
	completed int64

	workerWg sync.WaitGroup
}

// Validate checks the pool configuration.
func (c Config) Validate() error {
	if err := validation.Positive("dispatch", "Workers", c.Workers); err != nil {
		return err
	}
	return validation.NonNegative("dispatch", "QueueSize", c.QueueSize)
}

// NewPool creates a new worker pool with the specified number of workers
// and queue size. It panics on invalid sizes.
func NewPool(workers, queueSize int) *Pool {
	return NewPoolWithConfig(Config{
		Workers:   workers,
		QueueSize: queueSize,
		Name:      "default",
	})
}

// NewPoolWithConfig is like NewPoolSafe but panics on invalid
// configuration, for call sites that construct from literals.
func NewPoolWithConfig(config Config) *Pool {
	p, err := NewPoolSafe(config)
	if err != nil {
		panic(err)
	}
	return p
}

// NewPoolSafe creates a new worker pool with the specified configuration,
// returning a CallerError instead of panicking on invalid sizes.
func NewPoolSafe(config Config) (*Pool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Name == "" {
		config.Name = "default"
	}

	p := &Pool{
		config:    config,
		reg:       config.Metrics.Resolve(),
		taskQueue: make(chan task, config.QueueSize),
		doneCh:    make(chan struct{}),
	}

	p.workerWg.Add(config.Workers)
	for i := 0; i < config.Workers; i++ {
		go p.worker()
	}

	p.updateGauges()
	return p, nil
}

// Submit schedules fn on one of the pool's workers and returns a Future
// correlated to this submission. If the queue is full, Submit blocks
// until space frees up, the pool shuts down, or ctx is canceled.
//
// The worker runs fn with a context derived from ctx and marked async,
// so nested dispatch from inside a bridged call takes the async path.
func Submit[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (*Future[T], error) {
	if p == nil {
		return nil, gberrors.NewCallerError("dispatch", "pool", nil, "cannot be nil")
	}
	if fn == nil {
		return nil, gberrors.NewCallerError("dispatch", "fn", nil, "cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	f, t := newTask(ctx, fn)
	if err := p.submit(ctx, t, true); err != nil {
		return nil, err
	}
	return f, nil
}

// TrySubmit is like Submit but never blocks on a full queue; it fails
// fast with a BridgeError wrapping ErrQueueFull instead.
func TrySubmit[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (*Future[T], error) {
	if p == nil {
		return nil, gberrors.NewCallerError("dispatch", "pool", nil, "cannot be nil")
	}
	if fn == nil {
		return nil, gberrors.NewCallerError("dispatch", "fn", nil, "cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	f, t := newTask(ctx, fn)
	if err := p.submit(ctx, t, false); err != nil {
		return nil, err
	}
	return f, nil
}

// newTask wraps fn so that its value, error, or panic resolves the
// returned Future and nothing else. A panic is captured as a BridgeError
// with the recovered value and stack; the worker survives.
func newTask[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (*Future[T], task) {
	f := NewFuture[T]()
	t := task{
		ctx: ctx,
		run: func(ctx context.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = gberrors.NewBridgeError("execute",
						fmt.Errorf("task panicked: %v\n%s", r, debug.Stack()))
					var zero T
					f.resolve(zero, err)
				}
			}()
			v, err := fn(ctx)
			f.resolve(v, err)
			return err
		},
	}
	return f, t
}

// submit enqueues a task. The read lock is held across the queue send so
// Shutdown cannot close the queue while a send is in flight.
func (p *Pool) submit(ctx context.Context, t task, block bool) error {
	// Pre-canceled contexts fail deterministically before queueing.
	select {
	case <-ctx.Done():
		return gberrors.NewBridgeError("submit", ctx.Err())
	default:
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.isShutdown {
		return gberrors.NewBridgeError("submit", gberrors.ErrPoolClosed)
	}

	if block {
		select {
		case p.taskQueue <- t:
		case <-ctx.Done():
			return gberrors.NewBridgeError("submit", ctx.Err())
		}
	} else {
		select {
		case p.taskQueue <- t:
		default:
			return gberrors.NewBridgeError("submit", gberrors.ErrQueueFull)
		}
	}

	atomic.AddInt64(&p.submitted, 1)
	p.recordSubmit()
	return nil
}

// worker is the main loop for a worker goroutine. It drains the queue
// during shutdown so every accepted submission resolves.
func (p *Pool) worker() {
	defer p.workerWg.Done()

	for t := range p.taskQueue {
		p.executeTask(t)
	}
}

// executeTask runs a single task with the async-marked context.
func (p *Pool) executeTask(t task) {
	atomic.AddInt64(&p.active, 1)
	p.updateGauges()

	ctx := t.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	err := t.run(WithAsync(ctx))

	atomic.AddInt64(&p.active, -1)
	atomic.AddInt64(&p.completed, 1)
	p.recordResult(err, time.Since(start))
	p.updateGauges()
}

// Shutdown initiates a graceful shutdown of the pool. No new tasks are
// accepted; queued tasks drain. The returned channel closes when all
// workers have exited. Shutdown is idempotent: repeated calls return the
// same channel and have no further effect.
func (p *Pool) Shutdown() <-chan struct{} {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.isShutdown = true
		p.mu.Unlock()

		// No sender can be in flight here: submit holds the read lock
		// across the queue send.
		close(p.taskQueue)

		go func() {
			p.workerWg.Wait()
			close(p.doneCh)
		}()
	})

	return p.doneCh
}

// ShutdownWait shuts down the pool and blocks until in-flight and queued
// work drains, or ctx is canceled.
func (p *Pool) ShutdownWait(ctx context.Context) error {
	select {
	case <-p.Shutdown():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return p.config.Workers
}

// QueueDepth returns the current number of queued tasks waiting for execution.
func (p *Pool) QueueDepth() int {
	return len(p.taskQueue)
}

// Active returns the number of workers currently executing tasks.
func (p *Pool) Active() int {
	return int(atomic.LoadInt64(&p.active))
}

// Submitted returns the total number of tasks accepted by the pool.
func (p *Pool) Submitted() int64 {
	return atomic.LoadInt64(&p.submitted)
}

// Completed returns the total number of tasks that have finished executing.
func (p *Pool) Completed() int64 {
	return atomic.LoadInt64(&p.completed)
}
