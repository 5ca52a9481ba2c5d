// Package cache provides a dual-mode key/value cache adapter.
//
// The default backend is an in-memory TTL store; sync callers hit it
// directly and async callers bridge through a worker pool. When a Redis
// client is configured it becomes the backend for both paths, and async
// callers use it natively without bridging. If Redis is configured but
// unreachable at construction time the adapter logs one warning and
// degrades to the in-memory backend; it never fails a call for this
// reason.
package cache

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	gberrors "github.com/vnykmshr/gobridge/pkg/common/errors"
	"github.com/vnykmshr/gobridge/pkg/common/validation"
	"github.com/vnykmshr/gobridge/pkg/dispatch"
	"github.com/vnykmshr/gobridge/pkg/metrics"
)

const resourceName = "cache"

// Value is the result of a cache lookup. Found distinguishes a missing
// key from a stored empty value.
type Value struct {
	Data  []byte
	Found bool
}

// Config holds configuration for the Cache adapter.
type Config struct {
	// Redis, when set, backs the cache instead of the in-memory store
	// and serves async callers natively.
	Redis redis.UniversalClient

	// RequireRedis makes construction fail when Redis is configured
	// but unreachable, instead of degrading to the in-memory backend.
	RequireRedis bool

	// PingTimeout bounds the construction-time reachability probe.
	// Defaults to 2s.
	PingTimeout time.Duration

	// JanitorSpec is the cron schedule for sweeping expired entries
	// from the in-memory store. Defaults to "@every 1m".
	JanitorSpec string

	// Pool bridges blocking calls for async callers. If nil, the
	// adapter creates and owns one.
	Pool *dispatch.Pool

	// Detector probes the caller's execution context. Defaults to
	// dispatch.DefaultDetector.
	Detector dispatch.Detector

	// Name labels the adapter in metrics.
	Name string

	// Metrics configures Prometheus instrumentation.
	Metrics metrics.Config
}

// backend is the storage contract shared by the in-memory and Redis
// implementations. Both paths of every operation go through the same
// backend, which is what keeps results identical across paths.
type backend interface {
	get(ctx context.Context, key string) (Value, error)
	set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	del(ctx context.Context, key string) error
}

// Cache dispatches get/set/delete operations over the configured backend.
type Cache struct {
	config   Config
	pool     *dispatch.Pool
	ownsPool bool
	reg      *metrics.Registry

	store   *memoryStore // always present; the degrade target
	janitor *cron.Cron   // nil when the backend is Redis

	getOp *dispatch.Operation[string, Value]
	setOp *dispatch.Operation[setArgs, struct{}]
	delOp *dispatch.Operation[string, struct{}]
}

type setArgs struct {
	key string
	val []byte
	ttl time.Duration
}

// New creates a Cache adapter from the given configuration.
func New(cfg Config) (*Cache, error) {
	if cfg.Name == "" {
		cfg.Name = resourceName
	}
	if cfg.Detector == nil {
		cfg.Detector = dispatch.DefaultDetector
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 2 * time.Second
	}
	if cfg.JanitorSpec == "" {
		cfg.JanitorSpec = "@every 1m"
	}

	c := &Cache{
		config: cfg,
		pool:   cfg.Pool,
		reg:    cfg.Metrics.Resolve(),
		store:  newMemoryStore(),
	}
	if c.pool == nil {
		c.pool = dispatch.NewPoolWithConfig(dispatch.Config{
			Workers:   4,
			QueueSize: 64,
			Name:      cfg.Name,
			Metrics:   cfg.Metrics,
		})
		c.ownsPool = true
	}

	var b backend = c.store
	native := false

	if cfg.Redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
		err := cfg.Redis.Ping(ctx).Err()
		cancel()

		switch {
		case err == nil:
			b = &redisBackend{name: cfg.Name, rdb: cfg.Redis}
			native = true
		case cfg.RequireRedis:
			c.release()
			return nil, gberrors.NewResourceError(cfg.Name, "Ping", err)
		default:
			log.Printf("gobridge: %s: redis unavailable, degrading to in-memory backend: %v", cfg.Name, err)
		}
	}

	if !native {
		// Only the in-memory store needs expiry sweeps.
		c.janitor = cron.New()
		if _, err := c.janitor.AddFunc(cfg.JanitorSpec, c.store.sweep); err != nil {
			c.release()
			return nil, gberrors.NewCallerError(cfg.Name, "JanitorSpec", cfg.JanitorSpec, "invalid cron expression").
				WithHint(`use a robfig/cron spec such as "@every 30s"`)
		}
		c.janitor.Start()
	}

	c.buildOps(b, native)
	return c, nil
}

func (c *Cache) buildOps(b backend, native bool) {
	cfg := c.config

	getOpts := []dispatch.Option[string, Value]{
		dispatch.WithName[string, Value](cfg.Name + ".get"),
		dispatch.WithDetector[string, Value](cfg.Detector),
	}
	setOpts := []dispatch.Option[setArgs, struct{}]{
		dispatch.WithName[setArgs, struct{}](cfg.Name + ".set"),
		dispatch.WithDetector[setArgs, struct{}](cfg.Detector),
	}
	delOpts := []dispatch.Option[string, struct{}]{
		dispatch.WithName[string, struct{}](cfg.Name + ".delete"),
		dispatch.WithDetector[string, struct{}](cfg.Detector),
	}

	getFn := func(ctx context.Context, key string) (Value, error) {
		return b.get(ctx, key)
	}
	setFn := func(ctx context.Context, a setArgs) (struct{}, error) {
		return struct{}{}, b.set(ctx, a.key, a.val, a.ttl)
	}
	delFn := func(ctx context.Context, key string) (struct{}, error) {
		return struct{}{}, b.del(ctx, key)
	}

	if native {
		// Redis multiplexes its own connections; async callers skip
		// the pool entirely.
		getOpts = append(getOpts, dispatch.WithNativeAsync[string, Value](getFn))
		setOpts = append(setOpts, dispatch.WithNativeAsync[setArgs, struct{}](setFn))
		delOpts = append(delOpts, dispatch.WithNativeAsync[string, struct{}](delFn))
	}

	c.getOp = dispatch.MustNew(c.pool, getFn, getOpts...)
	c.setOp = dispatch.MustNew(c.pool, setFn, setOpts...)
	c.delOp = dispatch.MustNew(c.pool, delFn, delOpts...)
}

// Get returns the value stored under key. A missing or expired key is
// not an error; Found reports presence.
func (c *Cache) Get(ctx context.Context, key string) (Value, error) {
	if err := validation.NotEmpty(c.config.Name, "key", key); err != nil {
		return Value{}, err
	}

	start := time.Now()
	v, err := c.getOp.Call(ctx, key)
	c.record("Get", start, err)
	return v, err
}

// Set stores val under key. A ttl of zero means no expiry.
func (c *Cache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := validation.NotEmpty(c.config.Name, "key", key); err != nil {
		return err
	}
	if ttl < 0 {
		return gberrors.NewCallerError(c.config.Name, "ttl", ttl, "cannot be negative")
	}

	start := time.Now()
	_, err := c.setOp.Call(ctx, setArgs{key: key, val: val, ttl: ttl})
	c.record("Set", start, err)
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := validation.NotEmpty(c.config.Name, "key", key); err != nil {
		return err
	}

	start := time.Now()
	_, err := c.delOp.Call(ctx, key)
	c.record("Delete", start, err)
	return err
}

// GetAsync returns an awaitable for the lookup, bypassing detection.
func (c *Cache) GetAsync(ctx context.Context, key string) *dispatch.Future[Value] {
	if err := validation.NotEmpty(c.config.Name, "key", key); err != nil {
		return dispatch.Resolved(Value{}, err)
	}
	return c.getOp.Async(ctx, key)
}

// SetAsync returns an awaitable for the store, bypassing detection.
func (c *Cache) SetAsync(ctx context.Context, key string, val []byte, ttl time.Duration) *dispatch.Future[struct{}] {
	if err := validation.NotEmpty(c.config.Name, "key", key); err != nil {
		return dispatch.Resolved(struct{}{}, err)
	}
	return c.setOp.Async(ctx, setArgs{key: key, val: val, ttl: ttl})
}

// Close stops the janitor and drains the worker pool if the adapter
// owns it. The Redis client, being injected, stays with its owner.
func (c *Cache) Close() error {
	c.release()
	return nil
}

func (c *Cache) release() {
	if c.janitor != nil {
		c.janitor.Stop()
		c.janitor = nil
	}
	if c.ownsPool {
		<-c.pool.Shutdown()
		c.ownsPool = false
	}
}

func (c *Cache) record(op string, start time.Time, err error) {
	if c.reg == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.reg.ResourceOps.WithLabelValues(c.config.Name, op, status).Inc()
	c.reg.ResourceOpDuration.WithLabelValues(c.config.Name, op).Observe(time.Since(start).Seconds())
}

// redisBackend adapts a go-redis client to the backend contract.
type redisBackend struct {
	name string
	rdb  redis.UniversalClient
}

func (r *redisBackend) get(ctx context.Context, key string) (Value, error) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Value{}, nil
	}
	if err != nil {
		return Value{}, gberrors.NewResourceError(r.name, "Get", err)
	}
	return Value{Data: data, Found: true}, nil
}

func (r *redisBackend) set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		return gberrors.NewResourceError(r.name, "Set", err)
	}
	return nil
}

func (r *redisBackend) del(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return gberrors.NewResourceError(r.name, "Delete", err)
	}
	return nil
}
