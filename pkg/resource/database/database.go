// Package database provides a dual-mode database adapter over injected
// *sql.DB handles.
//
// Operations are authored against the blocking database/sql contract and
// dispatched transparently: sync callers run on their own goroutine,
// async callers bridge through a worker pool or, when a separate async
// handle is configured, use it natively.
package database

import (
	"context"
	"database/sql"
	"sync"
	"time"

	gberrors "github.com/vnykmshr/gobridge/pkg/common/errors"
	"github.com/vnykmshr/gobridge/pkg/common/validation"
	"github.com/vnykmshr/gobridge/pkg/dispatch"
	"github.com/vnykmshr/gobridge/pkg/metrics"
)

const resourceName = "database"

// Row is a single result row keyed by column name.
type Row map[string]any

// Config holds configuration for the Database adapter.
type Config struct {
	// DB is the blocking handle. Required.
	DB *sql.DB

	// AsyncDB is an optional separate handle for the native async path.
	// When set, async callers use it directly without bridging.
	AsyncDB *sql.DB

	// Pool bridges blocking calls for async callers. If nil, the
	// adapter creates and owns one.
	Pool *dispatch.Pool

	// Detector probes the caller's execution context. Defaults to
	// dispatch.DefaultDetector.
	Detector dispatch.Detector

	// Serialize guards the shared handle with a mutex so concurrently
	// bridged calls never interleave on a single non-thread-safe
	// connection. This is an explicit choice: disable it only when the
	// handle is safe for concurrent use or each worker has its own
	// connection.
	Serialize bool

	// Name labels the adapter in metrics.
	Name string

	// Metrics configures Prometheus instrumentation.
	Metrics metrics.Config
}

// DefaultConfig returns a Config for the given handle with conservative
// defaults: serialized access and an adapter-owned pool.
func DefaultConfig(db *sql.DB) Config {
	return Config{
		DB:        db,
		Serialize: true,
		Name:      resourceName,
	}
}

// Database dispatches query/exec operations over a wrapped database
// handle. Its lifetime is tied to the owning application; Close releases
// the worker pool if the adapter owns it.
type Database struct {
	config   Config
	pool     *dispatch.Pool
	ownsPool bool
	reg      *metrics.Registry

	// serializes access to config.DB when Serialize is set
	mu sync.Mutex

	queryOp *dispatch.Operation[queryArgs, []Row]
	execOp  *dispatch.Operation[execArgs, int64]
}

type queryArgs struct {
	sqlText string
	args    []any
}

type execArgs struct {
	sqlText string
	args    []any
}

// New creates a Database adapter from the given configuration.
func New(cfg Config) (*Database, error) {
	if cfg.DB == nil {
		return nil, gberrors.NewCallerError(resourceName, "DB", nil, "cannot be nil").
			WithHint("provide an opened *sql.DB handle")
	}
	if cfg.Name == "" {
		cfg.Name = resourceName
	}
	if cfg.Detector == nil {
		cfg.Detector = dispatch.DefaultDetector
	}

	d := &Database{
		config: cfg,
		pool:   cfg.Pool,
		reg:    cfg.Metrics.Resolve(),
	}
	if d.pool == nil {
		d.pool = dispatch.NewPoolWithConfig(dispatch.Config{
			Workers:   4,
			QueueSize: 64,
			Name:      cfg.Name,
			Metrics:   cfg.Metrics,
		})
		d.ownsPool = true
	}

	queryOpts := []dispatch.Option[queryArgs, []Row]{
		dispatch.WithName[queryArgs, []Row](cfg.Name + ".query"),
		dispatch.WithDetector[queryArgs, []Row](cfg.Detector),
	}
	execOpts := []dispatch.Option[execArgs, int64]{
		dispatch.WithName[execArgs, int64](cfg.Name + ".exec"),
		dispatch.WithDetector[execArgs, int64](cfg.Detector),
	}
	if cfg.AsyncDB != nil {
		queryOpts = append(queryOpts, dispatch.WithNativeAsync[queryArgs, []Row](
			dispatch.AsyncFunc[queryArgs, []Row](d.queryOn(cfg.AsyncDB, false))))
		execOpts = append(execOpts, dispatch.WithNativeAsync[execArgs, int64](
			dispatch.AsyncFunc[execArgs, int64](d.execOn(cfg.AsyncDB, false))))
	}

	d.queryOp = dispatch.MustNew(d.pool, d.queryOn(cfg.DB, cfg.Serialize), queryOpts...)
	d.execOp = dispatch.MustNew(d.pool, d.execOn(cfg.DB, cfg.Serialize), execOpts...)
	return d, nil
}

// queryOn builds the query implementation bound to one handle.
func (d *Database) queryOn(db *sql.DB, serialize bool) dispatch.SyncFunc[queryArgs, []Row] {
	return func(ctx context.Context, a queryArgs) ([]Row, error) {
		if serialize {
			d.mu.Lock()
			defer d.mu.Unlock()
		}

		rows, err := db.QueryContext(ctx, a.sqlText, a.args...)
		if err != nil {
			return nil, gberrors.NewResourceError(d.config.Name, "Query", err)
		}
		defer rows.Close()

		out, err := scanRows(rows)
		if err != nil {
			return nil, gberrors.NewResourceError(d.config.Name, "Query", err)
		}
		return out, nil
	}
}

// execOn builds the exec implementation bound to one handle.
func (d *Database) execOn(db *sql.DB, serialize bool) dispatch.SyncFunc[execArgs, int64] {
	return func(ctx context.Context, a execArgs) (int64, error) {
		if serialize {
			d.mu.Lock()
			defer d.mu.Unlock()
		}

		res, err := db.ExecContext(ctx, a.sqlText, a.args...)
		if err != nil {
			return 0, gberrors.NewResourceError(d.config.Name, "Exec", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, gberrors.NewResourceError(d.config.Name, "Exec", err)
		}
		return n, nil
	}
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Query runs a query and returns the result rows. The execution path is
// chosen per call from the caller's context.
func (d *Database) Query(ctx context.Context, sqlText string, args ...any) ([]Row, error) {
	if err := validation.NotEmpty(d.config.Name, "sql", sqlText); err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := d.queryOp.Call(ctx, queryArgs{sqlText: sqlText, args: args})
	d.record("Query", start, err)
	return rows, err
}

// Exec runs a statement and returns the affected-row count.
func (d *Database) Exec(ctx context.Context, sqlText string, args ...any) (int64, error) {
	if err := validation.NotEmpty(d.config.Name, "sql", sqlText); err != nil {
		return 0, err
	}

	start := time.Now()
	n, err := d.execOp.Call(ctx, execArgs{sqlText: sqlText, args: args})
	d.record("Exec", start, err)
	return n, err
}

// QueryAsync returns an awaitable for the query, bypassing detection.
func (d *Database) QueryAsync(ctx context.Context, sqlText string, args ...any) *dispatch.Future[[]Row] {
	if err := validation.NotEmpty(d.config.Name, "sql", sqlText); err != nil {
		return dispatch.Resolved[[]Row](nil, err)
	}
	return d.queryOp.Async(ctx, queryArgs{sqlText: sqlText, args: args})
}

// ExecAsync returns an awaitable for the statement, bypassing detection.
func (d *Database) ExecAsync(ctx context.Context, sqlText string, args ...any) *dispatch.Future[int64] {
	if err := validation.NotEmpty(d.config.Name, "sql", sqlText); err != nil {
		return dispatch.Resolved[int64](0, err)
	}
	return d.execOp.Async(ctx, execArgs{sqlText: sqlText, args: args})
}

// Close drains and releases the worker pool if the adapter owns it.
// Injected pools are left to their owner. The wrapped handles are not
// closed; they were injected and stay with their owner too.
func (d *Database) Close() error {
	if d.ownsPool {
		<-d.pool.Shutdown()
	}
	return nil
}

func (d *Database) record(op string, start time.Time, err error) {
	if d.reg == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	d.reg.ResourceOps.WithLabelValues(d.config.Name, op, status).Inc()
	d.reg.ResourceOpDuration.WithLabelValues(d.config.Name, op).Observe(time.Since(start).Seconds())
}
