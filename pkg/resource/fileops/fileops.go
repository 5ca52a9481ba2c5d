// Package fileops provides a dual-mode file I/O adapter for whole-file
// reads and writes.
package fileops

import (
	"context"
	"os"
	"path/filepath"
	"time"

	gberrors "github.com/vnykmshr/gobridge/pkg/common/errors"
	"github.com/vnykmshr/gobridge/pkg/common/validation"
	"github.com/vnykmshr/gobridge/pkg/dispatch"
	"github.com/vnykmshr/gobridge/pkg/metrics"
)

const resourceName = "fileops"

// Config holds configuration for the FileOps adapter.
type Config struct {
	// Pool bridges blocking calls for async callers. If nil, the
	// adapter creates and owns one.
	Pool *dispatch.Pool

	// Detector probes the caller's execution context. Defaults to
	// dispatch.DefaultDetector.
	Detector dispatch.Detector

	// WriteMode is the permission bits for created files. Defaults to 0o644.
	WriteMode os.FileMode

	// Name labels the adapter in metrics.
	Name string

	// Metrics configures Prometheus instrumentation.
	Metrics metrics.Config
}

// FileOps dispatches whole-file read and write operations. There is no
// native async path for local files; async callers always bridge.
type FileOps struct {
	config   Config
	pool     *dispatch.Pool
	ownsPool bool
	reg      *metrics.Registry

	readOp  *dispatch.Operation[string, []byte]
	writeOp *dispatch.Operation[writeArgs, struct{}]
}

type writeArgs struct {
	path string
	data []byte
}

// New creates a FileOps adapter from the given configuration.
func New(cfg Config) *FileOps {
	if cfg.Name == "" {
		cfg.Name = resourceName
	}
	if cfg.Detector == nil {
		cfg.Detector = dispatch.DefaultDetector
	}
	if cfg.WriteMode == 0 {
		cfg.WriteMode = 0o644
	}

	f := &FileOps{
		config: cfg,
		pool:   cfg.Pool,
		reg:    cfg.Metrics.Resolve(),
	}
	if f.pool == nil {
		f.pool = dispatch.NewPoolWithConfig(dispatch.Config{
			Workers:   4,
			QueueSize: 64,
			Name:      cfg.Name,
			Metrics:   cfg.Metrics,
		})
		f.ownsPool = true
	}

	f.readOp = dispatch.MustNew(f.pool, f.readImpl,
		dispatch.WithName[string, []byte](cfg.Name+".read"),
		dispatch.WithDetector[string, []byte](cfg.Detector),
	)
	f.writeOp = dispatch.MustNew(f.pool, f.writeImpl,
		dispatch.WithName[writeArgs, struct{}](cfg.Name+".write"),
		dispatch.WithDetector[writeArgs, struct{}](cfg.Detector),
	)
	return f
}

func (f *FileOps) readImpl(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, gberrors.NewResourceError(f.config.Name, "ReadFile", err)
	}
	return data, nil
}

// writeImpl writes through a temp file in the target directory and
// renames it into place, so readers never observe a partial file.
func (f *FileOps) writeImpl(ctx context.Context, a writeArgs) (struct{}, error) {
	dir := filepath.Dir(a.path)

	tmp, err := os.CreateTemp(dir, ".fileops-*")
	if err != nil {
		return struct{}{}, gberrors.NewResourceError(f.config.Name, "WriteFile", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(a.data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return struct{}{}, gberrors.NewResourceError(f.config.Name, "WriteFile", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return struct{}{}, gberrors.NewResourceError(f.config.Name, "WriteFile", err)
	}
	if err := os.Chmod(tmpName, f.config.WriteMode); err != nil {
		_ = os.Remove(tmpName)
		return struct{}{}, gberrors.NewResourceError(f.config.Name, "WriteFile", err)
	}
	if err := os.Rename(tmpName, a.path); err != nil {
		_ = os.Remove(tmpName)
		return struct{}{}, gberrors.NewResourceError(f.config.Name, "WriteFile", err)
	}
	return struct{}{}, nil
}

// ReadFile returns the contents of the file at path. The execution path
// is chosen per call from the caller's context.
func (f *FileOps) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := validation.NotEmpty(f.config.Name, "path", path); err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := f.readOp.Call(ctx, path)
	f.record("ReadFile", start, err)
	return data, err
}

// WriteFile writes data to the file at path, replacing any existing
// contents atomically.
func (f *FileOps) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := validation.NotEmpty(f.config.Name, "path", path); err != nil {
		return err
	}

	start := time.Now()
	_, err := f.writeOp.Call(ctx, writeArgs{path: path, data: data})
	f.record("WriteFile", start, err)
	return err
}

// ReadFileAsync returns an awaitable for the read, bypassing detection.
func (f *FileOps) ReadFileAsync(ctx context.Context, path string) *dispatch.Future[[]byte] {
	if err := validation.NotEmpty(f.config.Name, "path", path); err != nil {
		return dispatch.Resolved[[]byte](nil, err)
	}
	return f.readOp.Async(ctx, path)
}

// Close drains and releases the worker pool if the adapter owns it.
func (f *FileOps) Close() error {
	if f.ownsPool {
		<-f.pool.Shutdown()
	}
	return nil
}

func (f *FileOps) record(op string, start time.Time, err error) {
	if f.reg == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	f.reg.ResourceOps.WithLabelValues(f.config.Name, op, status).Inc()
	f.reg.ResourceOpDuration.WithLabelValues(f.config.Name, op).Observe(time.Since(start).Seconds())
}
