package fileops

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/gobridge/internal/testutil"
	gberrors "github.com/vnykmshr/gobridge/pkg/common/errors"
	"github.com/vnykmshr/gobridge/pkg/dispatch"
	"github.com/vnykmshr/gobridge/pkg/metrics"
)

func newTestFileOps(t *testing.T) *FileOps {
	t.Helper()

	f := New(Config{})
	t.Cleanup(func() {
		_ = f.Close()
	})
	return f
}

func TestWriteThenRead(t *testing.T) {
	f := newTestFileOps(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "note.txt")
	want := []byte("file contents")

	testutil.AssertNoError(t, f.WriteFile(ctx, path, want))

	got, err := f.ReadFile(ctx, path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(got), string(want))
}

func TestParityAcrossPaths(t *testing.T) {
	f := newTestFileOps(t)

	path := filepath.Join(t.TempDir(), "note.txt")
	asyncCtx := dispatch.WithAsync(context.Background())

	// Write bridged, read direct; the side effect is the same file.
	testutil.AssertNoError(t, f.WriteFile(asyncCtx, path, []byte("bridged write")))

	got, err := f.ReadFile(context.Background(), path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(got), "bridged write")

	bridged, err := f.ReadFile(asyncCtx, path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(bridged), string(got))
}

func TestWriteReplacesAtomically(t *testing.T) {
	f := newTestFileOps(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "note.txt")
	testutil.AssertNoError(t, f.WriteFile(ctx, path, []byte("first")))
	testutil.AssertNoError(t, f.WriteFile(ctx, path, []byte("second")))

	got, err := f.ReadFile(ctx, path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(got), "second")

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(entries), 1)
}

func TestReadMissingFile(t *testing.T) {
	f := newTestFileOps(t)

	path := filepath.Join(t.TempDir(), "missing.txt")

	_, syncErr := f.ReadFile(context.Background(), path)
	testutil.AssertError(t, syncErr)
	testutil.AssertEqual(t, gberrors.IsResource(syncErr), true)

	// The os sentinel survives wrapping on both paths.
	testutil.AssertErrorIs(t, syncErr, os.ErrNotExist)

	_, asyncErr := f.ReadFile(dispatch.WithAsync(context.Background()), path)
	testutil.AssertErrorIs(t, asyncErr, os.ErrNotExist)
	testutil.AssertEqual(t, syncErr.Error(), asyncErr.Error())
}

func TestEmptyPathIsCallerError(t *testing.T) {
	f := newTestFileOps(t)
	ctx := context.Background()

	_, err := f.ReadFile(ctx, "")
	testutil.AssertErrorIs(t, err, gberrors.ErrInvalidConfiguration)

	err = f.WriteFile(ctx, "", nil)
	testutil.AssertErrorIs(t, err, gberrors.ErrInvalidConfiguration)

	var cerr *gberrors.CallerError
	testutil.AssertEqual(t, errors.As(err, &cerr), true)
}

func TestReadFileAsync(t *testing.T) {
	f := newTestFileOps(t)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	path := filepath.Join(t.TempDir(), "note.txt")
	testutil.AssertNoError(t, f.WriteFile(ctx, path, []byte("async read")))

	got, err := f.ReadFileAsync(ctx, path).Wait(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(got), "async read")
}

func TestMetricsEnabledAdapter(t *testing.T) {
	// The same Config reaches the adapter and its owned pool; both
	// resolve it against one registerer and must share the registry.
	reg := prometheus.NewRegistry()
	f := New(Config{Metrics: metrics.Config{Enabled: true, Registry: reg}})
	defer func() { _ = f.Close() }()

	path := filepath.Join(t.TempDir(), "note.txt")
	testutil.AssertNoError(t, f.WriteFile(context.Background(), path, []byte("counted")))

	_, err := f.ReadFile(dispatch.WithAsync(context.Background()), path)
	testutil.AssertNoError(t, err)

	families, err := reg.Gather()
	testutil.AssertNoError(t, err)
	if len(families) == 0 {
		t.Error("expected gathered metric families")
	}
}

func TestWriteModeApplied(t *testing.T) {
	f := New(Config{WriteMode: 0o600})
	defer func() { _ = f.Close() }()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "secret.txt")
	testutil.AssertNoError(t, f.WriteFile(ctx, path, []byte("x")))

	info, err := os.Stat(path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, info.Mode().Perm(), os.FileMode(0o600))
}
