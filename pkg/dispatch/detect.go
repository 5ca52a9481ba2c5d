package dispatch

import "context"

// Mode identifies the execution context of a caller.
type Mode int

const (
	// ModeSync means the caller expects a direct, blocking call on its
	// own goroutine.
	ModeSync Mode = iota

	// ModeAsync means the caller is inside a non-blocking region and
	// blocking work must be bridged through a worker pool or served by
	// a native async implementation.
	ModeAsync
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeAsync:
		return "async"
	default:
		return "sync"
	}
}

// Detector probes the execution context of a call. It is an injected
// capability so tests can substitute a deterministic fake.
//
// A Detector must either return a mode or an error; dispatch never
// guesses a path when detection fails.
type Detector interface {
	Mode(ctx context.Context) (Mode, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context) (Mode, error)

// Mode implements the Detector interface for DetectorFunc.
func (f DetectorFunc) Mode(ctx context.Context) (Mode, error) {
	return f(ctx)
}

type modeKey struct{}

// WithMode returns a context marked with the given execution mode.
func WithMode(ctx context.Context, m Mode) context.Context {
	return context.WithValue(ctx, modeKey{}, m)
}

// WithAsync marks the context as belonging to a non-blocking region.
func WithAsync(ctx context.Context) context.Context {
	return WithMode(ctx, ModeAsync)
}

// WithSync marks the context as belonging to an ordinary blocking call site.
func WithSync(ctx context.Context) context.Context {
	return WithMode(ctx, ModeSync)
}

// ModeFromContext returns the execution mode marker, if any.
func ModeFromContext(ctx context.Context) (Mode, bool) {
	m, ok := ctx.Value(modeKey{}).(Mode)
	return m, ok
}

// ContextDetector is the default Detector. It reads the execution-mode
// marker from the context; an unmarked context means a plain synchronous
// call site. The probe is computed fresh on every call and never cached.
type ContextDetector struct{}

// Mode implements the Detector interface.
func (ContextDetector) Mode(ctx context.Context) (Mode, error) {
	if m, ok := ModeFromContext(ctx); ok {
		return m, nil
	}
	return ModeSync, nil
}

// DefaultDetector is the detector used when none is injected.
var DefaultDetector Detector = ContextDetector{}
