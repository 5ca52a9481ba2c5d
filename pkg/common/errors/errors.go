// Package errors defines the error taxonomy shared by the gobridge
// dispatch core and the resource adapters.
//
// Errors fall into four groups: bridge errors (the pool could not carry
// the call), resource errors (the wrapped driver or client failed),
// caller errors (invalid arguments or configuration), and context
// detection errors. Bridge errors are kept distinguishable from resource
// errors so callers can retry the former and fail on the latter.
package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors used across the gobridge library.
var (
	// ErrPoolClosed indicates a submission to a worker pool that has
	// begun shutting down.
	ErrPoolClosed = errors.New("worker pool is closed")

	// ErrQueueFull indicates a non-blocking submission found the task
	// queue at capacity.
	ErrQueueFull = errors.New("task queue is full")

	// ErrContextDetection indicates the execution-context probe itself
	// failed. Dispatch never guesses a path on detection failure.
	ErrContextDetection = errors.New("execution context detection failed")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// BridgeError reports that the bridge between the calling context and a
// worker could not carry the call: the pool was closed or exhausted, or
// the bridged function panicked. The wrapped resource is never the
// source of a BridgeError.
type BridgeError struct {
	// Op is the bridge operation that failed (e.g. "submit", "execute")
	Op string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *BridgeError) Error() string {
	return fmt.Sprintf("bridge.%s failed: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *BridgeError) Unwrap() error {
	return e.Cause
}

// NewBridgeError creates a new BridgeError.
func NewBridgeError(op string, cause error) *BridgeError {
	return &BridgeError{Op: op, Cause: cause}
}

// ResourceError reports that the wrapped driver or client raised. The
// cause is preserved unwrapped so errors.Is/As matching against driver
// sentinels holds on every dispatch path.
type ResourceError struct {
	// Resource names the adapter (e.g. "database", "cache")
	Resource string

	// Op is the adapter operation that failed (e.g. "Query", "Get")
	Op string

	// Cause is the error the underlying resource raised
	Cause error
}

// Error implements the error interface.
func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s.%s failed: %v", e.Resource, e.Op, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ResourceError) Unwrap() error {
	return e.Cause
}

// NewResourceError creates a new ResourceError.
func NewResourceError(resource, op string, cause error) *ResourceError {
	return &ResourceError{Resource: resource, Op: op, Cause: cause}
}

// CallerError reports invalid arguments or configuration supplied by the
// caller of an operation or constructor.
type CallerError struct {
	// Module is the component reporting the error
	Module string

	// Field is the argument or configuration field that is invalid
	Field string

	// Value is the offending value
	Value interface{}

	// Reason describes why the value is invalid
	Reason string

	// Hint optionally suggests a fix
	Hint string
}

// Error implements the error interface.
func (e *CallerError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap allows CallerError to match ErrInvalidConfiguration.
func (e *CallerError) Unwrap() error {
	return ErrInvalidConfiguration
}

// NewCallerError creates a new CallerError.
func NewCallerError(module, field string, value interface{}, reason string) *CallerError {
	return &CallerError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint adds a hint to the error and returns the same instance for chaining.
func (e *CallerError) WithHint(hint string) *CallerError {
	e.Hint = hint
	return e
}

// IsBridge returns true if err originated in the bridge rather than in
// the wrapped resource.
func IsBridge(err error) bool {
	var be *BridgeError
	return errors.As(err, &be)
}

// IsResource returns true if err originated in the wrapped resource.
func IsResource(err error) bool {
	var re *ResourceError
	return errors.As(err, &re)
}

// IsRetryable returns true if the error indicates a condition that might
// be resolved by retrying the operation. Only bridge-level congestion
// qualifies; resource failures are not assumed transient.
func IsRetryable(err error) bool {
	return IsBridge(err) && errors.Is(err, ErrQueueFull)
}
