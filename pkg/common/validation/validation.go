// Package validation provides common validation utilities for
// configuration parameters and operation arguments across the gobridge
// library.
//
// The helpers return *errors.CallerError so constructors and adapters
// produce consistent messages without per-call boilerplate.
package validation

import (
	gberrors "github.com/vnykmshr/gobridge/pkg/common/errors"
)

// Positive validates that an integer value is positive (> 0).
func Positive(module, field string, value int) error {
	if value <= 0 {
		return gberrors.NewCallerError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// NonNegative validates that an integer value is non-negative (>= 0).
func NonNegative(module, field string, value int) error {
	if value < 0 {
		return gberrors.NewCallerError(module, field, value, "cannot be negative").
			WithHint("use 0 or a positive value")
	}
	return nil
}

// NotNil validates that an interface value is not nil.
func NotNil(module, field string, value interface{}) error {
	if value == nil {
		return gberrors.NewCallerError(module, field, nil, "cannot be nil").
			WithHint("provide a valid " + field)
	}
	return nil
}

// NotEmpty validates that a string value is not empty.
func NotEmpty(module, field string, value string) error {
	if value == "" {
		return gberrors.NewCallerError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}
