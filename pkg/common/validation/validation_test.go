package validation

import (
	"errors"
	"testing"

	gberrors "github.com/vnykmshr/gobridge/pkg/common/errors"
)

func TestPositive(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 10, false},
		{"one", 1, false},
		{"zero", 0, true},
		{"negative", -5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Positive("test", "count", tt.value)
			if (err != nil) != tt.wantError {
				t.Errorf("Positive(%d) error = %v, wantError %v", tt.value, err, tt.wantError)
			}
			if err != nil && !errors.Is(err, gberrors.ErrInvalidConfiguration) {
				t.Error("validation error should wrap ErrInvalidConfiguration")
			}
		})
	}
}

func TestNonNegative(t *testing.T) {
	if err := NonNegative("test", "queue", 0); err != nil {
		t.Errorf("NonNegative(0) = %v, want nil", err)
	}
	if err := NonNegative("test", "queue", -1); err == nil {
		t.Error("NonNegative(-1) = nil, want error")
	}
}

func TestNotNil(t *testing.T) {
	if err := NotNil("test", "handle", struct{}{}); err != nil {
		t.Errorf("NotNil(non-nil) = %v, want nil", err)
	}
	if err := NotNil("test", "handle", nil); err == nil {
		t.Error("NotNil(nil) = nil, want error")
	}
}

func TestNotEmpty(t *testing.T) {
	if err := NotEmpty("test", "key", "value"); err != nil {
		t.Errorf("NotEmpty(non-empty) = %v, want nil", err)
	}

	err := NotEmpty("test", "key", "")
	if err == nil {
		t.Fatal("NotEmpty(\"\") = nil, want error")
	}

	var cerr *gberrors.CallerError
	if !errors.As(err, &cerr) {
		t.Fatal("expected *CallerError")
	}
	if cerr.Field != "key" {
		t.Errorf("Field = %q, want %q", cerr.Field, "key")
	}
}
