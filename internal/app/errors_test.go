package app

import (
	"errors"
	"strings"
	"testing"
)

func TestOperationError(t *testing.T) {
	inner := errors.New("permission denied")
	tests := []struct {
		name string
		err  *OperationError
		want string
	}{
		{"nil", nil, ""},
		{"op only", &OperationError{Op: "poll"}, "poll"},
		{"op and target", &OperationError{Op: "view-file", Target: "/tmp/x"}, "view-file /tmp/x"},
		{"full", &OperationError{Op: "view-file", Target: "/tmp/x", Err: inner}, "view-file /tmp/x: permission denied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}

	err := error(&OperationError{Op: "kill-buffer", Err: inner})
	if !errors.Is(err, inner) {
		t.Error("errors.Is does not see the wrapped error")
	}
	var nilErr *OperationError
	if nilErr.Unwrap() != nil {
		t.Error("Unwrap on nil receiver returned non-nil")
	}
}

func TestInitError(t *testing.T) {
	inner := errors.New("no tty")
	err := error(&InitError{Component: "backend", Err: inner})
	if got, want := err.Error(), "init backend: no tty"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, inner) {
		t.Error("errors.Is does not see the wrapped error")
	}
}

func TestRecoveredPanicError(t *testing.T) {
	tests := []struct {
		name string
		err  *RecoveredPanicError
		want string
	}{
		{"nil", nil, ""},
		{"value", &RecoveredPanicError{Value: "boom"}, "panic: boom"},
		{"stack", &RecoveredPanicError{Value: 42, Stack: "main.go:1"}, "panic: 42\nmain.go:1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, "ignored") != nil {
		t.Error("WrapError(nil) is not nil")
	}
	err := WrapError(ErrNoBuffer, "action %s", "kill-buffer")
	if !errors.Is(err, ErrNoBuffer) {
		t.Error("wrapped error lost")
	}
	if !strings.HasPrefix(err.Error(), "action kill-buffer: ") {
		t.Errorf("Error() = %q", err.Error())
	}
}
