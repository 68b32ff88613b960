package hook

import "errors"

// Errors returned by the hook manager.
var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("hook manager is closed")

	// ErrNotInstalled is returned when running a hook with no script.
	ErrNotInstalled = errors.New("hook not installed")

	// ErrNoRegistry is returned by bind when no keymap registry is wired.
	ErrNoRegistry = errors.New("keybindings are not available")
)

// Error describes a failed hook run.
type Error struct {
	Hook string
	Err  error
}

func (e *Error) Error() string {
	return "hook " + e.Hook + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
