// Package mode defines the contract between buffers and the views drawn
// in them, plus the stock views the window system itself needs.
//
// A Mode owns its content and interaction logic. The buffer manager calls
// Draw and Status while holding the screen lock, possibly from a
// background goroutine, so modes guard their state with their own mutex.
// Cleanup, Focus and Blur also run under the screen lock and must not
// draw through the manager. HandleInput always runs on the input
// goroutine.
package mode

import (
	"github.com/dshills/burrow/internal/input/key"
	"github.com/dshills/burrow/internal/input/keymap"
	"github.com/dshills/burrow/internal/layout"
)

// Mode is a view hosted by a buffer.
type Mode interface {
	// Name identifies the mode in the status line and keymap registry.
	Name() string

	// Draw renders the content area.
	Draw(c Canvas)

	// Status returns the mode-specific part of the status line.
	Status() string

	// Resize is called when the content area changes size.
	Resize(rows, cols int)

	// HandleInput processes a keystroke. A multi-key binding is resolved
	// through h.
	HandleInput(k key.Event, h Host) keymap.Result

	// HandleMouseEvent processes a click at buffer-relative coordinates.
	HandleMouseEvent(ev MouseEvent)

	// Cleanup releases resources when the buffer is killed.
	Cleanup()

	// Killable reports whether the mode may be closed now.
	Killable() bool
}

// WriteOpts controls a Canvas write.
type WriteOpts struct {
	// Color is a theme color name; empty means plain text.
	Color string
	// Highlight selects the highlighted variant of Color.
	Highlight bool
	// NoFill leaves the rest of the row untouched.
	NoFill bool
}

// Canvas is the drawing surface a buffer offers its mode. Rows and
// columns are relative to the content area.
type Canvas interface {
	Write(row, col int, text string, opts WriteOpts)
	Width() int
	Height() int
}

// Host is the environment a mode runs in while handling input.
type Host interface {
	// ResolveInput resolves k against km, prompting for the rest of a
	// multi-key sequence.
	ResolveInput(k key.Event, km *keymap.Keymap) keymap.Result

	// Ask prompts on the minibuffer. ok is false when the user cancels.
	Ask(domain, question, def string) (answer string, ok bool)

	// Flash shows a transient message.
	Flash(msg string)
}

// MouseEvent is a click in buffer-relative coordinates.
type MouseEvent struct {
	Row, Col int
	Button   string
}

// Modal is a mode run by a modal loop until it is done.
type Modal[T any] interface {
	Mode
	Done() bool
	Value() T
}

// Updater modes refresh their content after a resize.
type Updater interface {
	Update()
}

// Focuser modes react to gaining or losing focus.
type Focuser interface {
	Focus()
	Blur()
}

// Searcher modes support an in-buffer search that continues with "n".
type Searcher interface {
	InSearch() bool
	CancelSearch()
}

// Kinded modes choose their split pane.
type Kinded interface {
	Kind() layout.Kind
}

// Homer marks the home view, which is never closed by a kill-all.
type Homer interface {
	IsHome() bool
}

// KindOf returns m's kind, KindOther when m does not declare one.
func KindOf(m Mode) layout.Kind {
	if k, ok := m.(Kinded); ok {
		return k.Kind()
	}
	return layout.KindOther
}

// IsHome reports whether m is the home view.
func IsHome(m Mode) bool {
	h, ok := m.(Homer)
	return ok && h.IsHome()
}
