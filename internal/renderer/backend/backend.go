// Package backend abstracts the terminal the buffers are drawn on.
//
// Terminal drives a real terminal through tcell; NullBackend keeps the
// screen in memory and is used by tests.
package backend

import (
	"time"

	"github.com/dshills/burrow/internal/input/key"
	"github.com/dshills/burrow/internal/renderer/core"
)

// EventType identifies the kind of input event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventMouse
	EventResize
)

// MouseButton identifies a mouse button.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseMiddle
	MouseRight
	MouseWheelUp
	MouseWheelDown
)

// String returns the button name offered to modes.
func (b MouseButton) String() string {
	switch b {
	case MouseLeft:
		return "left"
	case MouseMiddle:
		return "middle"
	case MouseRight:
		return "right"
	case MouseWheelUp:
		return "wheel-up"
	case MouseWheelDown:
		return "wheel-down"
	}
	return "none"
}

// Event is an input event from the terminal.
type Event struct {
	Type EventType

	// Key is set for EventKey.
	Key key.Event

	// Mouse position (screen coordinates) and button for EventMouse.
	MouseX, MouseY int
	MouseButton    MouseButton

	// New terminal size for EventResize.
	Width, Height int
}

// KeyEvent wraps a keystroke as a backend event.
func KeyEvent(k key.Event) Event {
	return Event{Type: EventKey, Key: k}
}

// Backend is the terminal driver contract.
type Backend interface {
	// Init prepares the terminal for full-screen use.
	Init() error

	// Shutdown restores the terminal.
	Shutdown()

	// Size returns the terminal size in columns and rows.
	Size() (width, height int)

	SetCell(x, y int, cell core.Cell)
	GetCell(x, y int) core.Cell
	Fill(rect core.ScreenRect, cell core.Cell)
	Clear()

	// Show flushes pending changes to the terminal.
	Show()

	// Sync discards the driver's view of the screen and repaints it from
	// scratch, picking up a new terminal size.
	Sync()

	ShowCursor(x, y int)
	HideCursor()

	// PollEvent blocks until an event arrives.
	PollEvent() Event

	// PollEventTimeout waits at most d for an event. The boolean is false
	// when the wait timed out.
	PollEventTimeout(d time.Duration) (Event, bool)

	// PostEvent injects an event into the input queue. Safe from any
	// goroutine.
	PostEvent(ev Event)

	// SetTitle sets the terminal window title.
	SetTitle(title string)

	Beep()
	EnableMouse()
	DisableMouse()

	// Suspend releases the terminal so an external program can use it.
	Suspend() error

	// Resume reclaims the terminal after Suspend.
	Resume() error
}
