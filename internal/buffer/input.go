package buffer

import (
	"time"

	"github.com/dshills/burrow/internal/input/key"
	"github.com/dshills/burrow/internal/input/keymap"
	"github.com/dshills/burrow/internal/mode"
	"github.com/dshills/burrow/internal/renderer/backend"
)

// GetKey waits up to the getch timeout for a keystroke. Resizes and the
// redraw key are handled here and never returned; ok is false when no
// keystroke arrived.
func (m *Manager) GetKey() (key.Event, bool) {
	ev, ok := m.GetEvent()
	if !ok || ev.Type != backend.EventKey {
		return key.Event{}, false
	}
	return ev.Key, true
}

// GetEvent is GetKey for the main loop: mouse clicks are returned too.
func (m *Manager) GetEvent() (backend.Event, bool) {
	ev, ok := m.backend.PollEventTimeout(time.Duration(m.timeout.Load()))
	if !ok {
		if m.SigwinchPending() {
			m.logDraw(m.CompletelyRedrawScreen())
		}
		return backend.Event{}, false
	}
	switch ev.Type {
	case backend.EventResize:
		m.SigwinchHappened()
		return backend.Event{}, false
	case backend.EventKey:
		if ev.Key.Equals(RedrawKey) {
			m.logDraw(m.CompletelyRedrawScreen())
			return backend.Event{}, false
		}
		return ev, true
	case backend.EventMouse:
		return ev, true
	}
	return backend.Event{}, false
}

// ResolveInput resolves k against km. The rest of a multi-key sequence is
// read through a one-key prompt showing the pending keymap's description;
// cancelling it yields an Aborted result.
func (m *Manager) ResolveInput(k key.Event, km *keymap.Keymap) keymap.Result {
	res := keymap.Resolve(km, k, func(prompt string) (key.Event, bool) {
		next, ok, err := m.AskGetch(prompt, "")
		if err != nil {
			m.log.Warn("multi-key prompt: %v", err)
			return key.Event{}, false
		}
		return next, ok
	})
	if res.Status == keymap.Aborted {
		m.EraseFlash()
	}
	return res
}

// HandleInput dispatches a terminal event. A click goes to the visible
// buffer under the pointer, which gains focus; a key goes to the focused
// buffer's mode, ending any in-buffer search unless the key continues it.
func (m *Manager) HandleInput(ev backend.Event) keymap.Result {
	if ev.Type == backend.EventMouse {
		m.handleMouse(ev)
		return keymap.Result{Status: keymap.Found, Handled: true}
	}
	if ev.Type != backend.EventKey {
		return keymap.Result{Status: keymap.NotFound}
	}

	b := m.FocusBuffer()
	if b == nil {
		return keymap.ResultNotFound(ev.Key)
	}
	if s, ok := b.mode.(mode.Searcher); ok && s.InSearch() && !ev.Key.Matches(mode.SearchContinueKey) {
		s.CancelSearch()
		b.MarkDirty()
	}
	res := b.mode.HandleInput(ev.Key, m.Host())
	if res.Status == keymap.Found {
		b.MarkDirty()
	}
	return res
}

func (m *Manager) handleMouse(ev backend.Event) {
	for _, b := range m.FrontBuffers() {
		g := b.Geometry()
		if !g.Rect().Contains(ev.MouseY, ev.MouseX) {
			continue
		}
		m.FocusOn(b)
		b.mode.HandleMouseEvent(mode.MouseEvent{
			Row:    ev.MouseY - g.Top,
			Col:    ev.MouseX - g.Left,
			Button: ev.MouseButton.String(),
		})
		b.MarkDirty()
		return
	}
}

// SpawnModal runs md in a new buffer until it is done or the user
// cancels, then kills the buffer and returns md's value.
func SpawnModal[T any](m *Manager, title string, md mode.Modal[T], opts SpawnOptions) (T, error) {
	b, err := m.Spawn(title, md, opts)
	if err != nil {
		var zero T
		return zero, err
	}
	m.logDraw(m.DrawScreen(DrawOptions{}))

	h := m.Host()
	for !md.Done() {
		k, ok := m.GetKey()
		if !ok {
			continue
		}
		if k.Equals(m.CancelKey()) {
			break
		}
		// An aborted key sequence just redraws.
		_ = md.HandleInput(k, h)
		b.MarkDirty()
		m.logDraw(m.DrawScreen(DrawOptions{}))
		m.EraseFlash()
	}

	if _, err := m.kill(b, true); err != nil {
		return md.Value(), err
	}
	m.logDraw(m.DrawScreen(DrawOptions{}))
	return md.Value(), nil
}

// Host returns the view of the manager offered to modes.
func (m *Manager) Host() mode.Host {
	return host{m}
}

type host struct{ m *Manager }

func (h host) ResolveInput(k key.Event, km *keymap.Keymap) keymap.Result {
	return h.m.ResolveInput(k, km)
}

func (h host) Ask(domain, question, def string) (string, bool) {
	v, ok, err := h.m.Ask(domain, question, def, nil)
	if err != nil {
		h.m.Flash(err.Error())
		return "", false
	}
	return v, ok
}

func (h host) Flash(msg string) {
	h.m.Flash(msg)
}
