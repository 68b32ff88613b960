package buffer

import (
	"github.com/dshills/burrow/internal/layout"
	"github.com/dshills/burrow/internal/renderer/core"
	"github.com/dshills/burrow/internal/textfield"
	"github.com/dshills/burrow/internal/theme"
)

// prompt is what occupies minibuffer row 0 while asking.
type prompt struct {
	field    *textfield.Field
	question string
}

func (m *Manager) setPrompt(p prompt) {
	m.minibufMu.Lock()
	m.prompt = p
	m.minibufMu.Unlock()
}

// MinibufLines is the minibuffer height: the flash plus every message,
// at least one row.
func (m *Manager) MinibufLines() int {
	m.minibufMu.Lock()
	defer m.minibufMu.Unlock()
	n := 0
	if m.flash != nil {
		n++
	}
	for _, s := range m.minibufStack {
		if s != nil {
			n++
		}
	}
	return max(n, 1)
}

// Messages returns the message stack, nil entries for cleared slots.
func (m *Manager) Messages() []*string {
	m.minibufMu.Lock()
	defer m.minibufMu.Unlock()
	out := make([]*string, len(m.minibufStack))
	copy(out, m.minibufStack)
	return out
}

// FlashText returns the current flash and whether one is shown.
func (m *Manager) FlashText() (string, bool) {
	m.minibufMu.Lock()
	defer m.minibufMu.Unlock()
	if m.flash == nil {
		return "", false
	}
	return *m.flash, true
}

// DrawMinibuf redraws only the minibuffer.
func (m *Manager) DrawMinibuf(refresh bool) error {
	m.screenMu.Lock()
	defer m.screenMu.Unlock()
	return m.drawMinibuf(refresh)
}

// drawMinibuf draws the flash and then messages newest first. Row 0 holds
// the prompt while one is active. Caller holds screenMu.
func (m *Manager) drawMinibuf(refresh bool) error {
	type row struct {
		text  string
		color string
	}

	m.minibufMu.Lock()
	var rows []row
	if m.flash != nil {
		rows = append(rows, row{*m.flash, theme.Flash})
	}
	for i := len(m.minibufStack) - 1; i >= 0; i-- {
		if s := m.minibufStack[i]; s != nil {
			rows = append(rows, row{*s, theme.Minibuf})
		}
	}
	p := m.prompt
	m.minibufMu.Unlock()
	if len(rows) == 0 {
		rows = append(rows, row{"", theme.Minibuf})
	}

	s, g, err := m.layout.Resolve(layout.RoleMinibuf)
	if err != nil {
		m.log.Error("minibuffer: %v", err)
		return err
	}

	asking := m.asking.Load()
	for i, r := range rows {
		if i >= g.Height {
			break
		}
		if i == 0 && asking {
			continue
		}
		putString(s, i, 0, g.Width, r.text, m.theme.Style(r.color, false), false)
	}
	if asking {
		m.drawPrompt(s, g, p)
	}
	if refresh {
		s.Refresh()
	}
	return nil
}

func (m *Manager) drawPrompt(s *layout.Surface, g layout.Geometry, p prompt) {
	style := m.theme.Style(theme.Text, false)
	var text string
	var col int
	switch {
	case p.field != nil:
		text, col = p.field.Render(g.Width)
	default:
		text = p.question
		col = core.StringWidth(p.question) + 1
	}
	putString(s, 0, 0, g.Width, text, style, false)
	m.backend.ShowCursor(g.Left+min(col, g.Width-1), g.Top)
}

// Say pushes a message onto a new slot of the minibuffer and returns the
// slot id.
func (m *Manager) Say(text string) int {
	m.minibufMu.Lock()
	id := len(m.minibufStack)
	m.minibufStack = append(m.minibufStack, &text)
	m.minibufMu.Unlock()

	m.redrawMessages(true)
	return id
}

// SayAt replaces the message in slot id.
func (m *Manager) SayAt(id int, text string) {
	if id < 0 {
		return
	}
	m.minibufMu.Lock()
	for len(m.minibufStack) <= id {
		m.minibufStack = append(m.minibufStack, nil)
	}
	m.minibufStack[id] = &text
	m.minibufMu.Unlock()

	m.redrawMessages(false)
}

// SayWhile shows text while fn runs and clears it afterwards, whatever
// fn returns.
func (m *Manager) SayWhile(text string, fn func(id int) error) error {
	id := m.Say(text)
	defer m.Clear(id)
	return fn(id)
}

// Clear removes the message in slot id. Clearing the last slot also
// drops any cleared slots below it.
func (m *Manager) Clear(id int) {
	m.minibufMu.Lock()
	if id >= 0 && id < len(m.minibufStack) {
		m.minibufStack[id] = nil
		if id == len(m.minibufStack)-1 {
			n := id
			for n >= 0 && m.minibufStack[n] == nil {
				n--
			}
			m.minibufStack = m.minibufStack[:n+1]
		}
	}
	m.minibufMu.Unlock()

	m.redrawMessages(true)
}

// Flash shows a transient message until EraseFlash or the next Flash.
func (m *Manager) Flash(text string) {
	m.minibufMu.Lock()
	m.flash = &text
	m.minibufMu.Unlock()

	m.redrawMessages(true)
}

// EraseFlash removes the flash without redrawing.
func (m *Manager) EraseFlash() {
	m.minibufMu.Lock()
	m.flash = nil
	m.minibufMu.Unlock()
}

// redrawMessages shows a minibuffer change, redrawing every buffer when
// full is set. A change posted by a status or title hook is left to the
// draw that ran the hook, which already holds the screen lock.
func (m *Manager) redrawMessages(full bool) {
	if m.drawHooks.Load() > 0 {
		return
	}
	if full {
		m.logDraw(m.DrawScreen(DrawOptions{Refresh: true}))
		return
	}
	m.logDraw(m.DrawMinibuf(true))
}

func (m *Manager) logDraw(err error) {
	if err != nil {
		m.log.Warn("redraw: %v", err)
	}
}
