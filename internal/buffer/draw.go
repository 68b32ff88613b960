package buffer

import (
	"errors"
	"os"
	"os/exec"
	"slices"

	"github.com/dshills/burrow/internal/input/key"
	"github.com/dshills/burrow/internal/layout"
	"github.com/dshills/burrow/internal/renderer/backend"
	"github.com/dshills/burrow/internal/renderer/core"
)

// DrawOptions control a DrawScreen pass.
type DrawOptions struct {
	// Clear blanks the terminal first.
	Clear bool
	// Dirty repaints every buffer's content.
	Dirty bool
	// Refresh flushes the terminal after the minibuffer is drawn.
	Refresh bool
	// SkipMinibuf leaves the minibuffer alone.
	SkipMinibuf bool
	// NoLock is for callers already holding the screen lock.
	NoLock bool
}

// DrawScreen redraws the focused buffer and then every other buffer from
// the top down, skipping buffers hidden behind one already drawn, and
// finally the minibuffer. A layout failure aborts the pass.
func (m *Manager) DrawScreen(opts DrawOptions) error {
	if m.shelled.Load() {
		return nil
	}

	m.layout.SetMinibufHeight(m.MinibufLines())

	if !opts.NoLock {
		m.screenMu.Lock()
		defer m.screenMu.Unlock()
	}

	m.drawTitle()
	if opts.Clear {
		m.backend.Clear()
	}

	m.mu.Lock()
	order := make([]*Buffer, 0, len(m.buffers)+1)
	if m.focusBuf != nil {
		order = append(order, m.focusBuf)
	}
	stack := slices.Clone(m.buffers)
	slices.Reverse(stack)
	order = append(order, stack...)
	force := m.dirty || opts.Dirty
	m.mu.Unlock()

	hasOpen := m.hasOpenMessageView()
	var drawn []*Buffer
	for _, b := range order {
		if err := b.refreshGeometry(hasOpen); err != nil {
			m.log.Error("draw: %v", err)
			return err
		}
		if slices.ContainsFunc(drawn, b.Overlaps) {
			continue
		}
		if force {
			b.MarkDirty()
		}
		b.Redraw()
		drawn = append(drawn, b)
	}

	if !opts.SkipMinibuf {
		if err := m.drawMinibuf(opts.Refresh); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.dirty = false
	m.mu.Unlock()
	m.backend.Show()
	return nil
}

// drawTitle sets the terminal title from the focused buffer when it
// changed. Caller holds screenMu.
func (m *Manager) drawTitle() {
	b := m.FocusBuffer()
	if b == nil {
		return
	}
	title := b.TitleText()
	if title != m.lastTitle {
		m.backend.SetTitle(title)
		m.lastTitle = title
	}
}

// SigwinchHappened records a terminal resize and wakes the input loop
// with the redraw key. Repeated calls before the redraw are collapsed.
// Safe from any goroutine; it never draws.
func (m *Manager) SigwinchHappened() {
	m.sigwinchMu.Lock()
	defer m.sigwinchMu.Unlock()
	if m.sigwinch {
		return
	}
	m.sigwinch = true
	m.backend.PostEvent(backend.KeyEvent(RedrawKey))
}

// SigwinchPending reports whether a resize is waiting for a redraw.
func (m *Manager) SigwinchPending() bool {
	m.sigwinchMu.Lock()
	defer m.sigwinchMu.Unlock()
	return m.sigwinch
}

// RedrawKey is the key that forces a complete redraw.
var RedrawKey = key.Ctrl('l')

// CompletelyRedrawScreen makes the terminal pick up its new size and
// repaints everything. The second pass clears regions some terminals
// leave stale after the first.
func (m *Manager) CompletelyRedrawScreen() error {
	if m.shelled.Load() {
		return nil
	}
	m.backend.Sync()
	m.sigwinchMu.Lock()
	m.sigwinch = false
	m.sigwinchMu.Unlock()

	w, h := m.backend.Size()
	m.log.Debug("new screen size is %d x %d", h, w)

	err1 := m.DrawScreen(DrawOptions{Clear: true, Refresh: true, Dirty: true})
	err2 := m.DrawScreen(DrawOptions{Refresh: true, Dirty: true})
	return errors.Join(err1, err2)
}

// Shelled reports whether an external command owns the terminal.
func (m *Manager) Shelled() bool {
	return m.shelled.Load()
}

// ShellOut runs command through the shell. Unless gui is set the terminal
// is handed over to the command for its duration. It reports whether the
// command succeeded.
func (m *Manager) ShellOut(command string, gui bool) (bool, error) {
	m.log.Debug("shell out %s", command)
	cmd := exec.Command("/bin/sh", "-c", command)
	if gui {
		return cmd.Run() == nil, nil
	}

	m.shelled.Store(true)
	defer m.shelled.Store(false)

	m.screenMu.Lock()
	defer m.screenMu.Unlock()
	if err := m.backend.Suspend(); err != nil {
		return false, err
	}
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	runErr := cmd.Run()
	if err := m.backend.Resume(); err != nil {
		return false, err
	}
	m.backend.HideCursor()
	return runErr == nil, nil
}

// putString writes text on s at (row, col) in style, cut to the columns
// left of width, and blank-fills the rest of the row first unless noFill.
func putString(s *layout.Surface, row, col, width int, text string, style core.Style, noFill bool) {
	if !noFill {
		s.FillRow(row, col, style)
	}
	x := col
	for _, r := range core.Truncate(text, width-col) {
		w := core.RuneWidth(r)
		if w == 0 {
			continue
		}
		s.SetCell(row, x, core.Cell{Rune: r, Width: w, Style: style})
		if w == 2 {
			cont := core.ContinuationCell()
			cont.Style = style
			s.SetCell(row, x+1, cont)
		}
		x += w
	}
}
