// Package buffer implements the window system: buffers binding modes to
// screen regions, and the Manager that stacks, focuses, draws and prompts
// through them.
package buffer

import (
	"fmt"
	"sync"
	"time"

	"github.com/dshills/burrow/internal/layout"
	"github.com/dshills/burrow/internal/mode"
	"github.com/dshills/burrow/internal/theme"
)

// Buffer binds one mode to a screen region and a unique title.
type Buffer struct {
	bm    *Manager
	mode  mode.Mode
	title string

	mu         sync.Mutex
	system     bool
	hidden     bool
	forceToTop bool
	dirty      bool
	focused    bool
	atime      time.Time
	surface    *layout.Surface
	geom       layout.Geometry
}

func newBuffer(bm *Manager, title string, m mode.Mode, opts SpawnOptions) *Buffer {
	return &Buffer{
		bm:         bm,
		mode:       m,
		title:      title,
		system:     opts.System,
		hidden:     opts.Hidden,
		forceToTop: opts.ForceToTop,
		dirty:      true,
	}
}

func (b *Buffer) String() string {
	return fmt.Sprintf("buffer %q", b.title)
}

// Title returns the buffer's unique title.
func (b *Buffer) Title() string { return b.title }

// Mode returns the mode shown in the buffer.
func (b *Buffer) Mode() mode.Mode { return b.mode }

// System reports whether the buffer is skipped by rolling.
func (b *Buffer) System() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.system
}

// Hidden reports whether the buffer stays out of the rotation.
func (b *Buffer) Hidden() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hidden
}

// SetHidden changes the hidden flag.
func (b *Buffer) SetHidden(v bool) {
	b.mu.Lock()
	b.hidden = v
	b.mu.Unlock()
}

// ForceToTop reports whether the buffer is pinned above the others.
func (b *Buffer) ForceToTop() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.forceToTop
}

// SetForceToTop pins or unpins the buffer.
func (b *Buffer) SetForceToTop(v bool) {
	b.mu.Lock()
	b.forceToTop = v
	b.mu.Unlock()
}

// Dirty reports whether the next redraw repaints the content.
func (b *Buffer) Dirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dirty
}

// MarkDirty schedules a full repaint.
func (b *Buffer) MarkDirty() {
	b.mu.Lock()
	b.dirty = true
	b.mu.Unlock()
}

// Focused reports whether the buffer has input focus.
func (b *Buffer) Focused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.focused
}

// ATime is the time of the last full draw; zero before the first.
func (b *Buffer) ATime() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.atime
}

// Geometry returns the region last assigned by the layout.
func (b *Buffer) Geometry() layout.Geometry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.geom
}

// Width is the content width.
func (b *Buffer) Width() int {
	return b.Geometry().Width
}

// Height is the content height; the last row holds the status line.
func (b *Buffer) Height() int {
	return max(b.Geometry().Height-1, 0)
}

// RefreshGeometry asks the layout for the buffer's region. When it moved
// or changed size the buffer is marked dirty and the mode is resized.
func (b *Buffer) RefreshGeometry() error {
	return b.refreshGeometry(b.bm.hasOpenMessageView())
}

func (b *Buffer) refreshGeometry(hasOpenMessageView bool) error {
	role := b.bm.layout.RoleFor(mode.KindOf(b.mode), hasOpenMessageView)
	s, g, err := b.bm.layout.Resolve(role)
	if err != nil {
		return fmt.Errorf("%s: %w", b, err)
	}

	b.mu.Lock()
	changed := s != b.surface || g != b.geom
	if changed {
		b.dirty = true
		b.surface, b.geom = s, g
	}
	b.mu.Unlock()

	if changed {
		b.mode.Resize(g.Height-1, g.Width)
		if u, ok := b.mode.(mode.Updater); ok {
			u.Update()
		}
	}
	return nil
}

// Redraw repaints the buffer when dirty and the status line otherwise.
func (b *Buffer) Redraw() {
	if b.Dirty() {
		b.Draw()
		return
	}
	b.DrawStatus(!b.Focused())
	b.commit()
}

// Draw repaints the content and status line and stamps the access time.
func (b *Buffer) Draw() {
	b.mode.Draw(b)
	b.DrawStatus(!b.Focused())
	b.commit()
	b.mu.Lock()
	b.atime = b.bm.now()
	b.mu.Unlock()
}

func (b *Buffer) commit() {
	b.mu.Lock()
	b.dirty = false
	s := b.surface
	b.mu.Unlock()
	if s != nil {
		s.Refresh()
	}
}

// DrawStatus writes the status line.
func (b *Buffer) DrawStatus(inactive bool) {
	color := theme.Status
	if inactive {
		color = theme.InactiveStatus
	}
	g := b.Geometry()
	b.Write(g.Height-1, 0, b.StatusText(), mode.WriteOpts{Color: color})
}

// Write draws text at a buffer-relative position. Positions past the
// buffer are ignored. The rest of the row is blanked first unless
// opts.NoFill is set, and the text is cut to the columns left. An
// unfocused buffer uses the theme's inactive colors.
func (b *Buffer) Write(row, col int, text string, opts mode.WriteOpts) {
	b.mu.Lock()
	s, g, focused := b.surface, b.geom, b.focused
	b.mu.Unlock()
	if s == nil || row < 0 || col < 0 || row >= g.Height || col >= g.Width {
		return
	}

	style := b.bm.theme.Variant(opts.Color, opts.Highlight, !focused)
	putString(s, row, col, g.Width, text, style, opts.NoFill)
}

// Clear blanks the buffer's region.
func (b *Buffer) Clear() {
	b.mu.Lock()
	s := b.surface
	b.mu.Unlock()
	if s != nil {
		s.Clear()
	}
}

func (b *Buffer) focus() {
	b.mu.Lock()
	b.focused, b.dirty = true, true
	b.mu.Unlock()
	if f, ok := b.mode.(mode.Focuser); ok {
		f.Focus()
	}
	b.DrawStatus(false)
}

func (b *Buffer) blur() {
	b.mu.Lock()
	b.focused, b.dirty = false, true
	b.mu.Unlock()
	if f, ok := b.mode.(mode.Focuser); ok {
		f.Blur()
	}
	b.DrawStatus(true)
}

// Overlaps reports whether b and o share a surface or their regions
// intersect. Regions that only touch do not overlap.
func (b *Buffer) Overlaps(o *Buffer) bool {
	b.mu.Lock()
	s1, g1 := b.surface, b.geom
	b.mu.Unlock()
	o.mu.Lock()
	s2, g2 := o.surface, o.geom
	o.mu.Unlock()

	if s1 != nil && s1 == s2 {
		return true
	}
	return g1.Rect().Intersects(g2.Rect())
}

// StatusText is the status line, from the status-bar-text hook when it
// returns a string.
func (b *Buffer) StatusText() string {
	if s, ok := b.bm.runStringHook(HookStatusBarText, b.hookVars); ok {
		return s
	}
	return fmt.Sprintf(" [%s] %s   %s", b.mode.Name(), b.title, b.mode.Status())
}

// TitleText is the terminal title, from the terminal-title-text hook when
// it returns a string.
func (b *Buffer) TitleText() string {
	if s, ok := b.bm.runStringHook(HookTerminalTitleText, b.hookVars); ok {
		return s
	}
	return fmt.Sprintf("%s %s :: %s", b.bm.appName, b.bm.version, b.title)
}

func (b *Buffer) hookVars() map[string]any {
	c := b.bm.counts()
	return map[string]any{
		"num_inbox":        c.Inbox,
		"num_inbox_unread": c.InboxUnread,
		"num_total":        c.Total,
		"num_spam":         c.Spam,
		"title":            b.title,
		"mode":             b.mode.Name(),
		"status":           b.mode.Status(),
	}
}
