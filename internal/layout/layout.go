// Package layout maps buffer roles onto regions of the terminal.
//
// A role (full screen, one of the two split panes, or the minibuffer) is a
// policy from terminal size to geometry plus one cached Surface. Surfaces
// are created on first use and afterwards moved and resized in place, so a
// buffer keeps its Surface across terminal resizes.
package layout

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/burrow/internal/renderer/backend"
)

// Errors returned by Resolve.
var (
	ErrSurfaceMove       = errors.New("cannot move window")
	ErrTerminalTooSmall  = errors.New("terminal too small")
	ErrUnknownRole       = errors.New("unknown layout role")
	ErrInvalidSplitValue = errors.New("invalid split view value")
)

// Role names a screen region.
type Role int

const (
	RoleFull Role = iota
	RoleSplit1
	RoleSplit2
	RoleMinibuf
)

func (r Role) String() string {
	switch r {
	case RoleFull:
		return "full"
	case RoleSplit1:
		return "split1"
	case RoleSplit2:
		return "split2"
	case RoleMinibuf:
		return "minibuf"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Kind classifies a mode for placement.
type Kind int

const (
	KindOther Kind = iota
	// KindIndex modes (lists) go in the primary pane.
	KindIndex
	// KindMessageView modes open the split when present.
	KindMessageView
)

// SplitMode selects how the screen is split.
type SplitMode int

const (
	SplitOff SplitMode = iota
	SplitVertical
	SplitHorizontal
)

// ParseSplitMode accepts "", "off", "false", "none", "vertical" and
// "horizontal".
func ParseSplitMode(s string) (SplitMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off", "false", "none", "no":
		return SplitOff, nil
	case "vertical", "v":
		return SplitVertical, nil
	case "horizontal", "h":
		return SplitHorizontal, nil
	}
	return SplitOff, fmt.Errorf("%w: %q", ErrInvalidSplitValue, s)
}

func (m SplitMode) String() string {
	switch m {
	case SplitVertical:
		return "vertical"
	case SplitHorizontal:
		return "horizontal"
	}
	return "off"
}

// Default split thresholds.
const (
	DefaultVerticalThreshold   = 160
	DefaultHorizontalThreshold = 42
)

// Settings are the user-configurable split options.
type Settings struct {
	Split SplitMode
	// Threshold is the minimum column count (vertical) or row count
	// (horizontal) before splitting. Zero selects the default.
	Threshold int
}

func (s Settings) threshold() int {
	if s.Threshold > 0 {
		return s.Threshold
	}
	if s.Split == SplitVertical {
		return DefaultVerticalThreshold
	}
	return DefaultHorizontalThreshold
}

// Geometry is a region in screen coordinates.
type Geometry struct {
	Top, Left, Height, Width int
}

// Compute returns the geometry of role for a terminal of rows x cols with
// a minibuffer of minibufHeight rows.
func Compute(role Role, split SplitMode, rows, cols, minibufHeight int) Geometry {
	h := rows - minibufHeight
	w := cols
	switch role {
	case RoleFull:
		return Geometry{Top: 0, Left: 0, Height: h, Width: w}
	case RoleMinibuf:
		return Geometry{Top: h, Left: 0, Height: minibufHeight, Width: w}
	}

	id := 0
	if role == RoleSplit2 {
		id = 1
	}
	if split == SplitVertical {
		sp := max(w*2/3, w/5-80)
		return Geometry{Top: 0, Left: sp * id, Height: h, Width: sp + (w-2*sp)*id}
	}
	sp := min(max(h/3, 10), h*2/3)
	return Geometry{Top: sp * id, Left: 0, Height: sp + (h-2*sp)*id, Width: w}
}

// Manager owns the role surfaces.
type Manager struct {
	mu            sync.Mutex
	backend       backend.Backend
	settings      func() Settings
	minibufHeight int
	surfaces      map[Role]*Surface
}

// New creates a Manager drawing on b. settings is consulted on every
// call, so configuration reloads apply at the next redraw.
func New(b backend.Backend, settings func() Settings) *Manager {
	if settings == nil {
		settings = func() Settings { return Settings{} }
	}
	return &Manager{
		backend:       b,
		settings:      settings,
		minibufHeight: 1,
		surfaces:      make(map[Role]*Surface),
	}
}

// SetMinibufHeight sets the minibuffer height. Values below one are
// raised to one.
func (m *Manager) SetMinibufHeight(n int) {
	m.mu.Lock()
	m.minibufHeight = max(n, 1)
	m.mu.Unlock()
}

// MinibufHeight returns the current minibuffer height.
func (m *Manager) MinibufHeight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.minibufHeight
}

// ShouldSplit reports whether the split panes are in use.
func (m *Manager) ShouldSplit(hasOpenMessageView bool) bool {
	if !hasOpenMessageView {
		return false
	}
	s := m.settings()
	cols, rows := m.backend.Size()
	switch s.Split {
	case SplitVertical:
		return cols >= s.threshold()
	case SplitHorizontal:
		return rows >= s.threshold()
	}
	return false
}

// RoleFor picks the role for a mode of the given kind.
func (m *Manager) RoleFor(kind Kind, hasOpenMessageView bool) Role {
	switch {
	case !m.ShouldSplit(hasOpenMessageView):
		return RoleFull
	case kind == KindIndex:
		return RoleSplit1
	}
	return RoleSplit2
}

// Resolve returns the surface for role, moved and resized to the role's
// current geometry.
func (m *Manager) Resolve(role Role) (*Surface, Geometry, error) {
	if role < RoleFull || role > RoleMinibuf {
		return nil, Geometry{}, fmt.Errorf("%w: %d", ErrUnknownRole, int(role))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cols, rows := m.backend.Size()
	g := Compute(role, m.settings().Split, rows, cols, m.minibufHeight)
	if g.Rect().IsEmpty() {
		return nil, g, fmt.Errorf("%w: %s needs %dx%d", ErrTerminalTooSmall, role, g.Width, g.Height)
	}

	s, ok := m.surfaces[role]
	if !ok {
		s = newSurface(role, m.backend, g)
		m.surfaces[role] = s
		return s, g, nil
	}

	cur := s.Geometry()
	needMove := cur.Top != g.Top || cur.Left != g.Left
	if needMove {
		// Fails when the old size does not fit at the new origin.
		_ = s.Move(g.Top, g.Left)
	}
	if cur.Height != g.Height || cur.Width != g.Width {
		if err := s.Resize(g.Height, g.Width); err != nil {
			return nil, g, err
		}
	}
	if needMove {
		if err := s.Move(g.Top, g.Left); err != nil {
			return nil, g, fmt.Errorf("%w: %s to (%d,%d): %v", ErrSurfaceMove, role, g.Top, g.Left, err)
		}
		if got := s.Geometry(); got.Top != g.Top || got.Left != g.Left {
			return nil, g, fmt.Errorf("%w: %s", ErrSurfaceMove, role)
		}
	}
	return s, g, nil
}
