package layout

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/burrow/internal/renderer/backend"
	"github.com/dshills/burrow/internal/renderer/core"
)

var (
	errOutOfScreen = errors.New("surface does not fit on screen")
	errBadSize     = errors.New("surface size must be positive")
)

// Surface is a movable rectangular window onto the terminal. Coordinates
// passed to its drawing methods are relative to its top-left corner and
// clipped to its size.
type Surface struct {
	mu      sync.Mutex
	role    Role
	backend backend.Backend
	geom    Geometry
}

func newSurface(role Role, b backend.Backend, g Geometry) *Surface {
	return &Surface{role: role, backend: b, geom: g}
}

// Role returns the role this surface serves.
func (s *Surface) Role() Role {
	return s.role
}

// Geometry returns the current position and size.
func (s *Surface) Geometry() Geometry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.geom
}

// Rect returns the current screen rectangle.
func (s *Surface) Rect() core.ScreenRect {
	return s.Geometry().Rect()
}

// Rect returns g as a screen rectangle.
func (g Geometry) Rect() core.ScreenRect {
	return core.RectFromSize(g.Top, g.Left, g.Height, g.Width)
}

// Move places the surface's origin at (top, left). The whole surface must
// fit on screen at the new position.
func (s *Surface) Move(top, left int) error {
	cols, rows := s.backend.Size()

	s.mu.Lock()
	defer s.mu.Unlock()

	if top < 0 || left < 0 || top+s.geom.Height > rows || left+s.geom.Width > cols {
		return fmt.Errorf("%w: %dx%d at (%d,%d) on %dx%d",
			errOutOfScreen, s.geom.Width, s.geom.Height, top, left, cols, rows)
	}
	s.geom.Top, s.geom.Left = top, left
	return nil
}

// Resize changes the surface size without moving it.
func (s *Surface) Resize(height, width int) error {
	if height < 1 || width < 1 {
		return fmt.Errorf("%w: %dx%d", errBadSize, width, height)
	}
	s.mu.Lock()
	s.geom.Height, s.geom.Width = height, width
	s.mu.Unlock()
	return nil
}

// SetCell writes one cell at a surface-relative position.
func (s *Surface) SetCell(row, col int, cell core.Cell) {
	g := s.Geometry()
	if row < 0 || col < 0 || row >= g.Height || col >= g.Width {
		return
	}
	s.backend.SetCell(g.Left+col, g.Top+row, cell)
}

// FillRow fills columns [col, end of row) of row with blanks in style.
func (s *Surface) FillRow(row, col int, style core.Style) {
	g := s.Geometry()
	if row < 0 || row >= g.Height || col >= g.Width {
		return
	}
	col = max(col, 0)
	s.backend.Fill(core.RectFromSize(g.Top+row, g.Left+col, 1, g.Width-col),
		core.Cell{Rune: ' ', Width: 1, Style: style})
}

// Clear blanks the whole surface.
func (s *Surface) Clear() {
	g := s.Geometry()
	s.backend.Fill(core.RectFromSize(g.Top, g.Left, g.Height, g.Width), core.EmptyCell())
}

// Refresh flushes the terminal.
func (s *Surface) Refresh() {
	s.backend.Show()
}
