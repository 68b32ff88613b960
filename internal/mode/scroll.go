package mode

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/dshills/burrow/internal/input/keymap"
	"github.com/dshills/burrow/internal/layout"
	"github.com/dshills/burrow/internal/renderer/core"
)

// Segment is a run of text in one color.
type Segment struct {
	Text      string
	Color     string
	Highlight bool
}

// Line is one row of mode content.
type Line []Segment

// Plain returns a single-segment line.
func Plain(s string) Line {
	return Line{{Text: s}}
}

// PlainLines converts strings to lines.
func PlainLines(ss []string) []Line {
	lines := make([]Line, len(ss))
	for i, s := range ss {
		lines[i] = Plain(s)
	}
	return lines
}

// String returns the line text without colors.
func (l Line) String() string {
	var sb strings.Builder
	for _, seg := range l {
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

// ScrollOptions configure a Scroll mode.
type ScrollOptions struct {
	Kind layout.Kind
	// Unkillable modes refuse KillBufferSafely.
	Unkillable bool
	// Home marks the home view.
	Home bool
}

// Scroll displays lines in a scrollable view with in-buffer search.
type Scroll struct {
	Base

	lock     sync.Mutex
	lines    []Line
	top      int
	search   string
	inSearch bool
	opts     ScrollOptions

	// jump moves the view to line i and pos reports the line searches
	// start from; list modes use the cursor for both.
	jump func(i int)
	pos  func() int
}

// NewScroll creates a Scroll mode named name. Its own keymap (if
// registered under name) takes precedence over the scroll keymap.
func NewScroll(reg *keymap.Registry, name string, lines []Line, opts ScrollOptions) *Scroll {
	s := &Scroll{lines: lines, opts: opts}
	s.initScroll(reg, name)
	return s
}

func (s *Scroll) initScroll(reg *keymap.Registry, name string, extra ...*keymap.Keymap) {
	kms := []*keymap.Keymap{}
	if name != ScrollKeymap {
		kms = append(kms, reg.KeymapOrEmpty(name))
	}
	kms = append(kms, extra...)
	kms = append(kms, reg.KeymapOrEmpty(ScrollKeymap))
	s.Init(name, kms...)
	s.jump = s.ScrollTo
	s.pos = s.Top

	s.On(ActionLineDown, func(Host) { s.scrollBy(1) })
	s.On(ActionLineUp, func(Host) { s.scrollBy(-1) })
	s.On(ActionPageDown, func(Host) { s.scrollBy(s.page()) })
	s.On(ActionPageUp, func(Host) { s.scrollBy(-s.page()) })
	s.On(ActionHalfPageDown, func(Host) { s.scrollBy(max(s.page()/2, 1)) })
	s.On(ActionHalfPageUp, func(Host) { s.scrollBy(-max(s.page()/2, 1)) })
	s.On(ActionJumpToStart, func(Host) { s.jump(0) })
	s.On(ActionJumpToEnd, func(Host) { s.jump(s.LineCount() - 1) })
	s.On(ActionSearch, s.askSearch)
	s.On(ActionSearchNext, s.continueSearch)
}

func (s *Scroll) Kind() layout.Kind { return s.opts.Kind }

func (s *Scroll) IsHome() bool { return s.opts.Home }

func (s *Scroll) Killable() bool { return !s.opts.Unkillable }

// SetLines replaces the content and clamps the view.
func (s *Scroll) SetLines(lines []Line) {
	s.lock.Lock()
	s.lines = lines
	s.top = clamp(s.top, 0, max(len(lines)-1, 0))
	s.lock.Unlock()
}

// AppendLines adds lines at the end.
func (s *Scroll) AppendLines(lines ...Line) {
	s.lock.Lock()
	s.lines = append(s.lines, lines...)
	s.lock.Unlock()
}

// LineCount returns the number of lines.
func (s *Scroll) LineCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.lines)
}

// LineAt returns line i.
func (s *Scroll) LineAt(i int) (Line, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if i < 0 || i >= len(s.lines) {
		return nil, false
	}
	return s.lines[i], true
}

// Top returns the index of the first visible line.
func (s *Scroll) Top() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.top
}

// ScrollTo makes line i the first visible line where possible.
func (s *Scroll) ScrollTo(i int) {
	rows, _ := s.Size()
	s.lock.Lock()
	s.top = clamp(i, 0, max(len(s.lines)-rows, 0))
	s.lock.Unlock()
}

func (s *Scroll) scrollBy(n int) {
	s.ScrollTo(s.Top() + n)
}

func (s *Scroll) page() int {
	rows, _ := s.Size()
	return max(rows, 1)
}

func (s *Scroll) Draw(c Canvas) {
	s.drawWith(c, nil)
}

// drawWith draws the visible lines; decorate may restyle a line given its
// index.
func (s *Scroll) drawWith(c Canvas, decorate func(i int, l Line) Line) {
	s.lock.Lock()
	top := s.top
	visible := make([]Line, 0, c.Height())
	for i := top; i < len(s.lines) && len(visible) < c.Height(); i++ {
		l := s.lines[i]
		if decorate != nil {
			l = decorate(i, l)
		}
		visible = append(visible, l)
	}
	s.lock.Unlock()

	for row := 0; row < c.Height(); row++ {
		if row >= len(visible) {
			c.Write(row, 0, "", WriteOpts{})
			continue
		}
		drawLine(c, row, visible[row])
	}
}

func drawLine(c Canvas, row int, l Line) {
	if len(l) == 0 {
		c.Write(row, 0, "", WriteOpts{})
		return
	}
	col := 0
	for i, seg := range l {
		last := i == len(l)-1
		c.Write(row, col, seg.Text, WriteOpts{Color: seg.Color, Highlight: seg.Highlight, NoFill: !last})
		col += core.StringWidth(seg.Text)
	}
}

func (s *Scroll) Status() string {
	rows, _ := s.Size()
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(s.lines) == 0 {
		return "lines 0:0/0"
	}
	bottom := min(s.top+rows, len(s.lines))
	return fmt.Sprintf("lines %d:%d/%d", s.top+1, bottom, len(s.lines))
}

func (s *Scroll) InSearch() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.inSearch
}

func (s *Scroll) CancelSearch() {
	s.lock.Lock()
	s.inSearch = false
	s.lock.Unlock()
}

func (s *Scroll) askSearch(h Host) {
	s.lock.Lock()
	prev := s.search
	s.lock.Unlock()

	q, ok := h.Ask("search", "Search in buffer: ", prev)
	if !ok || q == "" {
		return
	}
	s.lock.Lock()
	s.search = q
	s.lock.Unlock()
	s.findFrom(h, s.pos())
}

func (s *Scroll) continueSearch(h Host) {
	if !s.InSearch() {
		h.Flash("No current search!")
		return
	}
	s.findFrom(h, s.pos()+1)
}

// findFrom jumps to the first line at or after start containing the
// search text, compared case-insensitively.
func (s *Scroll) findFrom(h Host, start int) {
	fold := cases.Fold()
	s.lock.Lock()
	needle := fold.String(s.search)
	found := -1
	for i := max(start, 0); i < len(s.lines); i++ {
		if strings.Contains(fold.String(s.lines[i].String()), needle) {
			found = i
			break
		}
	}
	s.inSearch = found >= 0
	s.lock.Unlock()

	if found < 0 {
		h.Flash("Not found!")
		return
	}
	s.jump(found)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
