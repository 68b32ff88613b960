package mode

import (
	"sync"

	"github.com/dshills/burrow/internal/input/keymap"
)

// List is a Scroll with a selectable cursor line.
type List struct {
	Scroll

	curMu    sync.Mutex
	cursor   int
	onSelect func(h Host, i int)
}

// NewList creates a List mode. onSelect runs when the user selects the
// line under the cursor.
func NewList(reg *keymap.Registry, name string, lines []Line, opts ScrollOptions, onSelect func(h Host, i int)) *List {
	l := &List{}
	l.initList(reg, name, lines, opts, onSelect)
	return l
}

func (l *List) initList(reg *keymap.Registry, name string, lines []Line, opts ScrollOptions, onSelect func(h Host, i int)) {
	l.lines = lines
	l.opts = opts
	l.onSelect = onSelect
	l.initScroll(reg, name, reg.KeymapOrEmpty(LineCursorKeymap))
	l.jump = l.SetCursor
	l.pos = l.Cursor

	l.On(ActionCursorDown, func(Host) { l.SetCursor(l.Cursor() + 1) })
	l.On(ActionCursorUp, func(Host) { l.SetCursor(l.Cursor() - 1) })
	l.On(ActionPageDown, func(Host) { l.SetCursor(l.Cursor() + l.page()) })
	l.On(ActionPageUp, func(Host) { l.SetCursor(l.Cursor() - l.page()) })
	l.On(ActionSelect, func(h Host) {
		if l.onSelect != nil && l.LineCount() > 0 {
			l.onSelect(h, l.Cursor())
		}
	})
}

// Cursor returns the cursor line.
func (l *List) Cursor() int {
	l.curMu.Lock()
	defer l.curMu.Unlock()
	return l.cursor
}

// SetCursor moves the cursor to line i, scrolling to keep it visible.
func (l *List) SetCursor(i int) {
	n := l.LineCount()
	i = clamp(i, 0, max(n-1, 0))
	l.curMu.Lock()
	l.cursor = i
	l.curMu.Unlock()

	rows, _ := l.Size()
	top := l.Top()
	switch {
	case i < top:
		l.ScrollTo(i)
	case rows > 0 && i >= top+rows:
		l.ScrollTo(i - rows + 1)
	}
}

// SetLines replaces the content and keeps the cursor in range.
func (l *List) SetLines(lines []Line) {
	l.Scroll.SetLines(lines)
	l.SetCursor(l.Cursor())
}

func (l *List) Draw(c Canvas) {
	cur := l.Cursor()
	l.drawWith(c, func(i int, line Line) Line {
		if i != cur {
			return line
		}
		hl := make(Line, len(line))
		for j, seg := range line {
			seg.Highlight = true
			hl[j] = seg
		}
		if len(hl) == 0 {
			hl = Line{{Highlight: true}}
		}
		return hl
	})
}

// HandleMouseEvent moves the cursor to the clicked line.
func (l *List) HandleMouseEvent(ev MouseEvent) {
	l.SetCursor(l.Top() + ev.Row)
}
