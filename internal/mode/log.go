package mode

import "github.com/dshills/burrow/internal/input/keymap"

// LineSource provides the lines shown by a Log mode.
type LineSource interface {
	Lines() []string
}

// Log shows the application log, following new lines while the view is at
// the bottom.
type Log struct {
	Scroll
	src LineSource
}

// NewLog creates a log view reading from src.
func NewLog(reg *keymap.Registry, src LineSource) *Log {
	l := &Log{src: src}
	l.initScroll(reg, LogKeymap)
	l.Update()
	return l
}

// Update reloads the lines from the source.
func (l *Log) Update() {
	rows, _ := l.Size()
	atBottom := l.Top()+max(rows, 1) >= l.LineCount()
	l.SetLines(PlainLines(l.src.Lines()))
	if atBottom {
		l.ScrollTo(l.LineCount())
	}
}
