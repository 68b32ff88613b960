package mode

import (
	"fmt"

	"github.com/dshills/burrow/internal/input/keymap"
	"github.com/dshills/burrow/internal/layout"
	"github.com/dshills/burrow/internal/renderer/core"
	"github.com/dshills/burrow/internal/theme"
)

// BufferInfo describes one buffer for the buffer list.
type BufferInfo struct {
	Title   string
	Mode    string
	Focused bool
	System  bool
	Hidden  bool
}

// BufferLister is the buffer manager as seen by the buffer list.
type BufferLister interface {
	BufferInfos() []BufferInfo
	RaiseTitle(title string) error
	KillTitleSafely(title string) (bool, error)
}

// BufferList shows all buffers. Selecting one raises it.
type BufferList struct {
	List
	bm     BufferLister
	titles []string
}

// NewBufferList creates a buffer list backed by bm.
func NewBufferList(reg *keymap.Registry, bm BufferLister) *BufferList {
	b := &BufferList{bm: bm}
	b.initList(reg, BufferListKeymap, nil, ScrollOptions{Kind: layout.KindIndex}, b.jumpTo)
	b.On(ActionReload, func(Host) { b.Reload() })
	b.On(ActionKillBuffer, b.killSelected)
	b.Reload()
	return b
}

// Reload rebuilds the list from the buffer manager.
func (b *BufferList) Reload() {
	infos := b.bm.BufferInfos()
	width := 0
	for _, in := range infos {
		width = max(width, core.StringWidth(in.Mode))
	}
	lines := make([]Line, 0, len(infos))
	titles := make([]string, 0, len(infos))
	for _, in := range infos {
		if in.Hidden {
			continue
		}
		marker := " "
		if in.Focused {
			marker = "*"
		}
		lines = append(lines, Line{
			{Text: fmt.Sprintf("%s %*s ", marker, width, in.Mode), Color: theme.Text},
			{Text: in.Title, Color: theme.Text},
		})
		titles = append(titles, in.Title)
	}
	b.lock.Lock()
	b.titles = titles
	b.lock.Unlock()
	b.SetLines(lines)
}

// Focus reloads, so the list is current whenever it is shown.
func (b *BufferList) Focus() { b.Reload() }

func (b *BufferList) Blur() {}

func (b *BufferList) title(i int) (string, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if i < 0 || i >= len(b.titles) {
		return "", false
	}
	return b.titles[i], true
}

func (b *BufferList) jumpTo(h Host, i int) {
	t, ok := b.title(i)
	if !ok {
		return
	}
	if err := b.bm.RaiseTitle(t); err != nil {
		h.Flash(err.Error())
	}
}

func (b *BufferList) killSelected(h Host) {
	t, ok := b.title(b.Cursor())
	if !ok {
		return
	}
	killed, err := b.bm.KillTitleSafely(t)
	switch {
	case err != nil:
		h.Flash(err.Error())
	case !killed:
		h.Flash(fmt.Sprintf("Buffer %q refused to close", t))
	}
	b.Reload()
}
