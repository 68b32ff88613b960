package mode

import (
	"sync"

	"github.com/dshills/burrow/internal/input/key"
	"github.com/dshills/burrow/internal/input/keymap"
)

// ActionFunc performs a mode action.
type ActionFunc func(h Host)

// Base carries the parts shared by most modes: a name, the keymaps
// consulted in order, the action table and the content size. Embed it
// and call Init.
type Base struct {
	mu      sync.Mutex
	name    string
	keymaps []*keymap.Keymap
	actions map[keymap.Action]ActionFunc
	rows    int
	cols    int
}

// Init sets the mode name and keymaps. Earlier keymaps take precedence.
func (b *Base) Init(name string, keymaps ...*keymap.Keymap) {
	b.name = name
	b.keymaps = keymaps
	b.actions = make(map[keymap.Action]ActionFunc)
}

// On registers the function run for action.
func (b *Base) On(action keymap.Action, fn ActionFunc) {
	b.actions[action] = fn
}

func (b *Base) Name() string { return b.name }

func (b *Base) Status() string { return "" }

func (b *Base) Resize(rows, cols int) {
	b.mu.Lock()
	b.rows, b.cols = rows, cols
	b.mu.Unlock()
}

// Size returns the last size passed to Resize.
func (b *Base) Size() (rows, cols int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rows, b.cols
}

// Keymaps returns the keymaps in lookup order.
func (b *Base) Keymaps() []*keymap.Keymap {
	return b.keymaps
}

// HandleInput resolves k against the first keymap binding it and runs the
// action when this mode defines it. Actions the mode does not define are
// returned unhandled for the caller's hook table.
func (b *Base) HandleInput(k key.Event, h Host) keymap.Result {
	for _, km := range b.keymaps {
		if !km.Has(k) {
			continue
		}
		res := h.ResolveInput(k, km)
		if res.Status != keymap.Found {
			return res
		}
		if fn, ok := b.actions[res.Action]; ok {
			fn(h)
			res.Handled = true
		}
		return res
	}
	return keymap.ResultNotFound(k)
}

func (b *Base) HandleMouseEvent(MouseEvent) {}

func (b *Base) Cleanup() {}

func (b *Base) Killable() bool { return true }
