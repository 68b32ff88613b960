package keymap

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/burrow/internal/input/key"
)

// Errors returned when building keymaps.
var (
	ErrDuplicateKey = errors.New("key already bound")
	ErrNotKeymap    = errors.New("key is bound to an action, not a keymap")
	ErrFrozen       = errors.New("keymaps are frozen")
	ErrNoKeys       = errors.New("no keys given")
)

// Action names a command a mode or hook can perform.
type Action string

// Entry is one binding in a Keymap. Exactly one of Action and Sub is set.
type Entry struct {
	Key         string
	Action      Action
	Sub         *Keymap
	Description string
}

// IsKeymap reports whether the entry leads to a nested keymap.
func (e *Entry) IsKeymap() bool {
	return e.Sub != nil
}

// Keymap maps canonical key specs to entries. Registration order is kept
// for help output.
type Keymap struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string
	frozen  bool
}

// New creates an empty keymap.
func New() *Keymap {
	return &Keymap{entries: make(map[string]*Entry)}
}

// Add binds every spec in specs to action.
func (km *Keymap) Add(action Action, description string, specs ...string) error {
	if len(specs) == 0 {
		return fmt.Errorf("%w for action %q", ErrNoKeys, action)
	}
	keys := make([]string, 0, len(specs))
	for _, spec := range specs {
		k, err := key.NormalizeSpec(spec)
		if err != nil {
			return fmt.Errorf("binding %q: %w", action, err)
		}
		keys = append(keys, k)
	}

	km.mu.Lock()
	defer km.mu.Unlock()

	if km.frozen {
		return ErrFrozen
	}
	for _, k := range keys {
		if e, ok := km.entries[k]; ok {
			return fmt.Errorf("%w: %s (as %s)", ErrDuplicateKey, k, e.name())
		}
	}
	for _, k := range keys {
		km.insert(&Entry{Key: k, Action: action, Description: description})
	}
	return nil
}

// MustAdd is Add for built-in bindings; it panics on error.
func (km *Keymap) MustAdd(action Action, description string, specs ...string) {
	if err := km.Add(action, description, specs...); err != nil {
		panic(err)
	}
}

// AddMulti binds spec to a nested keymap and calls build on it. A spec
// already bound to a nested keymap extends that keymap.
func (km *Keymap) AddMulti(description, spec string, build func(*Keymap) error) error {
	k, err := key.NormalizeSpec(spec)
	if err != nil {
		return err
	}

	km.mu.Lock()
	if km.frozen {
		km.mu.Unlock()
		return ErrFrozen
	}
	e, ok := km.entries[k]
	switch {
	case !ok:
		e = &Entry{Key: k, Sub: New(), Description: description}
		km.insert(e)
	case !e.IsKeymap():
		km.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotKeymap, k)
	}
	km.mu.Unlock()

	if build == nil {
		return nil
	}
	return build(e.Sub)
}

func (km *Keymap) insert(e *Entry) {
	km.entries[e.Key] = e
	km.order = append(km.order, e.Key)
}

// Lookup returns the entry bound to ev.
func (km *Keymap) Lookup(ev key.Event) (*Entry, bool) {
	km.mu.RLock()
	defer km.mu.RUnlock()
	e, ok := km.entries[ev.Canonical()]
	return e, ok
}

// Has reports whether ev is bound.
func (km *Keymap) Has(ev key.Event) bool {
	_, ok := km.Lookup(ev)
	return ok
}

// Len returns the number of bound keys.
func (km *Keymap) Len() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.order)
}

// Freeze rejects further changes to km and its nested keymaps.
func (km *Keymap) Freeze() {
	km.mu.Lock()
	km.frozen = true
	subs := make([]*Keymap, 0)
	for _, e := range km.entries {
		if e.Sub != nil {
			subs = append(subs, e.Sub)
		}
	}
	km.mu.Unlock()
	for _, s := range subs {
		s.Freeze()
	}
}

// HelpLine is one row of keymap help: the keys bound to one target.
type HelpLine struct {
	Keys        []string
	Description string
}

// KeyList returns the keys joined for display.
func (h HelpLine) KeyList() string {
	return strings.Join(h.Keys, ", ")
}

// Help returns the bindings in registration order, keys sharing an action
// grouped on one line. Nested keymaps are listed with their prefix.
func (km *Keymap) Help() []HelpLine {
	return km.help("")
}

func (km *Keymap) help(prefix string) []HelpLine {
	km.mu.RLock()
	defer km.mu.RUnlock()

	var lines []HelpLine
	byAction := make(map[Action]int)
	for _, k := range km.order {
		e := km.entries[k]
		full := strings.TrimSpace(prefix + " " + k)
		if e.Sub != nil {
			lines = append(lines, e.Sub.help(full)...)
			continue
		}
		if i, ok := byAction[e.Action]; ok {
			lines[i].Keys = append(lines[i].Keys, full)
			continue
		}
		byAction[e.Action] = len(lines)
		lines = append(lines, HelpLine{Keys: []string{full}, Description: e.Description})
	}
	return lines
}

func (e *Entry) name() string {
	if e.Sub != nil {
		return "keymap " + e.Description
	}
	return string(e.Action)
}
