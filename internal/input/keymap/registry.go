package keymap

import (
	"fmt"
	"sort"
	"sync"
)

// HookFunc performs an externally defined action. mode is the name of the
// mode whose keymap resolved the action.
type HookFunc func(mode string) error

// GlobalKeymap is the registry name of the keymap consulted when the
// focused mode does not bind a key.
const GlobalKeymap = "global"

// Registry holds per-mode keymaps and the action hook table.
type Registry struct {
	mu      sync.RWMutex
	keymaps map[string]*Keymap
	hooks   map[Action]HookFunc
	frozen  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		keymaps: make(map[string]*Keymap),
		hooks:   make(map[Action]HookFunc),
	}
}

// Define returns the keymap for mode, creating it on first use, after
// passing it to build.
func (r *Registry) Define(mode string, build func(*Keymap) error) (*Keymap, error) {
	r.mu.Lock()
	if r.frozen {
		r.mu.Unlock()
		return nil, ErrFrozen
	}
	km, ok := r.keymaps[mode]
	if !ok {
		km = New()
		r.keymaps[mode] = km
	}
	r.mu.Unlock()

	if build != nil {
		if err := build(km); err != nil {
			return nil, fmt.Errorf("keymap %s: %w", mode, err)
		}
	}
	return km, nil
}

// Keymap returns the keymap registered for mode.
func (r *Registry) Keymap(mode string) (*Keymap, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	km, ok := r.keymaps[mode]
	return km, ok
}

// KeymapOrEmpty returns the keymap for mode, or an empty frozen keymap.
func (r *Registry) KeymapOrEmpty(mode string) *Keymap {
	if km, ok := r.Keymap(mode); ok {
		return km
	}
	km := New()
	km.Freeze()
	return km
}

// Modes returns the names of all keymaps, sorted.
func (r *Registry) Modes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.keymaps))
	for name := range r.keymaps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bind adds a binding for an externally handled action. The keymap for
// mode must already exist.
func (r *Registry) Bind(mode string, action Action, description string, fn HookFunc, specs ...string) error {
	km, ok := r.Keymap(mode)
	if !ok {
		return fmt.Errorf("no keymap for mode %q", mode)
	}
	if err := r.RegisterHook(action, fn); err != nil {
		return err
	}
	return km.Add(action, description, specs...)
}

// RegisterHook sets the handler for action.
func (r *Registry) RegisterHook(action Action, fn HookFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrFrozen
	}
	r.hooks[action] = fn
	return nil
}

// Hook returns the handler registered for action.
func (r *Registry) Hook(action Action) (HookFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.hooks[action]
	return fn, ok
}

// Freeze rejects further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	kms := make([]*Keymap, 0, len(r.keymaps))
	for _, km := range r.keymaps {
		kms = append(kms, km)
	}
	r.mu.Unlock()
	for _, km := range kms {
		km.Freeze()
	}
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}
