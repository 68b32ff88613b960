// Package hook runs user extension hooks written in Lua.
//
// A hook named "status-bar-text" is the file "status-bar-text.lua" in
// the hooks directory. The file is a chunk: the hook's variables are
// globals while it runs, and its return value is the hook's result.
// Scripts are compiled once and recompiled when the file changes.
//
// gopher-lua states are single threaded, so every run is serialised on
// the manager's mutex. Hooks called from background goroutines simply
// wait their turn.
package hook

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/dshills/burrow/internal/input/keymap"
	"github.com/dshills/burrow/internal/logging"
)

// Well-known hook names outside the window system.
const (
	AfterPoll   = "after-poll"
	Startup     = "startup"
	Keybindings = "keybindings"
)

// DefaultTimeout bounds a single hook run.
const DefaultTimeout = 5 * time.Second

// Doc describes a hook for the listing.
type Doc struct {
	Name        string
	Description string
}

// UI is what scripts can reach on screen. Messages are delivered after
// the script returns, since drawing may itself run hooks.
type UI interface {
	Flash(msg string)
	Say(msg string) int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for hook output and failures.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithTimeout bounds each run. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

type compiled struct {
	proto   *lua.FunctionProto
	modTime time.Time
}

// Manager loads and runs hooks from one directory.
type Manager struct {
	dir     string
	log     *logging.Logger
	timeout time.Duration

	mu      sync.Mutex
	L       *lua.LState
	docs    map[string]string
	cache   map[string]compiled
	api     map[string]lua.LGFunction
	ui      UI
	pending []func(UI)
	reg     *keymap.Registry
	closed  bool
}

// New creates a manager for the hooks in dir. A missing directory just
// means no hook is installed.
func New(dir string, opts ...Option) *Manager {
	m := &Manager{
		dir:     dir,
		log:     logging.Discard,
		timeout: DefaultTimeout,
		L:       newState(),
		docs:    make(map[string]string),
		cache:   make(map[string]compiled),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithComponent("hook")
	m.api = map[string]lua.LGFunction{
		"log":   m.luaLog,
		"flash": m.luaFlash,
		"say":   m.luaSay,
		"bind":  m.luaBind,
	}
	for name, fn := range m.api {
		m.L.SetGlobal(name, m.L.NewFunction(fn))
	}
	return m
}

// Dir returns the hooks directory.
func (m *Manager) Dir() string { return m.dir }

// Register documents a hook.
func (m *Manager) Register(name, description string) {
	m.mu.Lock()
	m.docs[name] = description
	m.mu.Unlock()
}

// RegisterAll documents several hooks.
func (m *Manager) RegisterAll(docs map[string]string) {
	for name, desc := range docs {
		m.Register(name, desc)
	}
}

// Docs lists the documented hooks by name.
func (m *Manager) Docs() []Doc {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Doc, 0, len(m.docs))
	for name, desc := range m.docs {
		out = append(out, Doc{Name: name, Description: desc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SetUI connects flash and say.
func (m *Manager) SetUI(ui UI) {
	m.mu.Lock()
	m.ui = ui
	m.mu.Unlock()
}

// SetRegistry connects bind to a keymap registry.
func (m *Manager) SetRegistry(reg *keymap.Registry) {
	m.mu.Lock()
	m.reg = reg
	m.mu.Unlock()
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.dir, name+".lua")
}

// Enabled reports whether a script for name exists.
func (m *Manager) Enabled(name string) bool {
	if m.dir == "" {
		return false
	}
	fi, err := os.Stat(m.path(name))
	return err == nil && fi.Mode().IsRegular()
}

// Installed lists the hooks that have a script, by name.
func (m *Manager) Installed() []string {
	if m.dir == "" {
		return nil
	}
	matches, _ := filepath.Glob(filepath.Join(m.dir, "*.lua"))
	out := make([]string, 0, len(matches))
	for _, p := range matches {
		out = append(out, filepath.Base(p[:len(p)-len(".lua")]))
	}
	sort.Strings(out)
	return out
}

// Run executes hook name with vars as globals and returns its result.
// A hook without a script returns nil and no error.
func (m *Manager) Run(name string, vars map[string]any) (any, error) {
	if !m.Enabled(name) {
		return nil, nil
	}

	m.mu.Lock()
	v, err := m.run(name, vars)
	m.mu.Unlock()
	m.deliver()
	return v, err
}

func (m *Manager) run(name string, vars map[string]any) (any, error) {
	if m.closed {
		return nil, ErrClosed
	}

	proto, err := m.load(name)
	if err != nil {
		return nil, &Error{Hook: name, Err: err}
	}

	m.log.Debug("running hook %s", name)
	for k, v := range vars {
		m.L.SetGlobal(k, toLua(m.L, v))
	}
	defer resetGlobals(m.L, m.api)

	var result lua.LValue = lua.LNil
	err = m.call(func() error {
		m.L.Push(m.L.NewFunctionFromProto(proto))
		if err := m.L.PCall(0, 1, nil); err != nil {
			return err
		}
		result = m.L.Get(-1)
		m.L.Pop(1)
		return nil
	})
	if err != nil {
		m.log.Warn("hook %s failed: %v", name, err)
		return nil, &Error{Hook: name, Err: err}
	}
	return toGo(result), nil
}

// RunString is Run for hooks that return text. ok is false when the hook
// is missing, failed or returned something else.
func (m *Manager) RunString(name string, vars map[string]any) (string, bool) {
	v, err := m.Run(name, vars)
	if err != nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// call runs fn under the run timeout. m.mu must be held.
func (m *Manager) call(fn func() error) error {
	if m.timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		m.L.SetContext(ctx)
		defer m.L.RemoveContext()
	}
	return protect(fn)
}

// load compiles the script for name, reusing the cached version while the
// file is unchanged. m.mu must be held.
func (m *Manager) load(name string) (*lua.FunctionProto, error) {
	path := m.path(name)
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotInstalled
		}
		return nil, err
	}
	if c, ok := m.cache[name]; ok && c.modTime.Equal(fi.ModTime()) {
		return c.proto, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	chunk, err := parse.Parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	m.cache[name] = compiled{proto: proto, modTime: fi.ModTime()}
	m.log.Info("loaded hook %s", name)
	return proto, nil
}

// Close releases the Lua state.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.L.Close()
	return nil
}

func (m *Manager) luaLog(L *lua.LState) int {
	m.log.Info("%s", L.CheckString(1))
	return 0
}

// deliver hands queued messages to the UI. m.mu must not be held.
func (m *Manager) deliver() {
	m.mu.Lock()
	ui, pending := m.ui, m.pending
	m.pending = nil
	m.mu.Unlock()
	if ui == nil {
		return
	}
	for _, fn := range pending {
		fn(ui)
	}
}

// luaFlash and luaSay run inside a hook with m.mu held.
func (m *Manager) luaFlash(L *lua.LState) int {
	msg := L.CheckString(1)
	m.pending = append(m.pending, func(ui UI) { ui.Flash(msg) })
	return 0
}

func (m *Manager) luaSay(L *lua.LState) int {
	msg := L.CheckString(1)
	m.pending = append(m.pending, func(ui UI) { ui.Say(msg) })
	return 0
}

// luaBind implements bind(mode, key, description, fn).
func (m *Manager) luaBind(L *lua.LState) int {
	modeName := L.CheckString(1)
	spec := L.CheckString(2)
	desc := L.CheckString(3)
	fn := L.CheckFunction(4)
	if m.reg == nil {
		L.RaiseError("%v", ErrNoRegistry)
		return 0
	}

	action := keymap.Action("lua:" + modeName + ":" + spec)
	err := m.reg.Bind(modeName, action, desc, func(active string) error {
		return m.callBound(string(action), fn, active)
	}, spec)
	if err != nil {
		L.RaiseError("bind %s %q: %v", modeName, spec, err)
	}
	return 0
}

// callBound runs a function registered through bind.
func (m *Manager) callBound(action string, fn *lua.LFunction, active string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	err := m.call(func() error {
		return m.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LString(active))
	})
	m.mu.Unlock()
	m.deliver()
	if err != nil {
		return &Error{Hook: action, Err: err}
	}
	return nil
}
