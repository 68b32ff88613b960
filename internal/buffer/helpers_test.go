package buffer

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dshills/burrow/internal/input/key"
	"github.com/dshills/burrow/internal/input/keymap"
	"github.com/dshills/burrow/internal/layout"
	"github.com/dshills/burrow/internal/mode"
	"github.com/dshills/burrow/internal/renderer/backend"
)

var errTest = errors.New("test failure")

type fakeMode struct {
	mu         sync.Mutex
	name       string
	content    string
	status     string
	kind       layout.Kind
	unkillable bool
	home       bool
	inSearch   bool

	rows, cols int
	cleanups   int
	events     []string
	keys       []key.Event
	clicks     []mode.MouseEvent
}

func newFake(content string) *fakeMode {
	return &fakeMode{name: "fake", content: content}
}

func (f *fakeMode) Name() string { return f.name }

func (f *fakeMode) Draw(c mode.Canvas) {
	f.mu.Lock()
	s := f.content
	f.mu.Unlock()
	c.Write(0, 0, s, mode.WriteOpts{})
}

func (f *fakeMode) Status() string { return f.status }

func (f *fakeMode) Resize(rows, cols int) {
	f.mu.Lock()
	f.rows, f.cols = rows, cols
	f.mu.Unlock()
}

func (f *fakeMode) HandleInput(k key.Event, h mode.Host) keymap.Result {
	f.mu.Lock()
	f.keys = append(f.keys, k)
	f.mu.Unlock()
	return keymap.Result{Status: keymap.Found, Action: "noted", Keys: key.Sequence{k}, Handled: true}
}

func (f *fakeMode) HandleMouseEvent(ev mode.MouseEvent) {
	f.mu.Lock()
	f.clicks = append(f.clicks, ev)
	f.mu.Unlock()
}

func (f *fakeMode) Cleanup() {
	f.mu.Lock()
	f.cleanups++
	f.mu.Unlock()
}

func (f *fakeMode) Killable() bool   { return !f.unkillable }
func (f *fakeMode) Kind() layout.Kind { return f.kind }
func (f *fakeMode) IsHome() bool      { return f.home }

func (f *fakeMode) Focus() { f.record("focus") }
func (f *fakeMode) Blur()  { f.record("blur") }

func (f *fakeMode) InSearch() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inSearch
}

func (f *fakeMode) CancelSearch() {
	f.mu.Lock()
	f.inSearch = false
	f.mu.Unlock()
}

func (f *fakeMode) record(ev string) {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
}

func (f *fakeMode) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

// picker finishes on "d" with a fixed value.
type picker struct {
	*fakeMode
	done bool
}

func (p *picker) HandleInput(k key.Event, h mode.Host) keymap.Result {
	if k.Matches("d") {
		p.done = true
	}
	return p.fakeMode.HandleInput(k, h)
}

func (p *picker) Done() bool     { return p.done }
func (p *picker) Value() string { return "picked" }

type testEnv struct {
	m        *Manager
	nb       *backend.NullBackend
	settings layout.Settings
}

func newEnv(t *testing.T, w, h int) *testEnv {
	t.Helper()
	env := &testEnv{nb: backend.NewNullBackend(w, h)}
	reg := keymap.NewRegistry()
	if err := mode.RegisterKeymaps(reg); err != nil {
		t.Fatalf("RegisterKeymaps: %v", err)
	}
	lm := layout.New(env.nb, func() layout.Settings { return env.settings })
	m, err := New(Config{
		Backend:      env.nb,
		Layout:       lm,
		Registry:     reg,
		Version:      "test",
		GetchTimeout: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	env.m = m
	return env
}

func (env *testEnv) spawn(t *testing.T, title string, md mode.Mode, opts SpawnOptions) *Buffer {
	t.Helper()
	b, err := env.m.Spawn(title, md, opts)
	if err != nil {
		t.Fatalf("Spawn(%q): %v", title, err)
	}
	return b
}

func (env *testEnv) keys(specs ...string) {
	for _, s := range specs {
		env.nb.PostEvent(backend.KeyEvent(key.MustParse(s)))
	}
}

func titles(bufs []*Buffer) []string {
	out := make([]string, len(bufs))
	for i, b := range bufs {
		out[i] = b.Title()
	}
	return out
}

func mustKey(spec string) key.Event {
	return key.MustParse(spec)
}
