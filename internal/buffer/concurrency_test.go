package buffer

import (
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/burrow/internal/mode"
)

// slowBlur parks inside Blur until release is closed.
type slowBlur struct {
	*fakeMode
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *slowBlur) Blur() {
	s.fakeMode.Blur()
	s.once.Do(func() { close(s.entered) })
	<-s.release
}

// drawHook calls onDraw before drawing.
type drawHook struct {
	*fakeMode
	onDraw func()
}

func (d *drawHook) Draw(c mode.Canvas) {
	if d.onDraw != nil {
		d.onDraw()
	}
	d.fakeMode.Draw(c)
}

// slowCleanup parks inside Cleanup until release is closed and counts
// draws that reach it afterwards.
type slowCleanup struct {
	*fakeMode
	entered   chan struct{}
	release   chan struct{}
	cleaned   atomic.Bool
	lateDraws atomic.Int32
}

func (s *slowCleanup) Cleanup() {
	s.cleaned.Store(true)
	close(s.entered)
	<-s.release
	s.fakeMode.Cleanup()
}

func (s *slowCleanup) Draw(c mode.Canvas) {
	if s.cleaned.Load() {
		s.lateDraws.Add(1)
	}
	s.fakeMode.Draw(c)
}

// slowResize parks in its first Resize until gate is closed.
type slowResize struct {
	*fakeMode
	entered *sync.WaitGroup
	gate    chan struct{}
	once    sync.Once
}

func (s *slowResize) Resize(rows, cols int) {
	s.once.Do(func() {
		s.entered.Done()
		<-s.gate
	})
	s.fakeMode.Resize(rows, cols)
}

func TestDrawWaitsForFocusHandover(t *testing.T) {
	env := newEnv(t, 80, 24)
	oldMode := &slowBlur{fakeMode: newFake("old"), entered: make(chan struct{}), release: make(chan struct{})}
	oldBuf := env.spawn(t, "old", oldMode, SpawnOptions{})
	newMode := &drawHook{fakeMode: newFake("new")}
	newBuf := env.spawn(t, "new", newMode, SpawnOptions{Hidden: true})

	var mu sync.Mutex
	var seen []string
	newMode.onDraw = func() {
		mu.Lock()
		defer mu.Unlock()
		if env.m.FocusBuffer() == newBuf && (!newBuf.Focused() || oldBuf.Focused()) {
			seen = append(seen, "half-done handover")
		}
	}

	focused := make(chan struct{})
	go func() {
		env.m.FocusOn(newBuf)
		close(focused)
	}()
	<-oldMode.entered

	drawn := make(chan error, 1)
	go func() { drawn <- env.m.DrawScreen(DrawOptions{Dirty: true}) }()
	select {
	case <-drawn:
		t.Fatal("DrawScreen ran while focus was moving")
	case <-time.After(50 * time.Millisecond):
	}

	close(oldMode.release)
	<-focused
	if err := <-drawn; err != nil {
		t.Fatalf("DrawScreen: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) > 0 {
		t.Errorf("draw saw %v", seen)
	}
	if !newBuf.Focused() || oldBuf.Focused() {
		t.Errorf("focused: new=%v old=%v", newBuf.Focused(), oldBuf.Focused())
	}
}

func TestDrawWaitsForKill(t *testing.T) {
	env := newEnv(t, 80, 24)
	keep := env.spawn(t, "keep", newFake("keep"), SpawnOptions{})
	victim := &slowCleanup{fakeMode: newFake("victim"), entered: make(chan struct{}), release: make(chan struct{})}
	b := env.spawn(t, "victim", victim, SpawnOptions{})

	killed := make(chan error, 1)
	go func() { killed <- env.m.KillBuffer(b) }()
	<-victim.entered

	drawn := make(chan error, 1)
	go func() { drawn <- env.m.DrawScreen(DrawOptions{Dirty: true}) }()
	select {
	case <-drawn:
		t.Fatal("DrawScreen ran during a kill")
	case <-time.After(50 * time.Millisecond):
	}
	close(victim.release)
	if err := <-killed; err != nil {
		t.Fatalf("KillBuffer: %v", err)
	}
	if err := <-drawn; err != nil {
		t.Fatalf("DrawScreen: %v", err)
	}
	if n := victim.lateDraws.Load(); n != 0 {
		t.Errorf("cleaned-up mode drawn %d times", n)
	}
	if env.m.FocusBuffer() != keep || !keep.Focused() || env.m.Exists("victim") {
		t.Errorf("after kill: focus=%v victim exists=%v", env.m.FocusBuffer(), env.m.Exists("victim"))
	}
}

func TestConcurrentSpawnUniqueTitles(t *testing.T) {
	env := newEnv(t, 80, 24)
	var entered sync.WaitGroup
	gate := make(chan struct{})

	const n = 2
	entered.Add(n)
	errs := make(chan error, n)
	for range n {
		md := &slowResize{fakeMode: newFake(""), entered: &entered, gate: gate}
		go func() {
			_, err := env.m.Spawn("X", md, SpawnOptions{})
			errs <- err
		}()
	}
	entered.Wait()
	close(gate)
	for range n {
		if err := <-errs; err != nil {
			t.Errorf("Spawn: %v", err)
		}
	}

	got := titles(env.m.Buffers())
	slices.Sort(got)
	if want := []string{"X", "X <2>"}; !slices.Equal(got, want) {
		t.Errorf("titles = %q, want %q", got, want)
	}
}

// flashingHooks flashes from inside the status hook, the way a Lua
// status-bar-text script calling flash() does.
type flashingHooks struct{ m *Manager }

func (h flashingHooks) Enabled(name string) bool { return name == HookStatusBarText }

func (h flashingHooks) Run(name string, _ map[string]any) (any, error) {
	h.m.Flash("from hook")
	return "custom status", nil
}

func TestStatusHookMessageDuringDraw(t *testing.T) {
	env := newEnv(t, 40, 10)
	env.spawn(t, "main", newFake("x"), SpawnOptions{})
	env.m.hooks = flashingHooks{env.m}

	drawn := make(chan error, 1)
	go func() { drawn <- env.m.DrawScreen(DrawOptions{Dirty: true, Refresh: true}) }()
	select {
	case err := <-drawn:
		if err != nil {
			t.Fatalf("DrawScreen: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("DrawScreen deadlocked on a hook message")
	}
	if got, ok := env.m.FlashText(); !ok || got != "from hook" {
		t.Errorf("flash = %q, %v", got, ok)
	}
}
