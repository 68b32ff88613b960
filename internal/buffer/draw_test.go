package buffer

import (
	"testing"
	"time"

	"github.com/dshills/burrow/internal/input/key"
	"github.com/dshills/burrow/internal/mode"
	"github.com/dshills/burrow/internal/renderer/backend"
	"github.com/dshills/burrow/internal/renderer/core"
	"github.com/dshills/burrow/internal/theme"
)

func TestDrawScreen(t *testing.T) {
	env := newEnv(t, 80, 24)
	f := newFake("hello world")
	f.status = "st"
	env.spawn(t, "main", f, SpawnOptions{})

	if err := env.m.DrawScreen(DrawOptions{}); err != nil {
		t.Fatalf("DrawScreen: %v", err)
	}
	if got := env.nb.Row(0); got != "hello world" {
		t.Errorf("content row = %q", got)
	}
	if got := env.nb.Row(22); got != " [fake] main   st" {
		t.Errorf("status row = %q", got)
	}
	if got := env.nb.Title(); got != "burrow test :: main" {
		t.Errorf("title = %q", got)
	}
	if f.rows != 22 || f.cols != 80 {
		t.Errorf("mode size = %dx%d, want 22x80", f.rows, f.cols)
	}
	if b := env.m.Get("main"); b.Dirty() || b.ATime().IsZero() {
		t.Errorf("after draw dirty=%v atime=%v", b.Dirty(), b.ATime())
	}
}

func TestDrawScreenStatusOnlyWhenClean(t *testing.T) {
	env := newEnv(t, 80, 24)
	f := newFake("first")
	b := env.spawn(t, "main", f, SpawnOptions{})
	if err := env.m.DrawScreen(DrawOptions{}); err != nil {
		t.Fatal(err)
	}

	f.content = "second"
	if err := env.m.DrawScreen(DrawOptions{}); err != nil {
		t.Fatal(err)
	}
	if got := env.nb.Row(0); got != "first" {
		t.Errorf("clean buffer repainted: %q", got)
	}

	b.MarkDirty()
	if err := env.m.DrawScreen(DrawOptions{}); err != nil {
		t.Fatal(err)
	}
	if got := env.nb.Row(0); got != "second" {
		t.Errorf("dirty buffer not repainted: %q", got)
	}
}

func TestBufferWrite(t *testing.T) {
	env := newEnv(t, 5, 6)
	b := env.spawn(t, "w", newFake(""), SpawnOptions{})

	b.Write(0, 0, "日本語", mode.WriteOpts{})
	if got := env.nb.Row(0); got != "日本" {
		t.Errorf("wide truncation = %q", got)
	}

	b.Write(1, 0, "abc", mode.WriteOpts{})
	b.Write(1, 0, "X", mode.WriteOpts{NoFill: true})
	if got := env.nb.Row(1); got != "Xbc" {
		t.Errorf("no-fill write = %q", got)
	}
	b.Write(1, 0, "Y", mode.WriteOpts{})
	if got := env.nb.Row(1); got != "Y" {
		t.Errorf("filled write = %q", got)
	}

	b.Write(1, 5, "Z", mode.WriteOpts{})
	b.Write(9, 0, "Z", mode.WriteOpts{})
	if got := env.nb.Row(1); got != "Y" {
		t.Errorf("out of bounds write changed row: %q", got)
	}
}

func TestSigwinchDebounced(t *testing.T) {
	env := newEnv(t, 80, 24)
	env.spawn(t, "main", newFake("x"), SpawnOptions{})

	env.m.SigwinchHappened()
	env.m.SigwinchHappened()
	if !env.m.SigwinchPending() {
		t.Fatal("flag not set")
	}

	if _, ok := env.m.GetKey(); ok {
		t.Fatal("redraw key leaked out of GetKey")
	}
	if env.m.SigwinchPending() {
		t.Error("flag not cleared by the redraw")
	}
	if n := env.nb.Syncs(); n != 1 {
		t.Errorf("Syncs = %d, want 1", n)
	}
	if _, ok := env.nb.PollEventTimeout(5 * time.Millisecond); ok {
		t.Error("second resize queued another wake-up")
	}
}

func TestResizeRelaysOut(t *testing.T) {
	env := newEnv(t, 80, 24)
	f := newFake("x")
	b := env.spawn(t, "main", f, SpawnOptions{})

	env.nb.Resize(100, 30)
	for range 2 {
		if _, ok := env.m.GetKey(); ok {
			t.Fatal("unexpected key")
		}
	}
	if g := b.Geometry(); g.Width != 100 || g.Height != 29 {
		t.Errorf("geometry after resize = %+v", g)
	}
	if f.rows != 28 || f.cols != 100 {
		t.Errorf("mode size = %dx%d", f.rows, f.cols)
	}
}

func TestMinibufferStack(t *testing.T) {
	env := newEnv(t, 80, 24)
	env.spawn(t, "main", newFake(""), SpawnOptions{})

	id := env.m.Say("fetching")
	if got := env.nb.Row(23); got != "fetching" {
		t.Errorf("minibuf = %q", got)
	}
	env.m.SayAt(id, "done")
	if got := env.nb.Row(23); got != "done" {
		t.Errorf("minibuf after SayAt = %q", got)
	}
	env.m.Clear(id)
	if n := len(env.m.Messages()); n != 0 {
		t.Errorf("stack length = %d, want 0", n)
	}
}

func TestMinibufferGaps(t *testing.T) {
	env := newEnv(t, 80, 24)
	a := env.m.Say("a")
	b := env.m.Say("b")
	if env.m.MinibufLines() != 2 {
		t.Errorf("lines = %d", env.m.MinibufLines())
	}
	// Newest first.
	if env.nb.Row(22) != "b" || env.nb.Row(23) != "a" {
		t.Errorf("rows = %q, %q", env.nb.Row(22), env.nb.Row(23))
	}

	env.m.Clear(a)
	if n := len(env.m.Messages()); n != 2 {
		t.Errorf("clearing a middle slot trimmed the stack to %d", n)
	}
	env.m.Clear(b)
	if n := len(env.m.Messages()); n != 0 {
		t.Errorf("stack length = %d, want 0", n)
	}
	if env.m.MinibufLines() != 1 {
		t.Errorf("empty minibuffer lines = %d", env.m.MinibufLines())
	}
}

func TestSayWhileClears(t *testing.T) {
	env := newEnv(t, 80, 24)
	err := env.m.SayWhile("working", func(id int) error {
		if msgs := env.m.Messages(); len(msgs) != 1 || *msgs[id] != "working" {
			t.Errorf("messages during fn = %v", msgs)
		}
		return errTest
	})
	if err != errTest {
		t.Errorf("err = %v", err)
	}
	if len(env.m.Messages()) != 0 {
		t.Error("slot not cleared")
	}
}

func TestFlash(t *testing.T) {
	env := newEnv(t, 80, 24)
	env.m.Say("msg")
	env.m.Flash("careful")
	if env.m.MinibufLines() != 2 {
		t.Errorf("lines = %d", env.m.MinibufLines())
	}
	if env.nb.Row(22) != "careful" || env.nb.Row(23) != "msg" {
		t.Errorf("rows = %q, %q", env.nb.Row(22), env.nb.Row(23))
	}
	env.m.EraseFlash()
	if _, ok := env.m.FlashText(); ok {
		t.Error("flash not erased")
	}
}

func TestHandleInputMouse(t *testing.T) {
	env := newEnv(t, 80, 24)
	f := newFake("")
	env.spawn(t, "main", f, SpawnOptions{})
	if err := env.m.DrawScreen(DrawOptions{}); err != nil {
		t.Fatal(err)
	}

	res := env.m.HandleInput(backend.Event{Type: backend.EventMouse, MouseX: 5, MouseY: 3, MouseButton: backend.MouseLeft})
	if !res.Handled {
		t.Error("mouse event not reported handled")
	}
	if len(f.clicks) != 1 || f.clicks[0] != (mode.MouseEvent{Row: 3, Col: 5, Button: "left"}) {
		t.Errorf("clicks = %+v", f.clicks)
	}
}

func TestHandleInputCancelsSearch(t *testing.T) {
	env := newEnv(t, 80, 24)
	f := newFake("")
	env.spawn(t, "main", f, SpawnOptions{})

	f.inSearch = true
	env.m.HandleInput(backend.KeyEvent(key.MustParse("n")))
	if !f.InSearch() {
		t.Error("continue key cancelled the search")
	}
	env.m.HandleInput(backend.KeyEvent(key.MustParse("j")))
	if f.InSearch() {
		t.Error("other key did not cancel the search")
	}
	if len(f.keys) != 2 {
		t.Errorf("mode saw %d keys", len(f.keys))
	}
}

func TestSetGetchTimeout(t *testing.T) {
	env := newEnv(t, 80, 24)
	tests := []struct {
		in, want time.Duration
	}{
		{50 * time.Millisecond, 50 * time.Millisecond},
		{0, DefaultGetchTimeout},
		{-time.Second, DefaultGetchTimeout},
	}
	for _, tt := range tests {
		env.m.SetGetchTimeout(tt.in)
		if got := time.Duration(env.m.timeout.Load()); got != tt.want {
			t.Errorf("SetGetchTimeout(%v): timeout = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWriteInactiveColors(t *testing.T) {
	env := newEnv(t, 20, 6)
	th, err := theme.New(map[string]theme.Spec{theme.Text + theme.InactiveSuffix: {FG: "white"}})
	if err != nil {
		t.Fatal(err)
	}
	if th.Style(theme.Text, false) == th.Variant(theme.Text, false, true) {
		t.Fatal("inactive text style should differ")
	}
	env.m.theme = th
	back := env.spawn(t, "back", newFake(""), SpawnOptions{})
	front := env.spawn(t, "front", newFake(""), SpawnOptions{})

	tests := []struct {
		name string
		b    *Buffer
		want core.Style
	}{
		{"focused", front, th.Style(theme.Text, false)},
		{"unfocused", back, th.Variant(theme.Text, false, true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.b.Write(0, 0, "x", mode.WriteOpts{})
			if got := env.nb.GetCell(0, 0).Style; got != tt.want {
				t.Errorf("style = %+v, want %+v", got, tt.want)
			}
		})
	}
}
