package hook

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dshills/burrow/internal/input/key"
	"github.com/dshills/burrow/internal/input/keymap"
)

func writeHook(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".lua"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestEnabled(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, "status-bar-text", `return "x"`)
	m := New(dir)
	defer m.Close()

	if !m.Enabled("status-bar-text") {
		t.Error("installed hook not enabled")
	}
	if m.Enabled("after-poll") {
		t.Error("missing hook enabled")
	}
	if New("").Enabled("status-bar-text") {
		t.Error("hook enabled without a directory")
	}
	if got := m.Installed(); !reflect.DeepEqual(got, []string{"status-bar-text"}) {
		t.Errorf("Installed = %v", got)
	}
}

func TestRunVariables(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, "status-bar-text", `return "[" .. mode .. "] " .. title .. " " .. num_inbox`)
	m := New(dir)
	defer m.Close()

	v, err := m.Run("status-bar-text", map[string]any{"mode": "inbox", "title": "main", "num_inbox": 3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v != "[inbox] main 3" {
		t.Errorf("result = %#v", v)
	}

	// Variables do not leak into the next run.
	writeHook(t, dir, "leak", `return title`)
	if v, _ := m.Run("leak", nil); v != nil {
		t.Errorf("leaked variable: %#v", v)
	}
}

func TestRunResults(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want any
	}{
		{"nothing", ``, nil},
		{"number", `return 2 + 2`, int64(4)},
		{"float", `return 1.5`, 1.5},
		{"bool", `return true`, true},
		{"list", `return {"a@x.org", "b@y.org"}`, []any{"a@x.org", "b@y.org"}},
		{"table", `return {name = "ann"}`, map[string]any{"name": "ann"}},
	}
	dir := t.TempDir()
	m := New(dir)
	defer m.Close()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeHook(t, dir, tt.name, tt.src)
			got, err := m.Run(tt.name, nil)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestRunMissing(t *testing.T) {
	m := New(t.TempDir())
	defer m.Close()
	v, err := m.Run("after-poll", nil)
	if v != nil || err != nil {
		t.Errorf("Run missing = %v, %v", v, err)
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, "syntax", `return (`)
	writeHook(t, dir, "runtime", `error("boom")`)
	writeHook(t, dir, "sandbox", `return io.open("/etc/passwd")`)
	m := New(dir)
	defer m.Close()

	for _, name := range []string{"syntax", "runtime", "sandbox"} {
		_, err := m.Run(name, nil)
		var herr *Error
		if !errors.As(err, &herr) || herr.Hook != name {
			t.Errorf("%s: err = %v", name, err)
		}
	}
}

func TestRunTimeout(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, "spin", `while true do end`)
	m := New(dir, WithTimeout(50*time.Millisecond))
	defer m.Close()

	if _, err := m.Run("spin", nil); err == nil {
		t.Error("endless hook returned")
	}
	// The state is still usable.
	writeHook(t, dir, "ok", `return "fine"`)
	if v, err := m.Run("ok", nil); err != nil || v != "fine" {
		t.Errorf("after timeout: %v, %v", v, err)
	}
}

func TestReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, "h", `return 1`)
	m := New(dir)
	defer m.Close()

	if v, _ := m.Run("h", nil); v != int64(1) {
		t.Fatalf("first = %v", v)
	}
	writeHook(t, dir, "h", `return 2`)
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(filepath.Join(dir, "h.lua"), later, later); err != nil {
		t.Fatal(err)
	}
	if v, _ := m.Run("h", nil); v != int64(2) {
		t.Errorf("after change = %v", v)
	}
}

type recordingUI struct {
	flashes, says []string
}

func (u *recordingUI) Flash(msg string) { u.flashes = append(u.flashes, msg) }
func (u *recordingUI) Say(msg string) int {
	u.says = append(u.says, msg)
	return len(u.says) - 1
}

func TestFlashAndSay(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, AfterPoll, `flash(num .. " updated"); say("polled")`)
	m := New(dir)
	defer m.Close()
	ui := &recordingUI{}
	m.SetUI(ui)

	if _, err := m.Run(AfterPoll, map[string]any{"num": 2}); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ui.flashes, []string{"2 updated"}) || !reflect.DeepEqual(ui.says, []string{"polled"}) {
		t.Errorf("flashes %v says %v", ui.flashes, ui.says)
	}
}

func TestBind(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, Keybindings, `
bind("global", "C-t", "Say hello", function(mode)
  flash("hello from " .. mode)
end)
`)
	reg := keymap.NewRegistry()
	if _, err := reg.Define(keymap.GlobalKeymap, nil); err != nil {
		t.Fatal(err)
	}
	m := New(dir)
	defer m.Close()
	ui := &recordingUI{}
	m.SetUI(ui)
	m.SetRegistry(reg)

	if _, err := m.Run(Keybindings, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	km, _ := reg.Keymap(keymap.GlobalKeymap)
	e, ok := km.Lookup(key.MustParse("C-t"))
	if !ok || e.Description != "Say hello" {
		t.Fatalf("binding missing: %+v", e)
	}
	fn, ok := reg.Hook(e.Action)
	if !ok {
		t.Fatal("action hook missing")
	}
	if err := fn("inbox-mode"); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ui.flashes, []string{"hello from inbox-mode"}) {
		t.Errorf("flashes = %v", ui.flashes)
	}
}

func TestBindUnknownMode(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, Keybindings, `bind("nope", "x", "X", function() end)`)
	m := New(dir)
	defer m.Close()
	m.SetRegistry(keymap.NewRegistry())

	_, err := m.Run(Keybindings, nil)
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Errorf("err = %v", err)
	}
}

func TestDocs(t *testing.T) {
	m := New("")
	m.RegisterAll(map[string]string{"b": "second", "a": "first"})
	docs := m.Docs()
	if len(docs) != 2 || docs[0].Name != "a" || docs[1].Description != "second" {
		t.Errorf("Docs = %+v", docs)
	}
}

func TestClosed(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, "h", `return 1`)
	m := New(dir)
	m.Close()
	if _, err := m.Run("h", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v", err)
	}
}
