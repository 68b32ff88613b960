package textfield

import (
	"testing"

	"github.com/dshills/burrow/internal/completion"
	"github.com/dshills/burrow/internal/input/key"
)

func typeString(f *Field, s string) {
	for _, r := range s {
		f.HandleInput(key.NewRuneEvent(r, key.ModNone))
	}
}

func special(k key.Key) key.Event {
	return key.NewSpecialEvent(k, key.ModNone)
}

func TestEditing(t *testing.T) {
	tests := []struct {
		name string
		def  string
		keys []key.Event
		want string
	}{
		{"backspace", "abc", []key.Event{special(key.KeyBackspace)}, "ab"},
		{"home then delete", "abc", []key.Event{key.Ctrl('a'), key.Ctrl('d')}, "bc"},
		{"kill to end", "hello world", []key.Event{special(key.KeyHome), key.Ctrl('f'), key.Ctrl('k')}, "h"},
		{"kill to start", "hello", []key.Event{special(key.KeyLeft), key.Ctrl('u')}, "o"},
		{"delete word", "foo bar  ", []key.Event{key.Ctrl('w')}, "foo "},
		{"insert mid", "ac", []key.Event{key.Ctrl('b'), key.NewRuneEvent('b', key.ModNone)}, "abc"},
		{"ignores control", "x", []key.Event{key.Ctrl('z')}, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New("test")
			f.Activate("Q: ", tt.def, nil)
			for _, k := range tt.keys {
				if !f.HandleInput(k) {
					t.Fatalf("field finished early on %s", k)
				}
			}
			if got, _ := f.Value(); got != tt.want {
				t.Errorf("value = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnterAndCancel(t *testing.T) {
	f := New("search")
	f.Activate("Search: ", "", nil)
	typeString(f, "foo")
	if f.HandleInput(special(key.KeyEnter)) {
		t.Fatal("Enter should finish the field")
	}
	if v, ok := f.Value(); !ok || v != "foo" {
		t.Errorf("Value = %q, %v", v, ok)
	}

	f.Activate("Search: ", "bar", nil)
	f.Cancel()
	if v, ok := f.Value(); ok || v != "" {
		t.Errorf("canceled Value = %q, %v; want unset", v, ok)
	}
}

func TestHistory(t *testing.T) {
	f := New("search")
	for _, answer := range []string{"one", "two", "two", "  "} {
		f.Activate("? ", "", nil)
		typeString(f, answer)
		f.HandleInput(special(key.KeyEnter))
	}
	if h := f.History(); len(h) != 2 || h[0] != "one" || h[1] != "two" {
		t.Fatalf("history = %q", h)
	}

	f.Activate("? ", "", nil)
	typeString(f, "draft")
	f.HandleInput(special(key.KeyUp))
	if v, _ := f.Value(); v != "two" {
		t.Errorf("after Up = %q", v)
	}
	f.HandleInput(special(key.KeyUp))
	f.HandleInput(special(key.KeyUp))
	if v, _ := f.Value(); v != "one" {
		t.Errorf("Up past start = %q", v)
	}
	f.HandleInput(special(key.KeyDown))
	f.HandleInput(special(key.KeyDown))
	if v, _ := f.Value(); v != "draft" {
		t.Errorf("Down to end = %q, want the stashed draft", v)
	}
}

func TestTabCompletion(t *testing.T) {
	f := New("labels")
	f.Activate("Label: ", "ap", completion.Prefix([]string{"apple", "Apricot", "banana"}))

	tab := special(key.KeyTab)
	f.HandleInput(tab)
	if v, _ := f.Value(); v != "ap" {
		t.Errorf("shared prefix = %q", v)
	}
	if !f.NewCompletions() || f.RollCompletions() {
		t.Error("first Tab should produce new completions")
	}
	if n := len(f.Completions()); n != 2 {
		t.Errorf("completions = %d, want 2", n)
	}

	f.HandleInput(tab)
	if f.NewCompletions() || !f.RollCompletions() {
		t.Error("second Tab should roll")
	}

	typeString(f, "p")
	if f.NewCompletions() || f.RollCompletions() || len(f.Completions()) != 0 {
		t.Error("typing should clear completion state")
	}
	f.HandleInput(tab)
	if v, _ := f.Value(); v != "apple" {
		t.Errorf("unique completion = %q", v)
	}
	if f.NewCompletions() {
		t.Error("a single candidate should not open a list")
	}
}

func TestRenderScrolls(t *testing.T) {
	f := New("x")
	f.Activate("Q: ", "abcdefghij", nil)

	text, col := f.Render(20)
	if text != "Q: abcdefghij" || col != 13 {
		t.Errorf("Render(20) = %q, %d", text, col)
	}

	text, col = f.Render(10)
	if col >= 10 {
		t.Errorf("cursor column %d off screen", col)
	}
	if text != "Q: efghij" || col != 9 {
		t.Errorf("Render(10) = %q", text)
	}
}
