package mode

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/burrow/internal/input/key"
	"github.com/dshills/burrow/internal/input/keymap"
)

type fakeHost struct {
	answer  string
	cancel  bool
	flashes []string
	asked   []string
}

func (h *fakeHost) ResolveInput(k key.Event, km *keymap.Keymap) keymap.Result {
	return keymap.Resolve(km, k, func(string) (key.Event, bool) { return key.Event{}, false })
}

func (h *fakeHost) Ask(domain, question, def string) (string, bool) {
	h.asked = append(h.asked, domain)
	return h.answer, !h.cancel
}

func (h *fakeHost) Flash(msg string) {
	h.flashes = append(h.flashes, msg)
}

type fakeCanvas struct {
	rows []string
	w    int
}

func newCanvas(h, w int) *fakeCanvas {
	return &fakeCanvas{rows: make([]string, h), w: w}
}

func (c *fakeCanvas) Write(row, col int, text string, opts WriteOpts) {
	if row < 0 || row >= len(c.rows) {
		return
	}
	line := []rune(c.rows[row])
	for len(line) < col {
		line = append(line, ' ')
	}
	c.rows[row] = string(line[:col]) + text
}

func (c *fakeCanvas) Width() int  { return c.w }
func (c *fakeCanvas) Height() int { return len(c.rows) }

func newRegistry(t *testing.T) *keymap.Registry {
	t.Helper()
	reg := keymap.NewRegistry()
	if err := RegisterKeymaps(reg); err != nil {
		t.Fatalf("RegisterKeymaps: %v", err)
	}
	return reg
}

func numbered(n int) []Line {
	lines := make([]Line, n)
	for i := range lines {
		lines[i] = Plain(strings.Repeat("x", i%3) + "line" + string(rune('a'+i%26)))
	}
	return lines
}

func press(t *testing.T, m Mode, h Host, spec string) keymap.Result {
	t.Helper()
	return m.HandleInput(key.MustParse(spec), h)
}

func TestScrollPaging(t *testing.T) {
	reg := newRegistry(t)
	s := NewScroll(reg, "test-mode", numbered(50), ScrollOptions{})
	s.Resize(10, 40)
	h := &fakeHost{}

	press(t, s, h, "<Space>")
	if s.Top() != 10 {
		t.Errorf("top after page down = %d", s.Top())
	}
	press(t, s, h, "k")
	if s.Top() != 9 {
		t.Errorf("top after line up = %d", s.Top())
	}
	press(t, s, h, "$")
	if s.Top() != 40 {
		t.Errorf("top after end = %d", s.Top())
	}
	press(t, s, h, "j")
	if s.Top() != 40 {
		t.Errorf("scrolled past the end: %d", s.Top())
	}
	if got := s.Status(); got != "lines 41:50/50" {
		t.Errorf("status = %q", got)
	}
	press(t, s, h, "<Home>")
	if s.Top() != 0 {
		t.Errorf("top after home = %d", s.Top())
	}

	res := press(t, s, h, "Z")
	if res.Status != keymap.NotFound {
		t.Errorf("unbound key status = %s", res.Status)
	}
}

func TestScrollDraw(t *testing.T) {
	reg := newRegistry(t)
	s := NewScroll(reg, "test-mode", PlainLines([]string{"one", "two"}), ScrollOptions{})
	c := newCanvas(3, 20)
	s.Draw(c)
	if c.rows[0] != "one" || c.rows[1] != "two" || c.rows[2] != "" {
		t.Errorf("rows = %q", c.rows)
	}
}

func TestScrollSearch(t *testing.T) {
	reg := newRegistry(t)
	lines := PlainLines([]string{"alpha", "beta", "Gamma", "delta", "gamma ray"})
	s := NewScroll(reg, "test-mode", lines, ScrollOptions{})
	s.Resize(1, 40)
	h := &fakeHost{answer: "GAMMA"}

	press(t, s, h, "/")
	if s.Top() != 2 || !s.InSearch() {
		t.Fatalf("top = %d, in search = %v", s.Top(), s.InSearch())
	}
	press(t, s, h, "n")
	if s.Top() != 4 {
		t.Errorf("top after continue = %d", s.Top())
	}
	press(t, s, h, "n")
	if s.InSearch() || len(h.flashes) != 1 || h.flashes[0] != "Not found!" {
		t.Errorf("expected not found, flashes = %v", h.flashes)
	}

	s.CancelSearch()
	press(t, s, h, "n")
	if h.flashes[len(h.flashes)-1] != "No current search!" {
		t.Errorf("flashes = %v", h.flashes)
	}
}

func TestListCursor(t *testing.T) {
	reg := newRegistry(t)
	var selected = -1
	l := NewList(reg, "pick-mode", numbered(20), ScrollOptions{}, func(_ Host, i int) { selected = i })
	l.Resize(5, 40)
	h := &fakeHost{}

	for range 6 {
		press(t, l, h, "j")
	}
	if l.Cursor() != 6 || l.Top() != 2 {
		t.Errorf("cursor = %d, top = %d", l.Cursor(), l.Top())
	}
	press(t, l, h, "<CR>")
	if selected != 6 {
		t.Errorf("selected = %d", selected)
	}
	press(t, l, h, "<Home>")
	if l.Cursor() != 0 || l.Top() != 0 {
		t.Errorf("after home cursor = %d top = %d", l.Cursor(), l.Top())
	}

	l.HandleMouseEvent(MouseEvent{Row: 3})
	if l.Cursor() != 3 {
		t.Errorf("cursor after click = %d", l.Cursor())
	}
}

func TestCompletionLayoutAndRoll(t *testing.T) {
	reg := newRegistry(t)
	items := []string{"apple", "apricot", "avocado", "banana", "blueberry", "cherry"}
	c := NewCompletion(reg, items, `Possible completions for "a": `, 1)
	c.Resize(2, 24)

	// widest item is 9 columns, plus two of spacing: two per row
	if got := c.LineCount(); got != 4 {
		t.Fatalf("line count = %d", got)
	}
	l1, _ := c.LineAt(1)
	if got := l1.String(); got != "    apple    apricot  " {
		t.Errorf("row 1 = %q", got)
	}
	if l1[1].Text != "p" || l1[1].Color != "completion_character" {
		t.Errorf("distinguishing segment = %+v", l1[1])
	}

	c.Roll()
	if c.Top() != 2 {
		t.Errorf("top after roll = %d", c.Top())
	}
	c.Roll()
	if c.Top() != 0 {
		t.Errorf("roll should wrap, top = %d", c.Top())
	}
}

func TestHelpShadowsKeys(t *testing.T) {
	reg := newRegistry(t)
	own, _ := reg.Keymap(LineCursorKeymap)
	scroll, _ := reg.Keymap(ScrollKeymap)
	h := NewHelp(reg, HelpSection{Title: "List", Keymaps: []*keymap.Keymap{own, scroll}})

	var text []string
	for i := 0; i < h.LineCount(); i++ {
		l, _ := h.LineAt(i)
		text = append(text, l.String())
	}
	joined := strings.Join(text, "\n")
	if !strings.Contains(joined, "Move cursor down one line") {
		t.Error("missing cursor binding")
	}
	if strings.Contains(joined, "Down one line") {
		t.Error("shadowed scroll binding listed")
	}
	if !strings.Contains(joined, "<Space>, <PageDown>, <C-f> : Down one page") {
		t.Errorf("help text:\n%s", joined)
	}
}

type fakeLister struct {
	infos  []BufferInfo
	raised string
	killed string
	refuse bool
}

func (f *fakeLister) BufferInfos() []BufferInfo { return f.infos }

func (f *fakeLister) RaiseTitle(title string) error {
	f.raised = title
	return nil
}

func (f *fakeLister) KillTitleSafely(title string) (bool, error) {
	if f.refuse {
		return false, nil
	}
	f.killed = title
	var kept []BufferInfo
	for _, in := range f.infos {
		if in.Title != title {
			kept = append(kept, in)
		}
	}
	f.infos = kept
	return true, nil
}

func TestBufferList(t *testing.T) {
	reg := newRegistry(t)
	fl := &fakeLister{infos: []BufferInfo{
		{Title: "inbox", Mode: "home-mode", Focused: true},
		{Title: "secret", Mode: "x", Hidden: true},
		{Title: "log", Mode: "log-mode"},
	}}
	bl := NewBufferList(reg, fl)
	if bl.LineCount() != 2 {
		t.Fatalf("hidden buffers should be skipped, got %d lines", bl.LineCount())
	}
	h := &fakeHost{}
	press(t, bl, h, "j")
	press(t, bl, h, "<CR>")
	if fl.raised != "log" {
		t.Errorf("raised %q", fl.raised)
	}

	fl.refuse = true
	press(t, bl, h, "X")
	if len(h.flashes) != 1 {
		t.Errorf("refusal not reported: %v", h.flashes)
	}
	fl.refuse = false
	press(t, bl, h, "X")
	if fl.killed != "log" || bl.LineCount() != 1 {
		t.Errorf("killed %q, lines %d", fl.killed, bl.LineCount())
	}
}

func TestFileBrowser(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "note.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := newRegistry(t)
	fb, err := NewFileBrowser(reg, dir)
	if err != nil {
		t.Fatal(err)
	}
	fb.Resize(10, 40)
	h := &fakeHost{}

	// line 0 is "../", line 1 is "sub/"
	press(t, fb, h, "j")
	press(t, fb, h, "<CR>")
	if got := fb.Dir(); filepath.Base(got) != "sub" {
		t.Fatalf("dir = %q", got)
	}
	press(t, fb, h, "j")
	press(t, fb, h, "<CR>")
	if !fb.Done() || filepath.Base(fb.Value()) != "note.txt" {
		t.Errorf("done = %v value = %q", fb.Done(), fb.Value())
	}

	fb2, _ := NewFileBrowser(reg, dir)
	press(t, fb2, h, "q")
	if !fb2.Done() || fb2.Value() != "" {
		t.Errorf("cancel: done = %v value = %q", fb2.Done(), fb2.Value())
	}
}

type staticSource []string

func (s staticSource) Lines() []string { return s }

func TestLogFollowsTail(t *testing.T) {
	reg := newRegistry(t)
	src := staticSource{"a", "b", "c", "d", "e"}
	l := NewLog(reg, src)
	l.Resize(2, 40)
	l.Update()
	if l.Top() != 3 {
		t.Errorf("top = %d, want 3", l.Top())
	}
}
