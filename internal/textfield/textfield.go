// Package textfield implements the single-line editor behind minibuffer
// questions.
//
// A Field belongs to one question domain and keeps that domain's answer
// history between activations. Tab completion is driven by a
// completion.Func: the first Tab fills in the shared prefix of the
// candidates, and further Tabs ask the caller to page through them.
package textfield

import (
	"strings"
	"sync"

	"github.com/dshills/burrow/internal/completion"
	"github.com/dshills/burrow/internal/input/key"
	"github.com/dshills/burrow/internal/renderer/core"
)

// MaxHistory bounds the per-domain history.
const MaxHistory = 200

// Field is a line editor with history and completion state.
type Field struct {
	mu sync.Mutex

	domain   string
	question string
	value    []rune
	cursor   int
	active   bool
	canceled bool

	complete        completion.Func
	completions     []completion.Candidate
	newCompletions  bool
	rollCompletions bool

	history []string
	histPos int
	stash   string
}

// New returns an inactive field for domain.
func New(domain string) *Field {
	return &Field{domain: domain}
}

// Domain returns the history domain.
func (f *Field) Domain() string {
	return f.domain
}

// Activate starts a new question with def as the initial value.
func (f *Field) Activate(question, def string, complete completion.Func) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.question = question
	f.value = []rune(def)
	f.cursor = len(f.value)
	f.active = true
	f.canceled = false
	f.complete = complete
	f.clearCompletions()
	f.histPos = len(f.history)
	f.stash = ""
}

// Deactivate ends the question.
func (f *Field) Deactivate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = false
	f.complete = nil
	f.clearCompletions()
}

// Active reports whether a question is in progress.
func (f *Field) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// Cancel abandons the question; Value then reports no answer.
func (f *Field) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled = true
	f.active = false
	f.clearCompletions()
}

// Value returns the answer. ok is false when the question was canceled.
func (f *Field) Value() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.canceled {
		return "", false
	}
	return string(f.value), true
}

// History returns a copy of the domain history, oldest first.
func (f *Field) History() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.history...)
}

// NewCompletions reports whether the last Tab produced a fresh candidate
// list to display.
func (f *Field) NewCompletions() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newCompletions
}

// RollCompletions reports whether the last Tab asked to page through the
// displayed candidates.
func (f *Field) RollCompletions() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rollCompletions
}

// Completions returns the pending candidates.
func (f *Field) Completions() []completion.Candidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]completion.Candidate(nil), f.completions...)
}

func (f *Field) clearCompletions() {
	f.completions = nil
	f.newCompletions = false
	f.rollCompletions = false
}

// HandleInput applies a keystroke. It returns false once the question is
// answered.
func (f *Field) HandleInput(k key.Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.active {
		return false
	}

	if k.Key == key.KeyTab && k.Modifiers == key.ModNone {
		f.tab()
		return true
	}
	f.clearCompletions()

	switch {
	case k.Key == key.KeyEnter:
		f.pushHistory(string(f.value))
		f.active = false
		return false
	case k.IsPrintable():
		f.insert(k.Rune)
	case k.Key == key.KeyBackspace:
		if f.cursor > 0 {
			f.value = append(f.value[:f.cursor-1], f.value[f.cursor:]...)
			f.cursor--
		}
	case k.Key == key.KeyDelete, k.Equals(key.Ctrl('d')):
		if f.cursor < len(f.value) {
			f.value = append(f.value[:f.cursor], f.value[f.cursor+1:]...)
		}
	case k.Key == key.KeyLeft, k.Equals(key.Ctrl('b')):
		if f.cursor > 0 {
			f.cursor--
		}
	case k.Key == key.KeyRight, k.Equals(key.Ctrl('f')):
		if f.cursor < len(f.value) {
			f.cursor++
		}
	case k.Key == key.KeyHome, k.Equals(key.Ctrl('a')):
		f.cursor = 0
	case k.Key == key.KeyEnd, k.Equals(key.Ctrl('e')):
		f.cursor = len(f.value)
	case k.Equals(key.Ctrl('k')):
		f.value = f.value[:f.cursor]
	case k.Equals(key.Ctrl('u')):
		f.value = append([]rune(nil), f.value[f.cursor:]...)
		f.cursor = 0
	case k.Equals(key.Ctrl('w')):
		f.deleteWord()
	case k.Key == key.KeyUp, k.Equals(key.Ctrl('p')):
		f.historyMove(-1)
	case k.Key == key.KeyDown, k.Equals(key.Ctrl('n')):
		f.historyMove(1)
	}
	return true
}

func (f *Field) tab() {
	if len(f.completions) > 0 {
		f.newCompletions = false
		f.rollCompletions = true
		return
	}
	f.rollCompletions = false
	if f.complete == nil {
		return
	}
	cs := f.complete(string(f.value))
	if len(cs) == 0 {
		return
	}
	prefix := completion.SharedPrefix(completion.Fulls(cs), true)
	f.value = []rune(prefix)
	f.cursor = len(f.value)
	if len(cs) > 1 {
		f.completions = cs
		f.newCompletions = true
	}
}

func (f *Field) insert(r rune) {
	f.value = append(f.value, 0)
	copy(f.value[f.cursor+1:], f.value[f.cursor:])
	f.value[f.cursor] = r
	f.cursor++
}

func (f *Field) deleteWord() {
	i := f.cursor
	for i > 0 && f.value[i-1] == ' ' {
		i--
	}
	for i > 0 && f.value[i-1] != ' ' {
		i--
	}
	f.value = append(f.value[:i], f.value[f.cursor:]...)
	f.cursor = i
}

func (f *Field) pushHistory(v string) {
	if strings.TrimSpace(v) == "" {
		return
	}
	if n := len(f.history); n > 0 && f.history[n-1] == v {
		return
	}
	f.history = append(f.history, v)
	if len(f.history) > MaxHistory {
		f.history = f.history[len(f.history)-MaxHistory:]
	}
}

func (f *Field) historyMove(delta int) {
	pos := f.histPos + delta
	if pos < 0 || pos > len(f.history) {
		return
	}
	if f.histPos == len(f.history) {
		f.stash = string(f.value)
	}
	f.histPos = pos
	if pos == len(f.history) {
		f.value = []rune(f.stash)
	} else {
		f.value = []rune(f.history[pos])
	}
	f.cursor = len(f.value)
}

// Render lays out the question and value in width columns. It returns
// the visible text and the screen column of the cursor. When the value
// does not fit, it scrolls so the cursor stays visible.
func (f *Field) Render(width int) (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	qw := core.StringWidth(f.question)
	avail := width - qw - 1
	if avail < 1 {
		return core.Truncate(f.question, width), width - 1
	}

	start := 0
	for core.StringWidth(string(f.value[start:f.cursor])) > avail {
		start++
	}
	visible := core.Truncate(string(f.value[start:]), avail)
	col := qw + core.StringWidth(string(f.value[start:f.cursor]))
	return f.question + visible, col
}
