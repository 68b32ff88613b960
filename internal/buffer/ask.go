package buffer

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/dshills/burrow/internal/completion"
	"github.com/dshills/burrow/internal/input/key"
	"github.com/dshills/burrow/internal/mode"
	"github.com/dshills/burrow/internal/renderer/core"
	"github.com/dshills/burrow/internal/textfield"
)

// CompletionsTitle is the title of the completion popup.
const CompletionsTitle = "<completions>"

func (m *Manager) field(domain string) *textfield.Field {
	m.fieldsMu.Lock()
	defer m.fieldsMu.Unlock()
	f, ok := m.textfields[domain]
	if !ok {
		f = textfield.New(domain)
		m.textfields[domain] = f
	}
	return f
}

// Asking reports whether a prompt is active.
func (m *Manager) Asking() bool {
	return m.asking.Load()
}

// Ask reads a line on the bottom row of the screen. Each domain keeps
// its own history. Tab completes through complete when it is set: the
// first Tab fills in the common prefix and lists the candidates in a
// popup buffer, further Tabs page through the list. ok is false when the
// user cancels.
func (m *Manager) Ask(domain, question, def string, complete completion.Func) (answer string, ok bool, err error) {
	if !m.asking.CompareAndSwap(false, true) {
		return "", false, ErrPromptActive
	}
	if cols, _ := m.backend.Size(); cols <= core.StringWidth(question) {
		m.asking.Store(false)
		return "", false, fmt.Errorf("%w: %q", ErrQuestionTooLong, question)
	}

	tf := m.field(domain)
	tf.Activate(question, def, complete)
	m.setPrompt(prompt{field: tf})
	m.markDirty()
	m.logDraw(m.DrawScreen(DrawOptions{Refresh: true}))

	var popup *Buffer
	for {
		k, ok := m.GetKey()
		if !ok {
			continue
		}
		if k.Equals(m.CancelKey()) {
			tf.Cancel()
			break
		}
		if !tf.HandleInput(k) {
			break
		}

		switch {
		case tf.NewCompletions():
			if popup != nil {
				m.killPopup(popup)
			}
			popup = m.spawnCompletions(tf)
			m.logDraw(m.DrawScreen(DrawOptions{SkipMinibuf: true}))
		case tf.RollCompletions() && popup != nil:
			if c, ok := popup.mode.(*mode.Completion); ok {
				c.Roll()
			}
			popup.MarkDirty()
			m.logDraw(m.DrawScreen(DrawOptions{SkipMinibuf: true}))
		}
		m.logDraw(m.DrawMinibuf(true))
	}

	if popup != nil {
		m.killPopup(popup)
	}
	m.markDirty()
	tf.Deactivate()
	m.setPrompt(prompt{})
	m.asking.Store(false)
	m.backend.HideCursor()
	m.logDraw(m.DrawScreen(DrawOptions{Refresh: true}))

	answer, ok = tf.Value()
	return answer, ok, nil
}

func (m *Manager) spawnCompletions(tf *textfield.Field) *Buffer {
	shorts := completion.Shorts(tf.Completions())
	prefixLen := len([]rune(completion.SharedPrefix(shorts, true)))
	value, _ := tf.Value()
	header := `Possible completions for "` + value + `": `
	cm := mode.NewCompletion(m.registry, shorts, header, prefixLen)
	b, err := m.Spawn(CompletionsTitle, cm, SpawnOptions{})
	if err != nil {
		m.log.Warn("completion popup: %v", err)
		return nil
	}
	return b
}

func (m *Manager) killPopup(b *Buffer) {
	if _, err := m.kill(b, true); err != nil {
		m.log.Warn("completion popup: %v", err)
	}
}

// AskGetch shows question and waits for a single key. With accept set,
// only keys whose character is in accept are taken. ok is false when the
// user cancels.
func (m *Manager) AskGetch(question, accept string) (k key.Event, ok bool, err error) {
	if !m.asking.CompareAndSwap(false, true) {
		return key.Event{}, false, ErrPromptActive
	}
	m.setPrompt(prompt{question: question})
	m.logDraw(m.DrawScreen(DrawOptions{Refresh: true}))

	for {
		got, present := m.GetKey()
		if !present {
			continue
		}
		if got.Equals(m.CancelKey()) {
			break
		}
		if accept == "" || (got.IsRune() && got.Modifiers == key.ModNone && strings.ContainsRune(accept, got.Rune)) {
			k, ok = got, true
			break
		}
	}

	m.setPrompt(prompt{})
	m.asking.Store(false)
	m.backend.HideCursor()
	m.logDraw(m.DrawScreen(DrawOptions{Refresh: true}))
	return k, ok, nil
}

// AskYesOrNo asks a y/n question. answered is false when the user
// cancels.
func (m *Manager) AskYesOrNo(question string) (yes, answered bool, err error) {
	k, ok, err := m.AskGetch(question, "ynYN")
	if err != nil || !ok {
		return false, false, err
	}
	return k.Rune == 'y' || k.Rune == 'Y', true, nil
}

// AskWithCompletions asks with completion against a fixed list.
func (m *Manager) AskWithCompletions(domain, question string, completions []string, def string) (string, bool, error) {
	return m.Ask(domain, question, def, completion.Prefix(completions))
}

// AskManyWithCompletions asks for a space-separated list, completing the
// last word.
func (m *Manager) AskManyWithCompletions(domain, question string, completions []string, def string) (string, bool, error) {
	return m.Ask(domain, question, def, completion.Many(completions))
}

// AskManyEmailsWithCompletions asks for a comma-separated address list,
// completing the last address with known contacts first.
func (m *Manager) AskManyEmailsWithCompletions(domain, question string, completions []string, def string) (string, bool, error) {
	var contacts completion.Contacts
	if m.contacts != nil {
		contacts = m.contacts
	}
	return m.Ask(domain, question, def, completion.Emails(completions, contacts))
}

// AskForBuffer asks for a buffer title, matching loosely.
func (m *Manager) AskForBuffer(domain, question string) (*Buffer, bool, error) {
	var titles []string
	for _, info := range m.BufferInfos() {
		titles = append(titles, info.Title)
	}
	answer, ok, err := m.Ask(domain, question, "", completion.Fuzzy(titles))
	if err != nil || !ok {
		return nil, false, err
	}
	if b := m.Get(answer); b != nil {
		return b, true, nil
	}
	if matches := completion.Fuzzy(titles)(answer); len(matches) > 0 {
		return m.Get(matches[0].Full), true, nil
	}
	m.Flash(fmt.Sprintf("No buffer matches %q", answer))
	return nil, false, nil
}

// AskForFilename asks for a path with filename completion. An empty
// answer, or a directory when allowDirectory is false, opens a file
// browser instead. The result is an absolute path.
func (m *Manager) AskForFilename(domain, question, def string, allowDirectory bool) (string, bool, error) {
	answer, ok, err := m.Ask(domain, question, def, completion.Filename(m.users))
	if err != nil || !ok {
		return "", false, err
	}
	if answer == "" {
		return m.browseFiles("")
	}
	path, err := completion.ExpandPath(answer, m.users)
	if err != nil {
		return "", false, err
	}
	if fi, err := os.Stat(path); err == nil && fi.IsDir() && !allowDirectory {
		return m.browseFiles(path)
	}
	return path, true, nil
}

func (m *Manager) browseFiles(dir string) (string, bool, error) {
	fb, err := mode.NewFileBrowser(m.registry, dir)
	if err != nil {
		return "", false, err
	}
	v, err := SpawnModal[string](m, "file browser", fb, SpawnOptions{})
	if err != nil {
		return "", false, err
	}
	return v, v != "", nil
}

// AskForLabels asks for a set of labels. Labels in forbidden, and the
// reserved labels, are dropped from the default and rejected in the
// answer with a flash.
func (m *Manager) AskForLabels(domain, question string, defaults, forbidden []string) ([]string, bool, error) {
	var reserved, known []string
	if m.labels != nil {
		reserved = m.labels.Reserved()
		known = m.labels.UserLabels()
	}
	blocked := func(l string) bool {
		return slices.Contains(forbidden, l) || slices.Contains(reserved, l)
	}

	var keep []string
	for _, l := range defaults {
		if !blocked(l) {
			keep = append(keep, l)
		}
	}
	def := strings.Join(keep, " ")
	if def != "" {
		def += " "
	}

	answer, ok, err := m.Ask(domain, question, def, completion.Labels(known, forbidden))
	if err != nil || !ok {
		return nil, false, err
	}
	labels := completion.LabelSet(answer)
	for _, l := range labels {
		if blocked(l) {
			m.Flash(fmt.Sprintf("'%s' is a reserved label!", l))
			return nil, false, nil
		}
	}
	return labels, true, nil
}

// AskForContacts asks for a comma-separated list of addresses, completing
// from the contact source and the extra-contact-addresses hook.
func (m *Manager) AskForContacts(domain, question string, defaults []string) ([]string, bool, error) {
	def := strings.Join(defaults, ", ")
	if def != "" {
		def += ", "
	}

	var candidates []string
	if m.contacts != nil {
		candidates = append(candidates, m.contacts.Addresses()...)
	}
	if v, ok := m.runHook(HookExtraContactAddresses, func() map[string]any { return nil }); ok {
		candidates = append(candidates, toStrings(v)...)
	}
	candidates = uniq(candidates)

	answer, ok, err := m.AskManyEmailsWithCompletions(domain, question, candidates, def)
	if err != nil || !ok {
		return nil, false, err
	}
	done, rest := completion.SplitOnCommas(answer)
	if rest = strings.TrimSpace(rest); rest != "" {
		done = append(done, rest)
	}
	return done, true, nil
}

func toStrings(v any) []string {
	switch x := v.(type) {
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{x}
	}
	return nil
}

func uniq(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	out := ss[:0]
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
