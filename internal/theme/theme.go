// Package theme maps the symbolic color names used by modes to terminal
// styles.
package theme

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/burrow/internal/renderer/core"
)

// Well-known color names.
const (
	Text                = "text"
	Status              = "status"
	InactiveStatus      = "inactive_status"
	Completion          = "completion_character"
	Minibuf             = "minibuf"
	Flash               = "flash"
	Highlight           = "highlight"
	Error               = "error"
	Directory           = "directory"
	HelpHeader          = "help_header"
	HighlightSuffix     = "_highlight"
	InactiveSuffix      = "_inactive"
	defaultColorMissing = Text
)

// Spec describes one color entry as written in configuration.
type Spec struct {
	FG    string   `yaml:"fg" toml:"fg"`
	BG    string   `yaml:"bg" toml:"bg"`
	Attrs []string `yaml:"attrs" toml:"attrs"`
}

var defaults = map[string]Spec{
	Text:           {FG: "default", BG: "default"},
	Status:         {FG: "white", BG: "blue", Attrs: []string{"bold"}},
	InactiveStatus: {FG: "white", BG: "blue"},
	Completion:     {FG: "white", BG: "default", Attrs: []string{"bold"}},
	Minibuf:        {FG: "default", BG: "default"},
	Flash:          {FG: "yellow", BG: "default", Attrs: []string{"bold"}},
	Highlight:      {FG: "black", BG: "cyan"},
	Error:          {FG: "red", BG: "default", Attrs: []string{"bold"}},
	Directory:      {FG: "blue", BG: "default", Attrs: []string{"bold"}},
	HelpHeader:     {FG: "default", BG: "default", Attrs: []string{"bold", "underline"}},
}

// Theme resolves color names to styles. It is safe for concurrent use.
type Theme struct {
	mu     sync.RWMutex
	styles map[string]core.Style
}

// New builds a theme from the defaults overlaid with overrides.
func New(overrides map[string]Spec) (*Theme, error) {
	t := &Theme{}
	if err := t.Load(overrides); err != nil {
		return nil, err
	}
	return t, nil
}

// Default returns the built-in theme.
func Default() *Theme {
	t, _ := New(nil)
	return t
}

// Load replaces the theme with the defaults overlaid with overrides.
func (t *Theme) Load(overrides map[string]Spec) error {
	styles := make(map[string]core.Style, len(defaults)+len(overrides))
	for name, spec := range defaults {
		st, err := spec.style()
		if err != nil {
			return fmt.Errorf("color %s: %w", name, err)
		}
		styles[name] = st
	}
	for name, spec := range overrides {
		st, err := spec.style()
		if err != nil {
			return fmt.Errorf("color %s: %w", name, err)
		}
		styles[name] = st
	}

	t.mu.Lock()
	t.styles = styles
	t.mu.Unlock()
	return nil
}

// Style returns the style for name as drawn in the focused buffer.
// Highlighted text uses the "<name>_highlight" entry when one exists and
// reverse video otherwise. Unknown names fall back to the text style.
func (t *Theme) Style(name string, highlight bool) core.Style {
	return t.Variant(name, highlight, false)
}

// Variant is Style for a buffer that may be unfocused. An inactive
// buffer uses the "<name>_inactive" entry, and its "_highlight" form,
// when configured, and the active style otherwise.
func (t *Theme) Variant(name string, highlight, inactive bool) core.Style {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if name == "" {
		name = Text
	}
	if inactive {
		if _, ok := t.styles[name+InactiveSuffix]; ok {
			name += InactiveSuffix
		}
	}
	if highlight {
		if st, ok := t.styles[name+HighlightSuffix]; ok {
			return st
		}
	}
	st, ok := t.styles[name]
	if !ok {
		st = t.styles[defaultColorMissing]
	}
	if highlight {
		st = st.Reverse()
	}
	return st
}

func (s Spec) style() (core.Style, error) {
	fg, err := core.ParseColor(s.FG)
	if err != nil {
		return core.Style{}, err
	}
	bg, err := core.ParseColor(s.BG)
	if err != nil {
		return core.Style{}, err
	}
	st := core.Style{Foreground: fg, Background: bg}
	for _, a := range s.Attrs {
		switch strings.ToLower(a) {
		case "bold":
			st.Attributes |= core.AttrBold
		case "dim":
			st.Attributes |= core.AttrDim
		case "italic":
			st.Attributes |= core.AttrItalic
		case "underline":
			st.Attributes |= core.AttrUnderline
		case "blink":
			st.Attributes |= core.AttrBlink
		case "reverse", "standout":
			st.Attributes |= core.AttrReverse
		default:
			return core.Style{}, fmt.Errorf("unknown attribute %q", a)
		}
	}
	return st, nil
}
