package mode

import (
	"strings"

	"github.com/dshills/burrow/internal/input/keymap"
)

// NewText creates a read-only text view of s.
func NewText(reg *keymap.Registry, s string, opts ScrollOptions) *Scroll {
	return NewScroll(reg, TextKeymap, PlainLines(strings.Split(strings.TrimRight(s, "\n"), "\n")), opts)
}
