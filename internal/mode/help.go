package mode

import (
	"fmt"
	"strings"

	"github.com/dshills/burrow/internal/input/keymap"
	"github.com/dshills/burrow/internal/renderer/core"
	"github.com/dshills/burrow/internal/theme"
)

// HelpSection is a titled group of keymaps.
type HelpSection struct {
	Title   string
	Keymaps []*keymap.Keymap
}

// NewHelp creates a help view listing the bindings of each section.
func NewHelp(reg *keymap.Registry, sections ...HelpSection) *Scroll {
	var lines []Line
	for i, sec := range sections {
		if i > 0 {
			lines = append(lines, Line{})
		}
		lines = append(lines, Line{{Text: sec.Title, Color: theme.HelpHeader}})
		lines = append(lines, Plain(strings.Repeat("-", core.StringWidth(sec.Title))))
		lines = append(lines, helpLines(sec.Keymaps)...)
	}
	return NewScroll(reg, HelpKeymap, lines, ScrollOptions{})
}

// helpLines formats the bindings of kms. Keys already listed by an
// earlier keymap are shadowed and skipped.
func helpLines(kms []*keymap.Keymap) []Line {
	seen := make(map[string]bool)
	var rows []keymap.HelpLine
	for _, km := range kms {
		for _, hl := range km.Help() {
			var keys []string
			for _, k := range hl.Keys {
				if !seen[k] {
					seen[k] = true
					keys = append(keys, k)
				}
			}
			if len(keys) > 0 {
				rows = append(rows, keymap.HelpLine{Keys: keys, Description: hl.Description})
			}
		}
	}

	width := 0
	for _, r := range rows {
		width = max(width, core.StringWidth(r.KeyList()))
	}
	lines := make([]Line, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, Plain(fmt.Sprintf("%*s : %s", width, r.KeyList(), r.Description)))
	}
	return lines
}
