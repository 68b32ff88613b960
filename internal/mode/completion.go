package mode

import (
	"strings"

	"github.com/dshills/burrow/internal/input/keymap"
	"github.com/dshills/burrow/internal/renderer/core"
	"github.com/dshills/burrow/internal/theme"
)

const interstitial = "  "

// Completion lists completion candidates in right-aligned columns. When a
// prefix length is known, the character following the shared prefix is
// drawn in the completion color so the next distinguishing key stands out.
type Completion struct {
	Scroll

	items     []string
	header    string
	prefixLen int
}

// NewCompletion creates a completion popup. prefixLen < 0 disables the
// distinguishing-character highlight.
func NewCompletion(reg *keymap.Registry, items []string, header string, prefixLen int) *Completion {
	c := &Completion{items: items, header: header, prefixLen: prefixLen}
	c.initScroll(reg, CompletionKeymap)
	return c
}

// Resize relays out the columns for the new width.
func (c *Completion) Resize(rows, cols int) {
	c.Scroll.Resize(rows, cols)
	c.Update()
}

// Update rebuilds the lines for the current width.
func (c *Completion) Update() {
	_, cols := c.Size()
	c.SetLines(c.layout(cols))
}

func (c *Completion) layout(width int) []Line {
	maxLen := 0
	for _, s := range c.items {
		maxLen = max(maxLen, core.StringWidth(s))
	}
	perRow := max(1, width/(maxLen+len(interstitial)))

	var lines []Line
	if c.header != "" {
		lines = append(lines, Plain(c.header))
	}
	for i, s := range c.items {
		if i%perRow == 0 {
			lines = append(lines, Line{})
		}
		last := &lines[len(lines)-1]
		pad := strings.Repeat(" ", maxLen-core.StringWidth(s))
		runes := []rune(s)
		if c.prefixLen >= 0 && c.prefixLen < len(runes) {
			*last = append(*last,
				Segment{Text: pad + string(runes[:c.prefixLen]), Color: theme.Text},
				Segment{Text: string(runes[c.prefixLen]), Color: theme.Completion},
				Segment{Text: string(runes[c.prefixLen+1:]) + interstitial, Color: theme.Text},
			)
		} else {
			*last = append(*last, Segment{Text: pad + s + interstitial, Color: theme.Text})
		}
	}
	return lines
}

// Roll shows the next page of candidates, wrapping to the first.
func (c *Completion) Roll() {
	rows, _ := c.Size()
	if c.Top()+max(rows, 1) >= c.LineCount() {
		c.ScrollTo(0)
		return
	}
	c.scrollBy(c.page())
}
