package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Attribute represents text attributes (bold, reverse, ...).
type Attribute uint16

// Text attribute flags.
const (
	AttrNone      Attribute = 0
	AttrBold      Attribute = 1 << iota
	AttrDim                 // Faint/dim text
	AttrItalic              // Italic text
	AttrUnderline           // Underlined text
	AttrBlink               // Blinking text (rarely supported)
	AttrReverse             // Reverse video (swap fg/bg)
)

// Has returns true if the attribute set contains the given attribute.
func (a Attribute) Has(attr Attribute) bool {
	return a&attr != 0
}

// Color is a terminal color: the default color, one of the 256 palette
// entries, or a 24-bit RGB value.
type Color struct {
	R, G, B uint8
	// If Indexed is true, R contains the palette index.
	Indexed bool
	// Default indicates this is the terminal's default color.
	Default bool
}

// ColorDefault represents the terminal's default color.
var ColorDefault = Color{Default: true}

// ColorFromIndex creates an indexed palette color.
func ColorFromIndex(index uint8) Color {
	return Color{R: index, Indexed: true}
}

// ColorFromRGB creates a true color from RGB components.
func ColorFromRGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

var namedColors = map[string]uint8{
	"black":   0,
	"red":     1,
	"green":   2,
	"yellow":  3,
	"blue":    4,
	"magenta": 5,
	"cyan":    6,
	"white":   7,
}

// ParseColor parses "default", a basic color name (optionally prefixed
// with "bright" or "light"), a palette index such as "color208", or a
// "#rrggbb" hex value.
func ParseColor(s string) (Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch {
	case name == "" || name == "default":
		return ColorDefault, nil
	case strings.HasPrefix(name, "#"):
		return parseHex(name[1:])
	case strings.HasPrefix(name, "color"):
		n, err := strconv.ParseUint(name[len("color"):], 10, 8)
		if err != nil {
			return Color{}, fmt.Errorf("invalid palette color %q", s)
		}
		return ColorFromIndex(uint8(n)), nil
	}
	bright := false
	for _, p := range []string{"bright", "light"} {
		if strings.HasPrefix(name, p) {
			name = strings.TrimPrefix(name[len(p):], "_")
			bright = true
		}
	}
	idx, ok := namedColors[name]
	if !ok {
		return Color{}, fmt.Errorf("unknown color %q", s)
	}
	if bright {
		idx += 8
	}
	return ColorFromIndex(idx), nil
}

func parseHex(hex string) (Color, error) {
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid hex color length: %s", hex)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color: %s", hex)
	}
	return ColorFromRGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// IsDefault returns true if this is the default color.
func (c Color) IsDefault() bool {
	return c.Default
}

// String returns a string representation of the color.
func (c Color) String() string {
	switch {
	case c.Default:
		return "default"
	case c.Indexed:
		return fmt.Sprintf("color%d", c.R)
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Style represents the visual style of text.
type Style struct {
	Foreground Color
	Background Color
	Attributes Attribute
}

// DefaultStyle returns the default terminal style.
func DefaultStyle() Style {
	return Style{Foreground: ColorDefault, Background: ColorDefault}
}

// WithAttributes returns a copy of s with attrs added.
func (s Style) WithAttributes(attrs Attribute) Style {
	s.Attributes |= attrs
	return s
}

// Reverse returns a copy of s in reverse video.
func (s Style) Reverse() Style {
	return s.WithAttributes(AttrReverse)
}
