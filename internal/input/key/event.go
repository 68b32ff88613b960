package key

import (
	"fmt"
	"unicode"
)

// Event is a single keystroke.
type Event struct {
	Key       Key
	Rune      rune
	Modifiers Modifier
}

// NewRuneEvent creates an event for a character key.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{Key: KeyRune, Rune: r, Modifiers: mods}.Normalize()
}

// NewSpecialEvent creates an event for a special key.
func NewSpecialEvent(k Key, mods Modifier) Event {
	return Event{Key: k, Modifiers: mods}.Normalize()
}

// Ctrl returns the event for Control plus the given letter.
func Ctrl(r rune) Event {
	return NewRuneEvent(r, ModCtrl)
}

// Normalize folds equivalent encodings onto one form. Shift is part of
// the character for rune keys, control letters are lowercase, and
// Shift+Tab is Backtab.
func (e Event) Normalize() Event {
	switch e.Key {
	case KeyRune:
		e.Modifiers = e.Modifiers.Without(ModShift)
		if e.Modifiers.Has(ModCtrl) {
			e.Rune = unicode.ToLower(e.Rune)
		}
	case KeyTab:
		if e.Modifiers.Has(ModShift) {
			e.Key = KeyBacktab
			e.Modifiers = e.Modifiers.Without(ModShift)
		}
	case KeyBacktab:
		e.Modifiers = e.Modifiers.Without(ModShift)
	}
	return e
}

// IsRune reports whether e is a character key.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsPrintable reports whether e inserts a printable character.
func (e Event) IsPrintable() bool {
	return e.IsRune() && e.Modifiers == ModNone && unicode.IsPrint(e.Rune)
}

// Canonical returns the normalized spec for e. Two events describe the
// same keystroke exactly when their canonical specs are equal.
func (e Event) Canonical() string {
	e = e.Normalize()
	if e.Key == KeyRune {
		if e.Modifiers == ModNone {
			if e.Rune == ' ' {
				return "<Space>"
			}
			return string(e.Rune)
		}
		return "<" + e.Modifiers.prefix() + runeName(e.Rune) + ">"
	}
	return "<" + e.Modifiers.prefix() + e.Key.String() + ">"
}

// String returns the canonical spec.
func (e Event) String() string {
	return e.Canonical()
}

// Equals reports whether e and other are the same keystroke.
func (e Event) Equals(other Event) bool {
	return e.Canonical() == other.Canonical()
}

// Matches reports whether e is the keystroke described by spec.
func (e Event) Matches(spec string) bool {
	parsed, err := Parse(spec)
	if err != nil {
		return false
	}
	return e.Equals(parsed)
}

// GoString implements fmt.GoStringer.
func (e Event) GoString() string {
	return fmt.Sprintf("key.Event{%s}", e.Canonical())
}

func runeName(r rune) string {
	switch r {
	case ' ':
		return "Space"
	case '<':
		return "lt"
	case '>':
		return "gt"
	case '-':
		return "minus"
	}
	return string(r)
}
