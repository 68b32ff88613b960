package key

import (
	"errors"
	"fmt"
	"strings"
)

// Parse errors.
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// Parse parses a single key spec into an Event.
func Parse(spec string) (Event, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Event{}, ErrEmptySpec
	}

	if len(spec) > 2 && strings.HasPrefix(spec, "<") && strings.HasSuffix(spec, ">") {
		return parseHyphenated(spec[1 : len(spec)-1])
	}

	if len(spec) > 1 && strings.Contains(spec, "+") {
		return parsePlus(spec)
	}

	// Console style "C-x", "M-C-x"
	if len(spec) > 2 && spec[1] == '-' && ModifierFromName(spec[:1]) != ModNone {
		return parseHyphenated(spec)
	}

	return parseKey(spec, ModNone)
}

// MustParse parses spec and panics on error. Use only for built-in
// bindings.
func MustParse(spec string) Event {
	ev, err := Parse(spec)
	if err != nil {
		panic("invalid key specification " + spec + ": " + err.Error())
	}
	return ev
}

// NormalizeSpec parses spec and returns its canonical form.
func NormalizeSpec(spec string) (string, error) {
	ev, err := Parse(spec)
	if err != nil {
		return "", err
	}
	return ev.Canonical(), nil
}

func parseHyphenated(inner string) (Event, error) {
	if inner == "" {
		return Event{}, ErrInvalidSpec
	}
	// A trailing "-" is the minus key itself, as in "C--".
	keyPart := inner
	var mods Modifier
	for {
		i := strings.Index(keyPart, "-")
		if i <= 0 || i == len(keyPart)-1 {
			break
		}
		mod := ModifierFromName(keyPart[:i])
		if mod == ModNone {
			return Event{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, keyPart[:i])
		}
		mods |= mod
		keyPart = keyPart[i+1:]
	}
	return parseKey(keyPart, mods)
}

func parsePlus(spec string) (Event, error) {
	parts := strings.Split(spec, "+")
	keyPart := parts[len(parts)-1]
	if keyPart == "" {
		// "Ctrl++"
		keyPart = "+"
		parts = parts[:len(parts)-1]
	}
	var mods Modifier
	for _, p := range parts[:len(parts)-1] {
		mod := ModifierFromName(p)
		if mod == ModNone {
			return Event{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
		mods |= mod
	}
	return parseKey(keyPart, mods)
}

func parseKey(keyPart string, mods Modifier) (Event, error) {
	if keyPart == "" {
		return Event{}, ErrInvalidSpec
	}
	runes := []rune(keyPart)
	if len(runes) == 1 {
		return NewRuneEvent(runes[0], mods), nil
	}
	lower := strings.ToLower(keyPart)
	if r, ok := runeAliases[lower]; ok {
		return NewRuneEvent(r, mods), nil
	}
	if k := KeyFromName(lower); k != KeyNone {
		return NewSpecialEvent(k, mods), nil
	}
	return Event{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, keyPart)
}
