package key

import "strings"

// Sequence is an ordered list of keystrokes such as "C-x k".
type Sequence []Event

// ParseSequence parses a space separated list of key specs.
func ParseSequence(spec string) (Sequence, error) {
	fields := strings.Fields(spec)
	if len(fields) == 0 {
		return nil, ErrEmptySpec
	}
	seq := make(Sequence, 0, len(fields))
	for _, f := range fields {
		ev, err := Parse(f)
		if err != nil {
			return nil, err
		}
		seq = append(seq, ev)
	}
	return seq, nil
}

// String returns the canonical specs joined by spaces.
func (s Sequence) String() string {
	parts := make([]string, len(s))
	for i, ev := range s {
		parts[i] = ev.Canonical()
	}
	return strings.Join(parts, " ")
}

// HasPrefix reports whether prefix is a leading part of s.
func (s Sequence) HasPrefix(prefix Sequence) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i := range prefix {
		if !s[i].Equals(prefix[i]) {
			return false
		}
	}
	return true
}
