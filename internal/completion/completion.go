// Package completion provides the candidate generators used by minibuffer
// prompts.
//
// A Func maps the text typed so far to candidates. Each candidate carries
// the full replacement value and the short form shown in the completion
// popup.
package completion

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Candidate is one completion.
type Candidate struct {
	// Full replaces the whole input when chosen.
	Full string
	// Short is displayed in the completion list.
	Short string
}

// Func computes the candidates for the current input.
type Func func(input string) []Candidate

// Fulls returns the Full values of cs.
func Fulls(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Full
	}
	return out
}

// Shorts returns the Short values of cs.
func Shorts(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Short
	}
	return out
}

// fold is shared by every case-insensitive comparison in this package.
var fold = cases.Fold()

// HasPrefixFold reports whether s starts with prefix, ignoring case.
func HasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(fold.String(s), fold.String(prefix))
}

// SharedPrefix returns the longest prefix common to all of ss, taken from
// the first string. With caseless set, runes are compared after case
// folding.
func SharedPrefix(ss []string, caseless bool) string {
	if len(ss) == 0 {
		return ""
	}
	first := []rune(ss[0])
	n := len(first)
	for _, s := range ss[1:] {
		rs := []rune(s)
		i := 0
		for i < n && i < len(rs) && sameRune(first[i], rs[i], caseless) {
			i++
		}
		n = i
	}
	return string(first[:n])
}

func sameRune(a, b rune, caseless bool) bool {
	if a == b {
		return true
	}
	return caseless && fold.String(string(a)) == fold.String(string(b))
}

// Prefix completes the whole input against candidates.
func Prefix(candidates []string) Func {
	return func(input string) []Candidate {
		var out []Candidate
		for _, c := range candidates {
			if HasPrefixFold(c, input) {
				out = append(out, Candidate{Full: c, Short: c})
			}
		}
		return out
	}
}

var lastWord = regexp.MustCompile(`^(.*\s+)?(.*?)$`)

// SplitLastWord splits input into everything up to and including the last
// run of whitespace, and the word after it.
func SplitLastWord(input string) (prefix, target string) {
	if strings.TrimSpace(input) == "" {
		return "", ""
	}
	m := lastWord.FindStringSubmatch(input)
	if m == nil {
		return "", input
	}
	return m[1], m[2]
}

// Many completes the last whitespace-separated word of the input.
func Many(candidates []string) Func {
	return func(input string) []Candidate {
		prefix, target := SplitLastWord(input)
		var out []Candidate
		for _, c := range candidates {
			if HasPrefixFold(c, target) {
				out = append(out, Candidate{Full: prefix + c, Short: c})
			}
		}
		return out
	}
}

// SplitOnCommas splits s on commas that are not inside double quotes. The
// last element is the unterminated remainder, with leading blanks removed.
func SplitOnCommas(s string) (done []string, remainder string) {
	var cur strings.Builder
	quoted := false
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			cur.WriteRune(r)
		case r == ',' && !quoted:
			if v := strings.TrimSpace(cur.String()); v != "" {
				done = append(done, v)
			}
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return done, strings.TrimLeft(cur.String(), " \t")
}

// Contacts tells known contacts apart from other addresses.
type Contacts interface {
	IsContact(addr string) bool
}

// Emails completes the last entry of a comma-separated address list.
// Known contacts sort before other addresses.
func Emails(candidates []string, contacts Contacts) Func {
	return func(input string) []Candidate {
		done, target := SplitOnCommas(input)
		prefix := strings.Join(done, ", ")
		if prefix != "" {
			prefix += ", "
		}

		var matches []string
		for _, c := range candidates {
			if HasPrefixFold(c, target) {
				matches = append(matches, c)
			}
		}
		rank := func(c string) int {
			if contacts != nil && contacts.IsContact(c) {
				return 0
			}
			return 1
		}
		sort.SliceStable(matches, func(i, j int) bool {
			ri, rj := rank(matches[i]), rank(matches[j])
			if ri != rj {
				return ri < rj
			}
			return matches[i] < matches[j]
		})

		out := make([]Candidate, len(matches))
		for i, c := range matches {
			out[i] = Candidate{Full: prefix + c, Short: c}
		}
		return out
	}
}
