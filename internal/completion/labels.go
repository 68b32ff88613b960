package completion

import (
	"sort"
	"strings"
)

// LabelSet parses a whitespace-separated label list into a set, keeping
// first-seen order.
func LabelSet(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range strings.Fields(s) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// Labels completes the last word against the known labels, leaving out
// the ones in exclude.
func Labels(known []string, exclude []string) Func {
	skip := make(map[string]bool, len(exclude))
	for _, l := range exclude {
		skip[l] = true
	}
	var usable []string
	for _, l := range known {
		if !skip[l] {
			usable = append(usable, l)
		}
	}
	sort.Strings(usable)
	return Many(usable)
}
