package completion

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Fuzzy completes the input against candidates by subsequence match,
// best ranked first. Used where the user knows roughly what they want,
// such as jumping to a buffer by title.
func Fuzzy(candidates []string) Func {
	return func(input string) []Candidate {
		if input == "" {
			out := make([]Candidate, len(candidates))
			for i, c := range candidates {
				out[i] = Candidate{Full: c, Short: c}
			}
			return out
		}
		ranks := fuzzy.RankFindFold(input, candidates)
		sort.Stable(ranks)
		out := make([]Candidate, len(ranks))
		for i, r := range ranks {
			out[i] = Candidate{Full: r.Target, Short: r.Target}
		}
		return out
	}
}
