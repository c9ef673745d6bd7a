// Package similarity scores how close two normalized company names are.
//
// Scoring follows trigram set similarity: each string is padded with two
// leading spaces and one trailing space, split into distinct three-character
// windows, and the score is shared trigrams over the union. Identical
// normalized names score 1.0; disjoint names score 0.
package similarity

import "strings"

// Score returns the trigram similarity of a and b in [0,1].
// Inputs are expected to be normalized already; Score does no case folding.
func Score(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}

	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}

	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}

// trigrams returns the distinct trigram set of s.
// Words are padded separately so that token order contributes less than
// token content, matching how the register's store scored candidates.
func trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(s) {
		padded := "  " + word + " "
		for i := 0; i+3 <= len(padded); i++ {
			set[padded[i:i+3]] = struct{}{}
		}
	}
	return set
}
