// Package suggest produces "did you mean" hints for name-resolution
// errors by fuzzy-matching an unresolved name against every name visible
// in the symbol table, using Jaro-Winkler similarity. Grounded on
// xrash/smetrics, pulled in (as an indirect dependency of a cobra/viper
// style CLI stack) by gaarutyunov-guix's go.mod and exercised here
// directly for the CLI's diagnostic output.
package suggest

import "github.com/xrash/smetrics"

// threshold is the minimum Jaro-Winkler score (0..1) for a candidate to be
// offered as a suggestion.
const threshold = 0.7

// Best returns the candidate most similar to name, or "" if none clears
// threshold.
func Best(name string, candidates []string) string {
	best := ""
	bestScore := threshold
	for _, c := range candidates {
		score := smetrics.JaroWinkler(name, c, 0.7, 4)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best
}
