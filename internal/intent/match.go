package intent

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/giggslabs/foodchain/internal/menu"
)

const (
	// defaultMatchThreshold is the minimum 0–100 score a candidate must
	// exceed to be accepted. Spoken menu phrasing rarely matches canonical
	// names exactly, so the scorer is permissive and the threshold does the
	// gatekeeping.
	defaultMatchThreshold = 55

	// tokenEqualityThreshold is the Jaro-Winkler similarity above which two
	// tokens are treated as the same word ("chese" ≈ "cheese"). High enough
	// that "coke" and "cold" stay distinct.
	tokenEqualityThreshold = 0.85
)

// MatcherOption is a functional option for configuring a Matcher.
type MatcherOption func(*Matcher)

// WithThreshold sets the minimum score a candidate must exceed to be
// accepted. Default: 55.
func WithThreshold(threshold int) MatcherOption {
	return func(m *Matcher) { m.threshold = threshold }
}

// Matcher fuzzy-matches an order segment against the active menu.
//
// Scoring is a token-set overlap ratio: the segment and candidate are
// reduced to word sets (order and duplicates ignored), tokens are compared
// with a singularization heuristic plus Jaro-Winkler equality so common STT
// misspellings still align, and the final score is the best of the three
// token-set pairings measured by normalized Levenshtein similarity, scaled
// 0–100. Ties break by catalog order (the first candidate wins).
//
// Matcher is read-only after construction and safe for concurrent use.
type Matcher struct {
	threshold int
}

// NewMatcher returns a Matcher configured with the supplied options.
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{threshold: defaultMatchThreshold}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match scores segment against every item name in items and returns the
// highest-scoring item, its score, and whether it cleared the threshold.
// When ok is false the returned item is the zero value and must not be used:
// returning nothing is preferred over returning the closest irrelevant item.
func (m *Matcher) Match(segment string, items []menu.Item) (best menu.Item, score int, ok bool) {
	segTokens := uniqueTokens(segment)
	if len(segTokens) == 0 {
		return menu.Item{}, 0, false
	}

	bestScore := -1
	for _, it := range items {
		candTokens := uniqueTokens(it.Name)
		if len(candTokens) == 0 {
			continue
		}
		if s := tokenSetScore(segTokens, candTokens); s > bestScore {
			bestScore = s
			best = it
		}
	}

	if bestScore <= m.threshold {
		return menu.Item{}, 0, false
	}
	return best, bestScore, true
}

// uniqueTokens splits s into its sorted set of distinct words.
func uniqueTokens(s string) []string {
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		seen[w] = struct{}{}
	}
	tokens := make([]string, 0, len(seen))
	for w := range seen {
		tokens = append(tokens, w)
	}
	sort.Strings(tokens)
	return tokens
}

// tokenSetScore computes the token-set overlap ratio between two word sets.
//
// Candidate tokens matched by any segment token form the intersection; the
// leftovers on each side form the remainders. The score is the maximum
// normalized Levenshtein similarity among (intersection vs intersection +
// segment remainder), (intersection vs intersection + candidate remainder),
// and the two full strings — so a segment that fully covers the candidate
// (or vice versa) scores 100 regardless of filler words on the other side.
func tokenSetScore(segTokens, candTokens []string) int {
	segMatched := make([]bool, len(segTokens))

	var inter, candRest []string
	for _, ct := range candTokens {
		found := false
		for i, st := range segTokens {
			if tokensEqual(st, ct) {
				segMatched[i] = true
				found = true
			}
		}
		if found {
			inter = append(inter, ct)
		} else {
			candRest = append(candRest, ct)
		}
	}

	var segRest []string
	for i, st := range segTokens {
		if !segMatched[i] {
			segRest = append(segRest, st)
		}
	}

	t0 := strings.Join(inter, " ")
	t1 := joinParts(t0, segRest)
	t2 := joinParts(t0, candRest)

	score := levRatio(t1, t2)
	if len(inter) > 0 {
		if s := levRatio(t0, t1); s > score {
			score = s
		}
		if s := levRatio(t0, t2); s > score {
			score = s
		}
	}
	return score
}

// tokensEqual reports whether two words should be treated as the same token,
// allowing for plural forms and close misspellings.
func tokensEqual(a, b string) bool {
	if a == b {
		return true
	}
	if singularize(a) == b || a == singularize(b) {
		return true
	}
	return matchr.JaroWinkler(a, b, false) >= tokenEqualityThreshold
}

// singularize drops a trailing "es" or "s". Crude, but menu vocabulary is
// small and the fuzzy token comparison absorbs the misfires.
func singularize(w string) string {
	if len(w) > 3 && strings.HasSuffix(w, "es") {
		return w[:len(w)-2]
	}
	if len(w) > 2 && strings.HasSuffix(w, "s") {
		return w[:len(w)-1]
	}
	return w
}

// joinParts appends extra tokens to a joined prefix.
func joinParts(prefix string, rest []string) string {
	if len(rest) == 0 {
		return prefix
	}
	joined := strings.Join(rest, " ")
	if prefix == "" {
		return joined
	}
	return prefix + " " + joined
}

// levRatio is a normalized Levenshtein similarity between two strings,
// scaled 0–100. Two empty strings are identical (100).
func levRatio(a, b string) int {
	if a == b {
		return 100
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 100
	}
	dist := matchr.Levenshtein(a, b)
	return int(100 * (float64(longest) - float64(dist)) / float64(longest))
}
