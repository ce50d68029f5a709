package intent

import (
	"iter"
	"strings"
)

// minSegmentLen is the shortest trimmed segment kept by Segment; anything
// shorter is connector debris ("a", stray digits from split artifacts).
const minSegmentLen = 2

// connectorTokens are the standalone words that separate independent order
// clauses ("a burger and two cokes", "fries instead").
var connectorTokens = map[string]struct{}{
	"and":     {},
	"plus":    {},
	"instead": {},
}

// Segment splits a multi-clause utterance into independent order segments.
//
// Boundaries are literal commas and the connector tokens "and", "plus", and
// "instead" matched as whole words only — "sandwich" is never split on the
// "and" inside it. The returned sequence is lazy, finite, and restartable;
// each yielded segment is trimmed and non-empty, and segments shorter than
// two characters are dropped as noise. Text with no connector yields exactly
// one segment equal to the whole (trimmed) input.
func Segment(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		emit := func(seg string) bool {
			seg = strings.TrimSpace(seg)
			if len(seg) < minSegmentLen {
				return true
			}
			return yield(seg)
		}

		var current strings.Builder
		for _, part := range strings.Split(text, ",") {
			for _, word := range strings.Fields(part) {
				if _, ok := connectorTokens[word]; ok {
					if !emit(current.String()) {
						return
					}
					current.Reset()
					continue
				}
				if current.Len() > 0 {
					current.WriteByte(' ')
				}
				current.WriteString(word)
			}
			// A comma closes the current segment even without a connector.
			if !emit(current.String()) {
				return
			}
			current.Reset()
		}
	}
}
