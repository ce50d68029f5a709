// Package intent implements the order intent engine: the deterministic
// pipeline that turns one transcribed utterance into cart mutations, a
// checkout-dialogue transition, and a reply.
//
// The engine is invoked once per utterance and holds no state of its own;
// everything mutable lives on the Session object owned by the caller. The
// caller must serialize invocations per session — one utterance is fully
// processed before the next is accepted.
//
// Processing order inside one invocation:
//
//	utterance → Normalize → Router.Route, which consults the checkout state
//	machine or runs Segment → ExtractQuantity + Matcher.Match per segment →
//	cart mutation → reply generation.
package intent

import "strings"

// Normalize canonicalizes raw utterance text: lowercases, replaces every
// character outside [a-z0-9 ] (punctuation, emoji, currency symbols) with a
// space so dropped characters still separate tokens, collapses repeated
// whitespace, and trims. Pure function; never fails.
func Normalize(raw string) string {
	var sb strings.Builder
	sb.Grow(len(raw))

	lastSpace := true // swallow leading whitespace
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			sb.WriteByte(' ')
			lastSpace = true
		}
	}

	return strings.TrimRight(sb.String(), " ")
}
