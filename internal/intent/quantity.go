package intent

import (
	"strconv"
	"strings"
)

// defaultQuantity is assumed when a segment carries no usable quantity.
const defaultQuantity = 1

// numberWords maps spoken number words to values. The table is bilingual:
// English one..five plus the transliterated Hindi forms heard from the
// kiosk's STT ("do samosa" = two samosas).
var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"ek": 1, "do": 2, "teen": 3, "char": 4, "panch": 5,
}

// ExtractQuantity recovers an integer quantity from one order segment.
//
// Priority: (1) the first run of decimal digits, parsed as an integer;
// (2) the first whole word that appears in the bilingual number-word table;
// (3) the default of 1. Only the first match by priority wins — multiple
// number mentions in one segment are never summed.
func ExtractQuantity(segment string) int {
	// Digit runs take priority over words anywhere in the segment.
	if n, ok := firstDigitRun(segment); ok {
		return n
	}

	for _, word := range strings.Fields(segment) {
		if n, ok := numberWords[word]; ok {
			return n
		}
	}
	return defaultQuantity
}

// firstDigitRun parses the first maximal run of ASCII digits in s.
func firstDigitRun(s string) (int, bool) {
	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		// Overflow on an absurd digit run; treat as no quantity.
		return 0, false
	}
	return n, true
}
