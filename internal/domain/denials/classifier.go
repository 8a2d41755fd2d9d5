package denials

import "strings"

// Classify maps a free-text denial reason to a DenialPattern. Matching is
// case-insensitive substring containment in declaration order; anything
// unmatched, including empty input, resolves to the generic "other" pattern.
// Total function, never fails.
func Classify(denialReason string) DenialPattern {
	text := strings.ToLower(denialReason)
	if text == "" {
		return otherPattern
	}

	for _, p := range patterns {
		for _, kw := range p.Keywords {
			if strings.Contains(text, kw) {
				return p
			}
		}
	}
	return otherPattern
}
