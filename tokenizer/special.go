package tokenizer

import "strings"

// fragment is a piece of a segment produced by splitting on special tokens.
// special is the index of the matched special token, or -1 for ordinary text.
type fragment struct {
	value   string
	special int
}

// splitSpecialTokens splits s into fragments around every literal occurrence
// of a special token. Matching is leftmost-first; when several special tokens
// start at the same offset the one listed first wins, so "AB" claims the
// prefix of "ABC" if it appears earlier in specials. Empty special tokens are
// ignored.
func splitSpecialTokens(s string, specials []string) []fragment {
	if s == "" {
		return nil
	}

	var present []int
	for i, special := range specials {
		if special != "" && strings.Contains(s, special) {
			present = append(present, i)
		}
	}

	if len(present) == 0 {
		return []fragment{{value: s, special: -1}}
	}

	var fragments []fragment
	for s != "" {
		at, which := -1, -1
		for _, i := range present {
			idx := strings.Index(s, specials[i])
			if idx < 0 {
				continue
			}

			if at < 0 || idx < at {
				at, which = idx, i
			}
		}

		if at < 0 {
			fragments = append(fragments, fragment{value: s, special: -1})
			break
		}

		if at > 0 {
			fragments = append(fragments, fragment{value: s[:at], special: -1})
		}

		fragments = append(fragments, fragment{value: specials[which], special: which})
		s = s[at+len(specials[which]):]
	}

	return fragments
}
