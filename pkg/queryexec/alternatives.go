package queryexec

import "strings"

// TermExists reports whether token occurs verbatim (after the exact-
// match analyzer) somewhere under the given dynamic field path. The
// executor supplies an implementation backed by the tenant's
// _json_exact field; tests supply a fake set.
type TermExists func(token string) bool

const (
	minSplitTokenLen = 4
	minSplitHalfLen  = 2
	maxSplitPosition = 12
	concatWindow     = 5
	minConcatTokens  = 3
)

// generateSplitAlternatives tries, for every token of at least
// minSplitTokenLen runes, every 2-part split (both halves at least
// minSplitHalfLen runes, split position capped at
// min(maxSplitPosition, len-minSplitHalfLen)) and keeps the first split
// whose two halves both exist in the index, substituting it back into
// the full token list to produce one alternative query per splittable
// token (splitting.rs::generate_split_alternatives).
func generateSplitAlternatives(tokens []string, exists TermExists) []string {
	var alternatives []string

	for i, token := range tokens {
		runes := []rune(token)
		if len(runes) < minSplitTokenLen {
			continue
		}

		maxPos := maxSplitPosition
		if len(runes)-minSplitHalfLen < maxPos {
			maxPos = len(runes) - minSplitHalfLen
		}

		for splitAt := minSplitHalfLen; splitAt <= maxPos; splitAt++ {
			left := string(runes[:splitAt])
			right := string(runes[splitAt:])
			if len(right) < minSplitHalfLen {
				continue
			}
			if !exists(left) || !exists(right) {
				continue
			}

			rebuilt := make([]string, 0, len(tokens)+1)
			rebuilt = append(rebuilt, tokens[:i]...)
			rebuilt = append(rebuilt, left, right)
			rebuilt = append(rebuilt, tokens[i+1:]...)
			alternatives = append(alternatives, strings.Join(rebuilt, " "))
			break
		}
	}

	return alternatives
}

// generateConcatAlternatives joins adjacent token pairs among the first
// concatWindow tokens ("new" "york" -> "newyork"), and additionally
// joins every token into one word when there are at least
// minConcatTokens of them (splitting.rs::generate_concat_alternatives).
func generateConcatAlternatives(tokens []string) []string {
	if len(tokens) < 2 {
		return nil
	}

	var alternatives []string

	window := tokens
	if len(window) > concatWindow {
		window = window[:concatWindow]
	}
	for i := 0; i < len(window)-1; i++ {
		concatenated := window[i] + window[i+1]
		rebuilt := make([]string, 0, len(tokens)-1)
		rebuilt = append(rebuilt, tokens[:i]...)
		rebuilt = append(rebuilt, concatenated)
		rebuilt = append(rebuilt, tokens[i+2:]...)
		alternatives = append(alternatives, strings.Join(rebuilt, " "))
	}

	if len(tokens) >= minConcatTokens {
		alternatives = append(alternatives, strings.Join(tokens, ""))
	}

	return alternatives
}

// generateAlternatives combines both alternative-generation strategies
// (splitting.rs::generate_alternatives).
func generateAlternatives(query string, exists TermExists) []string {
	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return nil
	}

	var alternatives []string
	alternatives = append(alternatives, generateSplitAlternatives(tokens, exists)...)
	alternatives = append(alternatives, generateConcatAlternatives(tokens)...)
	return alternatives
}
