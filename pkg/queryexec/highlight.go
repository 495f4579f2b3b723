package queryexec

import (
	"strings"

	"github.com/gridlhq/flapjack/pkg/types"
)

const (
	defaultHighlightPreTag  = "<em>"
	defaultHighlightPostTag = "</em>"
	snippetWordRadius       = 10
)

// applyHighlighting fills each hit's Highlights/Snippets maps in place,
// wrapping every whitespace-delimited occurrence of a query word
// (case-insensitively) in the request's (or else the tenant's) tags.
// AttributesToSnippet additionally truncates the field to a window of
// words around the first match.
func applyHighlighting(hits []types.Hit, req types.SearchRequest, settings types.Settings) {
	if len(req.AttributesToHighlight) == 0 && len(req.AttributesToSnippet) == 0 {
		return
	}

	words := strings.Fields(strings.ToLower(req.Query))
	if len(words) == 0 {
		return
	}

	preTag := firstNonEmpty(req.HighlightPreTag, settings.HighlightPreTag, defaultHighlightPreTag)
	postTag := firstNonEmpty(req.HighlightPostTag, settings.HighlightPostTag, defaultHighlightPostTag)

	for i := range hits {
		hit := &hits[i]
		if len(req.AttributesToHighlight) > 0 {
			hit.Highlights = make(map[string]string, len(req.AttributesToHighlight))
			for _, attr := range req.AttributesToHighlight {
				if text, ok := fieldText(hit.Fields, attr); ok {
					hit.Highlights[attr] = highlightText(text, words, preTag, postTag)
				}
			}
		}
		if len(req.AttributesToSnippet) > 0 {
			hit.Snippets = make(map[string]string, len(req.AttributesToSnippet))
			for _, attr := range req.AttributesToSnippet {
				if text, ok := fieldText(hit.Fields, attr); ok {
					hit.Snippets[attr] = snippetText(text, words, preTag, postTag)
				}
			}
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func fieldText(fields map[string]interface{}, attr string) (string, bool) {
	v, ok := fields[attr]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func highlightText(text string, words []string, preTag, postTag string) string {
	terms := strings.Fields(text)
	for i, term := range terms {
		for _, w := range words {
			if strings.EqualFold(strings.Trim(term, ".,!?;:\"'()"), w) {
				terms[i] = preTag + term + postTag
				break
			}
		}
	}
	return strings.Join(terms, " ")
}

func snippetText(text string, words []string, preTag, postTag string) string {
	terms := strings.Fields(text)
	matchIdx := -1
	for i, term := range terms {
		clean := strings.Trim(term, ".,!?;:\"'()")
		for _, w := range words {
			if strings.EqualFold(clean, w) {
				matchIdx = i
				break
			}
		}
		if matchIdx >= 0 {
			break
		}
	}
	if matchIdx < 0 {
		return highlightText(text, words, preTag, postTag)
	}

	start := matchIdx - snippetWordRadius
	if start < 0 {
		start = 0
	}
	end := matchIdx + snippetWordRadius + 1
	if end > len(terms) {
		end = len(terms)
	}

	window := terms[start:end]
	snippet := highlightText(strings.Join(window, " "), words, preTag, postTag)
	if start > 0 {
		snippet = "… " + snippet
	}
	if end < len(terms) {
		snippet += " …"
	}
	return snippet
}
