package queryexec

import (
	"strings"

	"github.com/gridlhq/flapjack/pkg/types"
)

// englishStopWords is the 174-word English stop list (stopwords.rs).
var englishStopWords = map[string]bool{
	"a": true, "about": true, "above": true, "after": true, "again": true,
	"against": true, "all": true, "am": true, "an": true, "and": true,
	"any": true, "are": true, "aren't": true, "as": true, "at": true,
	"be": true, "because": true, "been": true, "before": true, "being": true,
	"below": true, "between": true, "both": true, "but": true, "by": true,
	"can't": true, "cannot": true, "could": true, "couldn't": true, "did": true,
	"didn't": true, "do": true, "does": true, "doesn't": true, "doing": true,
	"don't": true, "down": true, "during": true, "each": true, "few": true,
	"for": true, "from": true, "further": true, "had": true, "hadn't": true,
	"has": true, "hasn't": true, "have": true, "haven't": true, "having": true,
	"he": true, "he'd": true, "he'll": true, "he's": true, "her": true,
	"here": true, "here's": true, "hers": true, "herself": true, "him": true,
	"himself": true, "his": true, "how": true, "how's": true, "i": true,
	"i'd": true, "i'll": true, "i'm": true, "i've": true, "if": true,
	"in": true, "into": true, "is": true, "isn't": true, "it": true,
	"it's": true, "its": true, "itself": true, "let's": true, "me": true,
	"more": true, "most": true, "mustn't": true, "my": true, "myself": true,
	"no": true, "nor": true, "not": true, "of": true, "off": true,
	"on": true, "once": true, "only": true, "or": true, "other": true,
	"ought": true, "our": true, "ours": true, "ourselves": true, "out": true,
	"over": true, "own": true, "same": true, "shan't": true, "she": true,
	"she'd": true, "she'll": true, "she's": true, "should": true, "shouldn't": true,
	"so": true, "some": true, "such": true, "than": true, "that": true,
	"that's": true, "the": true, "their": true, "theirs": true, "them": true,
	"themselves": true, "then": true, "there": true, "there's": true, "these": true,
	"they": true, "they'd": true, "they'll": true, "they're": true, "they've": true,
	"this": true, "those": true, "through": true, "to": true, "too": true,
	"under": true, "until": true, "up": true, "very": true, "was": true,
	"wasn't": true, "we": true, "we'd": true, "we'll": true, "we're": true,
	"we've": true, "were": true, "weren't": true, "what": true, "what's": true,
	"when": true, "when's": true, "where": true, "where's": true, "which": true,
	"while": true, "who": true, "who's": true, "whom": true, "why": true,
	"why's": true, "with": true, "won't": true, "would": true, "wouldn't": true,
	"you": true, "you'd": true, "you'll": true, "you're": true, "you've": true,
	"your": true, "yours": true, "yourself": true, "yourselves": true,
}

// RemoveStopWordsKind is the tri-state removeStopWords setting: off,
// all supported languages, or a specific language list.
type RemoveStopWordsKind int

const (
	StopWordsDisabled RemoveStopWordsKind = iota
	StopWordsAll
	StopWordsLanguages
)

// RemoveStopWordsValue mirrors stopwords.rs's RemoveStopWordsValue: a
// bare JSON bool (true -> All, false -> Disabled) or a language array
// (-> Languages). types.Settings carries the bool form (RemoveStopWords)
// today; QueryLanguages supplies the language list when present.
type RemoveStopWordsValue struct {
	Kind      RemoveStopWordsKind
	Languages []string
}

// RemoveStopWordsFromSettings derives the tri-state value from the flattened settings
// fields the wire format actually persists.
func RemoveStopWordsFromSettings(s types.Settings) RemoveStopWordsValue {
	if len(s.QueryLanguages) > 0 {
		return RemoveStopWordsValue{Kind: StopWordsLanguages, Languages: s.QueryLanguages}
	}
	if s.RemoveStopWords {
		return RemoveStopWordsValue{Kind: StopWordsAll}
	}
	return RemoveStopWordsValue{Kind: StopWordsDisabled}
}

func (v RemoveStopWordsValue) isEnabledFor(lang string) bool {
	switch v.Kind {
	case StopWordsDisabled:
		return false
	case StopWordsAll:
		return lang == "en"
	case StopWordsLanguages:
		for _, l := range v.Languages {
			if strings.EqualFold(l, lang) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func stopWordsForLang(lang string) map[string]bool {
	if lang == "en" {
		return englishStopWords
	}
	return nil
}

// removeStopWords strips stop words from query, honoring the prefix-
// token exemption that depends on queryType: prefixAll exempts every
// token (each one is a live prefix candidate), prefixLast exempts only
// the final token when the query has no trailing space (it is still
// being typed), prefixNone exempts nothing. Falls back to the original
// query if filtering would remove every word. Trailing whitespace on
// the input is preserved on the output (stopwords.rs::remove_stop_words).
func removeStopWords(query string, setting RemoveStopWordsValue, queryType types.QueryType) string {
	if query == "" || !setting.isEnabledFor("en") {
		return query
	}

	stopWords := stopWordsForLang("en")
	if stopWords == nil {
		return query
	}

	hasTrailingSpace := strings.HasSuffix(query, " ")
	words := strings.Fields(query)
	if len(words) == 0 {
		return query
	}

	kept := make([]string, 0, len(words))
	for i, w := range words {
		isPrefixToken := false
		switch queryType {
		case types.QueryPrefixAll:
			isPrefixToken = true
		case types.QueryPrefixLast:
			isPrefixToken = i == len(words)-1 && !hasTrailingSpace
		}

		if isPrefixToken || !stopWords[strings.ToLower(w)] {
			kept = append(kept, w)
		}
	}

	if len(kept) == 0 {
		return query
	}

	result := strings.Join(kept, " ")
	if hasTrailingSpace {
		result += " "
	}
	return result
}
