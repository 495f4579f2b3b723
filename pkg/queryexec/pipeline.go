package queryexec

import (
	"time"

	"github.com/gridlhq/flapjack/pkg/rules"
	"github.com/gridlhq/flapjack/pkg/synonyms"
	"github.com/gridlhq/flapjack/pkg/types"
)

// ProcessedQuery is the output of the query-text pipeline: the (rule-
// rewritten, stop-word-filtered) primary query text, every synonym-
// expanded variant of it (also stop-word filtered), and the rule
// object ids that fired along the way.
type ProcessedQuery struct {
	Text         string
	Variants     []string
	AppliedRules []string
}

// ProcessQueryText runs the full text pipeline a search request's query
// goes through before it becomes bleve queries: rule-driven query
// rewrite (index/rules.rs::apply_query_rewrite), synonym expansion
// (index/synonyms.rs::expand_query), then stop-word removal
// (stopwords.rs::remove_stop_words) applied independently to the
// original text and every synonym variant, since each may drop a
// different set of now-first/last tokens.
func ProcessQueryText(query string, ruleContext string, ruleStore *rules.Store, synonymStore *synonyms.Store, settings types.Settings) ProcessedQuery {
	rewritten := query
	var applied []string
	if ruleStore != nil {
		if rewrite, ok := ruleStore.ApplyQueryRewrite(query, ruleContext, time.Now()); ok {
			rewritten = rewrite
			applied = append(applied, rewriteRuleIDs(ruleStore, query, ruleContext)...)
		}
	}

	var variants []string
	if synonymStore != nil {
		variants = synonymStore.ExpandQuery(rewritten)
	} else {
		variants = []string{rewritten}
	}

	stopSetting := RemoveStopWordsFromSettings(settings)
	filtered := make([]string, len(variants))
	for i, v := range variants {
		filtered[i] = removeStopWords(v, stopSetting, settings.QueryType)
	}

	return ProcessedQuery{
		Text:         filtered[0],
		Variants:     filtered,
		AppliedRules: applied,
	}
}

// rewriteRuleIDs re-walks the store to report which enabled, in-window,
// matching rule(s) supplied the query rewrite actually used — ApplyQueryRewrite
// itself only returns the winning text, not the rule id, so this mirrors
// the lookup to surface AppliedRules for the response (§4.3.5).
func rewriteRuleIDs(store *rules.Store, queryText, context string) []string {
	var ids []string
	now := time.Now()
	for _, r := range store.All() {
		if r.Consequence.QueryRewrite == "" {
			continue
		}
		if rules.Matches(r, queryText, context, now) {
			ids = append(ids, r.ObjectID)
			break
		}
	}
	return ids
}
