package queryexec

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/gridlhq/flapjack/pkg/docindex"
	"github.com/gridlhq/flapjack/pkg/tokenizer"
	"github.com/gridlhq/flapjack/pkg/types"
)

// buildTextQuery turns processed query text into a bleve query,
// honoring queryType's prefix semantics (§4.3.1). _json_search is
// indexed with edge n-grams, so matching a token there already behaves
// like a prefix search; _json_exact holds the same tokens unexpanded,
// so matching there requires the whole word. Which field a token is
// matched against — not whether the match is literally a PrefixQuery —
// is what implements prefixAll/prefixLast/prefixNone:
//
//   - prefixAll: every token against _json_search (always prefix-live)
//   - prefixLast: every token but the last against _json_exact, the
//     last against _json_search
//   - prefixNone: every token against _json_exact
//
// Every token must match (conjunction); within one token, every
// declared searchable attribute is an alternative (disjunction,
// weighted by its configured relative weight) — or, with no
// searchableAttributes declared, the default "_all" composite field.
func buildTextQuery(queryText string, queryType types.QueryType, attrs []types.SearchableAttribute) query.Query {
	tokens := strings.Fields(queryText)
	if len(tokens) == 0 {
		return bleve.NewMatchAllQuery()
	}

	clauses := make([]query.Query, 0, len(tokens))
	for i, tok := range tokens {
		isPrefixToken := queryType == types.QueryPrefixAll ||
			(queryType == types.QueryPrefixLast && i == len(tokens)-1)

		fieldPrefix := docindex.ExactFieldPath
		if isPrefixToken {
			fieldPrefix = docindex.SearchFieldPath
		}
		clauses = append(clauses, tokenFieldQuery(tok, fieldPrefix, attrs))
	}

	if len(clauses) == 1 {
		return clauses[0]
	}
	return bleve.NewConjunctionQuery(clauses...)
}

func tokenFieldQuery(token, fieldPrefix string, attrs []types.SearchableAttribute) query.Query {
	if len(attrs) == 0 {
		mq := bleve.NewMatchQuery(token)
		mq.Analyzer = tokenizer.SimpleAnalyzerName
		return mq
	}

	clauses := make([]query.Query, 0, len(attrs))
	for _, a := range attrs {
		mq := bleve.NewMatchQuery(token)
		mq.Analyzer = tokenizer.SimpleAnalyzerName
		mq.SetField(fieldPrefix + "." + a.Name)
		if a.Weight != 0 {
			mq.SetBoost(float64(a.Weight))
		}
		clauses = append(clauses, mq)
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	dq := bleve.NewDisjunctionQuery(clauses...)
	dq.SetMin(1)
	return dq
}

// buildAlternativesQuery ORs the primary query against every typo-
// tolerance alternative (split/concat) generated for it, each still
// restricted by the same per-token field rules as the primary text
// (executor/mod.rs's expand_short_query sits alongside this same
// disjunction-of-alternatives idea, for the <=2 char case specifically).
func buildAlternativesQuery(queryText string, queryType types.QueryType, attrs []types.SearchableAttribute, alternatives []string) query.Query {
	primary := buildTextQuery(queryText, queryType, attrs)
	if len(alternatives) == 0 {
		return primary
	}

	clauses := make([]query.Query, 0, len(alternatives)+1)
	clauses = append(clauses, primary)
	for _, alt := range alternatives {
		clauses = append(clauses, buildTextQuery(alt, queryType, attrs))
	}
	dq := bleve.NewDisjunctionQuery(clauses...)
	dq.SetMin(1)
	return dq
}

// applyFilter ANDs a text query with a compiled filter query
// (executor/mod.rs::apply_filter). A nil filter is a no-op.
func applyFilter(textQuery query.Query, filterQuery query.Query) query.Query {
	if filterQuery == nil {
		return textQuery
	}
	bq := bleve.NewBooleanQuery()
	bq.AddMust(textQuery)
	bq.AddMust(filterQuery)
	return bq
}

// applyOptionalBoosts adds Should clauses for optional-filter
// sub-queries, boosting matching documents without excluding
// non-matching ones (executor/mod.rs::apply_optional_boosts).
func applyOptionalBoosts(base query.Query, optional []query.Query) query.Query {
	if len(optional) == 0 {
		return base
	}
	bq, ok := base.(*query.BooleanQuery)
	if !ok {
		bq = bleve.NewBooleanQuery()
		bq.AddMust(base)
	}
	for _, opt := range optional {
		bq.AddShould(opt)
	}
	if bq.Should != nil {
		bq.Should.SetMin(0)
	}
	return bq
}
