package queryexec

import (
	"github.com/blevesearch/bleve/v2"

	"github.com/gridlhq/flapjack/pkg/docindex"
	"github.com/gridlhq/flapjack/pkg/types"
)

// Tight caps on how many (path, term) pairs a 1- or 2-char query may
// enumerate, bounding the resulting disjunction's clause count
// (executor/mod.rs::expand_short_query_with_searcher).
const (
	shortQuery1CharPathCap = 3
	shortQuery1CharTermCap = 20
	shortQuery2CharPathCap = 5
	shortQuery2CharTermCap = 50
)

// expandShortQuery enumerates the terms a <=2 char query could
// possibly prefix-match, directly from the index's term dictionary,
// rather than relying on the edge-n-gram field to already contain a
// same-length token (very short tokens are common enough, and
// dictionary-distinct enough, that enumerating them outright is both
// cheap and exact). Returns the expanded term list per attribute;
// callers fold these into an OR alongside the primary query. Attrs
// with no declared searchableAttributes cannot be named as bleve
// fields, so short-query expansion is skipped in that case — the
// primary n-gram match still applies, just without this extra recall.
func expandShortQuery(idx bleve.Index, token string, attrs []types.SearchableAttribute) map[string][]string {
	if len(attrs) == 0 || len(token) == 0 || len(token) > 2 {
		return nil
	}

	pathCap, termCap := shortQuery2CharPathCap, shortQuery2CharTermCap
	if len(token) == 1 {
		pathCap, termCap = shortQuery1CharPathCap, shortQuery1CharTermCap
	}
	if pathCap > len(attrs) {
		pathCap = len(attrs)
	}

	out := make(map[string][]string)
	for _, attr := range attrs[:pathCap] {
		field := docindex.SearchFieldPath + "." + attr.Name
		dict, err := idx.FieldDictPrefix(field, []byte(token))
		if err != nil {
			continue
		}
		var terms []string
		for entry, err := dict.Next(); err == nil && entry != nil && len(terms) < termCap; entry, err = dict.Next() {
			terms = append(terms, entry.Term)
		}
		_ = dict.Close()
		if len(terms) > 0 {
			out[field] = terms
		}
	}
	return out
}
