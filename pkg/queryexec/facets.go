package queryexec

import (
	"math"
	"sort"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"

	"github.com/gridlhq/flapjack/pkg/docindex"
	"github.com/gridlhq/flapjack/pkg/types"
)

const defaultMaxValuesPerFacet = 100
const hardMaxValuesPerFacet = 1000

// addFacetRequests registers one term-count facet per requested field
// on req, reading each field's values from the _facet sub-document
// (executor/facets.rs::execute_with_facets_internal, which adds one
// FacetCollector facet per FacetRequest).
func addFacetRequests(req *bleve.SearchRequest, facetFields []string, maxValuesPerFacet int) {
	limit := maxValuesPerFacet
	if limit <= 0 {
		limit = defaultMaxValuesPerFacet
	}
	if limit > hardMaxValuesPerFacet {
		limit = hardMaxValuesPerFacet
	}

	for _, field := range facetFields {
		req.AddFacet(field, bleve.NewFacetRequest(docindex.FacetFieldPath+"."+field, limit))
	}
}

// extractFacetResults converts bleve's facet results into the response
// shape, sorted by descending count (facets.rs::extract_facet_counts
// sorts each field's counts the same way).
func extractFacetResults(facets search.FacetResults, facetFields []string) []types.FacetResult {
	out := make([]types.FacetResult, 0, len(facetFields))
	for _, field := range facetFields {
		fr, ok := facets[docindex.FacetFieldPath+"."+field]
		if !ok || fr.Terms == nil {
			out = append(out, types.FacetResult{Field: field})
			continue
		}

		values := make([]types.FacetValue, 0, len(*fr.Terms))
		for _, t := range *fr.Terms {
			values = append(values, types.FacetValue{Value: t.Term, Count: t.Count})
		}
		sort.SliceStable(values, func(i, j int) bool { return values[i].Count > values[j].Count })

		out = append(out, types.FacetResult{Field: field, Values: values})
	}
	return out
}

// applyDistinct deduplicates hits on the tenant's attributeForDistinct
// field, keeping at most distinctCount hits per key and reporting the
// number of distinct groups as the new total (facets.rs::apply_distinct).
// Hits missing the attribute entirely are dropped, matching the
// original's `_ => continue`.
func applyDistinct(hits []types.Hit, attr string, distinctCount int) ([]types.Hit, int) {
	if attr == "" || distinctCount <= 0 {
		return hits, len(hits)
	}

	seen := make(map[string]int)
	out := make([]types.Hit, 0, len(hits))
	for _, hit := range hits {
		key, ok := distinctKey(hit.Fields, attr)
		if !ok {
			continue
		}
		if seen[key] < distinctCount {
			seen[key]++
			out = append(out, hit)
		}
	}

	groupCount := 0
	if len(out) > 0 {
		groupCount = len(seen)
	}
	return out, groupCount
}

func distinctKey(fields map[string]interface{}, attr string) (string, bool) {
	v, ok := fields[attr]
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return formatDistinctFloat(t), true
	default:
		return "", false
	}
}

// formatDistinctFloat mirrors Rust's `f.round().to_string()`: round to
// the nearest integer, then render without a decimal point.
func formatDistinctFloat(f float64) string {
	return strconv.FormatFloat(math.Round(f), 'f', -1, 64)
}
