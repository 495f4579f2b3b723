package queryexec

import (
	"strings"

	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/gridlhq/flapjack/pkg/filter"
	"github.com/gridlhq/flapjack/pkg/types"
)

// facetFieldSet builds the declared-facet-attribute set filter.Compile
// needs, from every attributesForFaceting entry regardless of
// decorator — plain, filterOnly, searchable and afterDistinct are all
// filterable, only the decorator's extra behavior (facet counting,
// post-distinct counting) differs.
func facetFieldSet(attrs []types.FacetAttribute) map[string]bool {
	set := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		set[a.Field] = true
	}
	return set
}

// buildFilterQuery combines the request's filters string with its
// facetFilters/numericFilters/tagFilters arrays into a single filter
// tree (AND of: the parsed `filters` string, one AND-of-ORs group per
// facetFilters level, one parsed atom per numericFilters entry, and an
// OR group over tagFilters against the reserved _tags attribute), then
// compiles it against the tenant's declared facet attributes.
func buildFilterQuery(req types.SearchRequest, facetAttrs []types.FacetAttribute) (query.Query, error) {
	var parts []*filter.Node

	if strings.TrimSpace(req.Filters) != "" {
		n, err := filter.Parse(req.Filters)
		if err != nil {
			return nil, err
		}
		parts = append(parts, n)
	}

	if n := facetFiltersNode(req.FacetFilters); n != nil {
		parts = append(parts, n)
	}

	for _, nf := range req.NumericFilters {
		n, err := filter.Parse(nf)
		if err != nil {
			return nil, err
		}
		parts = append(parts, n)
	}

	if n := tagFiltersNode(req.TagFilters); n != nil {
		parts = append(parts, n)
	}

	var root *filter.Node
	switch len(parts) {
	case 0:
		root = nil
	case 1:
		root = parts[0]
	default:
		root = &filter.Node{Kind: filter.KindAnd, Children: parts}
	}

	fields := facetFieldSet(facetAttrs)
	fields["_tags"] = true
	return filter.Compile(root, fields)
}

// facetFiltersNode turns Algolia's facetFilters ([][]string, outer AND,
// inner OR, entries of the form "attr:value" or "-attr:value" for
// negation) into a filter tree.
func facetFiltersNode(groups [][]string) *filter.Node {
	var andChildren []*filter.Node
	for _, group := range groups {
		var orChildren []*filter.Node
		for _, entry := range group {
			if n := facetFilterLeaf(entry); n != nil {
				orChildren = append(orChildren, n)
			}
		}
		switch len(orChildren) {
		case 0:
			continue
		case 1:
			andChildren = append(andChildren, orChildren[0])
		default:
			andChildren = append(andChildren, &filter.Node{Kind: filter.KindOr, Children: orChildren})
		}
	}
	switch len(andChildren) {
	case 0:
		return nil
	case 1:
		return andChildren[0]
	default:
		return &filter.Node{Kind: filter.KindAnd, Children: andChildren}
	}
}

func facetFilterLeaf(entry string) *filter.Node {
	negate := strings.HasPrefix(entry, "-")
	if negate {
		entry = entry[1:]
	}
	field, value, ok := strings.Cut(entry, ":")
	if !ok {
		return nil
	}
	kind := filter.KindEquals
	if negate {
		kind = filter.KindNotEquals
	}
	return &filter.Node{Kind: kind, Field: field, Value: filter.Value{Kind: filter.ValueText, Text: value}}
}

// optionalFilterQueries compiles each optionalFilters group (same
// "attr:value"/"-attr:value" shape as facetFilters) into its own
// query, for the caller to fold in as Should/boost clauses rather than
// Must restrictions — matching documents are preferred, non-matching
// ones are not excluded.
func optionalFilterQueries(groups [][]string, facetAttrs []types.FacetAttribute) ([]query.Query, error) {
	fields := facetFieldSet(facetAttrs)
	fields["_tags"] = true

	var queries []query.Query
	for _, group := range groups {
		n := facetFiltersNode([][]string{group})
		if n == nil {
			continue
		}
		q, err := filter.Compile(n, fields)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, nil
}

// tagFiltersNode ORs tagFilters entries into Equals/NotEquals
// comparisons against the reserved "_tags" attribute.
func tagFiltersNode(tags []string) *filter.Node {
	var children []*filter.Node
	for _, t := range tags {
		negate := strings.HasPrefix(t, "-")
		if negate {
			t = t[1:]
		}
		kind := filter.KindEquals
		if negate {
			kind = filter.KindNotEquals
		}
		children = append(children, &filter.Node{Kind: kind, Field: "_tags", Value: filter.Value{Kind: filter.ValueText, Text: t}})
	}
	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	default:
		return &filter.Node{Kind: filter.KindOr, Children: children}
	}
}
