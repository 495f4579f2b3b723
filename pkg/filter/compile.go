package filter

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/gridlhq/flapjack/pkg/types"
)

const (
	// MaxFilterDepth bounds the nesting depth of And/Or/Not (filter.rs's
	// MAX_FILTER_DEPTH).
	MaxFilterDepth = 10

	// MaxBooleanClauses bounds the number of leaf comparisons a single
	// filter tree may contain (filter.rs's MAX_BOOLEAN_CLAUSES).
	MaxBooleanClauses = 1000

	filterFieldPrefix = "_json_filter."
)

// Compile checks a parsed filter tree against the clause-count and
// depth limits and the declared facet-attribute set, then builds the
// bleve query that enforces it over the _json_filter document tree.
//
// facetFields must contain every field path declared in the tenant's
// attributesForFaceting (both plain and filterOnly decorators) —
// matching real Algolia semantics, an attribute is only filterable if
// it was declared for faceting. A filter referencing an undeclared
// field compiles to bleve.NewMatchNoneQuery rather than an error,
// mirroring the original's is_valid_for_facet_set short-circuit.
func Compile(node *Node, facetFields map[string]bool) (query.Query, error) {
	if node == nil {
		return bleve.NewMatchAllQuery(), nil
	}

	if n := countClauses(node); n > MaxBooleanClauses {
		return nil, types.NewError(types.ErrQueryTooComplex,
			fmt.Sprintf("filter has %d clauses, limit is %d", n, MaxBooleanClauses))
	}

	if !isValidForFacetSet(node, facetFields) {
		return bleve.NewMatchNoneQuery(), nil
	}

	return compileNode(node, 0)
}

// countClauses counts leaf comparison nodes only; And/Or/Not wrapper
// nodes are free (filter.rs's count_clauses).
func countClauses(node *Node) int {
	switch node.Kind {
	case KindAnd, KindOr:
		n := 0
		for _, c := range node.Children {
			n += countClauses(c)
		}
		return n
	case KindNot:
		return countClauses(node.Inner)
	default:
		return 1
	}
}

// isValidForFacetSet requires every leaf comparison's field to be a
// declared facet attribute, recursing through And/Or/Not unchanged
// (filter.rs's is_valid_for_facet_set). It is applied to every
// comparison kind, not just text Equals: the original only guards text
// equality because tantivy ties its filter path to the facet index,
// but Algolia itself gates ALL filterable fields — numeric and range
// comparisons included — behind attributesForFaceting, so the broader
// check here is the more spec-faithful one.
func isValidForFacetSet(node *Node, facetFields map[string]bool) bool {
	switch node.Kind {
	case KindAnd, KindOr:
		for _, c := range node.Children {
			if !isValidForFacetSet(c, facetFields) {
				return false
			}
		}
		return true
	case KindNot:
		return isValidForFacetSet(node.Inner, facetFields)
	default:
		return facetFields[node.Field]
	}
}

func compileNode(node *Node, depth int) (query.Query, error) {
	if depth > MaxFilterDepth {
		return nil, types.NewError(types.ErrQueryTooComplex,
			fmt.Sprintf("filter nesting exceeds depth limit %d", MaxFilterDepth))
	}

	switch node.Kind {
	case KindAnd:
		children := make([]query.Query, 0, len(node.Children))
		for _, c := range node.Children {
			cq, err := compileNode(c, depth+1)
			if err != nil {
				return nil, err
			}
			children = append(children, cq)
		}
		return bleve.NewConjunctionQuery(children...), nil

	case KindOr:
		children := make([]query.Query, 0, len(node.Children))
		for _, c := range node.Children {
			cq, err := compileNode(c, depth+1)
			if err != nil {
				return nil, err
			}
			children = append(children, cq)
		}
		dq := bleve.NewDisjunctionQuery(children...)
		dq.SetMin(1)
		return dq, nil

	case KindNot:
		inner, err := compileNode(node.Inner, depth+1)
		if err != nil {
			return nil, err
		}
		return negate(inner), nil

	default:
		return compileLeaf(node)
	}
}

// negate builds Must(MatchAll) + MustNot(inner), the hybrid-compiler
// translation filter.rs uses for both Filter::Not and Filter::NotEquals.
func negate(inner query.Query) query.Query {
	bq := bleve.NewBooleanQuery()
	bq.AddMust(bleve.NewMatchAllQuery())
	bq.AddMustNot(inner)
	return bq
}

func compileLeaf(node *Node) (query.Query, error) {
	field := filterFieldPrefix + node.Field

	switch node.Kind {
	case KindEquals:
		return equalsQuery(field, node.Value)

	case KindNotEquals:
		q, err := equalsQuery(field, node.Value)
		if err != nil {
			return nil, err
		}
		return negate(q), nil

	case KindGreaterThan:
		return greaterThanQuery(field, node.Value, false)

	case KindGreaterThanOrEqual:
		return greaterThanQuery(field, node.Value, true)

	case KindLessThan:
		return lessThanQuery(field, node.Value, false)

	case KindLessThanOrEqual:
		return lessThanQuery(field, node.Value, true)

	case KindRange:
		min, max := node.Min, node.Max
		return numericRangeQuery(field, &min, &max, true, true)

	default:
		return nil, types.NewError(types.ErrInvalidQuery, "unrecognized filter node")
	}
}

// equalsQuery builds an exact-match query: a term query for text
// values (the _json_filter tree is indexed with bleve's unanalyzed
// keyword analyzer, so the stored term is the raw value) or a
// single-point inclusive numeric range for numbers (filter.rs's
// format_value exact-match branch, which emits "[v TO v]").
func equalsQuery(field string, v Value) (query.Query, error) {
	switch v.Kind {
	case ValueText:
		tq := bleve.NewTermQuery(v.Text)
		tq.SetField(field)
		return tq, nil
	case ValueInteger, ValueFloat:
		f := v.AsFloat()
		return numericRangeQuery(field, &f, &f, true, true)
	default:
		return nil, types.NewError(types.ErrInvalidQuery, "unsupported equals value")
	}
}

// greaterThanQuery mirrors filter.rs's GreaterThan/GreaterThanOrEqual
// translation: an exclusive integer bound is emulated as an inclusive
// bound one past the literal (there being no fractional integers to
// land on), while an exclusive float bound is rejected outright since
// there is no such adjacent value to substitute.
func greaterThanQuery(field string, v Value, orEqual bool) (query.Query, error) {
	switch v.Kind {
	case ValueInteger:
		min := float64(v.Int)
		if !orEqual {
			min++
		}
		return numericRangeQuery(field, &min, nil, true, false)
	case ValueFloat:
		if !orEqual {
			return nil, types.NewError(types.ErrInvalidQuery,
				"exclusive '>' is not supported on float fields; use '>=' instead")
		}
		min := v.Float
		return numericRangeQuery(field, &min, nil, true, false)
	default:
		return nil, types.NewError(types.ErrInvalidQuery, "'>' requires a numeric value")
	}
}

func lessThanQuery(field string, v Value, orEqual bool) (query.Query, error) {
	switch v.Kind {
	case ValueInteger:
		max := float64(v.Int)
		if !orEqual {
			max--
		}
		return numericRangeQuery(field, nil, &max, false, true)
	case ValueFloat:
		if !orEqual {
			return nil, types.NewError(types.ErrInvalidQuery,
				"exclusive '<' is not supported on float fields; use '<=' instead")
		}
		max := v.Float
		return numericRangeQuery(field, nil, &max, false, true)
	default:
		return nil, types.NewError(types.ErrInvalidQuery, "'<' requires a numeric value")
	}
}

func numericRangeQuery(field string, min, max *float64, minInclusive, maxInclusive bool) (query.Query, error) {
	q := bleve.NewNumericRangeInclusiveQuery(min, max, &minInclusive, &maxInclusive)
	q.SetField(field)
	return q, nil
}
