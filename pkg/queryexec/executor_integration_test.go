package queryexec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridlhq/flapjack/pkg/types"
)

func TestExecutorSearch_RanksExactMatchFirst(t *testing.T) {
	idx := newTestIndex(t,
		types.Document{ID: "1", Fields: map[string]interface{}{"title": "blue running shoe"}},
		types.Document{ID: "2", Fields: map[string]interface{}{"title": "red running shoe"}},
	)
	e := &Executor{
		Index:    idx,
		Settings: types.Settings{SearchableAttributes: []types.SearchableAttribute{{Name: "title"}}},
	}

	res, err := e.Search(types.SearchRequest{Query: "red shoe", HitsPerPage: 10})
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	require.Equal(t, "2", res.Hits[0].ObjectID)
}

func TestExecutorSearch_EmptyQueryMatchesAll(t *testing.T) {
	idx := newTestIndex(t,
		types.Document{ID: "1", Fields: map[string]interface{}{"title": "a"}},
		types.Document{ID: "2", Fields: map[string]interface{}{"title": "b"}},
	)
	e := &Executor{Index: idx, Settings: types.Settings{}}

	res, err := e.Search(types.SearchRequest{HitsPerPage: 10})
	require.NoError(t, err)
	require.Len(t, res.Hits, 2)
}

func TestExecutorSearch_FiltersExcludeNonMatching(t *testing.T) {
	facetAttrs := []types.FacetAttribute{{Field: "brand", Decorator: types.FacetPlain}}
	idx := newTestIndex(t)
	require.NoError(t, idx.Upsert(types.Document{ID: "1", Fields: map[string]interface{}{"title": "shoe", "brand": "acme"}}, facetAttrs))
	require.NoError(t, idx.Upsert(types.Document{ID: "2", Fields: map[string]interface{}{"title": "shoe", "brand": "other"}}, facetAttrs))

	e := &Executor{
		Index:    idx,
		Settings: types.Settings{AttributesForFaceting: facetAttrs},
	}

	res, err := e.Search(types.SearchRequest{
		Query:        "shoe",
		FacetFilters: [][]string{{"brand:acme"}},
		HitsPerPage:  10,
	})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	require.Equal(t, "1", res.Hits[0].ObjectID)
}

func TestExecutorSearch_PaginationRespectsHitsPerPage(t *testing.T) {
	docs := make([]types.Document, 0, 5)
	for i := 0; i < 5; i++ {
		docs = append(docs, types.Document{
			ID:     string(rune('a' + i)),
			Fields: map[string]interface{}{"title": "shoe"},
		})
	}
	idx := newTestIndex(t, docs...)
	e := &Executor{Index: idx}

	res, err := e.Search(types.SearchRequest{Query: "shoe", HitsPerPage: 2, Page: 0})
	require.NoError(t, err)
	require.Len(t, res.Hits, 2)
	require.Equal(t, 2, res.HitsPerPage)
}

func TestExecutorSearch_FacetsReturnCounts(t *testing.T) {
	facetAttrs := []types.FacetAttribute{{Field: "brand", Decorator: types.FacetPlain}}
	idx := newTestIndex(t)
	require.NoError(t, idx.Upsert(types.Document{ID: "1", Fields: map[string]interface{}{"brand": "acme"}}, facetAttrs))
	require.NoError(t, idx.Upsert(types.Document{ID: "2", Fields: map[string]interface{}{"brand": "acme"}}, facetAttrs))
	require.NoError(t, idx.Upsert(types.Document{ID: "3", Fields: map[string]interface{}{"brand": "other"}}, facetAttrs))

	e := &Executor{Index: idx, Settings: types.Settings{AttributesForFaceting: facetAttrs}}
	res, err := e.Search(types.SearchRequest{Facets: []string{"brand"}, HitsPerPage: 10})
	require.NoError(t, err)
	require.Len(t, res.Facets, 1)
	require.Equal(t, "brand", res.Facets[0].Field)

	byValue := map[string]int{}
	for _, v := range res.Facets[0].Values {
		byValue[v.Value] = v.Count
	}
	require.Equal(t, 2, byValue["acme"])
	require.Equal(t, 1, byValue["other"])
}

func TestExecutorSearch_DistinctDeduplicates(t *testing.T) {
	idx := newTestIndex(t,
		types.Document{ID: "1", Fields: map[string]interface{}{"title": "shoe", "color": "red"}},
		types.Document{ID: "2", Fields: map[string]interface{}{"title": "shoe", "color": "red"}},
		types.Document{ID: "3", Fields: map[string]interface{}{"title": "shoe", "color": "blue"}},
	)
	e := &Executor{Index: idx, Settings: types.Settings{AttributeForDistinct: "color"}}
	one := 1
	res, err := e.Search(types.SearchRequest{Query: "shoe", HitsPerPage: 10, Distinct: &one})
	require.NoError(t, err)
	require.Len(t, res.Hits, 2)
}

func TestExecutorSearch_HighlightingFillsRequestedAttribute(t *testing.T) {
	idx := newTestIndex(t, types.Document{ID: "1", Fields: map[string]interface{}{"title": "blue running shoe"}})
	e := &Executor{Index: idx}
	res, err := e.Search(types.SearchRequest{
		Query:                 "running",
		AttributesToHighlight: []string{"title"},
		HitsPerPage:           10,
	})
	require.NoError(t, err)
	require.Contains(t, res.Hits[0].Highlights["title"], "<em>running</em>")
}
