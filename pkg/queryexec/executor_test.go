package queryexec

import (
	"testing"

	"github.com/blevesearch/bleve/v2/search"
	"github.com/stretchr/testify/require"

	"github.com/gridlhq/flapjack/pkg/rules"
	"github.com/gridlhq/flapjack/pkg/types"
)

func TestPaginationParams_PageAndHitsPerPage(t *testing.T) {
	offset, limit := paginationParams(types.SearchRequest{Page: 2, HitsPerPage: 10}, types.Settings{})
	require.Equal(t, 20, offset)
	require.Equal(t, 10, limit)
}

func TestPaginationParams_DefaultsHitsPerPageTo20(t *testing.T) {
	offset, limit := paginationParams(types.SearchRequest{Page: 1}, types.Settings{})
	require.Equal(t, 20, offset)
	require.Equal(t, 20, limit)
}

func TestPaginationParams_OffsetLengthStyleTakesPrecedence(t *testing.T) {
	offset, limit := paginationParams(types.SearchRequest{Offset: 5, Length: 3, Page: 2, HitsPerPage: 10}, types.Settings{})
	require.Equal(t, 5, offset)
	require.Equal(t, 3, limit)
}

func TestPaginationParams_ClampedByPaginationLimitedTo(t *testing.T) {
	offset, limit := paginationParams(types.SearchRequest{Offset: 990, Length: 50}, types.Settings{PaginationLimitedTo: 1000})
	require.Equal(t, 990, offset)
	require.Equal(t, 10, limit)
}

func TestPaginationParams_BeyondCapYieldsZeroLimit(t *testing.T) {
	offset, limit := paginationParams(types.SearchRequest{Offset: 1000, Length: 10}, types.Settings{PaginationLimitedTo: 1000})
	require.Equal(t, 1000, offset)
	require.Equal(t, 0, limit)
}

func TestToHits_CarriesScoreAndProximityRank(t *testing.T) {
	candidates := []candidate{
		{hit: &search.DocumentMatch{ID: "1", Score: 0.5}, fields: map[string]interface{}{"a": 1}, minPosition: 3},
	}
	hits := toHits(candidates)
	require.Len(t, hits, 1)
	require.Equal(t, "1", hits[0].ObjectID)
	require.Equal(t, 0.5, hits[0].RankingInfo.BaseScore)
	require.Equal(t, 3, hits[0].RankingInfo.ProximityRank)
}

func TestRemoveHidden_FiltersMatchingIDs(t *testing.T) {
	candidates := []candidate{
		{hit: &search.DocumentMatch{ID: "1"}},
		{hit: &search.DocumentMatch{ID: "2"}},
		{hit: &search.DocumentMatch{ID: "3"}},
	}
	out := removeHidden(candidates, []string{"2"})
	require.Len(t, out, 2)
	require.Equal(t, "1", out[0].hit.ID)
	require.Equal(t, "3", out[1].hit.ID)
}

func TestRemoveHidden_NoopWhenEmpty(t *testing.T) {
	candidates := []candidate{{hit: &search.DocumentMatch{ID: "1"}}}
	out := removeHidden(candidates, nil)
	require.Len(t, out, 1)
}

func TestApplyPins_MovesPromotedObjectToPosition(t *testing.T) {
	hits := []types.Hit{
		{ObjectID: "a"}, {ObjectID: "b"}, {ObjectID: "c"},
	}
	out := applyPins(hits, []rules.Pin{{ObjectID: "c", Position: 0}})
	require.Equal(t, "c", out[0].ObjectID)
	require.Equal(t, "a", out[1].ObjectID)
	require.Equal(t, "b", out[2].ObjectID)
}

func TestApplyPins_IgnoresPinForAbsentObjectID(t *testing.T) {
	hits := []types.Hit{{ObjectID: "a"}, {ObjectID: "b"}}
	out := applyPins(hits, []rules.Pin{{ObjectID: "missing", Position: 0}})
	require.Equal(t, hits, out)
}

func TestApplyPins_FirstSeenWinsOnDuplicateObjectID(t *testing.T) {
	hits := []types.Hit{{ObjectID: "a"}, {ObjectID: "b"}, {ObjectID: "c"}}
	out := applyPins(hits, []rules.Pin{
		{ObjectID: "c", Position: 1},
		{ObjectID: "c", Position: 2},
	})
	require.Equal(t, "a", out[0].ObjectID)
	require.Equal(t, "c", out[1].ObjectID)
	require.Equal(t, "b", out[2].ObjectID)
}

func TestApplyPins_NoopWhenNoPins(t *testing.T) {
	hits := []types.Hit{{ObjectID: "a"}}
	require.Equal(t, hits, applyPins(hits, nil))
}

func TestTier2PositionOrZero_ZeroWithoutTextQuery(t *testing.T) {
	m := &search.DocumentMatch{
		Locations: search.FieldTermLocationMap{
			"_json_search.title": search.TermLocationMap{"tv": []*search.Location{{Pos: 4}}},
		},
	}
	require.Equal(t, 0, tier2PositionOrZero(m, false))
}

func TestTier2PositionOrZero_DelegatesWhenTextQueryPresent(t *testing.T) {
	m := &search.DocumentMatch{
		Locations: search.FieldTermLocationMap{
			"_json_search.title": search.TermLocationMap{"tv": []*search.Location{{Pos: 4}}},
		},
	}
	require.Equal(t, 4, tier2PositionOrZero(m, true))
}

func TestDecodeSource_DecodesStoredJSONField(t *testing.T) {
	hit := &search.DocumentMatch{
		Fields: map[string]interface{}{
			"_source": `{"title":"shoe","price":9.99}`,
		},
	}
	fields := decodeSource(hit)
	require.Equal(t, "shoe", fields["title"])
	require.Equal(t, 9.99, fields["price"])
}

func TestDecodeSource_MissingSourceFieldReturnsNil(t *testing.T) {
	hit := &search.DocumentMatch{Fields: map[string]interface{}{}}
	require.Nil(t, decodeSource(hit))
}
