package queryexec

import (
	"testing"

	"github.com/blevesearch/bleve/v2/search"
	"github.com/stretchr/testify/require"

	"github.com/gridlhq/flapjack/pkg/types"
)

func mkCandidate(id string, minPos int, fields map[string]interface{}) candidate {
	return candidate{
		hit:         &search.DocumentMatch{ID: id},
		fields:      fields,
		minPosition: minPos,
	}
}

func TestRankCandidates_OrdersByTier2Position(t *testing.T) {
	candidates := []candidate{
		mkCandidate("b", 5, nil),
		mkCandidate("a", 1, nil),
		mkCandidate("c", 3, nil),
	}
	rankCandidates(candidates, nil)
	require.Equal(t, []string{"a", "c", "b"}, idsOf(candidates))
}

func TestRankCandidates_TiesBrokenByObjectID(t *testing.T) {
	candidates := []candidate{
		mkCandidate("z", 1, nil),
		mkCandidate("a", 1, nil),
	}
	rankCandidates(candidates, nil)
	require.Equal(t, []string{"a", "z"}, idsOf(candidates))
}

func TestRankCandidates_CustomRankingAscending(t *testing.T) {
	candidates := []candidate{
		mkCandidate("a", 0, map[string]interface{}{"price": float64(30)}),
		mkCandidate("b", 0, map[string]interface{}{"price": float64(10)}),
	}
	rankCandidates(candidates, []types.CustomRankCriterion{{Field: "price", Direction: types.RankAsc}})
	require.Equal(t, []string{"b", "a"}, idsOf(candidates))
}

func TestRankCandidates_CustomRankingDescending(t *testing.T) {
	candidates := []candidate{
		mkCandidate("a", 0, map[string]interface{}{"price": float64(30)}),
		mkCandidate("b", 0, map[string]interface{}{"price": float64(10)}),
	}
	rankCandidates(candidates, []types.CustomRankCriterion{{Field: "price", Direction: types.RankDesc}})
	require.Equal(t, []string{"a", "b"}, idsOf(candidates))
}

func TestRankCandidates_PresentAlwaysSortsBeforeMissing(t *testing.T) {
	candidates := []candidate{
		mkCandidate("missing", 0, map[string]interface{}{}),
		mkCandidate("present", 0, map[string]interface{}{"price": float64(10)}),
	}
	// Even with descending direction, presence beats absence.
	rankCandidates(candidates, []types.CustomRankCriterion{{Field: "price", Direction: types.RankDesc}})
	require.Equal(t, []string{"present", "missing"}, idsOf(candidates))
}

func TestRankCandidates_NestedFieldPath(t *testing.T) {
	candidates := []candidate{
		mkCandidate("a", 0, map[string]interface{}{"category": map[string]interface{}{"rank": float64(2)}}),
		mkCandidate("b", 0, map[string]interface{}{"category": map[string]interface{}{"rank": float64(1)}}),
	}
	rankCandidates(candidates, []types.CustomRankCriterion{{Field: "category.rank", Direction: types.RankAsc}})
	require.Equal(t, []string{"b", "a"}, idsOf(candidates))
}

func TestTier2Position_MinimumAcrossSearchFields(t *testing.T) {
	m := &search.DocumentMatch{
		Locations: search.FieldTermLocationMap{
			"_json_search.title": search.TermLocationMap{
				"tv": []*search.Location{{Pos: 3}, {Pos: 7}},
			},
			"_json_search.brand": search.TermLocationMap{
				"tv": []*search.Location{{Pos: 1}},
			},
			"_json_exact.title": search.TermLocationMap{
				"tv": []*search.Location{{Pos: 0}},
			},
		},
	}
	require.Equal(t, 1, tier2Position(m))
}

func TestTier2Position_UnsetWhenNoSearchFieldLocations(t *testing.T) {
	m := &search.DocumentMatch{Locations: search.FieldTermLocationMap{}}
	require.Equal(t, minPositionUnset, tier2Position(m))
}

func idsOf(candidates []candidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.hit.ID
	}
	return ids
}
