package queryexec

import (
	"math"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2/search"

	"github.com/gridlhq/flapjack/pkg/docindex"
	"github.com/gridlhq/flapjack/pkg/types"
)

// candidate pairs a bleve hit with its decoded document fields and
// tier-2 proximity score, carried together through ranking so each
// tier only has to be computed once per candidate.
type candidate struct {
	hit         *search.DocumentMatch
	fields      map[string]interface{}
	minPosition int
}

// minPositionUnset marks a candidate whose text match could not be
// located in any _json_search field; it always sorts last within tier 2.
// Queries with no text terms at all get 0 from tier2PositionOrZero.
const minPositionUnset = math.MaxInt32

// tier2Position is the bleve-idiomatic replacement for the original's
// raw posting-list walk: with IncludeLocations set on the search
// request, every matched hit already carries each matched term's token
// position per field. The minimum such position across every
// _json_search.* field the hit matched in is the earliest place any
// query term appears in that document, which is exactly the signal
// apply_tier2_only computed by hand (relevance.rs).
func tier2Position(m *search.DocumentMatch) int {
	best := minPositionUnset
	for field, termLocs := range m.Locations {
		if !strings.HasPrefix(field, docindex.SearchFieldPath+".") && field != docindex.SearchFieldPath {
			continue
		}
		for _, locs := range termLocs {
			for _, loc := range locs {
				if int(loc.Pos) < best {
					best = int(loc.Pos)
				}
			}
		}
	}
	return best
}

// rankCandidates orders candidates by tier 2 (ascending proximity
// position), then — only when customRanking is non-empty — by each
// configured asc/desc attribute in order (a document missing the
// attribute always sorts after one that has it, regardless of
// direction), and finally by object id as a deterministic tiebreak
// (relevance.rs::apply_tier2_and_custom_ranking / apply_tier2_only).
func rankCandidates(candidates []candidate, customRanking []types.CustomRankCriterion) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]

		if a.minPosition != b.minPosition {
			return a.minPosition < b.minPosition
		}

		for _, crit := range customRanking {
			va, oka := extractRankValue(a.fields, crit.Field)
			vb, okb := extractRankValue(b.fields, crit.Field)
			if oka != okb {
				return oka // present sorts before missing, either direction
			}
			if !oka {
				continue
			}
			if cmp := compareRankValues(va, vb); cmp != 0 {
				if crit.Direction == types.RankDesc {
					return cmp > 0
				}
				return cmp < 0
			}
		}

		return a.hit.ID < b.hit.ID
	})
}

// rankValue is a dynamically-typed sort key extracted from a document's
// decoded fields, comparable only against another rankValue of the
// same underlying kind (numbers compare numerically, everything else
// falls back to string comparison, mirroring the original's
// Missing/Integer/Float/Text SortValue enum).
type rankValue struct {
	num    float64
	str    string
	isNum  bool
}

func extractRankValue(fields map[string]interface{}, path string) (rankValue, bool) {
	parts := strings.Split(path, ".")
	var cur interface{} = fields
	for _, p := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return rankValue{}, false
		}
		cur, ok = m[p]
		if !ok {
			return rankValue{}, false
		}
	}

	switch v := cur.(type) {
	case float64:
		return rankValue{num: v, isNum: true}, true
	case int:
		return rankValue{num: float64(v), isNum: true}, true
	case int64:
		return rankValue{num: float64(v), isNum: true}, true
	case string:
		return rankValue{str: v}, true
	default:
		return rankValue{}, false
	}
}

func compareRankValues(a, b rankValue) int {
	if a.isNum && b.isNum {
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a.str, b.str)
}
