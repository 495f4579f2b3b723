package queryexec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridlhq/flapjack/pkg/docindex"
	"github.com/gridlhq/flapjack/pkg/tokenizer"
	"github.com/gridlhq/flapjack/pkg/types"
)

var _ = tokenizer.SimpleAnalyzerName

func newTestIndex(t *testing.T, docs ...types.Document) *docindex.TenantIndex {
	t.Helper()
	idx, err := docindex.Open(t.TempDir(), "shop")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	for _, d := range docs {
		require.NoError(t, idx.Upsert(d, nil))
	}
	return idx
}

func TestExpandShortQuery_EnumeratesMatchingTerms(t *testing.T) {
	idx := newTestIndex(t,
		types.Document{ID: "1", Fields: map[string]interface{}{"title": "tv stand"}},
		types.Document{ID: "2", Fields: map[string]interface{}{"title": "tv mount"}},
		types.Document{ID: "3", Fields: map[string]interface{}{"title": "radio"}},
	)
	attrs := []types.SearchableAttribute{{Name: "title"}}
	out := expandShortQuery(idx.Underlying(), "tv", attrs)
	require.Contains(t, out, docindex.SearchFieldPath+".title")
	require.NotEmpty(t, out[docindex.SearchFieldPath+".title"])
}

func TestExpandShortQuery_NoAttrsReturnsNil(t *testing.T) {
	idx := newTestIndex(t)
	require.Nil(t, expandShortQuery(idx.Underlying(), "tv", nil))
}

func TestExpandShortQuery_TokenOver2CharsReturnsNil(t *testing.T) {
	idx := newTestIndex(t)
	attrs := []types.SearchableAttribute{{Name: "title"}}
	require.Nil(t, expandShortQuery(idx.Underlying(), "abc", attrs))
}

func TestExpandShortQuery_PathCapLimitsAttributeCount(t *testing.T) {
	idx := newTestIndex(t, types.Document{ID: "1", Fields: map[string]interface{}{
		"a": "tv", "b": "tv", "c": "tv", "d": "tv",
	}})
	attrs := []types.SearchableAttribute{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}}
	out := expandShortQuery(idx.Underlying(), "t", attrs)
	require.LessOrEqual(t, len(out), shortQuery1CharPathCap)
}
