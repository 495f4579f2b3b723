package synonyms

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridlhq/flapjack/pkg/types"
)

func TestStore_InsertGetRemove(t *testing.T) {
	s := NewStore()
	s.Insert(types.Synonym{ObjectID: "s1", Type: types.SynonymRegular, Synonyms: []string{"tv", "television"}})

	syn, ok := s.Get("s1")
	require.True(t, ok)
	require.Equal(t, []string{"tv", "television"}, syn.Synonyms)

	_, ok = s.Remove("s1")
	require.True(t, ok)
	_, ok = s.Get("s1")
	require.False(t, ok)
}

func TestMatchesText_Regular(t *testing.T) {
	syn := types.Synonym{Type: types.SynonymRegular, Synonyms: []string{"tv", "television"}}
	require.True(t, MatchesText(syn, "TV"))
	require.True(t, MatchesText(syn, "vision"))
	require.False(t, MatchesText(syn, "radio"))
}

func TestMatchesText_OneWay(t *testing.T) {
	syn := types.Synonym{Type: types.SynonymOneWay, Input: "nyc", Synonyms: []string{"new york city", "new york"}}
	require.True(t, MatchesText(syn, "NYC"))
	require.True(t, MatchesText(syn, "york"))
}

func TestMatchesText_AltCorrection(t *testing.T) {
	syn := types.Synonym{Type: types.SynonymAltCorrection1, Input: "iphone", Synonyms: []string{"i phone", "ifone"}}
	require.True(t, MatchesText(syn, "ifone"))
	require.True(t, MatchesText(syn, "IPHONE"))
}

func TestMatchesText_Placeholder(t *testing.T) {
	syn := types.Synonym{Type: types.SynonymPlaceholder, Placeholder: "<model>", Synonyms: []string{"x100", "x200"}}
	require.True(t, MatchesText(syn, "x100"))
	require.True(t, MatchesText(syn, "model"))
}

func TestExpandQuery_RegularSynonymSubstitutesEachAlternative(t *testing.T) {
	s := NewStore()
	s.Insert(types.Synonym{ObjectID: "s1", Type: types.SynonymRegular, Synonyms: []string{"tv", "television"}})

	expanded := s.ExpandQuery("buy a tv now")
	require.Contains(t, expanded, "buy a tv now")
	require.Contains(t, expanded, "buy a television now")
}

func TestExpandQuery_OneWaySynonymReplacesInputPhrase(t *testing.T) {
	s := NewStore()
	s.Insert(types.Synonym{ObjectID: "s1", Type: types.SynonymOneWay, Input: "nyc", Synonyms: []string{"new york city"}})

	expanded := s.ExpandQuery("flights to NYC")
	require.Contains(t, expanded, "flights to NYC")
	require.Contains(t, expanded, "flights to new york city")
}

func TestExpandQuery_NoMatchReturnsOnlyOriginal(t *testing.T) {
	s := NewStore()
	s.Insert(types.Synonym{ObjectID: "s1", Type: types.SynonymRegular, Synonyms: []string{"tv", "television"}})

	expanded := s.ExpandQuery("buy a radio now")
	require.Equal(t, []string{"buy a radio now"}, expanded)
}

func TestExpandQuery_NeverDuplicatesVariants(t *testing.T) {
	s := NewStore()
	s.Insert(types.Synonym{ObjectID: "s1", Type: types.SynonymRegular, Synonyms: []string{"tv", "television", "telly"}})

	expanded := s.ExpandQuery("tv tv")
	seen := map[string]int{}
	for _, e := range expanded {
		seen[e]++
	}
	for _, count := range seen {
		require.Equal(t, 1, count)
	}
}

func TestStore_Search_FiltersByTypeAndQuery(t *testing.T) {
	s := NewStore()
	s.Insert(types.Synonym{ObjectID: "s1", Type: types.SynonymRegular, Synonyms: []string{"tv", "television"}})
	s.Insert(types.Synonym{ObjectID: "s2", Type: types.SynonymOneWay, Input: "nyc", Synonyms: []string{"new york"}})

	hits, total := s.Search("", types.SynonymRegular, 0, 10)
	require.Equal(t, 1, total)
	require.Equal(t, "s1", hits[0].ObjectID)

	hits, total = s.Search("york", "", 0, 10)
	require.Equal(t, 1, total)
	require.Equal(t, "s2", hits[0].ObjectID)
}

func TestStore_SaveAndLoad_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "synonyms.json")

	s := NewStore()
	s.Insert(types.Synonym{ObjectID: "s1", Type: types.SynonymRegular, Synonyms: []string{"tv", "television"}})
	s.Insert(types.Synonym{ObjectID: "s2", Type: types.SynonymPlaceholder, Placeholder: "<model>", Synonyms: []string{"x100"}})
	require.NoError(t, s.Save(path))

	reloaded, err := Load(path)
	require.NoError(t, err)

	syn, ok := reloaded.Get("s1")
	require.True(t, ok)
	require.Equal(t, []string{"tv", "television"}, syn.Synonyms)

	syn2, ok := reloaded.Get("s2")
	require.True(t, ok)
	require.Equal(t, "<model>", syn2.Placeholder)
}
