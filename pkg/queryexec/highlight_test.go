package queryexec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridlhq/flapjack/pkg/types"
)

func TestApplyHighlighting_WrapsMatchedWords(t *testing.T) {
	hits := []types.Hit{
		{ObjectID: "1", Fields: map[string]interface{}{"title": "Sony 4K TV on sale"}},
	}
	req := types.SearchRequest{Query: "tv", AttributesToHighlight: []string{"title"}}
	applyHighlighting(hits, req, types.Settings{})
	require.Equal(t, "Sony 4K <em>TV</em> on sale", hits[0].Highlights["title"])
}

func TestApplyHighlighting_UsesRequestTagsOverSettings(t *testing.T) {
	hits := []types.Hit{{ObjectID: "1", Fields: map[string]interface{}{"title": "a tv here"}}}
	req := types.SearchRequest{
		Query:                 "tv",
		AttributesToHighlight: []string{"title"},
		HighlightPreTag:       "[",
		HighlightPostTag:      "]",
	}
	applyHighlighting(hits, req, types.Settings{HighlightPreTag: "<em>", HighlightPostTag: "</em>"})
	require.Equal(t, "a [tv] here", hits[0].Highlights["title"])
}

func TestApplyHighlighting_NoopWithoutRequestedAttributes(t *testing.T) {
	hits := []types.Hit{{ObjectID: "1", Fields: map[string]interface{}{"title": "a tv here"}}}
	req := types.SearchRequest{Query: "tv"}
	applyHighlighting(hits, req, types.Settings{})
	require.Nil(t, hits[0].Highlights)
	require.Nil(t, hits[0].Snippets)
}

func TestApplyHighlighting_SnippetWindowsAroundFirstMatch(t *testing.T) {
	words := make([]string, 0, 30)
	for i := 0; i < 15; i++ {
		words = append(words, "filler")
	}
	words = append(words, "target")
	for i := 0; i < 15; i++ {
		words = append(words, "more")
	}
	text := joinWithSpaces(words)

	hits := []types.Hit{{ObjectID: "1", Fields: map[string]interface{}{"body": text}}}
	req := types.SearchRequest{Query: "target", AttributesToSnippet: []string{"body"}}
	applyHighlighting(hits, req, types.Settings{})

	snippet := hits[0].Snippets["body"]
	require.Contains(t, snippet, "<em>target</em>")
	require.True(t, snippet[:len("… ")] == "… " || snippet[:len("…")] == "…")
	require.Contains(t, snippet, "…")
}

func TestApplyHighlighting_SnippetFallsBackToFullTextWhenNoMatch(t *testing.T) {
	hits := []types.Hit{{ObjectID: "1", Fields: map[string]interface{}{"body": "no overlap here"}}}
	req := types.SearchRequest{Query: "zzz", AttributesToSnippet: []string{"body"}}
	applyHighlighting(hits, req, types.Settings{})
	require.Equal(t, "no overlap here", hits[0].Snippets["body"])
}

func TestApplyHighlighting_SkipsMissingOrNonStringField(t *testing.T) {
	hits := []types.Hit{{ObjectID: "1", Fields: map[string]interface{}{"price": 9.99}}}
	req := types.SearchRequest{Query: "tv", AttributesToHighlight: []string{"title", "price"}}
	applyHighlighting(hits, req, types.Settings{})
	_, ok := hits[0].Highlights["title"]
	require.False(t, ok)
	_, ok = hits[0].Highlights["price"]
	require.False(t, ok)
}

func joinWithSpaces(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += " "
		}
		out += w
	}
	return out
}
