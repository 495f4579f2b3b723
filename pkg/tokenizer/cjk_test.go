package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCJKTokenizer_SplitsCJKIntoSingleRunes(t *testing.T) {
	tok := cjkTokenizer{}
	stream := tok.Tokenize([]byte("日本語"))
	require.Len(t, stream, 3)
	require.Equal(t, "日", string(stream[0].Term))
	require.Equal(t, "本", string(stream[1].Term))
	require.Equal(t, "語", string(stream[2].Term))
}

func TestCJKTokenizer_AlphanumericWordsStayWhole(t *testing.T) {
	tok := cjkTokenizer{}
	stream := tok.Tokenize([]byte("hello world 123"))
	require.Len(t, stream, 3)
	require.Equal(t, "hello", string(stream[0].Term))
	require.Equal(t, "world", string(stream[1].Term))
	require.Equal(t, "123", string(stream[2].Term))
}

func TestCJKTokenizer_MixedCJKAndLatin(t *testing.T) {
	tok := cjkTokenizer{}
	stream := tok.Tokenize([]byte("東京tower"))
	var terms []string
	for _, tk := range stream {
		terms = append(terms, string(tk.Term))
	}
	require.Contains(t, terms, "東")
	require.Contains(t, terms, "京")
	require.Contains(t, terms, "tower")
}

func TestCJKTokenizer_ConcatenatesHyphenatedCompound(t *testing.T) {
	tok := cjkTokenizer{}
	stream := tok.Tokenize([]byte("state-of-art"))
	var terms []string
	for _, tk := range stream {
		terms = append(terms, string(tk.Term))
	}
	require.Contains(t, terms, "state")
	require.Contains(t, terms, "of")
	require.Contains(t, terms, "art")
	require.Contains(t, terms, "stateofart")
}

func TestEdgeNgramFilter_EmitsPrefixesWithinBounds(t *testing.T) {
	f := edgeNgramFilter{min: 2, max: 20}
	tok := cjkTokenizer{}
	stream := tok.Tokenize([]byte("search"))
	out := f.Filter(stream)

	var terms []string
	for _, tk := range out {
		terms = append(terms, string(tk.Term))
	}
	require.Equal(t, []string{"se", "sea", "sear", "searc", "search"}, terms)
}

func TestEdgeNgramFilter_PassesThroughShortTokens(t *testing.T) {
	f := edgeNgramFilter{min: 2, max: 20}
	tok := cjkTokenizer{}
	stream := tok.Tokenize([]byte("a"))
	out := f.Filter(stream)
	require.Len(t, out, 1)
	require.Equal(t, "a", string(out[0].Term))
}
