package tokenizer

import (
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"
)

// SimpleAnalyzerName tokenizes with the CJK-aware tokenizer and
// lowercases, with no n-gram expansion. It is the query-time analyzer
// for _json_search and both the index- and query-time analyzer for
// _json_exact (spec.md §4.2: "at query time the same tokens are fed
// through a non-n-gram pipeline so queries match by prefix").
const SimpleAnalyzerName = "simple"

// EdgeNgramLowerAnalyzerName additionally expands every token into its
// edge-n-grams; it is the index-time analyzer for _json_search.
const EdgeNgramLowerAnalyzerName = "edge_ngram_lower"

func simpleAnalyzerConstructor(config map[string]interface{}, cache *registry.Cache) (*analysis.Analyzer, error) {
	tokenizer, err := cache.TokenizerNamed(CJKTokenizerName)
	if err != nil {
		return nil, err
	}
	lowercase, err := cache.TokenFilterNamed("lowercase")
	if err != nil {
		return nil, err
	}
	return &analysis.Analyzer{
		Tokenizer:    tokenizer,
		TokenFilters: []analysis.TokenFilter{lowercase},
	}, nil
}

func edgeNgramLowerAnalyzerConstructor(config map[string]interface{}, cache *registry.Cache) (*analysis.Analyzer, error) {
	tokenizer, err := cache.TokenizerNamed(CJKTokenizerName)
	if err != nil {
		return nil, err
	}
	lowercase, err := cache.TokenFilterNamed("lowercase")
	if err != nil {
		return nil, err
	}
	edgeNgram, err := cache.TokenFilterNamed(EdgeNgramFilterName)
	if err != nil {
		return nil, err
	}
	return &analysis.Analyzer{
		Tokenizer:    tokenizer,
		TokenFilters: []analysis.TokenFilter{lowercase, edgeNgram},
	}, nil
}

func init() {
	registry.RegisterAnalyzer(SimpleAnalyzerName, simpleAnalyzerConstructor)
	registry.RegisterAnalyzer(EdgeNgramLowerAnalyzerName, edgeNgramLowerAnalyzerConstructor)
}
