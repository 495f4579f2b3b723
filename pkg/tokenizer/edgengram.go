package tokenizer

import (
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"
)

// EdgeNgramFilterName is the name the edge-n-gram token filter is
// registered under.
const EdgeNgramFilterName = "edge_ngram"

const (
	edgeNgramMin = 2
	edgeNgramMax = 20
)

// edgeNgramFilter replaces each input token with every prefix of it
// from edgeNgramMin to edgeNgramMax runes (spec.md "Edge-n-gram":
// "a token pipeline emitting every prefix of each input token from
// length 2 up to a cap"). Tokens shorter than edgeNgramMin pass
// through unchanged so single-character CJK tokens still match.
type edgeNgramFilter struct {
	min, max int
}

func (f edgeNgramFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	var out analysis.TokenStream
	for _, tok := range input {
		runes := []rune(string(tok.Term))
		if len(runes) < f.min {
			out = append(out, tok)
			continue
		}

		upper := f.max
		if len(runes) < upper {
			upper = len(runes)
		}
		for n := f.min; n <= upper; n++ {
			out = append(out, &analysis.Token{
				Start:    tok.Start,
				End:      tok.End,
				Position: tok.Position,
				Type:     tok.Type,
				Term:     []byte(string(runes[:n])),
			})
		}
	}
	return out
}

func edgeNgramFilterConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	return edgeNgramFilter{min: edgeNgramMin, max: edgeNgramMax}, nil
}

func init() {
	registry.RegisterTokenFilter(EdgeNgramFilterName, edgeNgramFilterConstructor)
}
