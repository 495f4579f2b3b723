package tokenizer

import (
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"
)

// CJKTokenizerName is the name the CJK-aware tokenizer is registered
// under in bleve's registry.
const CJKTokenizerName = "cjk"

// cjkTokenizer splits CJK characters into individual single-rune
// tokens (no dictionary segmentation: ported verbatim from the
// engine's intent, see original_source/engine/src/tokenizer/
// cjk_tokenizer.rs), alphanumeric runs into ordinary words, and
// additionally emits a concatenated token for runs of 2+ alphanumeric
// words separated only by intra-word punctuation (e.g. "state-of-art"
// also yields "stateofart"), so hyphenated/punctuated compounds are
// findable as a single search term.
type cjkTokenizer struct{}

func isCJK(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF,
		r >= 0x3400 && r <= 0x4DBF,
		r >= 0xF900 && r <= 0xFAFF,
		r >= 0x2E80 && r <= 0x2EFF,
		r >= 0x3000 && r <= 0x303F,
		r >= 0x3040 && r <= 0x309F,
		r >= 0x30A0 && r <= 0x30FF,
		r >= 0x31F0 && r <= 0x31FF,
		r >= 0xAC00 && r <= 0xD7AF,
		r >= 0x1100 && r <= 0x11FF,
		r >= 0x20000 && r <= 0x2A6DF,
		r >= 0x2A700 && r <= 0x2B73F,
		r >= 0x2B740 && r <= 0x2B81F,
		r >= 0x2B820 && r <= 0x2CEAF:
		return true
	default:
		return false
	}
}

func isIntraWordSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) && !isCJK(r) && r != 0
}

// Tokenize implements analysis.Tokenizer.
func (cjkTokenizer) Tokenize(input []byte) analysis.TokenStream {
	runes := []rune(string(input))
	var tokens analysis.TokenStream
	position := 1

	var pendingStart int
	var pendingTerm []byte
	pendingParts := 0
	sawSeparator := false
	havePending := false

	byteOffset := func(runeIdx int) int {
		return len(string(runes[:runeIdx]))
	}

	flushPending := func(endByteOffset int) {
		if havePending && pendingParts >= 2 && len(pendingTerm) >= 3 {
			tokens = append(tokens, &analysis.Token{
				Start:    pendingStart,
				End:      endByteOffset,
				Term:     pendingTerm,
				Position: position,
				Type:     analysis.AlphaNumeric,
			})
			position++
		}
		havePending = false
		pendingTerm = nil
		pendingParts = 0
	}

	i := 0
	for i < len(runes) {
		r := runes[i]
		off := byteOffset(i)

		switch {
		case isCJK(r):
			flushPending(off)
			sawSeparator = false

			width := len(string(r))
			tokens = append(tokens, &analysis.Token{
				Start:    off,
				End:      off + width,
				Term:     []byte(string(r)),
				Position: position,
				Type:     analysis.Ideographic,
			})
			position++
			i++

		case unicode.IsLetter(r) || unicode.IsDigit(r):
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i])) && !isCJK(runes[i]) {
				i++
			}
			wordStartByte := byteOffset(start)
			wordEndByte := byteOffset(i)
			word := []byte(string(runes[start:i]))

			tokens = append(tokens, &analysis.Token{
				Start:    wordStartByte,
				End:      wordEndByte,
				Term:     word,
				Position: position,
				Type:     analysis.AlphaNumeric,
			})
			position++

			if sawSeparator && havePending {
				pendingTerm = append(pendingTerm, word...)
				pendingParts++
			} else if !havePending {
				pendingStart = wordStartByte
				pendingTerm = append([]byte{}, word...)
				pendingParts = 1
				havePending = true
			}
			sawSeparator = false

		case isIntraWordSeparator(r):
			sawSeparator = true
			i++

		default:
			flushPending(off)
			sawSeparator = false
			i++
		}
	}

	flushPending(len(input))

	return tokens
}

func cjkTokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return cjkTokenizer{}, nil
}

func init() {
	registry.RegisterTokenizer(CJKTokenizerName, cjkTokenizerConstructor)
}
