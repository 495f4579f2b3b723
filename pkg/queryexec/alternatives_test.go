package queryexec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateConcatAlternatives_TwoWords(t *testing.T) {
	alts := generateConcatAlternatives([]string{"new", "york"})
	require.Equal(t, []string{"newyork"}, alts)
}

func TestGenerateConcatAlternatives_ThreeWords(t *testing.T) {
	alts := generateConcatAlternatives([]string{"new", "york", "city"})
	require.Contains(t, alts, "newyork city")
	require.Contains(t, alts, "new yorkcity")
	require.Contains(t, alts, "newyorkcity")
}

func TestGenerateConcatAlternatives_RespectsFiveTokenWindow(t *testing.T) {
	alts := generateConcatAlternatives([]string{"a", "b", "c", "d", "e", "f", "g"})
	require.Len(t, alts, 5)
}

func TestGenerateConcatAlternatives_SingleToken(t *testing.T) {
	require.Nil(t, generateConcatAlternatives([]string{"solo"}))
}

func TestGenerateConcatAlternatives_Empty(t *testing.T) {
	require.Nil(t, generateConcatAlternatives(nil))
}

func TestGenerateSplitAlternatives_FindsValidSplit(t *testing.T) {
	known := map[string]bool{"sun": true, "glasses": true}
	exists := func(token string) bool { return known[token] }

	alts := generateSplitAlternatives([]string{"sunglasses"}, exists)
	require.Contains(t, alts, "sun glasses")
}

func TestGenerateSplitAlternatives_SkipsTokensUnderFourRunes(t *testing.T) {
	exists := func(token string) bool { return true }
	require.Nil(t, generateSplitAlternatives([]string{"cat"}, exists))
}

func TestGenerateSplitAlternatives_NoMatchWhenHalvesMissing(t *testing.T) {
	exists := func(token string) bool { return false }
	require.Nil(t, generateSplitAlternatives([]string{"sunglasses"}, exists))
}

func TestGenerateAlternatives_CombinesBothStrategies(t *testing.T) {
	known := map[string]bool{"sun": true, "glasses": true}
	exists := func(token string) bool { return known[token] }

	alts := generateAlternatives("sunglasses shop", exists)
	require.Contains(t, alts, "sun glasses shop")
	require.Contains(t, alts, "sunglassesshop")
}
