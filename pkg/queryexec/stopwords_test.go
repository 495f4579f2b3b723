package queryexec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridlhq/flapjack/pkg/types"
)

func TestRemoveStopWords_Disabled(t *testing.T) {
	v := RemoveStopWordsValue{Kind: StopWordsDisabled}
	require.Equal(t, "the red shoe", removeStopWords("the red shoe", v, types.QueryPrefixNone))
}

func TestRemoveStopWords_All(t *testing.T) {
	v := RemoveStopWordsValue{Kind: StopWordsAll}
	require.Equal(t, "red shoe", removeStopWords("the red shoe", v, types.QueryPrefixNone))
}

func TestRemoveStopWords_LanguageSpecific(t *testing.T) {
	v := RemoveStopWordsValue{Kind: StopWordsLanguages, Languages: []string{"en"}}
	require.Equal(t, "red shoe", removeStopWords("the red shoe", v, types.QueryPrefixNone))
}

func TestRemoveStopWords_UnsupportedLanguageNoOp(t *testing.T) {
	v := RemoveStopWordsValue{Kind: StopWordsLanguages, Languages: []string{"fr"}}
	require.Equal(t, "the red shoe", removeStopWords("the red shoe", v, types.QueryPrefixNone))
}

func TestRemoveStopWords_CaseInsensitive(t *testing.T) {
	v := RemoveStopWordsValue{Kind: StopWordsAll}
	require.Equal(t, "red shoe", removeStopWords("The red shoe", v, types.QueryPrefixNone))
}

func TestRemoveStopWords_PrefixAllExemptsEveryToken(t *testing.T) {
	v := RemoveStopWordsValue{Kind: StopWordsAll}
	require.Equal(t, "the a", removeStopWords("the a", v, types.QueryPrefixAll))
}

func TestRemoveStopWords_PrefixLastExemptsOnlyWithoutTrailingSpace(t *testing.T) {
	v := RemoveStopWordsValue{Kind: StopWordsAll}
	require.Equal(t, "shoe the", removeStopWords("shoe the", v, types.QueryPrefixLast))
	require.Equal(t, "shoe ", removeStopWords("shoe the ", v, types.QueryPrefixLast))
}

func TestRemoveStopWords_EmptyQuery(t *testing.T) {
	v := RemoveStopWordsValue{Kind: StopWordsAll}
	require.Equal(t, "", removeStopWords("", v, types.QueryPrefixNone))
}

func TestRemoveStopWords_FallsBackWhenResultWouldBeEmpty(t *testing.T) {
	v := RemoveStopWordsValue{Kind: StopWordsAll}
	require.Equal(t, "the a", removeStopWords("the a", v, types.QueryPrefixNone))
}

func TestRemoveStopWords_MixedStopAndContentWords(t *testing.T) {
	v := RemoveStopWordsValue{Kind: StopWordsAll}
	require.Equal(t, "running shoes sale", removeStopWords("the running shoes on sale", v, types.QueryPrefixNone))
}

func TestRemoveStopWords_PreservesTrailingSpace(t *testing.T) {
	v := RemoveStopWordsValue{Kind: StopWordsAll}
	require.Equal(t, "red shoe ", removeStopWords("the red shoe ", v, types.QueryPrefixNone))
}

func TestRemoveStopWordsFromSettings_BoolTrue(t *testing.T) {
	v := RemoveStopWordsFromSettings(types.Settings{RemoveStopWords: true})
	require.Equal(t, StopWordsAll, v.Kind)
}

func TestRemoveStopWordsFromSettings_BoolFalse(t *testing.T) {
	v := RemoveStopWordsFromSettings(types.Settings{})
	require.Equal(t, StopWordsDisabled, v.Kind)
}

func TestRemoveStopWordsFromSettings_Languages(t *testing.T) {
	v := RemoveStopWordsFromSettings(types.Settings{QueryLanguages: []string{"en"}})
	require.Equal(t, StopWordsLanguages, v.Kind)
}
