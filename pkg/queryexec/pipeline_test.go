package queryexec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridlhq/flapjack/pkg/rules"
	"github.com/gridlhq/flapjack/pkg/synonyms"
	"github.com/gridlhq/flapjack/pkg/types"
)

func TestProcessQueryText_AppliesRuleRewrite(t *testing.T) {
	rs := rules.NewStore()
	rs.Insert(types.Rule{
		ObjectID: "rewrite-phones",
		Enabled:  true,
		Conditions: []types.RuleCondition{
			{Pattern: "phones", Anchoring: types.AnchorIs},
		},
		Consequence: types.RuleConsequence{QueryRewrite: "smartphones"},
	})

	pq := ProcessQueryText("phones", "", rs, nil, types.DefaultSettings())
	require.Equal(t, "smartphones", pq.Text)
	require.Equal(t, []string{"rewrite-phones"}, pq.AppliedRules)
}

func TestProcessQueryText_ExpandsSynonymsAndFiltersStopWords(t *testing.T) {
	ss := synonyms.NewStore()
	ss.Insert(types.Synonym{ObjectID: "s1", Type: types.SynonymRegular, Synonyms: []string{"tv", "television"}})

	settings := types.DefaultSettings()
	settings.RemoveStopWords = true

	pq := ProcessQueryText("buy a tv now", "", nil, ss, settings)
	require.Contains(t, pq.Variants, "buy tv now")
	require.Contains(t, pq.Variants, "buy television now")
}

func TestProcessQueryText_NoStoresIsPassthrough(t *testing.T) {
	pq := ProcessQueryText("red shoes", "", nil, nil, types.DefaultSettings())
	require.Equal(t, "red shoes", pq.Text)
	require.Equal(t, []string{"red shoes"}, pq.Variants)
}
