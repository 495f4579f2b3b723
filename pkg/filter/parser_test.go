package filter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_SimpleFacetFilter(t *testing.T) {
	node, err := Parse("category:electronics")
	require.NoError(t, err)
	require.Equal(t, KindEquals, node.Kind)
	require.Equal(t, "category", node.Field)
	require.Equal(t, ValueText, node.Value.Kind)
	require.Equal(t, "electronics", node.Value.Text)
}

func TestParse_QuotedFacetFilter(t *testing.T) {
	node, err := Parse(`author:"Stephen King"`)
	require.NoError(t, err)
	require.Equal(t, KindEquals, node.Kind)
	require.Equal(t, "author", node.Field)
	require.Equal(t, "Stephen King", node.Value.Text)
}

func TestParse_NumericComparison(t *testing.T) {
	node, err := Parse("price > 20")
	require.NoError(t, err)
	require.Equal(t, KindGreaterThan, node.Kind)
	require.Equal(t, "price", node.Field)
	require.Equal(t, ValueInteger, node.Value.Kind)
	require.Equal(t, int64(20), node.Value.Int)
}

func TestParse_NumericRange(t *testing.T) {
	node, err := Parse("price:10 TO 50")
	require.NoError(t, err)
	require.Equal(t, KindRange, node.Kind)
	require.Equal(t, "price", node.Field)
	require.Equal(t, 10.0, node.Min)
	require.Equal(t, 50.0, node.Max)
}

func TestParse_AndFilter(t *testing.T) {
	node, err := Parse("category:electronics AND inStock:true")
	require.NoError(t, err)
	require.Equal(t, KindAnd, node.Kind)
	require.Len(t, node.Children, 2)
	require.Equal(t, "category", node.Children[0].Field)
	require.Equal(t, "inStock", node.Children[1].Field)
}

func TestParse_OrFilter(t *testing.T) {
	node, err := Parse("genre:Horror OR genre:Thriller")
	require.NoError(t, err)
	require.Equal(t, KindOr, node.Kind)
	require.Len(t, node.Children, 2)
}

func TestParse_Nested(t *testing.T) {
	node, err := Parse(`(author:"Stephen King" OR genre:Horror) AND price < 20`)
	require.NoError(t, err)
	require.Equal(t, KindAnd, node.Kind)
	require.Len(t, node.Children, 2)
	require.Equal(t, KindOr, node.Children[0].Kind)
	require.Equal(t, KindLessThan, node.Children[1].Kind)
}

func TestParse_NotSimple(t *testing.T) {
	node, err := Parse("NOT category:electronics")
	require.NoError(t, err)
	require.Equal(t, KindNot, node.Kind)
	require.Equal(t, KindEquals, node.Inner.Kind)
	require.Equal(t, "category", node.Inner.Field)
}

func TestParse_NotGroup(t *testing.T) {
	node, err := Parse("NOT (genre:Horror OR genre:Thriller)")
	require.NoError(t, err)
	require.Equal(t, KindNot, node.Kind)
	require.Equal(t, KindOr, node.Inner.Kind)
}

func TestParse_ComplexAlgoliaStyle(t *testing.T) {
	node, err := Parse(`category:electronics AND (brand:Apple OR brand:Samsung) AND NOT color:black AND price >= 100`)
	require.NoError(t, err)
	require.Equal(t, KindAnd, node.Kind)
	require.Len(t, node.Children, 4)
	require.Equal(t, KindOr, node.Children[1].Kind)
	require.Equal(t, KindNot, node.Children[2].Kind)
	require.Equal(t, KindGreaterThanOrEqual, node.Children[3].Kind)
}

func TestParse_IdentifierStartingWithNotIsNotKeyword(t *testing.T) {
	node, err := Parse("NOTcategory:electronics")
	require.NoError(t, err)
	require.Equal(t, KindEquals, node.Kind)
	require.Equal(t, "NOTcategory", node.Field)
}

func TestParse_OperatorOrderAvoidsPrefixBugs(t *testing.T) {
	gte, err := Parse("price >= 5")
	require.NoError(t, err)
	require.Equal(t, KindGreaterThanOrEqual, gte.Kind)

	neq, err := Parse("price != 5")
	require.NoError(t, err)
	require.Equal(t, KindNotEquals, neq.Kind)
}

func TestParse_FloatLiteral(t *testing.T) {
	node, err := Parse("price > 19.99")
	require.NoError(t, err)
	require.Equal(t, ValueFloat, node.Value.Kind)
	require.InDelta(t, 19.99, node.Value.Float, 0.0001)
}

func TestParse_RejectsTrailingGarbage(t *testing.T) {
	_, err := Parse("category:electronics )")
	require.Error(t, err)
}

func TestParse_RejectsEmptyInput(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
}
