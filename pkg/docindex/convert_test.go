package docindex

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridlhq/flapjack/pkg/types"
)

func TestToRecord_DropsNullAndBoolLeaves(t *testing.T) {
	doc := types.Document{
		ID: "1",
		Fields: map[string]interface{}{
			"title":     "Hello world",
			"inStock":   true,
			"discontinued": false,
			"notes":     nil,
			"price":     9.99,
		},
	}

	record, err := ToRecord(doc, nil)
	require.NoError(t, err)

	search, ok := record[searchFieldPath].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "Hello world", search["title"])
	require.Equal(t, 9.99, search["price"])
	require.NotContains(t, search, "inStock")
	require.NotContains(t, search, "discontinued")
	require.NotContains(t, search, "notes")

	require.Equal(t, search, record[filterFieldPath])
	require.Equal(t, search, record[exactFieldPath])
}

func TestToRecord_SkipsReservedKeysInSearchTrees(t *testing.T) {
	doc := types.Document{
		ID: "1",
		Fields: map[string]interface{}{
			"title":   "Cafe",
			"_geoloc": map[string]interface{}{"lat": 48.85, "lng": 2.35},
		},
	}

	record, err := ToRecord(doc, nil)
	require.NoError(t, err)

	search := record[searchFieldPath].(map[string]interface{})
	require.NotContains(t, search, "_geoloc")
	require.InDelta(t, 48.85, record[geoLatPath], 0.0001)
	require.InDelta(t, 2.35, record[geoLngPath], 0.0001)
}

func TestToRecord_GeolocArrayUsesFirstPoint(t *testing.T) {
	doc := types.Document{
		ID: "1",
		Fields: map[string]interface{}{
			"_geoloc": []interface{}{
				map[string]interface{}{"lat": 1.0, "lng": 2.0},
				map[string]interface{}{"lat": 3.0, "lng": 4.0},
			},
		},
	}

	record, err := ToRecord(doc, nil)
	require.NoError(t, err)
	require.Equal(t, 1.0, record[geoLatPath])
	require.Equal(t, 2.0, record[geoLngPath])
}

func TestToRecord_ExtractsDeclaredFacetsOnly(t *testing.T) {
	doc := types.Document{
		ID: "1",
		Fields: map[string]interface{}{
			"category": map[string]interface{}{"name": "electronics"},
			"brand":    "acme",
			"color":    "red",
		},
	}

	attrs := []types.FacetAttribute{
		{Field: "category.name", Decorator: types.FacetPlain},
		{Field: "brand", Decorator: types.FacetFilterOnly},
	}

	record, err := ToRecord(doc, attrs)
	require.NoError(t, err)

	facet, ok := record[facetFieldPath].(map[string]interface{})
	require.True(t, ok)

	category, ok := facet["category"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "electronics", category["name"])
	require.NotContains(t, facet, "brand")
	require.NotContains(t, facet, "color")
}

func TestToRecord_NoFacetsWhenNoneDeclared(t *testing.T) {
	doc := types.Document{ID: "1", Fields: map[string]interface{}{"title": "x"}}
	record, err := ToRecord(doc, nil)
	require.NoError(t, err)
	require.NotContains(t, record, facetFieldPath)
}
