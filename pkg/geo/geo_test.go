package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHaversine_NYCToLA(t *testing.T) {
	d := Haversine(40.7128, -74.0060, 34.0522, -118.2437)
	require.InDelta(t, 3_944_000.0, d, 10_000.0)
}

func TestHaversine_SamePoint(t *testing.T) {
	d := Haversine(40.7128, -74.0060, 40.7128, -74.0060)
	require.Less(t, d, 0.01)
}

func TestPointInBox(t *testing.T) {
	require.True(t, PointInBox(40.71, -74.00, 40.0, -75.0, 41.0, -73.0))
	require.False(t, PointInBox(35.0, -74.00, 40.0, -75.0, 41.0, -73.0))
}

func TestPointInPolygon_Triangle(t *testing.T) {
	triangle := []Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 10}, {Lat: 10, Lng: 0}}
	require.True(t, PointInPolygon(2, 2, triangle))
	require.False(t, PointInPolygon(8, 8, triangle))
}

func TestParseBoundingBoxes(t *testing.T) {
	boxes := ParseBoundingBoxes([]float64{47.3165, 4.9665, 47.3424, 5.0201})
	require.Len(t, boxes, 1)
	require.InDelta(t, 47.3165, boxes[0].P1Lat, 0.001)
}

func TestParsePolygon(t *testing.T) {
	poly := ParsePolygon([]float64{47.3165, 4.9665, 47.3424, 5.0201, 47.32, 4.98})
	require.Len(t, poly, 3)

	require.Nil(t, ParsePolygon([]float64{1, 2, 3, 4}))
}

func TestParams_FilterPoint_BoundingBoxWinsOverAround(t *testing.T) {
	params := Params{
		Around:       &Point{Lat: 40.7128, Lng: -74.0060},
		AroundRadius: &AroundRadius{Kind: AroundRadiusMeters, Meters: 100},
		BoundingBoxes: []BoundingBox{
			{P1Lat: 30.0, P1Lng: -80.0, P2Lat: 50.0, P2Lng: -70.0},
		},
	}
	require.True(t, params.FilterPoint(35.0, -75.0))
}

func TestParams_FilterPoint_Around(t *testing.T) {
	params := Params{
		Around:       &Point{Lat: 40.7128, Lng: -74.0060},
		AroundRadius: &AroundRadius{Kind: AroundRadiusMeters, Meters: 10_000},
	}
	require.True(t, params.FilterPoint(40.72, -74.00))
	require.False(t, params.FilterPoint(41.5, -74.00))
}

func TestParams_FilterPoint_AroundAll(t *testing.T) {
	params := Params{
		Around:       &Point{Lat: 0, Lng: 0},
		AroundRadius: &AroundRadius{Kind: AroundRadiusAll},
	}
	require.True(t, params.FilterPoint(89.0, 179.0))
}

func TestPrecisionConfig_BucketDistance_Fixed(t *testing.T) {
	fixed := uint64(50)
	cfg := PrecisionConfig{Fixed: &fixed}
	require.Equal(t, uint64(200)/50, cfg.BucketDistance(200))
}

func TestPrecisionConfig_BucketDistance_Ranges(t *testing.T) {
	cfg := PrecisionConfig{Ranges: []PrecisionRange{
		{From: 0, Value: 10},
		{From: 1000, Value: 100},
	}}
	require.Equal(t, uint64(500)/10, cfg.BucketDistance(500))
	require.Equal(t, uint64(2000)/100, cfg.BucketDistance(2000))
}

func TestHaversine_ToRadiansSymmetry(t *testing.T) {
	require.Equal(t, math.Pi, toRadians(180))
}
