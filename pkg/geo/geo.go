package geo

import "math"

const earthRadiusM = 6_371_000.0

// Haversine returns the great-circle distance in meters between two
// {lat,lng} points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dlat := toRadians(lat2 - lat1)
	dlng := toRadians(lng2 - lng1)
	a := math.Pow(math.Sin(dlat/2), 2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Pow(math.Sin(dlng/2), 2)
	return earthRadiusM * 2 * math.Asin(math.Sqrt(a))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// PointInBox reports whether (lat,lng) falls within the box spanned by
// its two opposite corners, in either corner order.
func PointInBox(lat, lng, p1Lat, p1Lng, p2Lat, p2Lng float64) bool {
	minLat, maxLat := math.Min(p1Lat, p2Lat), math.Max(p1Lat, p2Lat)
	minLng, maxLng := math.Min(p1Lng, p2Lng), math.Max(p1Lng, p2Lng)
	return lat >= minLat && lat <= maxLat && lng >= minLng && lng <= maxLng
}

// Point is one (lat, lng) vertex of a polygon.
type Point struct {
	Lat float64
	Lng float64
}

// PointInPolygon implements the standard ray-casting test. Polygons
// with fewer than 3 vertices never contain any point.
func PointInPolygon(lat, lng float64, polygon []Point) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		yi, xi := polygon[i].Lat, polygon[i].Lng
		yj, xj := polygon[j].Lat, polygon[j].Lng
		if ((yi > lat) != (yj > lat)) && (lng < (xj-xi)*(lat-yi)/(yj-yi)+xi) {
			inside = !inside
		}
		j = i
	}
	return inside
}

// BoundingBox is one insideBoundingBox clause; a request may supply
// several, combined with OR semantics (§6).
type BoundingBox struct {
	P1Lat, P1Lng float64
	P2Lat, P2Lng float64
}

// AroundRadiusKind distinguishes a fixed meter radius from the literal
// "all" sentinel (disables radius filtering, keeps distance ranking).
type AroundRadiusKind int

const (
	AroundRadiusMeters AroundRadiusKind = iota
	AroundRadiusAll
)

// AroundRadius is the parsed form of the aroundRadius request param.
type AroundRadius struct {
	Kind   AroundRadiusKind
	Meters float64
}

// PrecisionRange is one (from, value) step in a tiered aroundPrecision
// config: distances at or beyond From bucket at the given precision.
type PrecisionRange struct {
	From  uint64
	Value uint64
}

// PrecisionConfig controls how finely aroundLatLng distance is
// quantized before being used as a ranking tiebreaker, so that two
// hits within the same precision bucket don't out-rank each other on
// noise (§4.3.2).
type PrecisionConfig struct {
	Ranges []PrecisionRange
	Fixed  *uint64
}

// BucketDistance quantizes distanceM into a precision bucket index.
func (c PrecisionConfig) BucketDistance(distanceM float64) uint64 {
	dist := uint64(distanceM)

	if c.Fixed != nil {
		precision := *c.Fixed
		if precision < 10 {
			precision = 10
		}
		return dist / precision
	}

	if len(c.Ranges) > 0 {
		precision := uint64(10)
		for _, r := range c.Ranges {
			if dist >= r.From {
				v := r.Value
				if v < 1 {
					v = 1
				}
				precision = v
			} else {
				break
			}
		}
		return dist / precision
	}

	return dist
}

// Params bundles every geo clause a search request may carry. Filter
// precedence, per the original engine, is bounding boxes, then
// polygons, then aroundLatLng/aroundRadius — the first non-empty kind
// wins and the rest are ignored for point filtering.
type Params struct {
	Around            *Point
	AroundRadius      *AroundRadius
	BoundingBoxes     []BoundingBox
	Polygons          [][]Point
	AroundPrecision   PrecisionConfig
	MinimumAroundRadius *uint64
}

// IsEmpty reports whether no geo clause was supplied at all.
func (p Params) IsEmpty() bool {
	return p.Around == nil && len(p.BoundingBoxes) == 0 && len(p.Polygons) == 0
}

// HasAround reports whether an aroundLatLng center was supplied.
func (p Params) HasAround() bool {
	return p.Around != nil
}

// HasGeoFilter reports whether any point-filtering geo clause applies.
func (p Params) HasGeoFilter() bool {
	return len(p.BoundingBoxes) > 0 || len(p.Polygons) > 0 || p.Around != nil
}

// FilterPoint reports whether (lat,lng) passes every configured geo
// clause: bounding boxes and polygons win on any match (OR across
// entries); if neither is supplied, aroundRadius gates against the
// haversine distance from the center; with no clauses at all every
// point passes.
func (p Params) FilterPoint(lat, lng float64) bool {
	if len(p.BoundingBoxes) > 0 {
		for _, bb := range p.BoundingBoxes {
			if PointInBox(lat, lng, bb.P1Lat, bb.P1Lng, bb.P2Lat, bb.P2Lng) {
				return true
			}
		}
		return false
	}

	if len(p.Polygons) > 0 {
		for _, poly := range p.Polygons {
			if PointInPolygon(lat, lng, poly) {
				return true
			}
		}
		return false
	}

	if p.Around != nil {
		dist := Haversine(p.Around.Lat, p.Around.Lng, lat, lng)
		if p.AroundRadius == nil {
			return true
		}
		switch p.AroundRadius.Kind {
		case AroundRadiusAll:
			return true
		default:
			return dist <= p.AroundRadius.Meters
		}
	}

	return true
}

// DistanceFromCenter returns the haversine distance from the
// aroundLatLng center, or nil if no center was supplied.
func (p Params) DistanceFromCenter(lat, lng float64) *float64 {
	if p.Around == nil {
		return nil
	}
	d := Haversine(p.Around.Lat, p.Around.Lng, lat, lng)
	return &d
}

// ParseBoundingBoxes chunks a flat []lat,lng,lat,lng,... slice (the
// shape types.SearchRequest.InsideBoundingBox carries) into
// BoundingBox values, four floats at a time. Trailing leftovers
// smaller than 4 are dropped.
func ParseBoundingBoxes(flat []float64) []BoundingBox {
	var boxes []BoundingBox
	for i := 0; i+4 <= len(flat); i += 4 {
		boxes = append(boxes, BoundingBox{
			P1Lat: flat[i],
			P1Lng: flat[i+1],
			P2Lat: flat[i+2],
			P2Lng: flat[i+3],
		})
	}
	return boxes
}

// ParsePolygon chunks a flat []lat,lng,lat,lng,... slice (the shape
// types.SearchRequest.InsidePolygon carries) into polygon vertices.
// Fewer than 3 vertices (6 floats) yields no polygon, matching the
// point-in-polygon minimum.
func ParsePolygon(flat []float64) []Point {
	if len(flat) < 6 || len(flat)%2 != 0 {
		return nil
	}
	pts := make([]Point, 0, len(flat)/2)
	for i := 0; i+2 <= len(flat); i += 2 {
		pts = append(pts, Point{Lat: flat[i], Lng: flat[i+1]})
	}
	return pts
}
