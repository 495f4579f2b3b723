// Package geo implements the haversine distance, bounding-box, and
// point-in-polygon primitives the query executor needs for
// aroundLatLng/insideBoundingBox/insidePolygon filtering, plus the
// aroundPrecision distance-bucketing used to fold geo distance into
// ranking tiers.
package geo
