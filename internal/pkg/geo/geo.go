package geo

import "math"

// earthRadiusM is the mean Earth radius used by the haversine formula.
const earthRadiusM = 6371000.0

// metersPerDegree is the approximate length of one degree of latitude at the
// equator, used for the coarse bounding-box pre-filter.
const metersPerDegree = 111320.0

// DistanceMeters returns the haversine great-circle distance in meters
// between two coordinates given in decimal degrees.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// BoundingBox is a degrees-based rectangle around a center point.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// Box returns a coarse bounding box containing every point within
// radiusMeters of the center. It over-approximates the circle so it can be
// used as an indexed SQL pre-filter; callers must re-check candidates with
// DistanceMeters. It never excludes a point inside the true circle.
func Box(lat, lng, radiusMeters float64) BoundingBox {
	latDelta := radiusMeters / metersPerDegree

	// Shrinking cos(lat) widens the longitude delta, keeping the box a
	// superset as the parallels converge toward the poles.
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lngDelta := radiusMeters / (metersPerDegree * cosLat)

	return BoundingBox{
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
		MinLng: lng - lngDelta,
		MaxLng: lng + lngDelta,
	}
}

// LngBounds returns the longitude match range for stored values in
// [-180, 180]. A box computed near the antimeridian spills past ±180; the
// spilled edge is folded back and wrapped is true, meaning the range is the
// union "lng >= min OR lng <= max" rather than a single interval. A box
// spanning the full circle degenerates to [-180, 180].
func (b BoundingBox) LngBounds() (min, max float64, wrapped bool) {
	if b.MaxLng-b.MinLng >= 360 {
		return -180, 180, false
	}
	min, max = b.MinLng, b.MaxLng
	if min < -180 {
		return min + 360, max, true
	}
	if max > 180 {
		return min, max - 360, true
	}
	return min, max, false
}

// Contains reports whether the point lies within the box.
func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}
