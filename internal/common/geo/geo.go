// internal/common/geo/geo.go

package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used for all distance math.
const EarthRadiusMeters = 6371000.0

// DistanceUnknown is the sentinel returned by DistanceMeters when either
// point has no coordinates.
const DistanceUnknown = -1

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceMeters returns the haversine great-circle distance between two
// points, rounded to the nearest meter. A nil point means the coordinates
// were never set, so the distance is DistanceUnknown; (0, 0) is a real
// location, not an absent one.
func DistanceMeters(a, b *Point) int {
	if a == nil || b == nil {
		return DistanceUnknown
	}

	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return int(math.Round(EarthRadiusMeters * c))
}

// BoundingBox returns the latitude/longitude window enclosing a circle of
// radiusMeters around center. It is a prefilter: callers still need an
// exact distance check on whatever the window lets through.
func BoundingBox(center Point, radiusMeters int) (minLat, maxLat, minLng, maxLng float64) {
	latDelta := float64(radiusMeters) / EarthRadiusMeters * 180 / math.Pi

	minLat = math.Max(center.Lat-latDelta, -90)
	maxLat = math.Min(center.Lat+latDelta, 90)

	// Longitude degrees shrink toward the poles. When the window would
	// cross a pole or the antimeridian, widen to the full range rather
	// than clip candidates away before the exact check.
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	if cosLat < 1e-6 {
		return minLat, maxLat, -180, 180
	}

	lngDelta := latDelta / cosLat
	minLng = center.Lng - lngDelta
	maxLng = center.Lng + lngDelta
	if minLng < -180 || maxLng > 180 {
		return minLat, maxLat, -180, 180
	}

	return minLat, maxLat, minLng, maxLng
}
