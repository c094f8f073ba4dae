// internal/common/geo/geo_test.go

package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	paris := &Point{Lat: 48.8566, Lng: 2.3522}
	london := &Point{Lat: 51.5074, Lng: -0.1278}

	t.Run("same point is zero", func(t *testing.T) {
		assert.Equal(t, 0, DistanceMeters(paris, paris))
	})

	t.Run("symmetric", func(t *testing.T) {
		assert.Equal(t, DistanceMeters(paris, london), DistanceMeters(london, paris))
	})

	t.Run("never negative", func(t *testing.T) {
		points := []*Point{
			{Lat: 0, Lng: 0},
			{Lat: 90, Lng: 0},
			{Lat: -90, Lng: 0},
			{Lat: 48.8566, Lng: 2.3522},
			{Lat: -33.8688, Lng: 151.2093},
		}
		for _, a := range points {
			for _, b := range points {
				assert.GreaterOrEqual(t, DistanceMeters(a, b), 0)
			}
		}
	})

	t.Run("quarter circumference along the equator", func(t *testing.T) {
		// (0°,0°) to (0°,90°) is a quarter of the great circle.
		a := &Point{Lat: 0, Lng: 0}
		b := &Point{Lat: 0, Lng: 90}
		assert.Equal(t, 10007543, DistanceMeters(a, b))
	})

	t.Run("paris to london ballpark", func(t *testing.T) {
		d := DistanceMeters(paris, london)
		assert.InDelta(t, 344000, d, 2000)
	})

	t.Run("nil point yields sentinel", func(t *testing.T) {
		assert.Equal(t, DistanceUnknown, DistanceMeters(nil, paris))
		assert.Equal(t, DistanceUnknown, DistanceMeters(paris, nil))
		assert.Equal(t, DistanceUnknown, DistanceMeters(nil, nil))
	})

	t.Run("origin is a real location", func(t *testing.T) {
		origin := &Point{Lat: 0, Lng: 0}
		assert.Equal(t, 0, DistanceMeters(origin, origin))
		assert.Greater(t, DistanceMeters(origin, paris), 0)
	})
}

func TestBoundingBox(t *testing.T) {
	t.Run("window encloses the radius", func(t *testing.T) {
		center := Point{Lat: 48.8566, Lng: 2.3522}
		minLat, maxLat, minLng, maxLng := BoundingBox(center, 5000)

		assert.Less(t, minLat, center.Lat)
		assert.Greater(t, maxLat, center.Lat)
		assert.Less(t, minLng, center.Lng)
		assert.Greater(t, maxLng, center.Lng)

		// Points right at the cardinal edges of the circle stay inside.
		north := &Point{Lat: center.Lat + 0.0449, Lng: center.Lng}
		assert.LessOrEqual(t, north.Lat, maxLat)
		east := &Point{Lat: center.Lat, Lng: center.Lng + 0.0683}
		assert.LessOrEqual(t, east.Lng, maxLng)
	})

	t.Run("near the pole widens to all longitudes", func(t *testing.T) {
		_, _, minLng, maxLng := BoundingBox(Point{Lat: 89.9999, Lng: 10}, 5000)
		assert.Equal(t, -180.0, minLng)
		assert.Equal(t, 180.0, maxLng)
	})

	t.Run("antimeridian crossing widens to all longitudes", func(t *testing.T) {
		_, _, minLng, maxLng := BoundingBox(Point{Lat: 0, Lng: 179.99}, 50000)
		assert.Equal(t, -180.0, minLng)
		assert.Equal(t, 180.0, maxLng)
	})

	t.Run("latitude clamped at the poles", func(t *testing.T) {
		minLat, maxLat, _, _ := BoundingBox(Point{Lat: 89.99, Lng: 0}, 500000)
		assert.GreaterOrEqual(t, minLat, -90.0)
		assert.Equal(t, 90.0, maxLat)
	})
}
