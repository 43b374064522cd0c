package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// destination computes the point radiusMeters away from (lat,lng) along the
// given bearing, using the same spherical Earth as DistanceMeters.
func destination(lat, lng, bearingDeg, radiusMeters float64) (float64, float64) {
	phi1 := lat * math.Pi / 180
	lambda1 := lng * math.Pi / 180
	theta := bearingDeg * math.Pi / 180
	delta := radiusMeters / earthRadiusM

	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) +
		math.Cos(phi1)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2),
	)
	return phi2 * 180 / math.Pi, lambda2 * 180 / math.Pi
}

func TestDistanceMeters(t *testing.T) {
	t.Run("identical points", func(t *testing.T) {
		assert.Zero(t, DistanceMeters(48.8566, 2.3522, 48.8566, 2.3522))
	})

	t.Run("symmetry", func(t *testing.T) {
		pairs := [][4]float64{
			{48.8566, 2.3522, 51.5074, -0.1278},
			{-33.8688, 151.2093, 35.6762, 139.6503},
			{0, 0, 0, 180},
			{89.9, 10, -89.9, -170},
		}
		for _, p := range pairs {
			ab := DistanceMeters(p[0], p[1], p[2], p[3])
			ba := DistanceMeters(p[2], p[3], p[0], p[1])
			assert.InDelta(t, ab, ba, 1e-9)
		}
	})

	t.Run("one degree of latitude", func(t *testing.T) {
		d := DistanceMeters(10, 20, 11, 20)
		assert.InDelta(t, earthRadiusM*math.Pi/180, d, 0.5)
	})

	t.Run("paris to london", func(t *testing.T) {
		d := DistanceMeters(48.8566, 2.3522, 51.5074, -0.1278)
		assert.InDelta(t, 343_500, d, 1_500)
	})
}

func TestBoxSupersetOfCircle(t *testing.T) {
	centers := [][2]float64{
		{0, 0},
		{48.8566, 2.3522},
		{-33.8688, 151.2093},
		{67.0, -151.0}, // high latitude, longitude correction matters
	}
	radii := []float64{20, 80, 200, 5_000}

	for _, c := range centers {
		for _, r := range radii {
			box := Box(c[0], c[1], r)
			for bearing := 0.0; bearing < 360; bearing += 15 {
				// Points strictly inside the circle must never fall
				// outside the box.
				lat, lng := destination(c[0], c[1], bearing, r*0.999)
				require.True(t, box.Contains(lat, lng),
					"center=(%v,%v) r=%v bearing=%v point=(%v,%v)",
					c[0], c[1], r, bearing, lat, lng)
				require.LessOrEqual(t, DistanceMeters(c[0], c[1], lat, lng), r)
			}
		}
	}
}

func TestLngBounds(t *testing.T) {
	inBounds := func(b BoundingBox, lng float64) bool {
		min, max, wrapped := b.LngBounds()
		if wrapped {
			return lng >= min || lng <= max
		}
		return lng >= min && lng <= max
	}

	t.Run("plain box passes through", func(t *testing.T) {
		box := Box(48.8566, 2.3522, 200)
		min, max, wrapped := box.LngBounds()
		assert.False(t, wrapped)
		assert.Equal(t, box.MinLng, min)
		assert.Equal(t, box.MaxLng, max)
	})

	t.Run("eastern edge folds back", func(t *testing.T) {
		// A box around 179.99°E spills past 180; points just across the
		// antimeridian are stored near -180 and must still match.
		box := Box(0, 179.99, 5_000)
		_, _, wrapped := box.LngBounds()
		require.True(t, wrapped)
		assert.True(t, inBounds(box, 179.99))
		assert.True(t, inBounds(box, -179.99))
		assert.False(t, inBounds(box, 0))
	})

	t.Run("western edge folds back", func(t *testing.T) {
		box := Box(0, -179.99, 5_000)
		_, _, wrapped := box.LngBounds()
		require.True(t, wrapped)
		assert.True(t, inBounds(box, -179.99))
		assert.True(t, inBounds(box, 179.99))
		assert.False(t, inBounds(box, 0))
	})

	t.Run("full circle degenerates", func(t *testing.T) {
		// Near the pole the longitude correction blows the box past a
		// full revolution; every longitude matches.
		box := Box(89.999, 0, 250_000)
		min, max, wrapped := box.LngBounds()
		assert.False(t, wrapped)
		assert.Equal(t, -180.0, min)
		assert.Equal(t, 180.0, max)
	})

	t.Run("wrapped range stays a superset of the circle", func(t *testing.T) {
		const radius = 5_000
		box := Box(10, 179.999, radius)
		for bearing := 0.0; bearing < 360; bearing += 15 {
			_, lng := destination(10, 179.999, bearing, radius*0.999)
			if lng > 180 {
				lng -= 360
			}
			require.True(t, inBounds(box, lng),
				"bearing=%v lng=%v", bearing, lng)
		}
	})
}

func TestBoxIsCoarse(t *testing.T) {
	// The box corner sits outside the circle; the box is a pre-filter, not
	// an exact geofence.
	box := Box(48.8566, 2.3522, 100)
	corner := DistanceMeters(48.8566, 2.3522, box.MaxLat, box.MaxLng)
	assert.Greater(t, corner, 100.0)
}
