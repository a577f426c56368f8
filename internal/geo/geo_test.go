package geo

import (
	"math"
	"testing"
)

func TestDistanceMeters(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point", 41.0082, 28.9784, 41.0082, 28.9784, 0, 0.001},
		{"one degree of longitude at equator", 0, 0, 0, 1, 111195, 50},
		{"one degree of latitude", 41, 29, 42, 29, 111195, 50},
		{"kadikoy to taksim", 40.9903, 29.0250, 41.0370, 28.9850, 6100, 300},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DistanceMeters(tc.lat1, tc.lng1, tc.lat2, tc.lng2)
			if math.Abs(got-tc.want) > tc.tolerance {
				t.Errorf("got %.1f m, want %.1f ± %.1f", got, tc.want, tc.tolerance)
			}
		})
	}
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	a := DistanceMeters(41.0082, 28.9784, 39.9334, 32.8597)
	b := DistanceMeters(39.9334, 32.8597, 41.0082, 28.9784)
	if math.Abs(a-b) > 0.001 {
		t.Errorf("asymmetric distance: %f vs %f", a, b)
	}
}

func TestWithinRadius(t *testing.T) {
	// ~1.1 km apart
	refLat, refLng := 41.0082, 28.9784
	lat, lng := 41.0182, 28.9784

	if !WithinRadius(refLat, refLng, lat, lng, DefaultRadiusMeters) {
		t.Error("point 1.1 km away should be inside the default 2 km radius")
	}
	if WithinRadius(refLat, refLng, lat, lng, 500) {
		t.Error("point 1.1 km away should be outside a 500 m radius")
	}
}
