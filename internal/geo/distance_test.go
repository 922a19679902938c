package geo

import (
	"math"
	"testing"
)

func almost(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestDistanceMiles_SamePoint(t *testing.T) {
	points := [][2]float64{
		{30.2672, -97.7431},
		{40.7128, -74.0060},
		{0, 0},
		{89.9999, 179.9999},
		{-33.8688, 151.2093},
	}
	for _, p := range points {
		d := DistanceMiles(p[0], p[1], p[0], p[1])
		if math.IsNaN(d) {
			t.Fatalf("distance at (%f,%f) is NaN", p[0], p[1])
		}
		if d > 1e-3 {
			t.Fatalf("want ~0 at (%f,%f), got %f", p[0], p[1], d)
		}
	}
}

func TestDistanceMiles_AustinToDallas(t *testing.T) {
	// Austin to Dallas is roughly 182 miles as the crow flies.
	d := DistanceMiles(30.2672, -97.7431, 32.7767, -96.7970)
	if !almost(d, 182, 5) {
		t.Fatalf("want ~182mi, got %.1fmi", d)
	}
}

func TestDistanceMiles_Symmetric(t *testing.T) {
	a := DistanceMiles(40.7128, -74.0060, 51.5074, -0.1278)
	b := DistanceMiles(51.5074, -0.1278, 40.7128, -74.0060)
	if !almost(a, b, 1e-9) {
		t.Fatalf("distance not symmetric: %f vs %f", a, b)
	}
}

func TestDistanceMiles_Antipodal(t *testing.T) {
	d := DistanceMiles(0, 0, 0, 180)
	if !almost(d, math.Pi*EarthRadiusMiles, 1e-6) {
		t.Fatalf("want half circumference, got %f", d)
	}
}

func TestWithin_ZeroRadius(t *testing.T) {
	if !Within(30.2672, -97.7431, 30.2672, -97.7431, 0) {
		t.Fatal("point at the query location must be within a zero radius")
	}
	if Within(30.2672, -97.7431, 30.2700, -97.7431, 0) {
		t.Fatal("distinct point must not be within a zero radius")
	}
}

func TestBoundingBox_ContainsCircle(t *testing.T) {
	lat, lon, radius := 30.2672, -97.7431, 25.0
	box := BoundingBox(lat, lon, radius)

	if box.WrapsLongitude {
		t.Fatal("small box should not wrap")
	}

	// Points exactly radius away in the four cardinal directions must be inside the box.
	dLat := radius / EarthRadiusMiles * 180 / math.Pi
	if lat+dLat > box.North+1e-9 || lat-dLat < box.South-1e-9 {
		t.Fatalf("latitude span too small: %+v", box)
	}

	for _, bearingLon := range []float64{box.East, box.West} {
		if DistanceMiles(lat, lon, lat, bearingLon) < radius-0.01 {
			t.Fatalf("longitude edge %f closer than radius", bearingLon)
		}
	}
}

func TestBoundingBox_NearPoleWraps(t *testing.T) {
	box := BoundingBox(89.9, 10, 50)
	if !box.WrapsLongitude {
		t.Fatal("box around the pole must cover every longitude")
	}
	if box.North != 90 {
		t.Fatalf("north must be clamped to 90, got %f", box.North)
	}
}

func TestBoundingBox_DatelineWraps(t *testing.T) {
	box := BoundingBox(0, 179.9, 50)
	if !box.WrapsLongitude {
		t.Fatal("box crossing the antimeridian must wrap")
	}
}

func TestValidCoordinates(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{90.1, 0, false},
		{0, -180.5, false},
	}
	for _, tt := range tests {
		if got := ValidCoordinates(tt.lat, tt.lon); got != tt.want {
			t.Errorf("ValidCoordinates(%f,%f) = %v, want %v", tt.lat, tt.lon, got, tt.want)
		}
	}
}
