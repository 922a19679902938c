package geo

import "math"

// EarthRadiusMiles is the mean Earth radius used by every distance computation.
const EarthRadiusMiles = 3959.0

// DistanceMiles returns the great-circle distance in miles between two points
// given in degrees, using the spherical law of cosines.
func DistanceMiles(lat0, lon0, lat, lon float64) float64 {
	if lat0 == lat && lon0 == lon {
		return 0
	}

	lat0r := radians(lat0)
	latr := radians(lat)

	cosAngle := math.Cos(lat0r)*math.Cos(latr)*math.Cos(radians(lon)-radians(lon0)) +
		math.Sin(lat0r)*math.Sin(latr)

	// Floating noise can push the argument just outside [-1, 1] for identical points.
	return EarthRadiusMiles * math.Acos(clamp(cosAngle, -1, 1))
}

// Within reports whether (lat, lon) lies within radius miles of (lat0, lon0).
func Within(lat0, lon0, lat, lon, radius float64) bool {
	return DistanceMiles(lat0, lon0, lat, lon) <= radius
}

// Box is a latitude/longitude rectangle in degrees.
// When WrapsLongitude is true the longitude range is unconstrained.
type Box struct {
	North, South, East, West float64
	WrapsLongitude           bool
}

// BoundingBox returns a rectangle that contains every point within radius
// miles of (lat, lon). It is a coarse pre-filter; exact distance must still be checked.
func BoundingBox(lat, lon, radius float64) Box {
	angular := radius / EarthRadiusMiles
	dLat := degrees(angular)

	box := Box{
		North: lat + dLat,
		South: lat - dLat,
	}

	// A pole inside the circle, or a circle wider than a hemisphere, covers every longitude.
	if box.North >= 90 || box.South <= -90 || angular >= math.Pi/2 {
		box.North = math.Min(box.North, 90)
		box.South = math.Max(box.South, -90)
		box.WrapsLongitude = true
		return box
	}

	dLon := degrees(math.Asin(math.Sin(angular) / math.Cos(radians(lat))))
	box.West = lon - dLon
	box.East = lon + dLon
	if box.West < -180 || box.East > 180 {
		box.WrapsLongitude = true
	}
	return box
}

// ValidCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
