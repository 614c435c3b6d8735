package domain

import "math"

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// DistanceKm computes the great-circle distance between two coordinates in
// kilometers using the haversine formula. Deterministic and symmetric.
func DistanceKm(a, b Coordinate) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// WithinRadius reports whether b lies within radiusKm of a. The boundary is
// inclusive: a point exactly radiusKm away is within.
func WithinRadius(a, b Coordinate, radiusKm float64) bool {
	return DistanceKm(a, b) <= radiusKm
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
