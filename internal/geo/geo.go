// Package geo provides the haversine distance used for radius filtering.
package geo

import "math"

const earthRadiusMeters = 6371000

// DefaultRadiusMeters is the radar range for nearby-task search and fixer
// fan-out when the caller does not pick a radius.
const DefaultRadiusMeters = 2000

// DistanceMeters returns the great-circle distance between two coordinates.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// WithinRadius reports whether the target lies within radiusMeters of the
// reference point.
func WithinRadius(refLat, refLng, lat, lng, radiusMeters float64) bool {
	return DistanceMeters(refLat, refLng, lat, lng) <= radiusMeters
}
