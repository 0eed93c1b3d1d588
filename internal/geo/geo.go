// Package geo holds the server-side geofence math. The distance computed
// here is the authoritative one; client-reported distances are never
// trusted.
package geo

import "math"

// EarthRadiusMeters is the mean radius of the WGS-84 sphere approximation.
const EarthRadiusMeters = 6371000.0

// Coordinate is a WGS-84 point in signed decimal degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// DistanceMeters returns the great-circle (haversine) distance between two
// coordinates. Check-in distances are always local, so no antipodal
// special-casing is needed.
func DistanceMeters(a, b Coordinate) float64 {
	if a == b {
		return 0
	}

	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// ValidLatitude reports whether lat is a legal WGS-84 latitude.
func ValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

// ValidLongitude reports whether lng is a legal WGS-84 longitude.
func ValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}
