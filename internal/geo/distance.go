// Package geo holds the great-circle distance helpers used for proximity search.
package geo

import "math"

const (
	// EarthRadiusKm is the mean Earth radius used by the spherical approximation.
	EarthRadiusKm = 6371.0
	// CircuityFactor approximates road travel distance from straight-line distance.
	CircuityFactor = 1.4
)

// Haversine returns the great-circle distance in kilometers between two points
// given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// RoadDistance is the Haversine distance scaled by CircuityFactor. It is used
// for user-to-user proximity only.
func RoadDistance(lat1, lon1, lat2, lon2 float64) float64 {
	return Haversine(lat1, lon1, lat2, lon2) * CircuityFactor
}

// Round2 rounds to two decimal places. Apply it when building response
// payloads, never before radius filtering.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ValidCoordinates reports whether lat/lon fall inside the WGS84 ranges.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
