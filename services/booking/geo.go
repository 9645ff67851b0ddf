package booking

import (
	"math"

	"taskora/models"
)

// haversine returns the great-circle distance in km between two points.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371
	dLat := (lat2 - lat1) * (math.Pi / 180)
	dLon := (lon2 - lon1) * (math.Pi / 180)
	lat1Rad := lat1 * (math.Pi / 180)
	lat2Rad := lat2 * (math.Pi / 180)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

// DistanceKm returns the great-circle distance between an origin (lat, lng)
// and a GeoJSON point, or +Inf when the point is malformed, so malformed
// locations never pass a radius check.
func DistanceKm(lat, lng float64, point models.GeoPoint) float64 {
	if len(point.Coordinates) < 2 {
		return math.Inf(1)
	}
	pLng, pLat := point.Coordinates[0], point.Coordinates[1]
	if math.IsNaN(pLng) || math.IsNaN(pLat) {
		return math.Inf(1)
	}
	return haversine(lat, lng, pLat, pLng)
}

// WithinRadius reports whether a candidate point lies within radiusKm of the
// origin. Malformed or missing coordinates are simply out of range, never an
// error.
func WithinRadius(lat, lng float64, point models.GeoPoint, radiusKm float64) bool {
	if radiusKm <= 0 {
		return false
	}
	return DistanceKm(lat, lng, point) <= radiusKm
}
