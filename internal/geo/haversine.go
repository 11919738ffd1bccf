// Package geo provides great-circle distance calculations between GPS coordinates.
package geo

import (
	"math"

	"github.com/bishop254/vts-backend/internal/models"
)

// EarthRadiusKM is the mean Earth radius used for all distances.
const EarthRadiusKM = 6371.0

// Haversine returns the great-circle distance in kilometers between two points
// given in decimal degrees.
//
//	a = sin²(Δφ/2) + cos φ1 ⋅ cos φ2 ⋅ sin²(Δλ/2)
//	d = 2R ⋅ atan2(√a, √(1−a))
//
// Inputs are assumed to be within range; validation happens at ingestion.
func Haversine(from, to models.Location) float64 {
	lat1 := degreesToRadians(from.Lat)
	lat2 := degreesToRadians(to.Lat)
	dLat := degreesToRadians(to.Lat - from.Lat)
	dLon := degreesToRadians(to.Lon - from.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	// rounding can push a just outside [0, 1] for antipodal points
	a = math.Min(1, math.Max(0, a))

	return 2 * EarthRadiusKM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Round2 rounds a distance to two decimal places for display.
func Round2(km float64) float64 {
	return math.Round(km*100) / 100
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
