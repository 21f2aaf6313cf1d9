// Package geo provides great-circle distance math and the location
// preconditions shared by merchant search and matching. Everything here is
// pure; callers supply the candidate set.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for haversine distances.
const EarthRadiusKm = 6371.0

// Service-area bounding box (South Korea) and allowed search radius.
const (
	MinLatitude  = 33.0
	MaxLatitude  = 39.0
	MinLongitude = 124.0
	MaxLongitude = 132.0
	MinRadiusKm  = 1.0
	MaxRadiusKm  = 50.0
)

// ErrInvalidLocationBounds reports a latitude, longitude or radius outside
// the configured service area. Rejected before any search runs.
var ErrInvalidLocationBounds = errors.New("location out of service bounds")

// ValidateBounds checks a search origin and radius against the service
// bounding box. Returns ErrInvalidLocationBounds (wrapped with detail) on
// violation.
func ValidateBounds(lat, lon, radiusKm float64) error {
	if lat < MinLatitude || lat > MaxLatitude {
		return fmt.Errorf("%w: latitude %.4f outside [%.1f, %.1f]",
			ErrInvalidLocationBounds, lat, MinLatitude, MaxLatitude)
	}
	if lon < MinLongitude || lon > MaxLongitude {
		return fmt.Errorf("%w: longitude %.4f outside [%.1f, %.1f]",
			ErrInvalidLocationBounds, lon, MinLongitude, MaxLongitude)
	}
	if radiusKm < MinRadiusKm || radiusKm > MaxRadiusKm {
		return fmt.Errorf("%w: radius %.1fkm outside [%.0f, %.0f]",
			ErrInvalidLocationBounds, radiusKm, MinRadiusKm, MaxRadiusKm)
	}
	return nil
}

// Haversine returns the great-circle distance in kilometres between two
// points given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// WithinRadius reports whether the two points are at most radiusKm apart.
// The boundary is included: a point at exactly radiusKm is within.
func WithinRadius(lat1, lon1, lat2, lon2, radiusKm float64) bool {
	return Haversine(lat1, lon1, lat2, lon2) <= radiusKm
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
