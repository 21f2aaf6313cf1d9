package geo

import (
	"errors"
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
		tolerance              float64
	}{
		{
			name: "same point",
			lat1: 37.5665, lon1: 126.9780,
			lat2: 37.5665, lon2: 126.9780,
			wantKm: 0, tolerance: 0.0001,
		},
		{
			name: "seoul to busan",
			lat1: 37.5665, lon1: 126.9780,
			lat2: 35.1796, lon2: 129.0756,
			wantKm: 325, tolerance: 5,
		},
		{
			name: "one degree of latitude",
			lat1: 36.0, lon1: 127.0,
			lat2: 37.0, lon2: 127.0,
			wantKm: 111.2, tolerance: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("Haversine() = %.3f km, want %.1f ± %.1f", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestValidateBounds(t *testing.T) {
	tests := []struct {
		name             string
		lat, lon, radius float64
		wantErr          bool
	}{
		{"valid center", 36.5, 128.0, 10, false},
		{"min corner", 33.0, 124.0, 1, false},
		{"max corner", 39.0, 132.0, 50, false},
		{"latitude too low", 32.9, 128.0, 10, true},
		{"latitude too high", 39.1, 128.0, 10, true},
		{"longitude too low", 36.5, 123.9, 10, true},
		{"longitude too high", 36.5, 132.1, 10, true},
		{"radius too small", 36.5, 128.0, 0.5, true},
		{"radius too large", 36.5, 128.0, 51, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBounds(tt.lat, tt.lon, tt.radius)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLocationBounds) {
					t.Errorf("ValidateBounds() = %v, want ErrInvalidLocationBounds", err)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateBounds() unexpected error: %v", err)
			}
		})
	}
}

func TestWithinRadiusIncludesBoundary(t *testing.T) {
	originLat, originLon := 37.5665, 126.9780
	pointLat, pointLon := 37.6565, 126.9780 // roughly 10km north

	d := Haversine(originLat, originLon, pointLat, pointLon)

	if !WithinRadius(originLat, originLon, pointLat, pointLon, d) {
		t.Errorf("point at exactly %.4f km should be within radius %.4f", d, d)
	}
	if WithinRadius(originLat, originLon, pointLat, pointLon, d-0.01) {
		t.Errorf("point at %.4f km should not be within radius %.4f", d, d-0.01)
	}
}
