package service

import (
	"context"
	"sort"
	"strings"

	"github.com/greenworld/eco-rewards-service/internal/geo"
	"github.com/greenworld/eco-rewards-service/internal/models"
)

// DefaultSearchRadiusKm applies when a nearby-search request names no radius.
const DefaultSearchRadiusKm = 10.0

// SearchRequest describes a nearby eco-merchant query.
type SearchRequest struct {
	Latitude     float64
	Longitude    float64
	RadiusKm     float64
	Category     models.MerchantCategory // empty for all categories
	Keyword      string                  // matched against name and address
	VerifiedOnly bool
}

// NearbyMerchant pairs a merchant with its distance from the search origin.
type NearbyMerchant struct {
	Merchant   models.EcoMerchant
	DistanceKm float64
}

// LocationService answers radius searches over merchant locations. It has
// no side effects; the matcher and the public nearby-merchants feature are
// both callers.
type LocationService struct {
	merchants MerchantStore
}

func NewLocationService(merchants MerchantStore) *LocationService {
	return &LocationService{merchants: merchants}
}

// SearchNearby returns merchants within the radius, nearest first, ties
// broken by merchant ID for determinism. The boundary is included: a
// merchant at exactly RadiusKm is in the result.
func (s *LocationService) SearchNearby(ctx context.Context, req SearchRequest) ([]NearbyMerchant, error) {
	if req.RadiusKm == 0 {
		req.RadiusKm = DefaultSearchRadiusKm
	}
	if err := geo.ValidateBounds(req.Latitude, req.Longitude, req.RadiusKm); err != nil {
		return nil, err
	}

	all, err := s.merchants.ActiveMerchants(ctx)
	if err != nil {
		return nil, err
	}

	keyword := strings.ToLower(strings.TrimSpace(req.Keyword))
	var results []NearbyMerchant
	for _, m := range all {
		if req.VerifiedOnly && !m.IsVerified {
			continue
		}
		if req.Category != "" && m.Category != req.Category {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(m.Name), keyword) &&
			!strings.Contains(strings.ToLower(m.Address), keyword) {
			continue
		}
		d := geo.Haversine(req.Latitude, req.Longitude, m.Latitude, m.Longitude)
		if d <= req.RadiusKm {
			results = append(results, NearbyMerchant{Merchant: m, DistanceKm: d})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].DistanceKm != results[j].DistanceKm {
			return results[i].DistanceKm < results[j].DistanceKm
		}
		return results[i].Merchant.ID < results[j].Merchant.ID
	})
	return results, nil
}
