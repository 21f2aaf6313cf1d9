package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/greenworld/eco-rewards-service/internal/geo"
	"github.com/greenworld/eco-rewards-service/internal/models"
	"github.com/greenworld/eco-rewards-service/internal/service"
)

type NearbyMerchantResponse struct {
	MerchantID  int64   `json:"merchant_id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	CategoryLbl string  `json:"category_label"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DistanceKm  float64 `json:"distance_km"`
	IsVerified  bool    `json:"is_verified"`
}

type CategoryResponse struct {
	Category        string `json:"category"`
	Label           string `json:"label"`
	RewardBasisPnts int64  `json:"reward_basis_points"`
}

// MerchantHandler serves the public nearby-merchant search, category
// metadata and the per-member eco-merchant history.
type MerchantHandler struct {
	location *service.LocationService
	matching *service.MatchingService
	rates    map[models.MerchantCategory]int64
}

func NewMerchantHandler(location *service.LocationService, matching *service.MatchingService, rates map[models.MerchantCategory]int64) *MerchantHandler {
	return &MerchantHandler{location: location, matching: matching, rates: rates}
}

// Nearby handles GET /merchants/nearby.
func (h *MerchantHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lat required")
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lng required")
		return
	}

	req := service.SearchRequest{
		Latitude:  lat,
		Longitude: lon,
		RadiusKm:  service.DefaultSearchRadiusKm,
		Keyword:   q.Get("keyword"),
	}
	if v := q.Get("radius"); v != "" {
		radius, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid radius")
			return
		}
		req.RadiusKm = radius
	}
	if v := q.Get("category"); v != "" {
		cat := models.MerchantCategory(v)
		if !cat.Valid() {
			writeError(w, http.StatusBadRequest, "unknown category")
			return
		}
		req.Category = cat
	}
	if v := q.Get("verified_only"); v != "" {
		req.VerifiedOnly, _ = strconv.ParseBool(v)
	}

	results, err := h.location.SearchNearby(r.Context(), req)
	if err != nil {
		if errors.Is(err, geo.ErrInvalidLocationBounds) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "search_failed")
		return
	}

	out := make([]NearbyMerchantResponse, 0, len(results))
	for _, res := range results {
		out = append(out, NearbyMerchantResponse{
			MerchantID:  res.Merchant.ID,
			Name:        res.Merchant.Name,
			Category:    string(res.Merchant.Category),
			CategoryLbl: res.Merchant.Category.DisplayName(),
			Address:     res.Merchant.Address,
			Latitude:    res.Merchant.Latitude,
			Longitude:   res.Merchant.Longitude,
			DistanceKm:  res.DistanceKm,
			IsVerified:  res.Merchant.IsVerified,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"merchants": out, "count": len(out)})
}

// Categories handles GET /merchants/categories.
func (h *MerchantHandler) Categories(w http.ResponseWriter, r *http.Request) {
	out := make([]CategoryResponse, 0, len(models.AllMerchantCategories))
	for _, cat := range models.AllMerchantCategories {
		out = append(out, CategoryResponse{
			Category:        string(cat),
			Label:           cat.DisplayName(),
			RewardBasisPnts: h.rates[cat],
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": out})
}

// History handles GET /members/{memberID}/eco-merchants.
func (h *MerchantHandler) History(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid member id")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	history, err := h.matching.History(r.Context(), memberID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": history})
}

// Stats handles GET /members/{memberID}/eco-merchants/stats.
func (h *MerchantHandler) Stats(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid member id")
		return
	}
	stats, err := h.matching.Stats(r.Context(), memberID, time.Now().UTC().Format(models.MonthFormat))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "stats_failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
