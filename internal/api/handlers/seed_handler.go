package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/greenworld/eco-rewards-service/internal/models"
	"github.com/greenworld/eco-rewards-service/internal/service"
)

type SpendSeedsRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
}

// SeedHandler serves seed balances, ledger history and spend operations.
type SeedHandler struct {
	seeds *service.SeedService
}

func NewSeedHandler(seeds *service.SeedService) *SeedHandler {
	return &SeedHandler{seeds: seeds}
}

// Summary handles GET /members/{memberID}/seeds.
func (h *SeedHandler) Summary(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid member id")
		return
	}
	summary, err := h.seeds.Summary(r.Context(), memberID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "summary_failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Transactions handles GET /members/{memberID}/seeds/transactions.
func (h *SeedHandler) Transactions(w http.ResponseWriter, r *http.Request) {
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
	txs, err := h.seeds.Transactions(r.Context(), memberID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "transactions_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": txs})
}

// Use handles POST /members/{memberID}/seeds/use.
func (h *SeedHandler) Use(w http.ResponseWriter, r *http.Request) {
	h.spend(w, r, models.PointUse, models.PointCategoryEnvironmentDonate)
}

// Convert handles POST /members/{memberID}/seeds/convert.
func (h *SeedHandler) Convert(w http.ResponseWriter, r *http.Request) {
	h.spend(w, r, models.PointConvert, models.PointCategoryMoneyConversion)
}

func (h *SeedHandler) spend(w http.ResponseWriter, r *http.Request, typ models.PointTransactionType, category models.PointCategory) {
	memberID, ok := memberIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid member id")
		return
	}
	var req SpendSeedsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	desc := req.Description
	if desc == "" {
		desc = category.DisplayName()
	}

	var tx *models.PointTransaction
	var err error
	if typ == models.PointConvert {
		tx, err = h.seeds.Convert(r.Context(), memberID, req.Amount, category, desc)
	} else {
		tx, err = h.seeds.Use(r.Context(), memberID, req.Amount, category, desc)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			writeError(w, http.StatusBadRequest, "amount must be positive")
		case errors.Is(err, models.ErrInsufficientBalance):
			writeError(w, http.StatusConflict, "insufficient_balance")
		default:
			writeError(w, http.StatusInternalServerError, "spend_failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// MonthlyEarned handles GET /members/{memberID}/seeds/monthly.
func (h *SeedHandler) MonthlyEarned(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid member id")
		return
	}
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().UTC().Format(models.MonthFormat)
	}
	earned, err := h.seeds.MonthlyEarned(r.Context(), memberID, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "aggregate_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"member_id": memberID, "month": month, "earned": earned})
}

// TeamMonthly handles GET /teams/{teamID}/seeds/monthly.
func (h *SeedHandler) TeamMonthly(w http.ResponseWriter, r *http.Request) {
	teamID, err := strconv.ParseInt(chi.URLParam(r, "teamID"), 10, 64)
	if err != nil || teamID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().UTC().Format(models.MonthFormat)
	}
	total, err := h.seeds.TeamMonthlyTotal(r.Context(), teamID, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "aggregate_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"team_id": teamID, "month": month, "earned": total})
}
