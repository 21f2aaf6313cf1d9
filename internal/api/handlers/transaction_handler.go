package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/greenworld/eco-rewards-service/internal/events"
	"github.com/greenworld/eco-rewards-service/internal/models"
)

// CreateTransactionRequest is the card-transaction webhook payload.
type CreateTransactionRequest struct {
	TransactionID    string   `json:"transaction_id"`
	MemberID         int64    `json:"member_id"`
	MerchantName     string   `json:"merchant_name"`
	BusinessNumber   string   `json:"business_number,omitempty"`
	Amount           int64    `json:"amount"`
	TransactionAt    string   `json:"transaction_at"` // RFC3339
	Category         string   `json:"category"`
	MerchantCategory string   `json:"merchant_category,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
}

// TransactionHandler accepts recorded card transactions and publishes them
// for asynchronous reward processing. The caller never waits on matching.
type TransactionHandler struct {
	bus *events.Bus
	log *slog.Logger
}

func NewTransactionHandler(bus *events.Bus, log *slog.Logger) *TransactionHandler {
	return &TransactionHandler{bus: bus, log: log}
}

// Create handles POST /transactions.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	if strings.TrimSpace(req.TransactionID) == "" || req.MemberID <= 0 {
		writeError(w, http.StatusBadRequest, "transaction_id and member_id required")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	transactionAt := time.Now().UTC()
	if strings.TrimSpace(req.TransactionAt) != "" {
		t, err := time.Parse(time.RFC3339, req.TransactionAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid transaction_at; use RFC3339")
			return
		}
		transactionAt = t.UTC()
	}

	h.bus.Publish(models.TransactionEvent{
		TransactionID:        req.TransactionID,
		MemberID:             req.MemberID,
		MerchantName:         req.MerchantName,
		BusinessNumber:       req.BusinessNumber,
		Amount:               req.Amount,
		TransactionAt:        transactionAt,
		Category:             req.Category,
		MerchantCategoryHint: req.MerchantCategory,
		Latitude:             req.Latitude,
		Longitude:            req.Longitude,
	})

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":         "accepted",
		"transaction_id": req.TransactionID,
	})
}
