package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/greenworld/eco-rewards-service/internal/cache"
	"github.com/greenworld/eco-rewards-service/internal/geo"
	"github.com/greenworld/eco-rewards-service/internal/models"
)

// matchRadiusKm bounds the name+proximity fallback when the event carries
// terminal coordinates.
const matchRadiusKm = 2.0

// MerchantStore is the read-only merchant registry as matching needs it.
type MerchantStore interface {
	MerchantByBusinessNumber(ctx context.Context, businessNumber string) (*models.EcoMerchant, error)
	ActiveMerchants(ctx context.Context) ([]models.EcoMerchant, error)
}

// MerchantTxStore records matched eco-merchant transactions for history and
// stats queries.
type MerchantTxStore interface {
	InsertMerchantTransaction(ctx context.Context, tx *models.EcoMerchantTransaction) error
	MerchantHistory(ctx context.Context, memberID int64, limit int) ([]models.EcoMerchantTransaction, error)
	MerchantStats(ctx context.Context, memberID int64, currentMonth string) (*models.EcoMerchantStats, error)
}

// MatchingService resolves card transactions to registered eco-merchants
// and awards seeds through the ledger. It is the bus consumer for
// TransactionCreated events.
type MatchingService struct {
	merchants   MerchantStore
	merchantTxs MerchantTxStore
	seeds       *SeedService
	cache       *cache.MerchantCache
	rates       map[models.MerchantCategory]int64
	log         *slog.Logger
}

func NewMatchingService(
	merchants MerchantStore,
	merchantTxs MerchantTxStore,
	seeds *SeedService,
	rates map[models.MerchantCategory]int64,
	log *slog.Logger,
) *MatchingService {
	if rates == nil {
		rates = models.DefaultRewardRates()
	}
	return &MatchingService{
		merchants:   merchants,
		merchantTxs: merchantTxs,
		seeds:       seeds,
		cache:       cache.NewMerchantCache(),
		rates:       rates,
		log:         log,
	}
}

// HandleTransactionCreated is the event-bus handler. Errors are terminal
// for the event: the bus logs them and no redelivery happens.
func (s *MatchingService) HandleTransactionCreated(ctx context.Context, ev models.TransactionEvent) error {
	result, err := s.Process(ctx, ev)
	if err != nil {
		return fmt.Errorf("matching transaction %s: %w", ev.TransactionID, err)
	}
	if result.IsEcoMerchant {
		s.log.Info("eco-merchant matched",
			"transaction_id", ev.TransactionID,
			"member_id", ev.MemberID,
			"merchant", result.MerchantName,
			"additional_seeds", result.AdditionalSeeds)
	} else {
		s.log.Debug("ordinary merchant",
			"transaction_id", ev.TransactionID,
			"merchant", ev.MerchantName)
	}
	return nil
}

// Process runs the matching pipeline for one transaction. Repeated delivery
// of the same transaction ID returns the prior result without a second
// ledger write.
func (s *MatchingService) Process(ctx context.Context, ev models.TransactionEvent) (models.MatchResult, error) {
	if prior, err := s.seeds.TransactionByRef(ctx, ev.MemberID, ev.TransactionID); err != nil {
		return models.MatchResult{}, fmt.Errorf("duplicate check: %w", err)
	} else if prior != nil {
		return models.MatchResult{
			IsEcoMerchant:   true,
			MerchantName:    ev.MerchantName,
			AdditionalSeeds: prior.PointsAmount,
		}, nil
	}

	merchant, err := s.matchMerchant(ctx, ev)
	if err != nil {
		return models.MatchResult{}, err
	}
	if merchant == nil {
		return models.MatchResult{IsEcoMerchant: false}, nil
	}

	seeds := models.RewardSeeds(ev.Amount, s.rates[merchant.Category])
	if seeds <= 0 {
		// Amount too small to earn a whole seed; matched but nothing to append.
		return models.MatchResult{IsEcoMerchant: true, MerchantName: merchant.Name}, nil
	}

	description := fmt.Sprintf("%s eco-merchant reward (amount %d)", merchant.Name, ev.Amount)
	tx, err := s.seeds.Earn(ctx, ev.MemberID, seeds, models.PointCategoryEcoMerchant, description, ev.TransactionID)
	if errors.Is(err, models.ErrDuplicateTransaction) {
		// Lost a race with a concurrent delivery of the same event.
		prior, refErr := s.seeds.TransactionByRef(ctx, ev.MemberID, ev.TransactionID)
		if refErr != nil || prior == nil {
			return models.MatchResult{}, fmt.Errorf("duplicate recovery: %w", refErr)
		}
		return models.MatchResult{
			IsEcoMerchant:   true,
			MerchantName:    merchant.Name,
			AdditionalSeeds: prior.PointsAmount,
		}, nil
	}
	if err != nil {
		return models.MatchResult{}, fmt.Errorf("earn seeds: %w", err)
	}

	record := &models.EcoMerchantTransaction{
		MemberID:       ev.MemberID,
		MerchantID:     merchant.ID,
		TransactionRef: ev.TransactionID,
		MerchantName:   merchant.Name,
		BusinessNumber: merchant.BusinessNumber,
		Amount:         ev.Amount,
		EarnedSeeds:    tx.PointsAmount,
		BenefitRate:    float64(tx.PointsAmount) / float64(ev.Amount),
		TransactionAt:  ev.TransactionAt,
	}
	if err := s.merchantTxs.InsertMerchantTransaction(ctx, record); err != nil {
		s.log.Warn("merchant history write failed",
			"transaction_id", ev.TransactionID, "error", err)
	}

	return models.MatchResult{
		IsEcoMerchant:   true,
		MerchantName:    merchant.Name,
		AdditionalSeeds: tx.PointsAmount,
	}, nil
}

// History lists a member's matched eco-merchant transactions, newest first.
func (s *MatchingService) History(ctx context.Context, memberID int64, limit int) ([]models.EcoMerchantTransaction, error) {
	return s.merchantTxs.MerchantHistory(ctx, memberID, limit)
}

// Stats aggregates a member's eco-merchant activity; currentMonth is a
// YYYY-MM key for the month-scoped fields.
func (s *MatchingService) Stats(ctx context.Context, memberID int64, currentMonth string) (*models.EcoMerchantStats, error) {
	return s.merchantTxs.MerchantStats(ctx, memberID, currentMonth)
}

// matchMerchant resolves the event to a verified eco-merchant, or nil when
// the transaction happened at an ordinary merchant.
func (s *MatchingService) matchMerchant(ctx context.Context, ev models.TransactionEvent) (*models.EcoMerchant, error) {
	if bn := strings.TrimSpace(ev.BusinessNumber); bn != "" {
		merchant, ok := s.cache.Get(bn)
		if !ok {
			var err error
			merchant, err = s.merchants.MerchantByBusinessNumber(ctx, bn)
			if err != nil {
				return nil, fmt.Errorf("merchant lookup: %w", err)
			}
			if merchant != nil {
				s.cache.Set(bn, merchant)
			}
		}
		if merchant != nil && merchant.IsVerified {
			return merchant, nil
		}
		return nil, nil
	}
	return s.matchByNameAndLocation(ctx, ev)
}

// matchByNameAndLocation is the fallback for transactions without a
// business number: verified merchants whose normalized name matches, ranked
// by proximity when the event carries terminal coordinates. Without
// coordinates the match must be unambiguous.
func (s *MatchingService) matchByNameAndLocation(ctx context.Context, ev models.TransactionEvent) (*models.EcoMerchant, error) {
	if strings.TrimSpace(ev.MerchantName) == "" {
		return nil, nil
	}

	all, err := s.merchants.ActiveMerchants(ctx)
	if err != nil {
		return nil, fmt.Errorf("merchant list: %w", err)
	}

	hint := models.MerchantCategory(ev.MerchantCategoryHint)
	var candidates []models.EcoMerchant
	for _, m := range all {
		if !m.IsVerified {
			continue
		}
		if hint.Valid() && m.Category != hint {
			continue
		}
		if !namesMatch(ev.MerchantName, m.Name) {
			continue
		}
		candidates = append(candidates, m)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	if ev.Latitude == nil || ev.Longitude == nil {
		if len(candidates) == 1 {
			return &candidates[0], nil
		}
		// Ambiguous without a location; treat as no match.
		return nil, nil
	}

	var best *models.EcoMerchant
	bestDist := matchRadiusKm
	for i := range candidates {
		m := candidates[i]
		d := geo.Haversine(*ev.Latitude, *ev.Longitude, m.Latitude, m.Longitude)
		if d > matchRadiusKm {
			continue
		}
		if best == nil || d < bestDist || (d == bestDist && m.ID < best.ID) {
			best = &candidates[i]
			bestDist = d
		}
	}
	return best, nil
}

// namesMatch compares merchant names case- and whitespace-insensitively;
// one containing the other counts as a match (card processors often append
// branch suffixes).
func namesMatch(a, b string) bool {
	na, nb := normalizeName(a), normalizeName(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb || strings.Contains(na, nb) || strings.Contains(nb, na)
}

func normalizeName(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "")
}
