package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/greenworld/eco-rewards-service/internal/models"
)

// ErrInvalidAmount rejects ledger operations with a non-positive amount.
var ErrInvalidAmount = errors.New("points amount must be positive")

// LedgerStore is the append-only point ledger as the seed service needs it.
type LedgerStore interface {
	InsertPointTransaction(ctx context.Context, tx *models.PointTransaction) (*models.PointTransaction, error)
	PointTransactionByRef(ctx context.Context, memberID int64, ref string) (*models.PointTransaction, error)
	MemberBalance(ctx context.Context, memberID int64) (int64, error)
	SumByType(ctx context.Context, memberID int64, typ models.PointTransactionType) (int64, error)
	MonthlySumByType(ctx context.Context, memberID int64, month string, typ models.PointTransactionType) (int64, error)
	TeamMonthlyEarned(ctx context.Context, teamID int64, month string) (int64, error)
	RecentTransactions(ctx context.Context, memberID int64, limit int) ([]models.PointTransaction, error)
}

// ProfileStore maintains the derived per-member monthly counters.
type ProfileStore interface {
	EnsureProfile(ctx context.Context, memberID int64) (*models.MemberProfile, error)
	ProfileByMember(ctx context.Context, memberID int64) (*models.MemberProfile, error)
	AddCurrentMonthPoints(ctx context.Context, memberID, points int64) error
	ResetCurrentMonth(ctx context.Context, memberID int64) error
}

// memberLocks hands out one mutex per member so balance-affecting
// operations for the same member serialize while unrelated members proceed
// without contention.
type memberLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func (l *memberLocks) forMember(memberID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[int64]*sync.Mutex)
	}
	m, ok := l.locks[memberID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[memberID] = m
	}
	return m
}

// SeedService owns the eco-seed ledger: appends, balance, and aggregate
// queries. All balance reads are recomputed from the log; the profile
// counters it maintains are derived state only.
type SeedService struct {
	ledger   LedgerStore
	profiles ProfileStore
	locks    memberLocks
	log      *slog.Logger
}

func NewSeedService(ledger LedgerStore, profiles ProfileStore, log *slog.Logger) *SeedService {
	return &SeedService{ledger: ledger, profiles: profiles, log: log}
}

// Earn appends an EARN entry. txRef, when non-empty, is the originating
// card-transaction ID; a second Earn with the same (member, ref) fails with
// models.ErrDuplicateTransaction and writes nothing.
func (s *SeedService) Earn(ctx context.Context, memberID, amount int64, category models.PointCategory, description, txRef string) (*models.PointTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	lock := s.locks.forMember(memberID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.ledger.InsertPointTransaction(ctx, &models.PointTransaction{
		MemberID:       memberID,
		Type:           models.PointEarn,
		Category:       category,
		Description:    description,
		PointsAmount:   amount,
		TransactionRef: txRef,
	})
	if err != nil {
		return nil, err
	}

	// Counter update is best-effort: the ledger row is authoritative and
	// the counter is re-derived at the next monthly reset.
	if err := s.profiles.AddCurrentMonthPoints(ctx, memberID, amount); err != nil {
		s.log.Warn("monthly counter update failed", "member_id", memberID, "error", err)
	}

	return tx, nil
}

// Use spends seeds. Fails with models.ErrInsufficientBalance when the
// member's balance is below amount; the ledger is left unchanged.
func (s *SeedService) Use(ctx context.Context, memberID, amount int64, category models.PointCategory, description string) (*models.PointTransaction, error) {
	return s.spend(ctx, memberID, amount, models.PointUse, category, description)
}

// Convert moves seeds to an external value store, with the same balance
// rule as Use.
func (s *SeedService) Convert(ctx context.Context, memberID, amount int64, category models.PointCategory, description string) (*models.PointTransaction, error) {
	return s.spend(ctx, memberID, amount, models.PointConvert, category, description)
}

func (s *SeedService) spend(ctx context.Context, memberID, amount int64, typ models.PointTransactionType, category models.PointCategory, description string) (*models.PointTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	// The balance check and the insert happen under the same per-member
	// lock, so two concurrent spends cannot both validate against a stale
	// balance.
	lock := s.locks.forMember(memberID)
	lock.Lock()
	defer lock.Unlock()

	balance, err := s.ledger.MemberBalance(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("balance lookup: %w", err)
	}
	if balance < amount {
		return nil, models.ErrInsufficientBalance
	}

	return s.ledger.InsertPointTransaction(ctx, &models.PointTransaction{
		MemberID:     memberID,
		Type:         typ,
		Category:     category,
		Description:  description,
		PointsAmount: -amount,
	})
}

func (s *SeedService) Balance(ctx context.Context, memberID int64) (int64, error) {
	return s.ledger.MemberBalance(ctx, memberID)
}

// TransactionByRef returns the ledger entry carrying the given transaction
// reference, or nil when none exists.
func (s *SeedService) TransactionByRef(ctx context.Context, memberID int64, ref string) (*models.PointTransaction, error) {
	return s.ledger.PointTransactionByRef(ctx, memberID, ref)
}

// Summary aggregates lifetime totals. Used and converted sums are stored
// negative and reported as magnitudes.
func (s *SeedService) Summary(ctx context.Context, memberID int64) (*models.SeedSummary, error) {
	earned, err := s.ledger.SumByType(ctx, memberID, models.PointEarn)
	if err != nil {
		return nil, err
	}
	used, err := s.ledger.SumByType(ctx, memberID, models.PointUse)
	if err != nil {
		return nil, err
	}
	converted, err := s.ledger.SumByType(ctx, memberID, models.PointConvert)
	if err != nil {
		return nil, err
	}
	return &models.SeedSummary{
		MemberID:       memberID,
		TotalEarned:    earned,
		TotalUsed:      -used,
		TotalConverted: -converted,
		Balance:        earned + used + converted,
	}, nil
}

func (s *SeedService) MonthlyEarned(ctx context.Context, memberID int64, month string) (int64, error) {
	return s.ledger.MonthlySumByType(ctx, memberID, month, models.PointEarn)
}

func (s *SeedService) MonthlySumByType(ctx context.Context, memberID int64, month string, typ models.PointTransactionType) (int64, error) {
	return s.ledger.MonthlySumByType(ctx, memberID, month, typ)
}

func (s *SeedService) TeamMonthlyTotal(ctx context.Context, teamID int64, month string) (int64, error) {
	return s.ledger.TeamMonthlyEarned(ctx, teamID, month)
}

func (s *SeedService) Transactions(ctx context.Context, memberID int64, limit int) ([]models.PointTransaction, error) {
	return s.ledger.RecentTransactions(ctx, memberID, limit)
}
