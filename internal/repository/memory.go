package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/greenworld/eco-rewards-service/internal/models"
)

// Memory is an in-memory implementation of every repository, used by tests
// and by local runs without a database. It enforces the same invariants as
// the Postgres repositories: signed ledger amounts, per-(member, ref)
// uniqueness, and a non-negative balance on insert.
type Memory struct {
	mu sync.Mutex

	merchants   []models.EcoMerchant
	ledger      []models.PointTransaction
	profiles    map[int64]*models.MemberProfile
	reports     []models.MonthlyReport
	runs        map[string]models.SchedulerRun // key: job|period
	merchantTxs []models.EcoMerchantTransaction

	nextMerchantID int64
	nextLedgerID   int64
	nextReportID   int64
}

func NewMemory() *Memory {
	return &Memory{
		profiles: make(map[int64]*models.MemberProfile),
		runs:     make(map[string]models.SchedulerRun),
	}
}

// AddMerchant seeds a merchant and returns its assigned ID.
func (m *Memory) AddMerchant(merchant models.EcoMerchant) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextMerchantID++
	merchant.ID = m.nextMerchantID
	m.merchants = append(m.merchants, merchant)
	return merchant.ID
}

// --- merchant store ---

func (m *Memory) MerchantByBusinessNumber(ctx context.Context, businessNumber string) (*models.EcoMerchant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.merchants {
		mc := m.merchants[i]
		if mc.BusinessNumber == businessNumber && mc.IsActive {
			out := mc
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) ActiveMerchants(ctx context.Context) ([]models.EcoMerchant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.EcoMerchant, 0, len(m.merchants))
	for _, mc := range m.merchants {
		if mc.IsActive {
			out = append(out, mc)
		}
	}
	return out, nil
}

// --- ledger store ---

func (m *Memory) InsertPointTransaction(ctx context.Context, tx *models.PointTransaction) (*models.PointTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tx.TransactionRef != "" {
		for _, existing := range m.ledger {
			if existing.MemberID == tx.MemberID && existing.TransactionRef == tx.TransactionRef {
				return nil, models.ErrDuplicateTransaction
			}
		}
	}

	balance := m.balanceLocked(tx.MemberID)
	if balance+tx.PointsAmount < 0 {
		return nil, models.ErrInsufficientBalance
	}

	m.nextLedgerID++
	stored := *tx
	stored.ID = m.nextLedgerID
	stored.BalanceAfter = balance + tx.PointsAmount
	if stored.OccurredAt.IsZero() {
		stored.OccurredAt = time.Now().UTC()
	}
	m.ledger = append(m.ledger, stored)

	out := stored
	return &out, nil
}

func (m *Memory) PointTransactionByRef(ctx context.Context, memberID int64, ref string) (*models.PointTransaction, error) {
	if ref == "" {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.ledger {
		if m.ledger[i].MemberID == memberID && m.ledger[i].TransactionRef == ref {
			out := m.ledger[i]
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) MemberBalance(ctx context.Context, memberID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceLocked(memberID), nil
}

func (m *Memory) balanceLocked(memberID int64) int64 {
	var sum int64
	for _, tx := range m.ledger {
		if tx.MemberID == memberID {
			sum += tx.PointsAmount
		}
	}
	return sum
}

func (m *Memory) SumByType(ctx context.Context, memberID int64, typ models.PointTransactionType) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, tx := range m.ledger {
		if tx.MemberID == memberID && tx.Type == typ {
			sum += tx.PointsAmount
		}
	}
	return sum, nil
}

func (m *Memory) MonthlySumByType(ctx context.Context, memberID int64, month string, typ models.PointTransactionType) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, tx := range m.ledger {
		if tx.MemberID == memberID && tx.Type == typ && tx.OccurredAt.Format(models.MonthFormat) == month {
			sum += tx.PointsAmount
		}
	}
	return sum, nil
}

func (m *Memory) TeamMonthlyEarned(ctx context.Context, teamID int64, month string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	members := make(map[int64]bool)
	for id, p := range m.profiles {
		if p.TeamID == teamID {
			members[id] = true
		}
	}
	var sum int64
	for _, tx := range m.ledger {
		if members[tx.MemberID] && tx.Type == models.PointEarn && tx.OccurredAt.Format(models.MonthFormat) == month {
			sum += tx.PointsAmount
		}
	}
	return sum, nil
}

func (m *Memory) RecentTransactions(ctx context.Context, memberID int64, limit int) ([]models.PointTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PointTransaction
	for _, tx := range m.ledger {
		if tx.MemberID == memberID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- profile store ---

func (m *Memory) EnsureProfile(ctx context.Context, memberID int64) (*models.MemberProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureProfileLocked(memberID), nil
}

func (m *Memory) ensureProfileLocked(memberID int64) *models.MemberProfile {
	p, ok := m.profiles[memberID]
	if !ok {
		p = &models.MemberProfile{MemberID: memberID, IsActive: true}
		m.profiles[memberID] = p
	}
	out := *p
	return &out
}

func (m *Memory) ProfileByMember(ctx context.Context, memberID int64) (*models.MemberProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[memberID]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

// SetProfile seeds a profile for tests.
func (m *Memory) SetProfile(p models.MemberProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := p
	m.profiles[p.MemberID] = &cp
}

func (m *Memory) ActiveMemberIDs(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for id, p := range m.profiles {
		if p.IsActive {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *Memory) AddCurrentMonthPoints(ctx context.Context, memberID, points int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureProfileLocked(memberID)
	p := m.profiles[memberID]
	p.CurrentMonthPoints += points
	p.CurrentMonthActivities++
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) ResetCurrentMonth(ctx context.Context, memberID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[memberID]
	if !ok {
		return nil
	}
	p.CurrentMonthPoints = 0
	p.CurrentMonthActivities = 0
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// --- report store ---

func (m *Memory) ReportByMemberAndMonth(ctx context.Context, memberID int64, month string) (*models.MonthlyReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.reports {
		if m.reports[i].MemberID == memberID && m.reports[i].ReportMonth == month {
			out := m.reports[i]
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) InsertReport(ctx context.Context, r *models.MonthlyReport) (*models.MonthlyReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextReportID++
	stored := *r
	stored.ID = m.nextReportID
	if stored.GeneratedAt.IsZero() {
		stored.GeneratedAt = time.Now().UTC()
	}
	m.reports = append(m.reports, stored)
	out := stored
	return &out, nil
}

// --- scheduler run store ---

func (m *Memory) ClaimRun(ctx context.Context, job, period string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := job + "|" + period
	if _, ok := m.runs[key]; ok {
		return false, nil
	}
	m.runs[key] = models.SchedulerRun{JobName: job, Period: period, RanAt: time.Now().UTC()}
	return true, nil
}

func (m *Memory) LastRunFor(ctx context.Context, job string) (*models.SchedulerRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.SchedulerRun
	for key := range m.runs {
		if !strings.HasPrefix(key, job+"|") {
			continue
		}
		run := m.runs[key]
		if latest == nil || run.RanAt.After(latest.RanAt) {
			cp := run
			latest = &cp
		}
	}
	return latest, nil
}

// --- merchant transaction store ---

func (m *Memory) InsertMerchantTransaction(ctx context.Context, tx *models.EcoMerchantTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *tx
	stored.ID = int64(len(m.merchantTxs) + 1)
	m.merchantTxs = append(m.merchantTxs, stored)
	return nil
}

func (m *Memory) MerchantHistory(ctx context.Context, memberID int64, limit int) ([]models.EcoMerchantTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EcoMerchantTransaction
	for _, tx := range m.merchantTxs {
		if tx.MemberID == memberID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TransactionAt.After(out[j].TransactionAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) MerchantStats(ctx context.Context, memberID int64, currentMonth string) (*models.EcoMerchantStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.EcoMerchantStats{}
	merchants := make(map[int64]bool)
	for _, tx := range m.merchantTxs {
		if tx.MemberID != memberID {
			continue
		}
		stats.TotalTransactions++
		stats.TotalAmount += tx.Amount
		stats.TotalEarnedSeeds += tx.EarnedSeeds
		merchants[tx.MerchantID] = true
		if tx.TransactionAt.Format(models.MonthFormat) == currentMonth {
			stats.CurrentMonthSeeds += tx.EarnedSeeds
			stats.CurrentMonthAmount += tx.Amount
		}
	}
	stats.DistinctMerchants = int64(len(merchants))
	return stats, nil
}
