package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/greenworld/eco-rewards-service/internal/models"
)

// ReportStore persists monthly report snapshots.
type ReportStore interface {
	ReportByMemberAndMonth(ctx context.Context, memberID int64, month string) (*models.MonthlyReport, error)
	InsertReport(ctx context.Context, r *models.MonthlyReport) (*models.MonthlyReport, error)
}

// ReportService builds monthly report snapshots from ledger aggregates.
type ReportService struct {
	reports ReportStore
	seeds   *SeedService
	log     *slog.Logger
}

func NewReportService(reports ReportStore, seeds *SeedService, log *slog.Logger) *ReportService {
	return &ReportService{reports: reports, seeds: seeds, log: log}
}

// GenerateMonthlyReport computes the member's aggregates for the month and
// persists one report row. A report that already exists for the month is
// returned as-is with created=false, so generation is idempotent.
func (s *ReportService) GenerateMonthlyReport(ctx context.Context, memberID int64, month string) (report *models.MonthlyReport, created bool, err error) {
	existing, err := s.reports.ReportByMemberAndMonth(ctx, memberID, month)
	if err != nil {
		return nil, false, fmt.Errorf("report lookup: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	earned, err := s.seeds.MonthlySumByType(ctx, memberID, month, models.PointEarn)
	if err != nil {
		return nil, false, fmt.Errorf("earned aggregate: %w", err)
	}
	used, err := s.seeds.MonthlySumByType(ctx, memberID, month, models.PointUse)
	if err != nil {
		return nil, false, fmt.Errorf("used aggregate: %w", err)
	}
	converted, err := s.seeds.MonthlySumByType(ctx, memberID, month, models.PointConvert)
	if err != nil {
		return nil, false, fmt.Errorf("converted aggregate: %w", err)
	}
	balance, err := s.seeds.Balance(ctx, memberID)
	if err != nil {
		return nil, false, fmt.Errorf("balance: %w", err)
	}

	stored, err := s.reports.InsertReport(ctx, &models.MonthlyReport{
		MemberID:       memberID,
		ReportMonth:    month,
		EarnedSeeds:    earned,
		UsedSeeds:      -used,
		ConvertedSeeds: -converted,
		BalanceAtGen:   balance,
		GeneratedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, false, fmt.Errorf("report insert: %w", err)
	}
	return stored, true, nil
}
