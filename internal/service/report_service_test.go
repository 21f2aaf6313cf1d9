package service

import (
	"context"
	"testing"
	"time"

	"github.com/greenworld/eco-rewards-service/internal/models"
	"github.com/greenworld/eco-rewards-service/internal/repository"
)

func TestGenerateMonthlyReport(t *testing.T) {
	mem := repository.NewMemory()
	seeds := NewSeedService(mem, mem, testLogger())
	svc := NewReportService(mem, seeds, testLogger())
	ctx := context.Background()

	august := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	entries := []models.PointTransaction{
		{MemberID: 1, Type: models.PointEarn, Category: models.PointCategoryEcoMerchant, PointsAmount: 300, OccurredAt: august},
		{MemberID: 1, Type: models.PointUse, Category: models.PointCategoryEnvironmentDonate, PointsAmount: -100, OccurredAt: august.AddDate(0, 0, 5)},
		// September entry must not leak into the August report.
		{MemberID: 1, Type: models.PointEarn, Category: models.PointCategoryWalking, PointsAmount: 40, OccurredAt: august.AddDate(0, 1, 0)},
	}
	for i := range entries {
		if _, err := mem.InsertPointTransaction(ctx, &entries[i]); err != nil {
			t.Fatalf("seed ledger: %v", err)
		}
	}

	report, created, err := svc.GenerateMonthlyReport(ctx, 1, "2026-08")
	if err != nil {
		t.Fatalf("GenerateMonthlyReport() error: %v", err)
	}
	if !created {
		t.Fatal("created = false on first generation")
	}
	if report.EarnedSeeds != 300 || report.UsedSeeds != 100 || report.ConvertedSeeds != 0 {
		t.Errorf("report aggregates = %+v, want earned 300 used 100 converted 0", report)
	}
	if report.BalanceAtGen != 240 {
		t.Errorf("BalanceAtGen = %d, want 240", report.BalanceAtGen)
	}

	again, created, err := svc.GenerateMonthlyReport(ctx, 1, "2026-08")
	if err != nil {
		t.Fatalf("second GenerateMonthlyReport() error: %v", err)
	}
	if created {
		t.Error("created = true on regeneration, want existing report returned")
	}
	if again.ID != report.ID {
		t.Errorf("regeneration returned report %d, want %d", again.ID, report.ID)
	}
}

func TestGenerateMonthlyReportEmptyMonth(t *testing.T) {
	mem := repository.NewMemory()
	seeds := NewSeedService(mem, mem, testLogger())
	svc := NewReportService(mem, seeds, testLogger())

	report, created, err := svc.GenerateMonthlyReport(context.Background(), 7, "2026-07")
	if err != nil {
		t.Fatalf("GenerateMonthlyReport() error: %v", err)
	}
	if !created {
		t.Fatal("created = false, want a zero report persisted")
	}
	if report.EarnedSeeds != 0 || report.UsedSeeds != 0 || report.BalanceAtGen != 0 {
		t.Errorf("zero-activity report = %+v, want all zeros", report)
	}
}
