package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/greenworld/eco-rewards-service/internal/config"
	"github.com/greenworld/eco-rewards-service/internal/models"
	"github.com/greenworld/eco-rewards-service/internal/repository"
	"github.com/greenworld/eco-rewards-service/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingReportStore makes report persistence fail for one member so the
// batch-isolation behaviour can be observed.
type failingReportStore struct {
	*repository.Memory
	failMember int64
}

func (f *failingReportStore) InsertReport(ctx context.Context, r *models.MonthlyReport) (*models.MonthlyReport, error) {
	if r.MemberID == f.failMember {
		return nil, errors.New("simulated store failure")
	}
	return f.Memory.InsertReport(ctx, r)
}

func newFixture(reports service.ReportStore, mem *repository.Memory) *Scheduler {
	seeds := service.NewSeedService(mem, mem, testLogger())
	reportSvc := service.NewReportService(reports, seeds, testLogger())
	s := New(config.SchedulerConfig{ReportCron: "30 0 1 * *", ResetCron: "0 0 1 * *"},
		mem, mem, reportSvc, testLogger())
	s.now = func() time.Time { return time.Date(2026, 9, 1, 0, 30, 0, 0, time.UTC) }
	return s
}

func seedMember(t *testing.T, mem *repository.Memory, memberID int64, earned int64) {
	t.Helper()
	mem.SetProfile(models.MemberProfile{MemberID: memberID, IsActive: true})
	_, err := mem.InsertPointTransaction(context.Background(), &models.PointTransaction{
		MemberID:     memberID,
		Type:         models.PointEarn,
		Category:     models.PointCategoryEcoMerchant,
		PointsAmount: earned,
		OccurredAt:   time.Date(2026, 8, 12, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed ledger for member %d: %v", memberID, err)
	}
}

func TestRunMonthlyReportsOncePerPeriod(t *testing.T) {
	mem := repository.NewMemory()
	s := newFixture(mem, mem)
	ctx := context.Background()

	seedMember(t, mem, 1, 300)
	seedMember(t, mem, 2, 150)

	res, err := s.RunMonthlyReports(ctx)
	if err != nil {
		t.Fatalf("RunMonthlyReports() error: %v", err)
	}
	if res.Period != "2026-08" {
		t.Errorf("period = %q, want 2026-08", res.Period)
	}
	if res.Success != 2 || res.Failure != 0 || res.Skipped {
		t.Errorf("result = %+v, want 2 successes", res)
	}

	report, err := mem.ReportByMemberAndMonth(ctx, 1, "2026-08")
	if err != nil || report == nil {
		t.Fatalf("ReportByMemberAndMonth() = %v, %v", report, err)
	}
	if report.EarnedSeeds != 300 {
		t.Errorf("EarnedSeeds = %d, want 300", report.EarnedSeeds)
	}

	rerun, err := s.RunMonthlyReports(ctx)
	if err != nil {
		t.Fatalf("second RunMonthlyReports() error: %v", err)
	}
	if !rerun.Skipped || rerun.Success != 0 {
		t.Errorf("rerun = %+v, want skipped no-op", rerun)
	}
}

func TestRunMonthlyReportsIsolatesMemberFailures(t *testing.T) {
	mem := repository.NewMemory()
	s := newFixture(&failingReportStore{Memory: mem, failMember: 2}, mem)
	ctx := context.Background()

	seedMember(t, mem, 1, 100)
	seedMember(t, mem, 2, 200)
	seedMember(t, mem, 3, 300)

	res, err := s.RunMonthlyReports(ctx)
	if err != nil {
		t.Fatalf("RunMonthlyReports() error: %v", err)
	}
	if res.Success != 2 || res.Failure != 1 {
		t.Errorf("result = %+v, want 2 successes and 1 failure", res)
	}

	for _, memberID := range []int64{1, 3} {
		report, err := mem.ReportByMemberAndMonth(ctx, memberID, "2026-08")
		if err != nil || report == nil {
			t.Errorf("member %d report missing after partial failure", memberID)
		}
	}
}

func TestRunMonthlyResetClearsCountersOnly(t *testing.T) {
	mem := repository.NewMemory()
	s := newFixture(mem, mem)
	ctx := context.Background()

	seedMember(t, mem, 1, 500)
	mem.SetProfile(models.MemberProfile{
		MemberID: 1, IsActive: true,
		CurrentMonthPoints: 500, CurrentMonthActivities: 3,
	})

	res, err := s.RunMonthlyReset(ctx)
	if err != nil {
		t.Fatalf("RunMonthlyReset() error: %v", err)
	}
	if res.Period != "2026-09" {
		t.Errorf("period = %q, want 2026-09", res.Period)
	}
	if res.Success != 1 || res.Failure != 0 {
		t.Errorf("result = %+v, want 1 success", res)
	}

	profile, err := mem.ProfileByMember(ctx, 1)
	if err != nil || profile == nil {
		t.Fatalf("ProfileByMember() = %v, %v", profile, err)
	}
	if profile.CurrentMonthPoints != 0 || profile.CurrentMonthActivities != 0 {
		t.Errorf("counters = %d/%d after reset, want 0/0",
			profile.CurrentMonthPoints, profile.CurrentMonthActivities)
	}

	// The ledger is append-only; the reset must not touch balances.
	balance, err := mem.MemberBalance(ctx, 1)
	if err != nil {
		t.Fatalf("MemberBalance() error: %v", err)
	}
	if balance != 500 {
		t.Errorf("balance = %d after reset, want 500", balance)
	}

	rerun, err := s.RunMonthlyReset(ctx)
	if err != nil {
		t.Fatalf("second RunMonthlyReset() error: %v", err)
	}
	if !rerun.Skipped {
		t.Errorf("rerun = %+v, want skipped", rerun)
	}
}

func TestStatusReportsLastRuns(t *testing.T) {
	mem := repository.NewMemory()
	s := newFixture(mem, mem)
	ctx := context.Background()

	status, err := s.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if status.LastReportRun != nil || status.LastResetRun != nil {
		t.Errorf("fresh status = %+v, want no recorded runs", status)
	}
	if status.ReportSchedule != "30 0 1 * *" || status.ResetSchedule != "0 0 1 * *" {
		t.Errorf("schedules = %+v", status)
	}

	if _, err := s.RunMonthlyReports(ctx); err != nil {
		t.Fatalf("RunMonthlyReports() error: %v", err)
	}
	if _, err := s.RunMonthlyReset(ctx); err != nil {
		t.Fatalf("RunMonthlyReset() error: %v", err)
	}

	status, err = s.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if status.LastReportRun == nil || status.LastReportRun.Period != "2026-08" {
		t.Errorf("LastReportRun = %+v, want period 2026-08", status.LastReportRun)
	}
	if status.LastResetRun == nil || status.LastResetRun.Period != "2026-09" {
		t.Errorf("LastResetRun = %+v, want period 2026-09", status.LastResetRun)
	}
}
