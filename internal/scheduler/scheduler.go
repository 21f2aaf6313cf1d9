// Package scheduler runs the monthly report and reset jobs on a
// process-wide cron, with a persisted run marker per (job, period) so each
// job executes at most once per calendar month even across restarts.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/greenworld/eco-rewards-service/internal/config"
	"github.com/greenworld/eco-rewards-service/internal/models"
	"github.com/greenworld/eco-rewards-service/internal/service"
)

const (
	JobMonthlyReport = "monthly_report"
	JobMonthlyReset  = "monthly_reset"
)

// RunStore persists run markers.
type RunStore interface {
	ClaimRun(ctx context.Context, job, period string) (bool, error)
	LastRunFor(ctx context.Context, job string) (*models.SchedulerRun, error)
}

// MemberStore lists members and resets their derived monthly counters.
type MemberStore interface {
	ActiveMemberIDs(ctx context.Context) ([]int64, error)
	ResetCurrentMonth(ctx context.Context, memberID int64) error
}

// Result is a job's outcome. One member's failure never aborts the batch;
// it is counted here instead. Skipped means the period was already claimed
// (or a run was still in progress) and nothing was processed.
type Result struct {
	Period  string `json:"period"`
	Success int    `json:"success_count"`
	Failure int    `json:"failure_count"`
	Skipped bool   `json:"skipped"`
}

// Status reports the configured schedules and last-known runs for the
// administrative status endpoint.
type Status struct {
	ReportSchedule string               `json:"report_schedule"`
	ResetSchedule  string               `json:"reset_schedule"`
	LastReportRun  *models.SchedulerRun `json:"last_report_run,omitempty"`
	LastResetRun   *models.SchedulerRun `json:"last_reset_run,omitempty"`
}

type Scheduler struct {
	cfg      config.SchedulerConfig
	runs     RunStore
	members  MemberStore
	reports  *service.ReportService
	log      *slog.Logger
	cron     *cron.Cron
	now      func() time.Time
	reportMu sync.Mutex
	resetMu  sync.Mutex
}

func New(cfg config.SchedulerConfig, runs RunStore, members MemberStore, reports *service.ReportService, log *slog.Logger) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		runs:    runs,
		members: members,
		reports: reports,
		log:     log,
		now:     time.Now,
	}
}

// Start registers the cron entries and begins the schedule. Jobs triggered
// by cron share the idempotency guarantees of the manual triggers.
func (s *Scheduler) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(s.cfg.ReportCron, func() {
		if _, err := s.RunMonthlyReports(context.Background()); err != nil {
			s.log.Error("monthly report job failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("report schedule %q: %w", s.cfg.ReportCron, err)
	}
	if _, err := c.AddFunc(s.cfg.ResetCron, func() {
		if _, err := s.RunMonthlyReset(context.Background()); err != nil {
			s.log.Error("monthly reset job failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("reset schedule %q: %w", s.cfg.ResetCron, err)
	}
	c.Start()
	s.cron = c
	return nil
}

// Stop halts the cron and waits for a running job to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// RunMonthlyReports generates last month's report for every active member.
// Safe to invoke repeatedly: the period marker makes re-runs no-ops.
func (s *Scheduler) RunMonthlyReports(ctx context.Context) (Result, error) {
	if !s.reportMu.TryLock() {
		return Result{Skipped: true}, nil
	}
	defer s.reportMu.Unlock()

	period := previousMonth(s.now().UTC())
	claimed, err := s.runs.ClaimRun(ctx, JobMonthlyReport, period)
	if err != nil {
		return Result{}, fmt.Errorf("claim %s/%s: %w", JobMonthlyReport, period, err)
	}
	if !claimed {
		s.log.Info("monthly report already ran", "period", period)
		return Result{Period: period, Skipped: true}, nil
	}

	ids, err := s.members.ActiveMemberIDs(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list members: %w", err)
	}

	res := Result{Period: period}
	for _, memberID := range ids {
		if _, _, err := s.reports.GenerateMonthlyReport(ctx, memberID, period); err != nil {
			res.Failure++
			s.log.Error("report generation failed",
				"member_id", memberID, "period", period, "error", err)
			continue
		}
		res.Success++
	}
	s.log.Info("monthly report job finished",
		"period", period, "success", res.Success, "failure", res.Failure)
	return res, nil
}

// RunMonthlyReset zeroes every member's derived monthly counters at the
// period start, with the same per-member isolation as the report job.
func (s *Scheduler) RunMonthlyReset(ctx context.Context) (Result, error) {
	if !s.resetMu.TryLock() {
		return Result{Skipped: true}, nil
	}
	defer s.resetMu.Unlock()

	period := s.now().UTC().Format(models.MonthFormat)
	claimed, err := s.runs.ClaimRun(ctx, JobMonthlyReset, period)
	if err != nil {
		return Result{}, fmt.Errorf("claim %s/%s: %w", JobMonthlyReset, period, err)
	}
	if !claimed {
		s.log.Info("monthly reset already ran", "period", period)
		return Result{Period: period, Skipped: true}, nil
	}

	ids, err := s.members.ActiveMemberIDs(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list members: %w", err)
	}

	res := Result{Period: period}
	for _, memberID := range ids {
		if err := s.members.ResetCurrentMonth(ctx, memberID); err != nil {
			res.Failure++
			s.log.Error("counter reset failed", "member_id", memberID, "error", err)
			continue
		}
		res.Success++
	}
	s.log.Info("monthly reset job finished",
		"period", period, "success", res.Success, "failure", res.Failure)
	return res, nil
}

// Status returns the configured schedules and last-known runs.
func (s *Scheduler) Status(ctx context.Context) (Status, error) {
	report, err := s.runs.LastRunFor(ctx, JobMonthlyReport)
	if err != nil {
		return Status{}, err
	}
	reset, err := s.runs.LastRunFor(ctx, JobMonthlyReset)
	if err != nil {
		return Status{}, err
	}
	return Status{
		ReportSchedule: s.cfg.ReportCron,
		ResetSchedule:  s.cfg.ResetCron,
		LastReportRun:  report,
		LastResetRun:   reset,
	}, nil
}

// previousMonth returns the YYYY-MM key of the month before t.
func previousMonth(t time.Time) string {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, -1, 0).Format(models.MonthFormat)
}
