package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/greenworld/eco-rewards-service/internal/models"
)

// ReportRepo persists monthly report snapshots and scheduler run markers.
type ReportRepo struct {
	db *sql.DB
}

func NewReportRepo(db *sql.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

func (r *ReportRepo) ReportByMemberAndMonth(ctx context.Context, memberID int64, month string) (*models.MonthlyReport, error) {
	query := `
		SELECT report_id, member_id, report_month, earned_seeds, used_seeds,
		       converted_seeds, balance_at_generation, generated_at
		FROM monthly_reports
		WHERE member_id = $1 AND report_month = $2`

	var rep models.MonthlyReport
	err := r.db.QueryRowContext(ctx, query, memberID, month).Scan(
		&rep.ID, &rep.MemberID, &rep.ReportMonth, &rep.EarnedSeeds,
		&rep.UsedSeeds, &rep.ConvertedSeeds, &rep.BalanceAtGen, &rep.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rep, nil
}

func (r *ReportRepo) InsertReport(ctx context.Context, rep *models.MonthlyReport) (*models.MonthlyReport, error) {
	insert := `
		INSERT INTO monthly_reports
		(member_id, report_month, earned_seeds, used_seeds, converted_seeds,
		 balance_at_generation, generated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING report_id`

	stored := *rep
	if stored.GeneratedAt.IsZero() {
		stored.GeneratedAt = time.Now().UTC()
	}
	err := r.db.QueryRowContext(ctx, insert,
		rep.MemberID, rep.ReportMonth, rep.EarnedSeeds, rep.UsedSeeds,
		rep.ConvertedSeeds, rep.BalanceAtGen, stored.GeneratedAt,
	).Scan(&stored.ID)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// ClaimRun records that a job ran for a period. Returns false when the
// (job, period) pair already exists, which makes re-runs within the same
// period no-ops even across process restarts.
func (r *ReportRepo) ClaimRun(ctx context.Context, job, period string) (bool, error) {
	insert := `INSERT INTO scheduler_runs (job_name, period, ran_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (job_name, period) DO NOTHING`
	res, err := r.db.ExecContext(ctx, insert, job, period)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ReportRepo) LastRunFor(ctx context.Context, job string) (*models.SchedulerRun, error) {
	query := `SELECT job_name, period, ran_at FROM scheduler_runs
		WHERE job_name = $1
		ORDER BY ran_at DESC
		LIMIT 1`

	var run models.SchedulerRun
	err := r.db.QueryRowContext(ctx, query, job).Scan(&run.JobName, &run.Period, &run.RanAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}
