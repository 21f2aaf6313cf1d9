package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/greenworld/eco-rewards-service/internal/models"
)

// ProfileRepo persists derived per-member counters in Postgres.
type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) EnsureProfile(ctx context.Context, memberID int64) (*models.MemberProfile, error) {
	ensure := `INSERT INTO member_profiles (member_id) VALUES ($1)
		ON CONFLICT (member_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, ensure, memberID); err != nil {
		return nil, err
	}
	return r.ProfileByMember(ctx, memberID)
}

func (r *ProfileRepo) ProfileByMember(ctx context.Context, memberID int64) (*models.MemberProfile, error) {
	query := `
		SELECT member_id, COALESCE(team_id, 0), current_month_points,
		       current_month_activities, is_active, updated_at
		FROM member_profiles
		WHERE member_id = $1`

	var p models.MemberProfile
	err := r.db.QueryRowContext(ctx, query, memberID).Scan(
		&p.MemberID, &p.TeamID, &p.CurrentMonthPoints,
		&p.CurrentMonthActivities, &p.IsActive, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepo) ActiveMemberIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT member_id FROM member_profiles WHERE is_active = true ORDER BY member_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ProfileRepo) AddCurrentMonthPoints(ctx context.Context, memberID, points int64) error {
	query := `
		UPDATE member_profiles
		SET current_month_points = current_month_points + $2,
		    current_month_activities = current_month_activities + 1,
		    updated_at = NOW()
		WHERE member_id = $1`
	_, err := r.db.ExecContext(ctx, query, memberID, points)
	return err
}

func (r *ProfileRepo) ResetCurrentMonth(ctx context.Context, memberID int64) error {
	query := `
		UPDATE member_profiles
		SET current_month_points = 0,
		    current_month_activities = 0,
		    updated_at = NOW()
		WHERE member_id = $1`
	_, err := r.db.ExecContext(ctx, query, memberID)
	return err
}
