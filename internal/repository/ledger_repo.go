package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/greenworld/eco-rewards-service/internal/models"
)

// LedgerRepo persists the append-only point ledger in Postgres.
//
// Inserts run inside a transaction that first locks the member's profile
// row, so the read-validate-write of a spend is atomic at the storage level
// as well as behind the service's per-member lock. point_transactions has a
// unique index on (member_id, transaction_ref) for non-empty refs; a
// violation surfaces as models.ErrDuplicateTransaction.
type LedgerRepo struct {
	db *sql.DB
}

func NewLedgerRepo(db *sql.DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

func (r *LedgerRepo) InsertPointTransaction(ctx context.Context, tx *models.PointTransaction) (*models.PointTransaction, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = dbTx.Rollback()
	}()

	// Lock the member's profile row for the duration of the append.
	ensure := `INSERT INTO member_profiles (member_id) VALUES ($1)
		ON CONFLICT (member_id) DO NOTHING`
	if _, err := dbTx.ExecContext(ctx, ensure, tx.MemberID); err != nil {
		return nil, err
	}
	lock := `SELECT member_id FROM member_profiles WHERE member_id = $1 FOR UPDATE`
	var locked int64
	if err := dbTx.QueryRowContext(ctx, lock, tx.MemberID).Scan(&locked); err != nil {
		return nil, err
	}

	var balance int64
	sum := `SELECT COALESCE(SUM(points_amount), 0) FROM point_transactions WHERE member_id = $1`
	if err := dbTx.QueryRowContext(ctx, sum, tx.MemberID).Scan(&balance); err != nil {
		return nil, err
	}
	if balance+tx.PointsAmount < 0 {
		return nil, models.ErrInsufficientBalance
	}

	occurredAt := tx.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	insert := `
		INSERT INTO point_transactions
		(member_id, transaction_type, category, description, points_amount,
		 balance_after, transaction_ref, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),$8)
		RETURNING transaction_id`

	stored := *tx
	stored.BalanceAfter = balance + tx.PointsAmount
	stored.OccurredAt = occurredAt
	err = dbTx.QueryRowContext(ctx, insert,
		tx.MemberID,
		tx.Type,
		tx.Category,
		tx.Description,
		tx.PointsAmount,
		stored.BalanceAfter,
		tx.TransactionRef,
		occurredAt,
	).Scan(&stored.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, models.ErrDuplicateTransaction
		}
		return nil, err
	}

	if err := dbTx.Commit(); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *LedgerRepo) PointTransactionByRef(ctx context.Context, memberID int64, ref string) (*models.PointTransaction, error) {
	if ref == "" {
		return nil, nil
	}
	query := `
		SELECT transaction_id, member_id, transaction_type, category, description,
		       points_amount, balance_after, COALESCE(transaction_ref, ''), occurred_at
		FROM point_transactions
		WHERE member_id = $1 AND transaction_ref = $2`

	var tx models.PointTransaction
	err := r.db.QueryRowContext(ctx, query, memberID, ref).Scan(
		&tx.ID, &tx.MemberID, &tx.Type, &tx.Category, &tx.Description,
		&tx.PointsAmount, &tx.BalanceAfter, &tx.TransactionRef, &tx.OccurredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

func (r *LedgerRepo) MemberBalance(ctx context.Context, memberID int64) (int64, error) {
	query := `SELECT COALESCE(SUM(points_amount), 0) FROM point_transactions WHERE member_id = $1`
	var balance int64
	err := r.db.QueryRowContext(ctx, query, memberID).Scan(&balance)
	return balance, err
}

func (r *LedgerRepo) SumByType(ctx context.Context, memberID int64, typ models.PointTransactionType) (int64, error) {
	query := `SELECT COALESCE(SUM(points_amount), 0) FROM point_transactions
		WHERE member_id = $1 AND transaction_type = $2`
	var sum int64
	err := r.db.QueryRowContext(ctx, query, memberID, typ).Scan(&sum)
	return sum, err
}

func (r *LedgerRepo) MonthlySumByType(ctx context.Context, memberID int64, month string, typ models.PointTransactionType) (int64, error) {
	query := `SELECT COALESCE(SUM(points_amount), 0) FROM point_transactions
		WHERE member_id = $1 AND transaction_type = $2
		AND to_char(occurred_at, 'YYYY-MM') = $3`
	var sum int64
	err := r.db.QueryRowContext(ctx, query, memberID, typ, month).Scan(&sum)
	return sum, err
}

func (r *LedgerRepo) TeamMonthlyEarned(ctx context.Context, teamID int64, month string) (int64, error) {
	query := `SELECT COALESCE(SUM(pt.points_amount), 0)
		FROM point_transactions pt
		JOIN member_profiles mp ON mp.member_id = pt.member_id
		WHERE mp.team_id = $1 AND pt.transaction_type = 'EARN'
		AND to_char(pt.occurred_at, 'YYYY-MM') = $2`
	var sum int64
	err := r.db.QueryRowContext(ctx, query, teamID, month).Scan(&sum)
	return sum, err
}

func (r *LedgerRepo) RecentTransactions(ctx context.Context, memberID int64, limit int) ([]models.PointTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT transaction_id, member_id, transaction_type, category, description,
		       points_amount, balance_after, COALESCE(transaction_ref, ''), occurred_at
		FROM point_transactions
		WHERE member_id = $1
		ORDER BY occurred_at DESC, transaction_id DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, memberID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.PointTransaction
	for rows.Next() {
		var tx models.PointTransaction
		if err := rows.Scan(
			&tx.ID, &tx.MemberID, &tx.Type, &tx.Category, &tx.Description,
			&tx.PointsAmount, &tx.BalanceAfter, &tx.TransactionRef, &tx.OccurredAt,
		); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
