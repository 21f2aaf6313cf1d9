package repository

import (
	"context"
	"database/sql"

	"github.com/greenworld/eco-rewards-service/internal/models"
)

// MerchantTxRepo keeps per-member eco-merchant transaction history for the
// history and stats queries.
type MerchantTxRepo struct {
	db *sql.DB
}

func NewMerchantTxRepo(db *sql.DB) *MerchantTxRepo {
	return &MerchantTxRepo{db: db}
}

func (r *MerchantTxRepo) InsertMerchantTransaction(ctx context.Context, tx *models.EcoMerchantTransaction) error {
	insert := `
		INSERT INTO eco_merchant_transactions
		(member_id, merchant_id, transaction_ref, merchant_name, business_number,
		 amount, earned_seeds, benefit_rate, transaction_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.db.ExecContext(ctx, insert,
		tx.MemberID, tx.MerchantID, tx.TransactionRef, tx.MerchantName,
		tx.BusinessNumber, tx.Amount, tx.EarnedSeeds, tx.BenefitRate, tx.TransactionAt,
	)
	return err
}

func (r *MerchantTxRepo) MerchantHistory(ctx context.Context, memberID int64, limit int) ([]models.EcoMerchantTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, member_id, merchant_id, transaction_ref, merchant_name,
		       business_number, amount, earned_seeds, benefit_rate, transaction_at
		FROM eco_merchant_transactions
		WHERE member_id = $1
		ORDER BY transaction_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, memberID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.EcoMerchantTransaction
	for rows.Next() {
		var tx models.EcoMerchantTransaction
		if err := rows.Scan(
			&tx.ID, &tx.MemberID, &tx.MerchantID, &tx.TransactionRef, &tx.MerchantName,
			&tx.BusinessNumber, &tx.Amount, &tx.EarnedSeeds, &tx.BenefitRate, &tx.TransactionAt,
		); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *MerchantTxRepo) MerchantStats(ctx context.Context, memberID int64, currentMonth string) (*models.EcoMerchantStats, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(amount), 0),
		       COALESCE(SUM(earned_seeds), 0),
		       COUNT(DISTINCT merchant_id),
		       COALESCE(SUM(earned_seeds) FILTER (WHERE to_char(transaction_at, 'YYYY-MM') = $2), 0),
		       COALESCE(SUM(amount) FILTER (WHERE to_char(transaction_at, 'YYYY-MM') = $2), 0)
		FROM eco_merchant_transactions
		WHERE member_id = $1`

	var stats models.EcoMerchantStats
	err := r.db.QueryRowContext(ctx, query, memberID, currentMonth).Scan(
		&stats.TotalTransactions, &stats.TotalAmount, &stats.TotalEarnedSeeds,
		&stats.DistinctMerchants, &stats.CurrentMonthSeeds, &stats.CurrentMonthAmount,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
