package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/greenworld/eco-rewards-service/internal/models"
)

// MerchantRepo reads eco-merchant records from Postgres. The pipeline never
// writes merchants; an administrative collaborator maintains them.
type MerchantRepo struct {
	db *sql.DB
}

func NewMerchantRepo(db *sql.DB) *MerchantRepo {
	return &MerchantRepo{db: db}
}

const merchantColumns = `
	merchant_id, business_number, name, category, description, address,
	latitude, longitude, phone_number, eco_certifications, eco_practices,
	is_active, is_verified, created_at, updated_at`

func (r *MerchantRepo) MerchantByBusinessNumber(ctx context.Context, businessNumber string) (*models.EcoMerchant, error) {
	query := `SELECT` + merchantColumns + `
		FROM eco_merchants
		WHERE business_number = $1 AND is_active = true`

	m, err := scanMerchant(r.db.QueryRowContext(ctx, query, businessNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (r *MerchantRepo) ActiveMerchants(ctx context.Context) ([]models.EcoMerchant, error) {
	query := `SELECT` + merchantColumns + `
		FROM eco_merchants
		WHERE is_active = true
		ORDER BY merchant_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var merchants []models.EcoMerchant
	for rows.Next() {
		m, err := scanMerchant(rows)
		if err != nil {
			return nil, err
		}
		merchants = append(merchants, *m)
	}
	return merchants, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMerchant(row rowScanner) (*models.EcoMerchant, error) {
	var m models.EcoMerchant
	var description, phone, certs, practices sql.NullString
	err := row.Scan(
		&m.ID,
		&m.BusinessNumber,
		&m.Name,
		&m.Category,
		&description,
		&m.Address,
		&m.Latitude,
		&m.Longitude,
		&phone,
		&certs,
		&practices,
		&m.IsActive,
		&m.IsVerified,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Description = description.String
	m.PhoneNumber = phone.String
	m.EcoCertifications = certs.String
	m.EcoPractices = practices.String
	return &m, nil
}
