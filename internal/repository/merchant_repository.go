package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// MerchantRepo provides lookups on the tenant table.
type MerchantRepo struct{ DB *sql.DB }

func NewMerchantRepo(db *sql.DB) *MerchantRepo { return &MerchantRepo{DB: db} }

// GetByID returns the merchant or (nil, nil).
func (r *MerchantRepo) GetByID(ctx context.Context, id uint64) (*model.Merchant, error) {
	var m model.Merchant
	var email sql.NullString
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, contact_email, is_active, created_at FROM merchants WHERE id = ? LIMIT 1`, id).
		Scan(&m.ID, &m.Name, &email, &m.IsActive, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if email.Valid {
		v := email.String
		m.ContactEmail = &v
	}
	return &m, nil
}

// Create inserts a merchant and populates its id.
func (r *MerchantRepo) Create(ctx context.Context, m *model.Merchant) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO merchants (name, contact_email, is_active) VALUES (?,?,?)`,
		m.Name, m.ContactEmail, m.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}
