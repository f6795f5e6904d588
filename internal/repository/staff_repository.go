package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// StaffRepo provides CRUD for staff accounts.  Usernames are unique
// across the whole system; login codes are unique while set.
type StaffRepo struct{ DB *sql.DB }

func NewStaffRepo(db *sql.DB) *StaffRepo { return &StaffRepo{DB: db} }

const staffColumns = `id, merchant_id, username, full_name, password_hash, login_code, is_active, is_admin, created_at`

func scanStaff(row *sql.Row) (*model.Staff, error) {
	var st model.Staff
	var code sql.NullString
	err := row.Scan(&st.ID, &st.MerchantID, &st.Username, &st.FullName,
		&st.PasswordHash, &code, &st.IsActive, &st.IsAdmin, &st.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if code.Valid {
		v := code.String
		st.LoginCode = &v
	}
	return &st, nil
}

// Create inserts a staff account and populates its id.  A duplicate
// username or login code surfaces as ErrConflict.
func (r *StaffRepo) Create(ctx context.Context, st *model.Staff) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO staff (merchant_id, username, full_name, password_hash, login_code, is_active, is_admin)
		 VALUES (?,?,?,?,?,?,?)`,
		st.MerchantID, strings.ToLower(strings.TrimSpace(st.Username)), st.FullName,
		st.PasswordHash, st.LoginCode, st.IsActive, st.IsAdmin)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	st.ID = uint64(id)
	return nil
}

// GetByUsername fetches a staff account by normalized username.
func (r *StaffRepo) GetByUsername(ctx context.Context, username string) (*model.Staff, error) {
	return scanStaff(r.DB.QueryRowContext(ctx,
		`SELECT `+staffColumns+` FROM staff WHERE username = ? LIMIT 1`,
		strings.ToLower(strings.TrimSpace(username))))
}

// GetByLoginCode fetches a staff account by device login code.
func (r *StaffRepo) GetByLoginCode(ctx context.Context, code string) (*model.Staff, error) {
	return scanStaff(r.DB.QueryRowContext(ctx,
		`SELECT `+staffColumns+` FROM staff WHERE login_code = ? LIMIT 1`,
		strings.ToUpper(strings.TrimSpace(code))))
}

// GetByID fetches a staff account by id.
func (r *StaffRepo) GetByID(ctx context.Context, id uint64) (*model.Staff, error) {
	return scanStaff(r.DB.QueryRowContext(ctx,
		`SELECT `+staffColumns+` FROM staff WHERE id = ? LIMIT 1`, id))
}

// ListByMerchant returns all staff of a merchant ordered by creation.
func (r *StaffRepo) ListByMerchant(ctx context.Context, merchantID uint64) ([]model.Staff, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+staffColumns+` FROM staff WHERE merchant_id = ? ORDER BY id`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Staff, 0)
	for rows.Next() {
		var st model.Staff
		var code sql.NullString
		if err := rows.Scan(&st.ID, &st.MerchantID, &st.Username, &st.FullName,
			&st.PasswordHash, &code, &st.IsActive, &st.IsAdmin, &st.CreatedAt); err != nil {
			return nil, err
		}
		if code.Valid {
			v := code.String
			st.LoginCode = &v
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// SetLoginCode rotates (or clears, with nil) a staff member's device
// login code.
func (r *StaffRepo) SetLoginCode(ctx context.Context, staffID uint64, code *string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE staff SET login_code = ? WHERE id = ?`, code, staffID)
	return err
}

// SetActive enables or disables a staff account.
func (r *StaffRepo) SetActive(ctx context.Context, staffID uint64, active bool) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE staff SET is_active = ? WHERE id = ?`, active, staffID)
	return err
}
