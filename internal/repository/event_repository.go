package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// EventRepo provides CRUD for events outside of the issuance and
// check-in transactions (those go through TicketingStore).
type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

// Create inserts an event and populates its id.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO events (merchant_id, name, description, location, start_time, end_time, total_quota, is_active)
		 VALUES (?,?,?,?,?,?,?,?)`,
		e.MerchantID, e.Name, e.Description, e.Location, e.StartTime, e.EndTime, e.TotalQuota, e.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// GetByID returns the merchant's event or (nil, nil).
func (r *EventRepo) GetByID(ctx context.Context, merchantID, eventID uint64) (*model.Event, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ? AND merchant_id = ?`,
		eventID, merchantID)
	return scanEvent(row)
}

// ListByMerchant returns all of a merchant's events, newest first.
func (r *EventRepo) ListByMerchant(ctx context.Context, merchantID uint64) ([]model.Event, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE merchant_id = ? ORDER BY start_time DESC`,
		merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Event, 0)
	for rows.Next() {
		var e model.Event
		var desc, loc sql.NullString
		if err := rows.Scan(&e.ID, &e.MerchantID, &e.Name, &desc, &loc,
			&e.StartTime, &e.EndTime, &e.TotalQuota, &e.IsActive, &e.CreatedAt); err != nil {
			return nil, err
		}
		if desc.Valid {
			v := desc.String
			e.Description = &v
		}
		if loc.Valid {
			v := loc.String
			e.Location = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SetActive toggles an event's active flag within the merchant scope.
// It returns ErrForbidden when the event is not the merchant's.
func (r *EventRepo) SetActive(ctx context.Context, merchantID, eventID uint64, active bool) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE events SET is_active = ? WHERE id = ? AND merchant_id = ?`,
		active, eventID, merchantID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrForbidden
	}
	return nil
}
