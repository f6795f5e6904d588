package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// TicketRepo provides read access to issued tickets for listing and
// lookup endpoints.  Mutations only ever happen through the engine.
type TicketRepo struct{ DB *sql.DB }

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{DB: db} }

func scanTicketRows(rows *sql.Rows) ([]model.Ticket, error) {
	defer rows.Close()
	out := make([]model.Ticket, 0)
	for rows.Next() {
		var t model.Ticket
		var typeID sql.NullInt64
		var email, phone, extID, desc sql.NullString
		if err := rows.Scan(&t.ID, &t.PublicID, &t.EventID, &typeID, &t.Code, &t.HolderName,
			&email, &phone, &extID, &desc, &t.Used, &t.CreatedAt); err != nil {
			return nil, err
		}
		if typeID.Valid {
			v := uint64(typeID.Int64)
			t.TicketTypeID = &v
		}
		if email.Valid {
			v := email.String
			t.HolderEmail = &v
		}
		if phone.Valid {
			v := phone.String
			t.HolderPhone = &v
		}
		if extID.Valid {
			v := extID.String
			t.ExternalUserID = &v
		}
		if desc.Valid {
			v := desc.String
			t.Description = &v
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListByEvent returns a page of an event's tickets, scoped to the
// merchant, ordered by issuance.
func (r *TicketRepo) ListByEvent(ctx context.Context, merchantID, eventID uint64, limit, offset int) ([]model.Ticket, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets
		 WHERE event_id = ? AND event_id IN (SELECT id FROM events WHERE merchant_id = ?)
		 ORDER BY id LIMIT ? OFFSET ?`,
		eventID, merchantID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanTicketRows(rows)
}

// GetForMerchant returns the ticket by internal id when its event
// belongs to the merchant, or (nil, nil).
func (r *TicketRepo) GetForMerchant(ctx context.Context, merchantID, ticketID uint64) (*model.Ticket, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+prefixedTicketColumns+` FROM tickets t
		 JOIN events e ON e.id = t.event_id
		 WHERE t.id = ? AND e.merchant_id = ?`, ticketID, merchantID)
	return scanTicket(row)
}

// GetByCode returns the ticket with the given human-readable code when
// its event belongs to the merchant, or (nil, nil).
func (r *TicketRepo) GetByCode(ctx context.Context, merchantID uint64, code string) (*model.Ticket, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+prefixedTicketColumns+` FROM tickets t
		 JOIN events e ON e.id = t.event_id
		 WHERE t.ticket_code = ? AND e.merchant_id = ?`, code, merchantID)
	return scanTicket(row)
}

// prefixedTicketColumns qualifies ticketColumns for joined queries.
const prefixedTicketColumns = `t.id, t.public_id, t.event_id, t.ticket_type_id, t.ticket_code, t.holder_name, t.holder_email, t.holder_phone, t.external_user_id, t.description, t.is_used, t.created_at`
