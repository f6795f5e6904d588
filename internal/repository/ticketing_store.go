package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// TicketingStore is the MySQL implementation of the engine's store
// boundary.  Row locks (SELECT ... FOR UPDATE) inside WithinTx are the
// serialization point for quota admission and for check-in/revoke on
// one ticket; everything else is plain scoped reads and writes.
type TicketingStore struct {
	db *sql.DB
}

// NewTicketingStore returns a TicketingStore bound to the given pool.
func NewTicketingStore(db *sql.DB) *TicketingStore { return &TicketingStore{db: db} }

// WithinTx runs fn inside a single transaction; see withinTx.
func (s *TicketingStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withinTx(ctx, s.db, fn)
}

const eventColumns = `id, merchant_id, name, description, location, start_time, end_time, total_quota, is_active, created_at`

func scanEvent(row *sql.Row) (*model.Event, error) {
	var e model.Event
	var desc, loc sql.NullString
	err := row.Scan(&e.ID, &e.MerchantID, &e.Name, &desc, &loc,
		&e.StartTime, &e.EndTime, &e.TotalQuota, &e.IsActive, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
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
	return &e, nil
}

// EventByID returns the event when it belongs to the merchant, and
// (nil, nil) otherwise.
func (s *TicketingStore) EventByID(ctx context.Context, merchantID, eventID uint64) (*model.Event, error) {
	row := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ? AND merchant_id = ?`,
		eventID, merchantID)
	return scanEvent(row)
}

// EventForUpdate is EventByID with the row locked until the enclosing
// transaction ends.
func (s *TicketingStore) EventForUpdate(ctx context.Context, merchantID, eventID uint64) (*model.Event, error) {
	row := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ? AND merchant_id = ? FOR UPDATE`,
		eventID, merchantID)
	return scanEvent(row)
}

const typeColumns = `id, event_id, name, price_cents, quota, is_active`

// TicketTypeForUpdate locks and returns the ticket type when it belongs
// to the event.
func (s *TicketingStore) TicketTypeForUpdate(ctx context.Context, eventID, typeID uint64) (*model.TicketType, error) {
	var tt model.TicketType
	err := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+typeColumns+` FROM ticket_types WHERE id = ? AND event_id = ? FOR UPDATE`,
		typeID, eventID).
		Scan(&tt.ID, &tt.EventID, &tt.Name, &tt.PriceCents, &tt.Quota, &tt.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tt, nil
}

// TicketTypesByEvent lists all ticket types of the event ordered by id.
func (s *TicketingStore) TicketTypesByEvent(ctx context.Context, eventID uint64) ([]model.TicketType, error) {
	rows, err := conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+typeColumns+` FROM ticket_types WHERE event_id = ? ORDER BY id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TicketType
	for rows.Next() {
		var tt model.TicketType
		if err := rows.Scan(&tt.ID, &tt.EventID, &tt.Name, &tt.PriceCents, &tt.Quota, &tt.IsActive); err != nil {
			return nil, err
		}
		out = append(out, tt)
	}
	return out, rows.Err()
}

// InsertTicketType inserts the type and populates its generated id.
func (s *TicketingStore) InsertTicketType(ctx context.Context, tt *model.TicketType) error {
	res, err := conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO ticket_types (event_id, name, price_cents, quota, is_active) VALUES (?,?,?,?,?)`,
		tt.EventID, tt.Name, tt.PriceCents, tt.Quota, tt.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tt.ID = uint64(id)
	return nil
}

// CountTicketsByEvent counts every ticket ever issued for the event.
// Revoked check-ins do not release quota, so this is a plain count.
func (s *TicketingStore) CountTicketsByEvent(ctx context.Context, eventID uint64) (uint32, error) {
	var n uint32
	err := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE event_id = ?`, eventID).Scan(&n)
	return n, err
}

// CountTicketsByType counts tickets bound to the ticket type.
func (s *TicketingStore) CountTicketsByType(ctx context.Context, typeID uint64) (uint32, error) {
	var n uint32
	err := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE ticket_type_id = ?`, typeID).Scan(&n)
	return n, err
}

// TicketCodeExists reports whether any ticket already carries the code.
// Codes are globally unique, so the check is not scoped.
func (s *TicketingStore) TicketCodeExists(ctx context.Context, code string) (bool, error) {
	var one int
	err := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT 1 FROM tickets WHERE ticket_code = ? LIMIT 1`, code).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertTickets bulk-inserts a batch and assigns generated ids.  MySQL
// guarantees consecutive ids for a multi-row insert under the default
// auto-increment lock mode.
func (s *TicketingStore) InsertTickets(ctx context.Context, tickets []*model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	query := `INSERT INTO tickets
		(public_id, event_id, ticket_type_id, ticket_code, holder_name, holder_email, holder_phone, external_user_id, description, is_used, created_at) VALUES `
	args := make([]interface{}, 0, len(tickets)*11)
	for i, t := range tickets {
		if i > 0 {
			query += ","
		}
		query += "(?,?,?,?,?,?,?,?,?,?,?)"
		args = append(args, t.PublicID, t.EventID, t.TicketTypeID, t.Code, t.HolderName,
			t.HolderEmail, t.HolderPhone, t.ExternalUserID, t.Description, t.Used, t.CreatedAt)
	}
	res, err := conn(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	first, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for i, t := range tickets {
		t.ID = uint64(first) + uint64(i)
	}
	return nil
}

const ticketColumns = `id, public_id, event_id, ticket_type_id, ticket_code, holder_name, holder_email, holder_phone, external_user_id, description, is_used, created_at`

func scanTicket(row *sql.Row) (*model.Ticket, error) {
	var t model.Ticket
	var typeID sql.NullInt64
	var email, phone, extID, desc sql.NullString
	err := row.Scan(&t.ID, &t.PublicID, &t.EventID, &typeID, &t.Code, &t.HolderName,
		&email, &phone, &extID, &desc, &t.Used, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
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
	return &t, nil
}

// TicketByPublicID fetches a ticket by its public snowflake id.
func (s *TicketingStore) TicketByPublicID(ctx context.Context, publicID uint64) (*model.Ticket, error) {
	row := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE public_id = ?`, publicID)
	return scanTicket(row)
}

// TicketForUpdateByPublicID is TicketByPublicID with the row locked.
func (s *TicketingStore) TicketForUpdateByPublicID(ctx context.Context, publicID uint64) (*model.Ticket, error) {
	row := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE public_id = ? FOR UPDATE`, publicID)
	return scanTicket(row)
}

// TicketForUpdate locks a ticket by its internal row id.
func (s *TicketingStore) TicketForUpdate(ctx context.Context, ticketID uint64) (*model.Ticket, error) {
	row := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = ? FOR UPDATE`, ticketID)
	return scanTicket(row)
}

// SetTicketUsed flips the used flag.
func (s *TicketingStore) SetTicketUsed(ctx context.Context, ticketID uint64, used bool) error {
	_, err := conn(ctx, s.db).ExecContext(ctx,
		`UPDATE tickets SET is_used = ? WHERE id = ?`, used, ticketID)
	return err
}

// InsertCheckin appends a check-in record and populates its id.
func (s *TicketingStore) InsertCheckin(ctx context.Context, rec *model.CheckInRecord) error {
	res, err := conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO checkin_records (ticket_id, staff_id, checkin_time, ip_address, user_agent) VALUES (?,?,?,?,?)`,
		rec.TicketID, rec.StaffID, rec.CheckinTime, rec.IPAddress, rec.UserAgent)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

const checkinColumns = `c.id, c.ticket_id, c.staff_id, c.checkin_time, c.ip_address, c.user_agent, c.revoked_by, c.revoked_at, c.created_at`

func scanCheckin(row *sql.Row) (*model.CheckInRecord, error) {
	var rec model.CheckInRecord
	var revokedBy sql.NullInt64
	var revokedAt sql.NullTime
	err := row.Scan(&rec.ID, &rec.TicketID, &rec.StaffID, &rec.CheckinTime,
		&rec.IPAddress, &rec.UserAgent, &revokedBy, &revokedAt, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if revokedBy.Valid && revokedAt.Valid {
		rec.Revocation = &model.Revocation{By: uint64(revokedBy.Int64), At: revokedAt.Time}
	}
	return &rec, nil
}

// checkinScopeJoin restricts check-in record queries to records whose
// ticket's event belongs to the merchant.
const checkinScopeJoin = `FROM checkin_records c
	JOIN tickets t ON t.id = c.ticket_id
	JOIN events e ON e.id = t.event_id
	WHERE c.id = ? AND e.merchant_id = ?`

// CheckinByID returns the record when it is visible to the merchant.
func (s *TicketingStore) CheckinByID(ctx context.Context, merchantID, recordID uint64) (*model.CheckInRecord, error) {
	row := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+checkinColumns+` `+checkinScopeJoin, recordID, merchantID)
	return scanCheckin(row)
}

// CheckinForUpdate is CheckinByID with the record row locked.
func (s *TicketingStore) CheckinForUpdate(ctx context.Context, merchantID, recordID uint64) (*model.CheckInRecord, error) {
	row := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+checkinColumns+` `+checkinScopeJoin+` FOR UPDATE`, recordID, merchantID)
	return scanCheckin(row)
}

// MarkCheckinRevoked stamps the revocation columns.  The guard on
// revoked_at keeps the first revocation's attribution intact.
func (s *TicketingStore) MarkCheckinRevoked(ctx context.Context, recordID, staffID uint64, at time.Time) error {
	_, err := conn(ctx, s.db).ExecContext(ctx,
		`UPDATE checkin_records SET revoked_by = ?, revoked_at = ? WHERE id = ? AND revoked_at IS NULL`,
		staffID, at, recordID)
	return err
}
