package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// CheckinRepo provides read access to the admission audit trail.
type CheckinRepo struct{ DB *sql.DB }

func NewCheckinRepo(db *sql.DB) *CheckinRepo { return &CheckinRepo{DB: db} }

// CheckinLogEntry is one audit row joined with ticket identity for
// display in the event log.
type CheckinLogEntry struct {
	ID             uint64     `json:"id"`
	TicketPublicID uint64     `json:"ticket_public_id,string"`
	TicketCode     string     `json:"ticket_code"`
	HolderName     string     `json:"holder_name"`
	StaffID        uint64     `json:"staff_id"`
	CheckinTime    time.Time  `json:"checkin_time"`
	IPAddress      string     `json:"ip_address,omitempty"`
	UserAgent      string     `json:"user_agent,omitempty"`
	RevokedBy      *uint64    `json:"revoked_by,omitempty"`
	RevokedAt      *time.Time `json:"revoked_at,omitempty"`
}

// ListByEvent returns a page of an event's check-in records, newest
// first, scoped to the merchant.  Revoked records are included; the
// trail is append-only.
func (r *CheckinRepo) ListByEvent(ctx context.Context, merchantID, eventID uint64, limit, offset int) ([]CheckinLogEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT c.id, t.public_id, t.ticket_code, t.holder_name, c.staff_id,
		        c.checkin_time, c.ip_address, c.user_agent, c.revoked_by, c.revoked_at
		 FROM checkin_records c
		 JOIN tickets t ON t.id = c.ticket_id
		 JOIN events e ON e.id = t.event_id
		 WHERE t.event_id = ? AND e.merchant_id = ?
		 ORDER BY c.id DESC LIMIT ? OFFSET ?`,
		eventID, merchantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]CheckinLogEntry, 0)
	for rows.Next() {
		var entry CheckinLogEntry
		var revokedBy sql.NullInt64
		var revokedAt sql.NullTime
		if err := rows.Scan(&entry.ID, &entry.TicketPublicID, &entry.TicketCode, &entry.HolderName,
			&entry.StaffID, &entry.CheckinTime, &entry.IPAddress, &entry.UserAgent,
			&revokedBy, &revokedAt); err != nil {
			return nil, err
		}
		if revokedBy.Valid {
			v := uint64(revokedBy.Int64)
			entry.RevokedBy = &v
		}
		if revokedAt.Valid {
			v := revokedAt.Time
			entry.RevokedAt = &v
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// EventIDForRecord resolves which event a check-in record belongs to,
// scoped to the merchant.  Returns 0 when the record is not visible.
func (r *CheckinRepo) EventIDForRecord(ctx context.Context, merchantID, recordID uint64) (uint64, error) {
	var eventID uint64
	err := r.DB.QueryRowContext(ctx,
		`SELECT t.event_id FROM checkin_records c
		 JOIN tickets t ON t.id = c.ticket_id
		 JOIN events e ON e.id = t.event_id
		 WHERE c.id = ? AND e.merchant_id = ?`, recordID, merchantID).Scan(&eventID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return eventID, nil
}

// ActiveForTicket returns the active (non-revoked) record for a
// ticket, or (nil, nil) when there is none.
func (r *CheckinRepo) ActiveForTicket(ctx context.Context, ticketID uint64) (*model.CheckInRecord, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+checkinColumns+` FROM checkin_records c
		 WHERE c.ticket_id = ? AND c.revoked_at IS NULL
		 ORDER BY c.id DESC LIMIT 1`, ticketID)
	return scanCheckin(row)
}
