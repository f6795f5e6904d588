package model

import "time"

// Revocation captures who reversed a check-in and when.  It exists as
// its own type so that a record is either active (Revocation == nil)
// or revoked with both attribution fields present, never a half-set
// boolean.
type Revocation struct {
	By uint64    // checkin_records.revoked_by
	At time.Time // checkin_records.revoked_at
}

// CheckInRecord is one entry of the append-only admission audit trail.
// Records are never deleted: a reversed check-in keeps its row and
// gains a Revocation, and a later re-check-in appends a fresh record.
//
// Fields:
//  ID          – primary key identifier.
//  TicketID    – internal id of the ticket checked in.
//  StaffID     – staff member who performed the check-in (0 when the
//                record was synced from an offline batch without one).
//  CheckinTime – when admission happened; for offline sync this is the
//                client-claimed timestamp, trusted as-is.
//  IPAddress   – request origin for audit (empty for offline entries).
//  UserAgent   – scanning client identifier for audit.
//  Revocation  – nil while the record is active.
//  CreatedAt   – row creation timestamp.
type CheckInRecord struct {
	ID          uint64      // checkin_records.id
	TicketID    uint64      // checkin_records.ticket_id
	StaffID     uint64      // checkin_records.staff_id
	CheckinTime time.Time   // checkin_records.checkin_time
	IPAddress   string      // checkin_records.ip_address
	UserAgent   string      // checkin_records.user_agent
	Revocation  *Revocation // revoked_by/revoked_at, nil = active
	CreatedAt   time.Time   // checkin_records.created_at
}

// Revoked reports whether the record has been reversed.
func (r *CheckInRecord) Revoked() bool { return r.Revocation != nil }
