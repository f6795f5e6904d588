package model

import "time"

// Ticket is a single admission right issued for an event.  It carries
// two independent unique identifiers: PublicID, a time-ordered 64-bit
// id that is the only value ever exposed outside the system (tokens,
// QR payloads, URLs), and Code, a short human-readable string printed
// on badges and used for manual lookup.  The database row id is never
// exposed.
//
// A ticket is immutable after creation except for its Used flag, which
// always mirrors "has an active (non-revoked) check-in record" and is
// only ever flipped together with that record inside one transaction.
//
// Fields:
//  ID             – primary key identifier (internal only).
//  PublicID       – public snowflake identifier.
//  EventID        – owning event.
//  TicketTypeID   – optional ticket type.
//  Code           – unique human-readable code.
//  HolderName     – attendee name.
//  HolderEmail    – optional contact address.
//  HolderPhone    – optional contact number.
//  ExternalUserID – optional external identity (LINE/FB id etc.).
//  Description    – optional free-form metadata (seat, notes).
//  Used           – true while an active check-in record exists.
//  CreatedAt      – creation timestamp.
type Ticket struct {
	ID             uint64    // tickets.id
	PublicID       uint64    // tickets.public_id
	EventID        uint64    // tickets.event_id
	TicketTypeID   *uint64   // tickets.ticket_type_id (nullable)
	Code           string    // tickets.ticket_code
	HolderName     string    // tickets.holder_name
	HolderEmail    *string   // tickets.holder_email (nullable)
	HolderPhone    *string   // tickets.holder_phone (nullable)
	ExternalUserID *string   // tickets.external_user_id (nullable)
	Description    *string   // tickets.description (nullable)
	Used           bool      // tickets.is_used
	CreatedAt      time.Time // tickets.created_at
}
