package model

import "time"

// Event is a single admission-controlled happening owned by a merchant.
// TotalQuota caps the number of tickets that may ever be issued for the
// event; zero means unbounded.  The invariant that the sum of all
// ticket type quotas stays within TotalQuota is enforced when ticket
// types are created and again at issuance time.
//
// Fields:
//  ID          – primary key identifier.
//  MerchantID  – owning merchant.
//  Name        – event name.
//  Description – optional free text.
//  Location    – optional venue text.
//  StartTime   – scheduled start (UTC).
//  EndTime     – scheduled end (UTC).
//  TotalQuota  – issuance ceiling across all ticket types; 0 = unbounded.
//  IsActive    – inactive events reject further issuance; already
//                issued tickets remain checkin-able.
//  CreatedAt   – creation timestamp.
type Event struct {
	ID          uint64    // events.id
	MerchantID  uint64    // events.merchant_id
	Name        string    // events.name
	Description *string   // events.description (nullable)
	Location    *string   // events.location (nullable)
	StartTime   time.Time // events.start_time
	EndTime     time.Time // events.end_time
	TotalQuota  uint32    // events.total_quota (0 = unbounded)
	IsActive    bool      // events.is_active
	CreatedAt   time.Time // events.created_at
}

// TicketType partitions an event's capacity into named classes
// ("Early Bird", "VIP", ...).  Quota zero means the type is unbounded
// (only the event ceiling applies).
type TicketType struct {
	ID         uint64  // ticket_types.id
	EventID    uint64  // ticket_types.event_id
	Name       string  // ticket_types.name
	PriceCents uint32  // ticket_types.price_cents
	Quota      uint32  // ticket_types.quota (0 = unbounded)
	IsActive   bool    // ticket_types.is_active
}
