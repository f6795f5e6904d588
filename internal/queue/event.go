// Package queue defines message payloads exchanged over the message broker.
package queue

// CheckinRecordedEvent is published after a check-in commits.  It
// carries enough for downstream consumers to log, notify, or feed
// analytics without querying the primary database.  Ticket ids travel
// as the public snowflake id, never the row id.
type CheckinRecordedEvent struct {
	RecordID       uint64 `json:"record_id"`
	TicketPublicID string `json:"ticket_public_id"`
	TicketCode     string `json:"ticket_code"`
	HolderName     string `json:"holder_name"`
	EventID        uint64 `json:"event_id"`
	EventName      string `json:"event_name"`
	MerchantID     uint64 `json:"merchant_id"`
	StaffID        uint64 `json:"staff_id"`
	Offline        bool   `json:"offline"`
	CheckinTime    string `json:"checkin_time"`
}
