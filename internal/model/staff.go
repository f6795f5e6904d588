package model

import "time"

// Staff is a scanning or administrative user belonging to one merchant.
// Staff authenticate either with username+password or with a short
// login code handed out for event-day scanning devices.
//
// Fields:
//  ID           – primary key identifier.
//  MerchantID   – owning merchant.
//  Username     – unique login name.
//  FullName     – display name.
//  PasswordHash – bcrypt hash; empty when the staff only uses a login code.
//  LoginCode    – optional short uppercase code for device login.
//  IsActive     – inactive staff cannot authenticate.
//  IsAdmin      – merchant admins may manage staff and implicitly hold
//                 every event capability.
//  CreatedAt    – creation timestamp.
type Staff struct {
	ID           uint64    // staff.id
	MerchantID   uint64    // staff.merchant_id
	Username     string    // staff.username
	FullName     string    // staff.full_name
	PasswordHash string    // staff.password_hash
	LoginCode    *string   // staff.login_code (nullable)
	IsActive     bool      // staff.is_active
	IsAdmin      bool      // staff.is_admin
	CreatedAt    time.Time // staff.created_at
}

// StaffEventGrant joins a staff member to an event with two independent
// permission bits.  Absence of a row means the staff member has no
// access to the event at all (merchant admins bypass grants entirely).
type StaffEventGrant struct {
	ID         uint64    // staff_event_grants.id
	StaffID    uint64    // staff_event_grants.staff_id
	EventID    uint64    // staff_event_grants.event_id
	CanCheckin bool      // staff_event_grants.can_checkin
	CanRevoke  bool      // staff_event_grants.can_revoke
	CreatedAt  time.Time // staff_event_grants.created_at
}
