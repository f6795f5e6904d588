package model

import "time"

// Merchant is the tenant boundary of the system.  Every event, staff
// member and (transitively) ticket belongs to exactly one merchant.
// Queries in the repository layer are always scoped by merchant ID so
// that one tenant can never observe another tenant's data.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name of the organization.
//  ContactEmail – optional contact address.
//  IsActive     – inactive merchants are rejected at login time.
//  CreatedAt    – creation timestamp.
type Merchant struct {
	ID           uint64    // merchants.id
	Name         string    // merchants.name
	ContactEmail *string   // merchants.contact_email (nullable)
	IsActive     bool      // merchants.is_active
	CreatedAt    time.Time // merchants.created_at
}
