// Package ticketing implements the issuance, quota-enforcement and
// check-in engine.  Services in this package are the only writers of
// ticket and check-in state; handlers call them and translate the
// typed errors below into HTTP responses.
package ticketing

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an event, ticket type, ticket or
// check-in record does not exist or belongs to another merchant.  The
// two causes are deliberately indistinguishable so that callers cannot
// probe for the existence of other tenants' data.
var ErrNotFound = errors.New("not found")

// ErrAlreadyUsed is returned when a check-in is attempted on a ticket
// that already has an active check-in record.
var ErrAlreadyUsed = errors.New("ticket already used")

// ErrAlreadyRevoked is returned when revoking a check-in record that
// has already been revoked.
var ErrAlreadyRevoked = errors.New("check-in already revoked")

// ErrWrongEvent is returned when a presented token or ticket does not
// belong to the event being operated on.
var ErrWrongEvent = errors.New("ticket does not belong to this event")

// ErrPermissionDenied is returned when the capabilities passed by the
// caller do not include the bit an operation requires.  The engine
// never looks up grants itself; resolving them is the caller's job.
var ErrPermissionDenied = errors.New("permission denied")

// QuotaExceededError rejects an issuance (or ticket type creation)
// that would push a bounded scope past its ceiling.  Remaining is the
// capacity still available in the scope that failed.
type QuotaExceededError struct {
	Remaining uint32
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %d remaining", e.Remaining)
}
