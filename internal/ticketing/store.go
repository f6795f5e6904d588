package ticketing

import (
	"context"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// Store is the persistence boundary of the engine.  The MySQL
// implementation lives in internal/repository; tests use an in-memory
// fake.  Methods whose name ends in ForUpdate must lock the selected
// row for the remainder of the surrounding transaction; the row lock
// is the single serialization point for quota admission and for
// check-in/revoke on one ticket.
//
// All methods may be called inside a function passed to WithinTx, in
// which case they operate on the transaction carried in the context.
// Lookups return (nil, nil) when no row matches; the engine turns that
// into ErrNotFound.
type Store interface {
	// WithinTx runs fn inside a single transaction.  The transaction is
	// committed when fn returns nil and rolled back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	EventByID(ctx context.Context, merchantID, eventID uint64) (*model.Event, error)
	EventForUpdate(ctx context.Context, merchantID, eventID uint64) (*model.Event, error)

	TicketTypeForUpdate(ctx context.Context, eventID, typeID uint64) (*model.TicketType, error)
	TicketTypesByEvent(ctx context.Context, eventID uint64) ([]model.TicketType, error)
	InsertTicketType(ctx context.Context, tt *model.TicketType) error

	CountTicketsByEvent(ctx context.Context, eventID uint64) (uint32, error)
	CountTicketsByType(ctx context.Context, typeID uint64) (uint32, error)
	TicketCodeExists(ctx context.Context, code string) (bool, error)
	InsertTickets(ctx context.Context, tickets []*model.Ticket) error

	TicketByPublicID(ctx context.Context, publicID uint64) (*model.Ticket, error)
	TicketForUpdateByPublicID(ctx context.Context, publicID uint64) (*model.Ticket, error)
	TicketForUpdate(ctx context.Context, ticketID uint64) (*model.Ticket, error)
	SetTicketUsed(ctx context.Context, ticketID uint64, used bool) error

	InsertCheckin(ctx context.Context, rec *model.CheckInRecord) error
	CheckinByID(ctx context.Context, merchantID, recordID uint64) (*model.CheckInRecord, error)
	CheckinForUpdate(ctx context.Context, merchantID, recordID uint64) (*model.CheckInRecord, error)
	MarkCheckinRevoked(ctx context.Context, recordID, staffID uint64, at time.Time) error
}
