package ticketing

import (
	"context"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// Catalog manages events and ticket types for merchant operators.  It
// owns the companion quota rule: the quotas of all ticket types of an
// event may never add up to more than the event's total quota.
type Catalog struct {
	store Store
	now   func() time.Time
}

// NewCatalog returns a Catalog backed by the given store.
func NewCatalog(store Store) *Catalog {
	return &Catalog{store: store, now: time.Now}
}

// CreateTicketTypeInput carries the fields for a new ticket type.
type CreateTicketTypeInput struct {
	Name       string
	PriceCents uint32
	Quota      uint32 // 0 = unbounded
}

// CreateTicketType adds a ticket type to an event owned by the
// merchant.  When both the event total quota and the new quota are
// bounded, the sum of all sibling quotas plus the new one must fit
// under the event ceiling; otherwise the call fails with
// *QuotaExceededError carrying the quota budget still unallocated.
func (c *Catalog) CreateTicketType(ctx context.Context, merchantID, eventID uint64, in CreateTicketTypeInput) (*model.TicketType, error) {
	var created *model.TicketType

	err := c.store.WithinTx(ctx, func(ctx context.Context) error {
		// Lock the event row so concurrent type creation for the same
		// event cannot both pass the sum check.
		event, err := c.store.EventForUpdate(ctx, merchantID, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			return ErrNotFound
		}

		if event.TotalQuota > 0 && in.Quota > 0 {
			types, err := c.store.TicketTypesByEvent(ctx, eventID)
			if err != nil {
				return err
			}
			var allocated uint32
			for _, tt := range types {
				allocated += tt.Quota
			}
			if allocated+in.Quota > event.TotalQuota {
				remaining := uint32(0)
				if event.TotalQuota > allocated {
					remaining = event.TotalQuota - allocated
				}
				return &QuotaExceededError{Remaining: remaining}
			}
		}

		created = &model.TicketType{
			EventID:    eventID,
			Name:       in.Name,
			PriceCents: in.PriceCents,
			Quota:      in.Quota,
			IsActive:   true,
		}
		return c.store.InsertTicketType(ctx, created)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
