package ticketing

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/snowflake"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

// ticketCodeLength matches the codes printed on badges.  With 36
// characters per position collisions are vanishingly rare; the insert
// still retries against a uniqueness check.
const ticketCodeLength = 12

// defaultTypeName is used when issuance has to provision a ticket type
// because the event has none yet.
const defaultTypeName = "General Admission"

// HolderInfo carries the attendee fields recorded on a ticket.
type HolderInfo struct {
	Name           string
	Email          *string
	Phone          *string
	ExternalUserID *string
	Description    *string
}

// Issuer creates tickets under quota and uniqueness constraints.  All
// admission checks and inserts for one call run in a single
// transaction with the event row (and ticket type row, when one is
// requested) locked, so concurrent issuance for the same scope is
// serialized at the store.
type Issuer struct {
	store Store
	ids   *snowflake.Generator
	now   func() time.Time
}

// NewIssuer returns an Issuer backed by the given store and id
// generator.
func NewIssuer(store Store, ids *snowflake.Generator) *Issuer {
	return &Issuer{store: store, ids: ids, now: time.Now}
}

// IssueOne creates a single ticket for the event, optionally bound to
// a ticket type.  It fails with ErrNotFound when the event (or type)
// does not exist under the merchant, or with *QuotaExceededError when
// either scope is full.  Nothing is persisted on failure.
func (s *Issuer) IssueOne(ctx context.Context, merchantID, eventID uint64, typeID *uint64, holder HolderInfo) (*model.Ticket, error) {
	tickets, err := s.issue(ctx, merchantID, eventID, typeID, 1, func(int) HolderInfo { return holder })
	if err != nil {
		return nil, err
	}
	return tickets[0], nil
}

// IssueBatch creates count tickets in one atomic group: the quota is
// checked once for the whole batch and either every ticket is
// persisted or none is.  Holder names are derived from namePrefix as
// "PREFIX001", "PREFIX002", ...; description is shared by all tickets.
func (s *Issuer) IssueBatch(ctx context.Context, merchantID, eventID uint64, typeID *uint64, count int, namePrefix string, description *string) ([]*model.Ticket, error) {
	if count <= 0 {
		return nil, fmt.Errorf("batch count must be positive, got %d", count)
	}
	return s.issue(ctx, merchantID, eventID, typeID, count, func(i int) HolderInfo {
		return HolderInfo{
			Name:        fmt.Sprintf("%s%03d", namePrefix, i+1),
			Description: description,
		}
	})
}

// issue is the shared issuance path.  holderAt returns the holder info
// for the i-th ticket of the batch.
func (s *Issuer) issue(ctx context.Context, merchantID, eventID uint64, typeID *uint64, count int, holderAt func(i int) HolderInfo) ([]*model.Ticket, error) {
	var created []*model.Ticket

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		// Lock the event row: this serializes every concurrent admit for
		// the same event until the transaction commits.
		event, err := s.store.EventForUpdate(ctx, merchantID, eventID)
		if err != nil {
			return err
		}
		if event == nil || !event.IsActive {
			return ErrNotFound
		}

		issued, err := s.store.CountTicketsByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if event.TotalQuota > 0 {
			if issued+uint32(count) > event.TotalQuota {
				return &QuotaExceededError{Remaining: event.TotalQuota - issued}
			}
		}

		ticketType, err := s.resolveType(ctx, event, typeID, issued)
		if err != nil {
			return err
		}
		if ticketType != nil && ticketType.Quota > 0 {
			issuedForType, err := s.store.CountTicketsByType(ctx, ticketType.ID)
			if err != nil {
				return err
			}
			if issuedForType+uint32(count) > ticketType.Quota {
				return &QuotaExceededError{Remaining: ticketType.Quota - issuedForType}
			}
		}

		tickets := make([]*model.Ticket, 0, count)
		for i := 0; i < count; i++ {
			publicID, err := s.ids.Next()
			if err != nil {
				return err
			}
			code, err := s.uniqueCode(ctx)
			if err != nil {
				return err
			}
			holder := holderAt(i)
			t := &model.Ticket{
				PublicID:       publicID,
				EventID:        eventID,
				Code:           code,
				HolderName:     holder.Name,
				HolderEmail:    holder.Email,
				HolderPhone:    holder.Phone,
				ExternalUserID: holder.ExternalUserID,
				Description:    holder.Description,
				CreatedAt:      s.now().UTC(),
			}
			if ticketType != nil {
				id := ticketType.ID
				t.TicketTypeID = &id
			}
			tickets = append(tickets, t)
		}

		if err := s.store.InsertTickets(ctx, tickets); err != nil {
			return err
		}
		created = tickets
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// resolveType loads and locks the requested ticket type, or provisions
// the default type when the event has none at all.  A type id that
// does not belong to the event surfaces as ErrNotFound.
func (s *Issuer) resolveType(ctx context.Context, event *model.Event, typeID *uint64, issuedForEvent uint32) (*model.TicketType, error) {
	if typeID != nil {
		tt, err := s.store.TicketTypeForUpdate(ctx, event.ID, *typeID)
		if err != nil {
			return nil, err
		}
		if tt == nil {
			return nil, ErrNotFound
		}
		return tt, nil
	}

	types, err := s.store.TicketTypesByEvent(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	if len(types) > 0 {
		// Types exist but none was requested: issue an untyped ticket,
		// constrained only by the event ceiling.
		return nil, nil
	}

	// First issuance before any type was configured: provision a single
	// default type covering whatever the event still has left.
	var quota uint32
	if event.TotalQuota > 0 {
		quota = event.TotalQuota - issuedForEvent
	}
	def := &model.TicketType{
		EventID:  event.ID,
		Name:     defaultTypeName,
		Quota:    quota,
		IsActive: true,
	}
	if err := s.store.InsertTicketType(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

// uniqueCode draws random codes until one is free.  The loop touches
// the same transaction as the insert, so a concurrent issuance of the
// same code is caught by the unique index at commit in the worst case.
func (s *Issuer) uniqueCode(ctx context.Context) (string, error) {
	for {
		code, err := utils.GenerateTicketCode(ticketCodeLength)
		if err != nil {
			return "", err
		}
		exists, err := s.store.TicketCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
}
