package ticketing

import (
	"context"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/token"
)

// Capabilities is the per-staff, per-event permission set resolved by
// the caller (from grant rows, or implicitly full for merchant
// admins).  The engine consults only this value and never the grant
// table itself.
type Capabilities struct {
	CanCheckin bool
	CanRevoke  bool
}

// Origin records where a check-in request came from, for the audit
// trail.
type Origin struct {
	IP        string
	UserAgent string
}

// TicketSummary is the read-only view returned by VerifyOnly.
type TicketSummary struct {
	PublicID     uint64
	EventID      uint64
	TicketTypeID *uint64
	Code         string
	HolderName   string
	Used         bool
}

// CheckinService drives a ticket through the issued/checked-in cycle.
// Check-in and revoke both lock the ticket row for the duration of
// their transaction, so two concurrent attempts on one ticket resolve
// to exactly one winner.
type CheckinService struct {
	store  Store
	tokens *token.Codec
	now    func() time.Time
}

// NewCheckinService returns a CheckinService using the given store and
// token codec.
func NewCheckinService(store Store, tokens *token.Codec) *CheckinService {
	return &CheckinService{store: store, tokens: tokens, now: time.Now}
}

// CheckIn redeems the ticket identified by rawToken for the given
// event.  It fails with token.ErrInvalid for any token problem,
// ErrWrongEvent when the token or ticket targets another event,
// ErrAlreadyUsed when an active check-in already exists, and
// ErrNotFound when the event is not the merchant's or the ticket has
// vanished.  On success the ticket's used flag and the new audit
// record are written in one transaction.
func (s *CheckinService) CheckIn(ctx context.Context, merchantID, eventID, staffID uint64, caps Capabilities, rawToken string, origin Origin) (*model.CheckInRecord, *model.Ticket, error) {
	if !caps.CanCheckin {
		return nil, nil, ErrPermissionDenied
	}

	claims, err := s.tokens.Verify(rawToken)
	if err != nil {
		return nil, nil, err
	}
	if claims.EventID != eventID {
		return nil, nil, ErrWrongEvent
	}

	var (
		rec    *model.CheckInRecord
		ticket *model.Ticket
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context) error {
		event, err := s.store.EventByID(ctx, merchantID, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			return ErrNotFound
		}

		t, err := s.store.TicketForUpdateByPublicID(ctx, claims.TicketPublicID)
		if err != nil {
			return err
		}
		if t == nil {
			return ErrNotFound
		}
		if t.EventID != eventID {
			return ErrWrongEvent
		}
		if t.Used {
			return ErrAlreadyUsed
		}

		if err := s.store.SetTicketUsed(ctx, t.ID, true); err != nil {
			return err
		}
		r := &model.CheckInRecord{
			TicketID:    t.ID,
			StaffID:     staffID,
			CheckinTime: s.now().UTC(),
			IPAddress:   origin.IP,
			UserAgent:   origin.UserAgent,
		}
		if err := s.store.InsertCheckin(ctx, r); err != nil {
			return err
		}
		t.Used = true
		rec, ticket = r, t
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return rec, ticket, nil
}

// Revoke reverses a check-in.  The record keeps its row and gains a
// Revocation; the ticket becomes checkin-able again.  Fails with
// ErrNotFound when the record is not visible to the merchant and with
// ErrAlreadyRevoked when it was already reversed.
func (s *CheckinService) Revoke(ctx context.Context, merchantID, staffID, recordID uint64, caps Capabilities) (*model.CheckInRecord, error) {
	if !caps.CanRevoke {
		return nil, ErrPermissionDenied
	}

	var revoked *model.CheckInRecord
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := s.store.CheckinByID(ctx, merchantID, recordID)
		if err != nil {
			return err
		}
		if rec == nil {
			return ErrNotFound
		}

		// Lock the ticket before re-reading the record: check-in locks
		// the ticket too, so this ordering serializes revoke against
		// concurrent check-ins without deadlock.
		ticket, err := s.store.TicketForUpdate(ctx, rec.TicketID)
		if err != nil {
			return err
		}
		if ticket == nil {
			return ErrNotFound
		}

		rec, err = s.store.CheckinForUpdate(ctx, merchantID, recordID)
		if err != nil {
			return err
		}
		if rec == nil {
			return ErrNotFound
		}
		if rec.Revoked() {
			return ErrAlreadyRevoked
		}

		at := s.now().UTC()
		if err := s.store.MarkCheckinRevoked(ctx, recordID, staffID, at); err != nil {
			return err
		}
		if err := s.store.SetTicketUsed(ctx, rec.TicketID, false); err != nil {
			return err
		}
		rec.Revocation = &model.Revocation{By: staffID, At: at}
		revoked = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return revoked, nil
}

// VerifyOnly decodes a token and reports the ticket's current state
// without mutating anything.  Possession of a validly signed token is
// the authorization; no tenant context is required.
func (s *CheckinService) VerifyOnly(ctx context.Context, rawToken string) (*TicketSummary, error) {
	claims, err := s.tokens.Verify(rawToken)
	if err != nil {
		return nil, err
	}
	t, err := s.store.TicketByPublicID(ctx, claims.TicketPublicID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return &TicketSummary{
		PublicID:     t.PublicID,
		EventID:      t.EventID,
		TicketTypeID: t.TicketTypeID,
		Code:         t.Code,
		HolderName:   t.HolderName,
		Used:         t.Used,
	}, nil
}
