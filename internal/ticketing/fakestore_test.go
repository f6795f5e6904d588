package ticketing

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// fakeStore is an in-memory Store used by the service tests.  A single
// mutex held for the whole of WithinTx stands in for the row locks of
// the MySQL implementation, which gives the same serialization the
// engine relies on.  It commits eagerly (no rollback); the tests only
// exercise paths where the engine mutates after all checks passed.
type fakeStore struct {
	mu sync.Mutex

	events   map[uint64]*model.Event
	types    map[uint64]*model.TicketType
	tickets  map[uint64]*model.Ticket
	checkins map[uint64]*model.CheckInRecord

	nextTypeID    uint64
	nextTicketID  uint64
	nextCheckinID uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:   make(map[uint64]*model.Event),
		types:    make(map[uint64]*model.TicketType),
		tickets:  make(map[uint64]*model.Ticket),
		checkins: make(map[uint64]*model.CheckInRecord),
	}
}

func (f *fakeStore) addEvent(e model.Event) { f.events[e.ID] = &e }

func (f *fakeStore) addType(tt model.TicketType) {
	if tt.ID > f.nextTypeID {
		f.nextTypeID = tt.ID
	}
	f.types[tt.ID] = &tt
}

type fakeTxKey struct{}

func (f *fakeStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(context.WithValue(ctx, fakeTxKey{}, struct{}{}))
}

// lock acquires the store mutex for calls made outside WithinTx.
func (f *fakeStore) lock(ctx context.Context) func() {
	if ctx.Value(fakeTxKey{}) != nil {
		return func() {}
	}
	f.mu.Lock()
	return f.mu.Unlock
}

func (f *fakeStore) EventByID(ctx context.Context, merchantID, eventID uint64) (*model.Event, error) {
	defer f.lock(ctx)()
	e, ok := f.events[eventID]
	if !ok || e.MerchantID != merchantID {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) EventForUpdate(ctx context.Context, merchantID, eventID uint64) (*model.Event, error) {
	return f.EventByID(ctx, merchantID, eventID)
}

func (f *fakeStore) TicketTypeForUpdate(ctx context.Context, eventID, typeID uint64) (*model.TicketType, error) {
	defer f.lock(ctx)()
	tt, ok := f.types[typeID]
	if !ok || tt.EventID != eventID {
		return nil, nil
	}
	cp := *tt
	return &cp, nil
}

func (f *fakeStore) TicketTypesByEvent(ctx context.Context, eventID uint64) ([]model.TicketType, error) {
	defer f.lock(ctx)()
	var out []model.TicketType
	for _, tt := range f.types {
		if tt.EventID == eventID {
			out = append(out, *tt)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertTicketType(ctx context.Context, tt *model.TicketType) error {
	defer f.lock(ctx)()
	f.nextTypeID++
	tt.ID = f.nextTypeID
	cp := *tt
	f.types[tt.ID] = &cp
	return nil
}

func (f *fakeStore) CountTicketsByEvent(ctx context.Context, eventID uint64) (uint32, error) {
	defer f.lock(ctx)()
	var n uint32
	for _, t := range f.tickets {
		if t.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountTicketsByType(ctx context.Context, typeID uint64) (uint32, error) {
	defer f.lock(ctx)()
	var n uint32
	for _, t := range f.tickets {
		if t.TicketTypeID != nil && *t.TicketTypeID == typeID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) TicketCodeExists(ctx context.Context, code string) (bool, error) {
	defer f.lock(ctx)()
	for _, t := range f.tickets {
		if t.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertTickets(ctx context.Context, tickets []*model.Ticket) error {
	defer f.lock(ctx)()
	for _, t := range tickets {
		f.nextTicketID++
		t.ID = f.nextTicketID
		cp := *t
		f.tickets[t.ID] = &cp
	}
	return nil
}

func (f *fakeStore) TicketByPublicID(ctx context.Context, publicID uint64) (*model.Ticket, error) {
	defer f.lock(ctx)()
	for _, t := range f.tickets {
		if t.PublicID == publicID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) TicketForUpdateByPublicID(ctx context.Context, publicID uint64) (*model.Ticket, error) {
	return f.TicketByPublicID(ctx, publicID)
}

func (f *fakeStore) TicketForUpdate(ctx context.Context, ticketID uint64) (*model.Ticket, error) {
	defer f.lock(ctx)()
	t, ok := f.tickets[ticketID]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) SetTicketUsed(ctx context.Context, ticketID uint64, used bool) error {
	defer f.lock(ctx)()
	if t, ok := f.tickets[ticketID]; ok {
		t.Used = used
	}
	return nil
}

func (f *fakeStore) InsertCheckin(ctx context.Context, rec *model.CheckInRecord) error {
	defer f.lock(ctx)()
	f.nextCheckinID++
	rec.ID = f.nextCheckinID
	cp := *rec
	f.checkins[rec.ID] = &cp
	return nil
}

func (f *fakeStore) CheckinByID(ctx context.Context, merchantID, recordID uint64) (*model.CheckInRecord, error) {
	defer f.lock(ctx)()
	rec, ok := f.checkins[recordID]
	if !ok {
		return nil, nil
	}
	t, ok := f.tickets[rec.TicketID]
	if !ok {
		return nil, nil
	}
	e, ok := f.events[t.EventID]
	if !ok || e.MerchantID != merchantID {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeStore) CheckinForUpdate(ctx context.Context, merchantID, recordID uint64) (*model.CheckInRecord, error) {
	return f.CheckinByID(ctx, merchantID, recordID)
}

func (f *fakeStore) MarkCheckinRevoked(ctx context.Context, recordID, staffID uint64, at time.Time) error {
	defer f.lock(ctx)()
	if rec, ok := f.checkins[recordID]; ok {
		rec.Revocation = &model.Revocation{By: staffID, At: at}
	}
	return nil
}

// recordsForTicket returns the stored check-in records for a ticket,
// for assertions.
func (f *fakeStore) recordsForTicket(ticketID uint64) []model.CheckInRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.CheckInRecord
	for _, rec := range f.checkins {
		if rec.TicketID == ticketID {
			out = append(out, *rec)
		}
	}
	return out
}
