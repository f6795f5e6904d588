package ticketing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/token"
)

var fullCaps = Capabilities{CanCheckin: true, CanRevoke: true}

// checkinFixture wires a store, issuer, codec and check-in service with
// one active event and one issued ticket.
type checkinFixture struct {
	store   *fakeStore
	codec   *token.Codec
	service *CheckinService
	ticket  *model.Ticket
	raw     string
}

func newCheckinFixture(t *testing.T) *checkinFixture {
	t.Helper()
	store := newFakeStore()
	store.addEvent(testEvent(10, testMerchant, 0))
	issuer := newTestIssuer(store)

	tk, err := issuer.IssueOne(context.Background(), testMerchant, 10, nil, HolderInfo{Name: "Ada"})
	require.NoError(t, err)

	codec := token.New("gate-secret", time.Hour)
	raw, err := codec.Issue(tk.PublicID, tk.EventID)
	require.NoError(t, err)

	return &checkinFixture{
		store:   store,
		codec:   codec,
		service: NewCheckinService(store, codec),
		ticket:  tk,
		raw:     raw,
	}
}

func TestCheckIn_Success(t *testing.T) {
	fx := newCheckinFixture(t)
	origin := Origin{IP: "203.0.113.9", UserAgent: "scanner/1.2"}

	rec, tk, err := fx.service.CheckIn(context.Background(), testMerchant, 10, 77, fullCaps, fx.raw, origin)
	require.NoError(t, err)
	assert.True(t, tk.Used)
	assert.Equal(t, fx.ticket.ID, rec.TicketID)
	assert.Equal(t, uint64(77), rec.StaffID)
	assert.False(t, rec.Revoked())
	assert.Equal(t, "203.0.113.9", rec.IPAddress)
	assert.Equal(t, "scanner/1.2", rec.UserAgent)

	stored, err := fx.store.TicketByPublicID(context.Background(), fx.ticket.PublicID)
	require.NoError(t, err)
	assert.True(t, stored.Used)
}

func TestCheckIn_SameTokenTwice(t *testing.T) {
	fx := newCheckinFixture(t)

	_, _, err := fx.service.CheckIn(context.Background(), testMerchant, 10, 77, fullCaps, fx.raw, Origin{})
	require.NoError(t, err)

	_, _, err = fx.service.CheckIn(context.Background(), testMerchant, 10, 78, fullCaps, fx.raw, Origin{})
	assert.ErrorIs(t, err, ErrAlreadyUsed)
	assert.Len(t, fx.store.recordsForTicket(fx.ticket.ID), 1)
}

func TestCheckIn_ConcurrentSingleWinner(t *testing.T) {
	fx := newCheckinFixture(t)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = fx.service.CheckIn(context.Background(), testMerchant, 10, uint64(100+i), fullCaps, fx.raw, Origin{})
		}(i)
	}
	wg.Wait()

	var wins, dups int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			assert.ErrorIs(t, err, ErrAlreadyUsed)
			dups++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, dups)
	assert.Len(t, fx.store.recordsForTicket(fx.ticket.ID), 1)
}

func TestCheckIn_WrongEvent(t *testing.T) {
	fx := newCheckinFixture(t)
	fx.store.addEvent(testEvent(11, testMerchant, 0))

	// Token names event 10, scanner is working event 11.
	_, _, err := fx.service.CheckIn(context.Background(), testMerchant, 11, 77, fullCaps, fx.raw, Origin{})
	assert.ErrorIs(t, err, ErrWrongEvent)

	stored, _ := fx.store.TicketByPublicID(context.Background(), fx.ticket.PublicID)
	assert.False(t, stored.Used)
}

func TestCheckIn_InvalidToken(t *testing.T) {
	fx := newCheckinFixture(t)

	_, _, err := fx.service.CheckIn(context.Background(), testMerchant, 10, 77, fullCaps, "not-a-token", Origin{})
	assert.ErrorIs(t, err, token.ErrInvalid)

	// Same ticket signed with another secret.
	other := token.New("other-secret", time.Hour)
	forged, err := other.Issue(fx.ticket.PublicID, 10)
	require.NoError(t, err)
	_, _, err = fx.service.CheckIn(context.Background(), testMerchant, 10, 77, fullCaps, forged, Origin{})
	assert.ErrorIs(t, err, token.ErrInvalid)
}

func TestCheckIn_RequiresCapability(t *testing.T) {
	fx := newCheckinFixture(t)

	_, _, err := fx.service.CheckIn(context.Background(), testMerchant, 10, 77, Capabilities{CanRevoke: true}, fx.raw, Origin{})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCheckIn_TenantIsolation(t *testing.T) {
	fx := newCheckinFixture(t)

	// Valid token, but the calling staff belongs to another merchant.
	_, _, err := fx.service.CheckIn(context.Background(), testOtherMerchant, 10, 77, fullCaps, fx.raw, Origin{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRevoke_ThenCheckInAgain(t *testing.T) {
	fx := newCheckinFixture(t)

	rec, _, err := fx.service.CheckIn(context.Background(), testMerchant, 10, 77, fullCaps, fx.raw, Origin{})
	require.NoError(t, err)

	revoked, err := fx.service.Revoke(context.Background(), testMerchant, 90, rec.ID, fullCaps)
	require.NoError(t, err)
	require.True(t, revoked.Revoked())
	assert.Equal(t, uint64(90), revoked.Revocation.By)

	stored, _ := fx.store.TicketByPublicID(context.Background(), fx.ticket.PublicID)
	assert.False(t, stored.Used, "revoking must free the ticket again")

	// The same token admits once more and yields a fresh record; the
	// revoked one stays in the audit trail.
	rec2, _, err := fx.service.CheckIn(context.Background(), testMerchant, 10, 78, fullCaps, fx.raw, Origin{})
	require.NoError(t, err)
	assert.NotEqual(t, rec.ID, rec2.ID)
	assert.Len(t, fx.store.recordsForTicket(fx.ticket.ID), 2)
}

func TestRevoke_Twice(t *testing.T) {
	fx := newCheckinFixture(t)

	rec, _, err := fx.service.CheckIn(context.Background(), testMerchant, 10, 77, fullCaps, fx.raw, Origin{})
	require.NoError(t, err)

	_, err = fx.service.Revoke(context.Background(), testMerchant, 90, rec.ID, fullCaps)
	require.NoError(t, err)

	_, err = fx.service.Revoke(context.Background(), testMerchant, 90, rec.ID, fullCaps)
	assert.ErrorIs(t, err, ErrAlreadyRevoked)
}

func TestRevoke_RequiresCapability(t *testing.T) {
	fx := newCheckinFixture(t)

	rec, _, err := fx.service.CheckIn(context.Background(), testMerchant, 10, 77, fullCaps, fx.raw, Origin{})
	require.NoError(t, err)

	_, err = fx.service.Revoke(context.Background(), testMerchant, 90, rec.ID, Capabilities{CanCheckin: true})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	stored, _ := fx.store.TicketByPublicID(context.Background(), fx.ticket.PublicID)
	assert.True(t, stored.Used)
}

func TestRevoke_CrossMerchant(t *testing.T) {
	fx := newCheckinFixture(t)

	rec, _, err := fx.service.CheckIn(context.Background(), testMerchant, 10, 77, fullCaps, fx.raw, Origin{})
	require.NoError(t, err)

	_, err = fx.service.Revoke(context.Background(), testOtherMerchant, 90, rec.ID, fullCaps)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = fx.service.Revoke(context.Background(), testMerchant, 90, rec.ID+999, fullCaps)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyOnly_DoesNotMutate(t *testing.T) {
	fx := newCheckinFixture(t)

	sum, err := fx.service.VerifyOnly(context.Background(), fx.raw)
	require.NoError(t, err)
	assert.Equal(t, fx.ticket.PublicID, sum.PublicID)
	assert.Equal(t, uint64(10), sum.EventID)
	assert.Equal(t, "Ada", sum.HolderName)
	assert.False(t, sum.Used)

	// Still admissible afterwards.
	_, _, err = fx.service.CheckIn(context.Background(), testMerchant, 10, 77, fullCaps, fx.raw, Origin{})
	require.NoError(t, err)

	sum, err = fx.service.VerifyOnly(context.Background(), fx.raw)
	require.NoError(t, err)
	assert.True(t, sum.Used)
}

func TestVerifyOnly_InvalidToken(t *testing.T) {
	fx := newCheckinFixture(t)

	_, err := fx.service.VerifyOnly(context.Background(), "garbage")
	assert.ErrorIs(t, err, token.ErrInvalid)
}
