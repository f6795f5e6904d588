package ticketing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/snowflake"
	"github.com/iliyamo/event-ticketing/internal/token"
)

// syncFixture issues n tickets for event 10 and returns the service
// plus the issued tickets.
func newSyncFixture(t *testing.T, n int) (*fakeStore, *CheckinService, []*model.Ticket) {
	t.Helper()
	store := newFakeStore()
	store.addEvent(testEvent(10, testMerchant, 0))
	issuer := newTestIssuer(store)

	tickets, err := issuer.IssueBatch(context.Background(), testMerchant, 10, nil, n, "Gate ", nil)
	require.NoError(t, err)

	return store, NewCheckinService(store, token.New("gate-secret", time.Hour)), tickets
}

func offlineAt(publicID uint64, at time.Time) OfflineEntry {
	return OfflineEntry{TicketPublicID: publicID, CheckinTime: at}
}

func TestSyncOffline_AppliesOnce(t *testing.T) {
	store, svc, tickets := newSyncFixture(t, 3)
	scanned := time.Date(2025, 9, 1, 19, 30, 0, 0, time.UTC)

	queue := []OfflineEntry{
		offlineAt(tickets[0].PublicID, scanned),
		offlineAt(tickets[1].PublicID, scanned.Add(time.Minute)),
		offlineAt(tickets[2].PublicID, scanned.Add(2*time.Minute)),
	}

	synced, err := svc.SyncOffline(context.Background(), testMerchant, 10, 77, fullCaps, queue)
	require.NoError(t, err)
	assert.Equal(t, 3, synced)

	// Re-submitting the same queue is a no-op.
	synced, err = svc.SyncOffline(context.Background(), testMerchant, 10, 77, fullCaps, queue)
	require.NoError(t, err)
	assert.Equal(t, 0, synced)

	for _, tk := range tickets {
		recs := store.recordsForTicket(tk.ID)
		require.Len(t, recs, 1)
		assert.Equal(t, uint64(77), recs[0].StaffID)
	}
}

func TestSyncOffline_PreservesClaimedTime(t *testing.T) {
	store, svc, tickets := newSyncFixture(t, 1)
	scanned := time.Date(2025, 9, 1, 19, 30, 0, 0, time.UTC)

	synced, err := svc.SyncOffline(context.Background(), testMerchant, 10, 77, fullCaps,
		[]OfflineEntry{offlineAt(tickets[0].PublicID, scanned)})
	require.NoError(t, err)
	require.Equal(t, 1, synced)

	recs := store.recordsForTicket(tickets[0].ID)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].CheckinTime.Equal(scanned), "device timestamp must be stored, not the server clock")
}

func TestSyncOffline_SkipsUnknownAndForeign(t *testing.T) {
	store, svc, tickets := newSyncFixture(t, 1)

	// A ticket of another event in the same store.  The second issuer
	// gets its own worker id so the two generators cannot collide.
	store.addEvent(testEvent(11, testMerchant, 0))
	issuer := NewIssuer(store, snowflake.New(2))
	foreign, err := issuer.IssueOne(context.Background(), testMerchant, 11, nil, HolderInfo{Name: "Elsewhere"})
	require.NoError(t, err)

	now := time.Now().UTC()
	queue := []OfflineEntry{
		offlineAt(tickets[0].PublicID, now), // valid
		offlineAt(9999999, now),             // unknown id
		offlineAt(foreign.PublicID, now),    // belongs to event 11
	}

	synced, err := svc.SyncOffline(context.Background(), testMerchant, 10, 77, fullCaps, queue)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)

	stored, _ := store.TicketByPublicID(context.Background(), foreign.PublicID)
	assert.False(t, stored.Used)
}

func TestSyncOffline_SkipsAlreadyCheckedIn(t *testing.T) {
	store, svc, tickets := newSyncFixture(t, 1)

	codec := token.New("gate-secret", time.Hour)
	raw, err := codec.Issue(tickets[0].PublicID, 10)
	require.NoError(t, err)
	_, _, err = svc.CheckIn(context.Background(), testMerchant, 10, 50, fullCaps, raw, Origin{})
	require.NoError(t, err)

	synced, err := svc.SyncOffline(context.Background(), testMerchant, 10, 77, fullCaps,
		[]OfflineEntry{offlineAt(tickets[0].PublicID, time.Now().UTC())})
	require.NoError(t, err)
	assert.Equal(t, 0, synced)
	assert.Len(t, store.recordsForTicket(tickets[0].ID), 1)
}

func TestSyncOffline_RequiresCapability(t *testing.T) {
	_, svc, tickets := newSyncFixture(t, 1)

	_, err := svc.SyncOffline(context.Background(), testMerchant, 10, 77, Capabilities{CanRevoke: true},
		[]OfflineEntry{offlineAt(tickets[0].PublicID, time.Now().UTC())})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestSyncOffline_TenantIsolation(t *testing.T) {
	_, svc, tickets := newSyncFixture(t, 1)

	_, err := svc.SyncOffline(context.Background(), testOtherMerchant, 10, 77, fullCaps,
		[]OfflineEntry{offlineAt(tickets[0].PublicID, time.Now().UTC())})
	assert.ErrorIs(t, err, ErrNotFound)
}
