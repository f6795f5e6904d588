package ticketing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/snowflake"
)

const (
	testMerchant      = uint64(1)
	testOtherMerchant = uint64(2)
)

func testEvent(id uint64, merchantID uint64, totalQuota uint32) model.Event {
	return model.Event{
		ID:         id,
		MerchantID: merchantID,
		Name:       fmt.Sprintf("event-%d", id),
		StartTime:  time.Date(2025, 9, 1, 18, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2025, 9, 1, 23, 0, 0, 0, time.UTC),
		TotalQuota: totalQuota,
		IsActive:   true,
	}
}

func newTestIssuer(store Store) *Issuer {
	return NewIssuer(store, snowflake.New(1))
}

func TestIssueOne_QuotaScenario(t *testing.T) {
	// Event ceiling 3, generous type quota 10: the event ceiling must win.
	store := newFakeStore()
	store.addEvent(testEvent(10, testMerchant, 3))
	store.addType(model.TicketType{ID: 5, EventID: 10, Name: "Regular", Quota: 10, IsActive: true})
	issuer := newTestIssuer(store)
	typeID := uint64(5)

	for i := 0; i < 3; i++ {
		tk, err := issuer.IssueOne(context.Background(), testMerchant, 10, &typeID, HolderInfo{Name: fmt.Sprintf("Holder %d", i)})
		require.NoError(t, err)
		assert.NotZero(t, tk.PublicID)
		assert.NotEmpty(t, tk.Code)
	}

	_, err := issuer.IssueOne(context.Background(), testMerchant, 10, &typeID, HolderInfo{Name: "One Too Many"})
	var qe *QuotaExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, uint32(0), qe.Remaining)

	// A batch on top of a full event must fail too, atomically.
	_, err = issuer.IssueBatch(context.Background(), testMerchant, 10, &typeID, 2, "Guest ", nil)
	require.ErrorAs(t, err, &qe)

	count, _ := store.CountTicketsByEvent(context.Background(), 10)
	assert.Equal(t, uint32(3), count)
}

func TestIssueOne_TypeQuota(t *testing.T) {
	store := newFakeStore()
	store.addEvent(testEvent(10, testMerchant, 0)) // unbounded event
	store.addType(model.TicketType{ID: 5, EventID: 10, Name: "VIP", Quota: 2, IsActive: true})
	issuer := newTestIssuer(store)
	typeID := uint64(5)

	for i := 0; i < 2; i++ {
		_, err := issuer.IssueOne(context.Background(), testMerchant, 10, &typeID, HolderInfo{Name: "VIP"})
		require.NoError(t, err)
	}

	_, err := issuer.IssueOne(context.Background(), testMerchant, 10, &typeID, HolderInfo{Name: "VIP"})
	var qe *QuotaExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, uint32(0), qe.Remaining)

	// Untyped issuance is still allowed: only the type scope is full.
	_, err = issuer.IssueOne(context.Background(), testMerchant, 10, nil, HolderInfo{Name: "Walk-in"})
	require.NoError(t, err)
}

func TestIssueBatch_AllOrNothing(t *testing.T) {
	store := newFakeStore()
	store.addEvent(testEvent(10, testMerchant, 4))
	issuer := newTestIssuer(store)

	_, err := issuer.IssueBatch(context.Background(), testMerchant, 10, nil, 2, "Crew ", nil)
	require.NoError(t, err)

	// Requesting 3 with 2 remaining must persist nothing.
	_, err = issuer.IssueBatch(context.Background(), testMerchant, 10, nil, 3, "Crew ", nil)
	var qe *QuotaExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, uint32(2), qe.Remaining)

	count, _ := store.CountTicketsByEvent(context.Background(), 10)
	assert.Equal(t, uint32(2), count)
}

func TestIssueBatch_HolderNameTemplate(t *testing.T) {
	store := newFakeStore()
	store.addEvent(testEvent(10, testMerchant, 0))
	issuer := newTestIssuer(store)

	desc := "row A"
	tickets, err := issuer.IssueBatch(context.Background(), testMerchant, 10, nil, 3, "Guest ", &desc)
	require.NoError(t, err)
	require.Len(t, tickets, 3)
	assert.Equal(t, "Guest 001", tickets[0].HolderName)
	assert.Equal(t, "Guest 002", tickets[1].HolderName)
	assert.Equal(t, "Guest 003", tickets[2].HolderName)
	for _, tk := range tickets {
		require.NotNil(t, tk.Description)
		assert.Equal(t, "row A", *tk.Description)
	}
}

func TestIssue_ConcurrentNeverExceedsQuota(t *testing.T) {
	const quota = 20
	store := newFakeStore()
	store.addEvent(testEvent(10, testMerchant, quota))
	issuer := newTestIssuer(store)

	const workers = 8
	const attemptsPerWorker = 5 // 40 attempts against 20 seats

	var wg sync.WaitGroup
	var successes, rejections int64
	var mu sync.Mutex

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < attemptsPerWorker; i++ {
				_, err := issuer.IssueOne(context.Background(), testMerchant, 10, nil, HolderInfo{Name: fmt.Sprintf("w%d-%d", w, i)})
				mu.Lock()
				if err == nil {
					successes++
				} else {
					var qe *QuotaExceededError
					if assert.ErrorAs(t, err, &qe) {
						rejections++
					}
				}
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, int64(quota), successes)
	assert.Equal(t, int64(workers*attemptsPerWorker-quota), rejections)
	count, _ := store.CountTicketsByEvent(context.Background(), 10)
	assert.Equal(t, uint32(quota), count)
}

func TestIssueOne_TypeFromOtherEvent(t *testing.T) {
	store := newFakeStore()
	store.addEvent(testEvent(10, testMerchant, 0))
	store.addEvent(testEvent(11, testMerchant, 0))
	store.addType(model.TicketType{ID: 5, EventID: 11, Name: "Elsewhere", IsActive: true})
	issuer := newTestIssuer(store)
	typeID := uint64(5)

	_, err := issuer.IssueOne(context.Background(), testMerchant, 10, &typeID, HolderInfo{Name: "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIssueOne_TenantIsolation(t *testing.T) {
	// An event owned by another merchant is reported exactly like a
	// missing one.
	store := newFakeStore()
	store.addEvent(testEvent(10, testOtherMerchant, 0))
	issuer := newTestIssuer(store)

	_, err := issuer.IssueOne(context.Background(), testMerchant, 10, nil, HolderInfo{Name: "X"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = issuer.IssueOne(context.Background(), testMerchant, 999, nil, HolderInfo{Name: "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIssueOne_ProvisionsDefaultType(t *testing.T) {
	store := newFakeStore()
	store.addEvent(testEvent(10, testMerchant, 5))
	issuer := newTestIssuer(store)

	tk, err := issuer.IssueOne(context.Background(), testMerchant, 10, nil, HolderInfo{Name: "First"})
	require.NoError(t, err)
	require.NotNil(t, tk.TicketTypeID)

	types, err := store.TicketTypesByEvent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "General Admission", types[0].Name)
	// The default type covers whatever the event had left at the time.
	assert.Equal(t, uint32(5), types[0].Quota)
	assert.Equal(t, types[0].ID, *tk.TicketTypeID)

	// A second untyped issuance reuses the existing catalog: the ticket
	// stays untyped now that the event has a type configured.
	tk2, err := issuer.IssueOne(context.Background(), testMerchant, 10, nil, HolderInfo{Name: "Second"})
	require.NoError(t, err)
	assert.Nil(t, tk2.TicketTypeID)
}

func TestIssue_CodesUniqueAcrossMerchants(t *testing.T) {
	// Ticket codes share one namespace for all tenants.
	store := newFakeStore()
	store.addEvent(testEvent(10, testMerchant, 0))
	store.addEvent(testEvent(20, testOtherMerchant, 0))
	issuer := newTestIssuer(store)

	a, err := issuer.IssueBatch(context.Background(), testMerchant, 10, nil, 25, "A ", nil)
	require.NoError(t, err)
	b, err := issuer.IssueBatch(context.Background(), testOtherMerchant, 20, nil, 25, "B ", nil)
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for _, tk := range append(a, b...) {
		_, dup := seen[tk.Code]
		assert.False(t, dup, "code %q issued twice", tk.Code)
		seen[tk.Code] = struct{}{}
		assert.Len(t, tk.Code, 12)
	}
}

func TestIssueBatch_RejectsNonPositiveCount(t *testing.T) {
	store := newFakeStore()
	store.addEvent(testEvent(10, testMerchant, 0))
	issuer := newTestIssuer(store)

	_, err := issuer.IssueBatch(context.Background(), testMerchant, 10, nil, 0, "X", nil)
	assert.Error(t, err)
	var qe *QuotaExceededError
	assert.False(t, errors.As(err, &qe))
}

func TestCatalog_TypeQuotaBudget(t *testing.T) {
	store := newFakeStore()
	store.addEvent(testEvent(10, testMerchant, 100))
	store.addType(model.TicketType{ID: 1, EventID: 10, Name: "Regular", Quota: 70, IsActive: true})
	catalog := NewCatalog(store)

	// 30 left in the budget: 40 must be rejected, 30 accepted.
	_, err := catalog.CreateTicketType(context.Background(), testMerchant, 10, CreateTicketTypeInput{Name: "VIP", Quota: 40})
	var qe *QuotaExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, uint32(30), qe.Remaining)

	tt, err := catalog.CreateTicketType(context.Background(), testMerchant, 10, CreateTicketTypeInput{Name: "VIP", Quota: 30})
	require.NoError(t, err)
	assert.NotZero(t, tt.ID)

	// Unbounded types are exempt from the budget rule.
	_, err = catalog.CreateTicketType(context.Background(), testMerchant, 10, CreateTicketTypeInput{Name: "Standing"})
	require.NoError(t, err)
}

func TestCatalog_CreateTicketType_TenantIsolation(t *testing.T) {
	store := newFakeStore()
	store.addEvent(testEvent(10, testOtherMerchant, 0))
	catalog := NewCatalog(store)

	_, err := catalog.CreateTicketType(context.Background(), testMerchant, 10, CreateTicketTypeInput{Name: "VIP"})
	assert.ErrorIs(t, err, ErrNotFound)
}
