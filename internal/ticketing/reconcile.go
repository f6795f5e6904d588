package ticketing

import (
	"context"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// OfflineEntry is one check-in recorded by a scanner while it had no
// connectivity.  TicketPublicID is the snowflake id the device read
// from the QR payload; CheckinTime is the moment the device claims the
// holder was admitted and is trusted as-is.
type OfflineEntry struct {
	TicketPublicID uint64
	CheckinTime    time.Time
}

// SyncOffline replays an offline check-in queue.  Entries are applied
// independently, each in its own transaction: an entry whose ticket is
// missing, belongs to another event, or already has an active check-in
// is skipped silently.  Re-submitting the same queue therefore never
// double-counts; the second run reports zero.  The returned count is
// the number of entries actually applied.
func (s *CheckinService) SyncOffline(ctx context.Context, merchantID, eventID, staffID uint64, caps Capabilities, entries []OfflineEntry) (int, error) {
	if !caps.CanCheckin {
		return 0, ErrPermissionDenied
	}

	event, err := s.store.EventByID(ctx, merchantID, eventID)
	if err != nil {
		return 0, err
	}
	if event == nil {
		return 0, ErrNotFound
	}

	synced := 0
	for _, entry := range entries {
		applied, err := s.syncOne(ctx, eventID, staffID, entry)
		if err != nil {
			return synced, err
		}
		if applied {
			synced++
		}
	}
	return synced, nil
}

// syncOne applies a single offline entry.  It reports whether a new
// check-in record was written.
func (s *CheckinService) syncOne(ctx context.Context, eventID, staffID uint64, entry OfflineEntry) (bool, error) {
	applied := false
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		t, err := s.store.TicketForUpdateByPublicID(ctx, entry.TicketPublicID)
		if err != nil {
			return err
		}
		if t == nil || t.EventID != eventID || t.Used {
			return nil // skip: unknown, foreign, or already checked in
		}

		if err := s.store.SetTicketUsed(ctx, t.ID, true); err != nil {
			return err
		}
		rec := &model.CheckInRecord{
			TicketID:    t.ID,
			StaffID:     staffID,
			CheckinTime: entry.CheckinTime.UTC(),
		}
		if err := s.store.InsertCheckin(ctx, rec); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}
