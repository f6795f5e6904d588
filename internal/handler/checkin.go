package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	queue_publisher "github.com/iliyamo/event-ticketing/internal/service"
	"github.com/iliyamo/event-ticketing/internal/ticketing"
)

// CheckinHandler implements the scan-gate endpoints: check-in, revoke,
// verify, offline sync and the audit log.
type CheckinHandler struct {
	Service  *ticketing.CheckinService
	Grants   *repository.GrantRepo
	Checkins *repository.CheckinRepo
	Events   *repository.EventRepo
}

func NewCheckinHandler(svc *ticketing.CheckinService, g *repository.GrantRepo, ch *repository.CheckinRepo, e *repository.EventRepo) *CheckinHandler {
	return &CheckinHandler{Service: svc, Grants: g, Checkins: ch, Events: e}
}

type checkinReq struct {
	Token string `json:"token"`
}

type checkinResp struct {
	RecordID    uint64    `json:"record_id"`
	CheckinTime time.Time `json:"checkin_time"`
	Ticket      ticketResp `json:"ticket"`
}

// publishRecorded emits a checkin.recorded message without blocking
// the response; a broker outage only loses the audit copy, never the
// check-in itself.
func (h *CheckinHandler) publishRecorded(merchantID uint64, rec *model.CheckInRecord, t *model.Ticket, offline bool) {
	ev := queue.CheckinRecordedEvent{
		RecordID:       rec.ID,
		TicketPublicID: strconv.FormatUint(t.PublicID, 10),
		TicketCode:     t.Code,
		HolderName:     t.HolderName,
		EventID:        t.EventID,
		MerchantID:     merchantID,
		StaffID:        rec.StaffID,
		Offline:        offline,
		CheckinTime:    rec.CheckinTime.UTC().Format(time.RFC3339),
	}
	if e, err := h.Events.GetByID(context.Background(), merchantID, t.EventID); err == nil && e != nil {
		ev.EventName = e.Name
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishCheckinRecorded(ctx, ev)
	}()
}

// CheckIn redeems a scanned token for the event in the path.
func (h *CheckinHandler) CheckIn(c echo.Context) error {
	eventID := pathID(c, "id")
	if eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req checkinReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	merchantID := middleware.MerchantID(c)
	staffID := middleware.StaffID(c)
	caps, err := capsFor(ctx, h.Grants, staffID, eventID, middleware.IsAdmin(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	rec, t, err := h.Service.CheckIn(ctx, merchantID, eventID, staffID, caps, strings.TrimSpace(req.Token),
		ticketing.Origin{IP: c.RealIP(), UserAgent: c.Request().UserAgent()})
	if err != nil {
		return engineError(c, err)
	}

	h.publishRecorded(merchantID, rec, t, false)
	return c.JSON(http.StatusOK, checkinResp{
		RecordID:    rec.ID,
		CheckinTime: rec.CheckinTime,
		Ticket:      toTicketResp(t),
	})
}

// Revoke reverses a check-in record.
func (h *CheckinHandler) Revoke(c echo.Context) error {
	recordID := pathID(c, "id")
	if recordID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid record id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	merchantID := middleware.MerchantID(c)
	staffID := middleware.StaffID(c)

	// The grant is event-scoped, so the record has to be resolved first
	// to learn which event it belongs to.
	var caps ticketing.Capabilities
	if middleware.IsAdmin(c) {
		caps = ticketing.Capabilities{CanCheckin: true, CanRevoke: true}
	} else {
		eventID, err := h.Checkins.EventIDForRecord(ctx, merchantID, recordID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if eventID == 0 {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		caps, err = capsFor(ctx, h.Grants, staffID, eventID, false)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}

	rec, err := h.Service.Revoke(ctx, merchantID, staffID, recordID, caps)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"record_id":  rec.ID,
		"revoked_by": rec.Revocation.By,
		"revoked_at": rec.Revocation.At,
	})
}

// Verify decodes a token and reports ticket state without mutating
// anything.  No session is required: possession of a validly signed
// token is the authorization.
func (h *CheckinHandler) Verify(c echo.Context) error {
	var req checkinReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	sum, err := h.Service.VerifyOnly(ctx, strings.TrimSpace(req.Token))
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"public_id":   strconv.FormatUint(sum.PublicID, 10),
		"event_id":    sum.EventID,
		"code":        sum.Code,
		"holder_name": sum.HolderName,
		"used":        sum.Used,
	})
}

type offlineEntryReq struct {
	TicketPublicID string    `json:"ticket_public_id"` // decimal string
	CheckinTime    time.Time `json:"checkin_time"`
}

type syncReq struct {
	Entries []offlineEntryReq `json:"entries"`
}

// SyncOffline replays a scanner's offline check-in queue.
func (h *CheckinHandler) SyncOffline(c echo.Context) error {
	eventID := pathID(c, "id")
	if eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req syncReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.Entries) == 0 || len(req.Entries) > 5000 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "entries must contain between 1 and 5000 items"})
	}

	entries := make([]ticketing.OfflineEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		id, err := strconv.ParseUint(e.TicketPublicID, 10, 64)
		if err != nil || e.CheckinTime.IsZero() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entry"})
		}
		entries = append(entries, ticketing.OfflineEntry{TicketPublicID: id, CheckinTime: e.CheckinTime})
	}

	// Offline batches may be large; give them more room than a single
	// round-trip.
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	staffID := middleware.StaffID(c)
	caps, err := capsFor(ctx, h.Grants, staffID, eventID, middleware.IsAdmin(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	synced, err := h.Service.SyncOffline(ctx, middleware.MerchantID(c), eventID, staffID, caps, entries)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"submitted": len(entries),
		"synced":    synced,
		"skipped":   len(entries) - synced,
	})
}

// Logs returns a page of the event's check-in audit trail.
func (h *CheckinHandler) Logs(c echo.Context) error {
	eventID := pathID(c, "id")
	if eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	limit, offset := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	logs, err := h.Checkins.ListByEvent(ctx, middleware.MerchantID(c), eventID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, logs)
}
