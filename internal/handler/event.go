package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/ticketing"
)

// EventHandler implements event and ticket type management for
// merchant admins.
type EventHandler struct {
	Events  *repository.EventRepo
	Catalog *ticketing.Catalog
	Store   *repository.TicketingStore
}

func NewEventHandler(e *repository.EventRepo, cat *ticketing.Catalog, store *repository.TicketingStore) *EventHandler {
	return &EventHandler{Events: e, Catalog: cat, Store: store}
}

type createEventReq struct {
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Location    *string   `json:"location"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	TotalQuota  uint32    `json:"total_quota"` // 0 = unbounded
}

type eventResp struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Location    *string   `json:"location,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	TotalQuota  uint32    `json:"total_quota"`
	IsActive    bool      `json:"is_active"`
}

func toEventResp(e *model.Event) eventResp {
	return eventResp{
		ID: e.ID, Name: e.Name, Description: e.Description, Location: e.Location,
		StartTime: e.StartTime, EndTime: e.EndTime, TotalQuota: e.TotalQuota, IsActive: e.IsActive,
	}
}

// Create adds an event under the caller's merchant.
func (h *EventHandler) Create(c echo.Context) error {
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	if !req.EndTime.After(req.StartTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be after start_time"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	e := &model.Event{
		MerchantID:  middleware.MerchantID(c),
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
		TotalQuota:  req.TotalQuota,
		IsActive:    true,
	}
	if err := h.Events.Create(ctx, e); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, toEventResp(e))
}

// List returns the caller's events.
func (h *EventHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	events, err := h.Events.ListByMerchant(ctx, middleware.MerchantID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]eventResp, 0, len(events))
	for i := range events {
		out = append(out, toEventResp(&events[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one event with its ticket types.
func (h *EventHandler) Get(c echo.Context) error {
	eventID := pathID(c, "id")
	if eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	e, err := h.Events.GetByID(ctx, middleware.MerchantID(c), eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if e == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	types, err := h.Store.TicketTypesByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	typeOut := make([]echo.Map, 0, len(types))
	for _, tt := range types {
		typeOut = append(typeOut, echo.Map{
			"id":          tt.ID,
			"name":        tt.Name,
			"price_cents": tt.PriceCents,
			"quota":       tt.Quota,
			"is_active":   tt.IsActive,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event":        toEventResp(e),
		"ticket_types": typeOut,
	})
}

// SetActive toggles issuance and check-in for the event.
func (h *EventHandler) SetActive(c echo.Context) error {
	eventID := pathID(c, "id")
	if eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Events.SetActive(ctx, middleware.MerchantID(c), eventID, req.IsActive); err != nil {
		if err == repository.ErrForbidden {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": eventID, "is_active": req.IsActive})
}

type createTypeReq struct {
	Name       string `json:"name"`
	PriceCents uint32 `json:"price_cents"`
	Quota      uint32 `json:"quota"` // 0 = unbounded
}

// CreateTicketType adds a ticket type to the event, enforcing the
// type quota budget against the event ceiling.
func (h *EventHandler) CreateTicketType(c echo.Context) error {
	eventID := pathID(c, "id")
	if eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req createTypeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	tt, err := h.Catalog.CreateTicketType(ctx, middleware.MerchantID(c), eventID, ticketing.CreateTicketTypeInput{
		Name:       req.Name,
		PriceCents: req.PriceCents,
		Quota:      req.Quota,
	})
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":          tt.ID,
		"event_id":    tt.EventID,
		"name":        tt.Name,
		"price_cents": tt.PriceCents,
		"quota":       tt.Quota,
		"is_active":   tt.IsActive,
	})
}
