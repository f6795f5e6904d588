package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/ticketing"
	"github.com/iliyamo/event-ticketing/internal/token"
)

// TicketHandler implements issuance and ticket lookup endpoints.
type TicketHandler struct {
	Issuer   *ticketing.Issuer
	Tickets  *repository.TicketRepo
	Checkins *repository.CheckinRepo
	Tokens   *token.Codec
}

func NewTicketHandler(issuer *ticketing.Issuer, tickets *repository.TicketRepo, checkins *repository.CheckinRepo, tokens *token.Codec) *TicketHandler {
	return &TicketHandler{Issuer: issuer, Tickets: tickets, Checkins: checkins, Tokens: tokens}
}

type issueOneReq struct {
	TicketTypeID   *uint64 `json:"ticket_type_id"`
	HolderName     string  `json:"holder_name"`
	HolderEmail    *string `json:"holder_email"`
	HolderPhone    *string `json:"holder_phone"`
	ExternalUserID *string `json:"external_user_id"`
	Description    *string `json:"description"`
}

type issueBatchReq struct {
	TicketTypeID *uint64 `json:"ticket_type_id"`
	Count        int     `json:"count"`
	NamePrefix   string  `json:"name_prefix"`
	Description  *string `json:"description"`
}

type ticketResp struct {
	PublicID     string  `json:"public_id"` // decimal string, ids exceed 2^53
	EventID      uint64  `json:"event_id"`
	TicketTypeID *uint64 `json:"ticket_type_id,omitempty"`
	Code         string  `json:"code"`
	HolderName   string  `json:"holder_name"`
	HolderEmail  *string `json:"holder_email,omitempty"`
	HolderPhone  *string `json:"holder_phone,omitempty"`
	Description  *string `json:"description,omitempty"`
	Used         bool    `json:"used"`
}

func toTicketResp(t *model.Ticket) ticketResp {
	return ticketResp{
		PublicID:     strconv.FormatUint(t.PublicID, 10),
		EventID:      t.EventID,
		TicketTypeID: t.TicketTypeID,
		Code:         t.Code,
		HolderName:   t.HolderName,
		HolderEmail:  t.HolderEmail,
		HolderPhone:  t.HolderPhone,
		Description:  t.Description,
		Used:         t.Used,
	}
}

// IssueOne creates a single ticket for the event and returns it with a
// freshly signed check-in token for the QR code.
func (h *TicketHandler) IssueOne(c echo.Context) error {
	eventID := pathID(c, "id")
	if eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req issueOneReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.HolderName = strings.TrimSpace(req.HolderName)
	if req.HolderName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "holder_name required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Issuer.IssueOne(ctx, middleware.MerchantID(c), eventID, req.TicketTypeID, ticketing.HolderInfo{
		Name:           req.HolderName,
		Email:          req.HolderEmail,
		Phone:          req.HolderPhone,
		ExternalUserID: req.ExternalUserID,
		Description:    req.Description,
	})
	if err != nil {
		return engineError(c, err)
	}

	qr, err := h.Tokens.Issue(t.PublicID, t.EventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token signing failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"ticket":   toTicketResp(t),
		"qr_token": qr,
	})
}

// IssueBatch creates a group of tickets atomically.  Each returned
// ticket carries its own check-in token.
func (h *TicketHandler) IssueBatch(c echo.Context) error {
	eventID := pathID(c, "id")
	if eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req issueBatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Count <= 0 || req.Count > 1000 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "count must be between 1 and 1000"})
	}
	if strings.TrimSpace(req.NamePrefix) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name_prefix required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	tickets, err := h.Issuer.IssueBatch(ctx, middleware.MerchantID(c), eventID, req.TicketTypeID,
		req.Count, req.NamePrefix, req.Description)
	if err != nil {
		return engineError(c, err)
	}

	out := make([]echo.Map, 0, len(tickets))
	for _, t := range tickets {
		qr, err := h.Tokens.Issue(t.PublicID, t.EventID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token signing failed"})
		}
		out = append(out, echo.Map{"ticket": toTicketResp(t), "qr_token": qr})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"count":   len(tickets),
		"tickets": out,
	})
}

// ListByEvent returns a page of an event's tickets.
func (h *TicketHandler) ListByEvent(c echo.Context) error {
	eventID := pathID(c, "id")
	if eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	limit, offset := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	tickets, err := h.Tickets.ListByEvent(ctx, middleware.MerchantID(c), eventID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]ticketResp, 0, len(tickets))
	for i := range tickets {
		out = append(out, toTicketResp(&tickets[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// GetByCode looks a ticket up by its printed code and returns it with
// a fresh check-in token, for manual re-issue of a lost QR.  Used
// tickets additionally carry their active check-in record so gate
// staff can see who admitted the holder and when.
func (h *TicketHandler) GetByCode(c echo.Context) error {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Tickets.GetByCode(ctx, middleware.MerchantID(c), code)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if t == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}

	qr, err := h.Tokens.Issue(t.PublicID, t.EventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token signing failed"})
	}
	resp := echo.Map{
		"ticket":   toTicketResp(t),
		"qr_token": qr,
	}
	if t.Used {
		rec, err := h.Checkins.ActiveForTicket(ctx, t.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if rec != nil {
			resp["checkin"] = echo.Map{
				"record_id":    rec.ID,
				"staff_id":     rec.StaffID,
				"checkin_time": rec.CheckinTime,
			}
		}
	}
	return c.JSON(http.StatusOK, resp)
}
