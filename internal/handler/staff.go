package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

// loginCodeLength is the size of device login codes.  Short enough to
// type on a scanner, long enough not to be guessed during an event.
const loginCodeLength = 8

// StaffHandler implements merchant-admin staff management: accounts,
// device login codes and per-event grants.
type StaffHandler struct {
	Cfg    config.Config
	Staff  *repository.StaffRepo
	Grants *repository.GrantRepo
	Events *repository.EventRepo
}

func NewStaffHandler(cfg config.Config, s *repository.StaffRepo, g *repository.GrantRepo, e *repository.EventRepo) *StaffHandler {
	return &StaffHandler{Cfg: cfg, Staff: s, Grants: g, Events: e}
}

type createStaffReq struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
	// WithLoginCode provisions a device code at creation time; handy for
	// accounts that will only ever run a scanner.
	WithLoginCode bool `json:"with_login_code"`
}

type staffResp struct {
	ID        uint64  `json:"id"`
	Username  string  `json:"username"`
	FullName  string  `json:"full_name"`
	LoginCode *string `json:"login_code,omitempty"`
	IsActive  bool    `json:"is_active"`
	IsAdmin   bool    `json:"is_admin"`
}

func toStaffResp(st *model.Staff) staffResp {
	return staffResp{
		ID: st.ID, Username: st.Username, FullName: st.FullName,
		LoginCode: st.LoginCode, IsActive: st.IsActive, IsAdmin: st.IsAdmin,
	}
}

// Create adds a staff account under the caller's merchant.
func (h *StaffHandler) Create(c echo.Context) error {
	var req createStaffReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username required"})
	}
	if req.Password == "" && !req.WithLoginCode {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password or login code required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	st := &model.Staff{
		MerchantID: middleware.MerchantID(c),
		Username:   req.Username,
		FullName:   req.FullName,
		IsActive:   true,
		IsAdmin:    req.IsAdmin,
	}
	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
		}
		st.PasswordHash = hash
	}
	if req.WithLoginCode {
		code, err := utils.GenerateTicketCode(loginCodeLength)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "code generation failed"})
		}
		st.LoginCode = &code
	}

	if err := h.Staff.Create(ctx, st); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username or code already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create staff failed"})
	}
	return c.JSON(http.StatusCreated, toStaffResp(st))
}

// List returns all staff of the caller's merchant.
func (h *StaffHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	staff, err := h.Staff.ListByMerchant(ctx, middleware.MerchantID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]staffResp, 0, len(staff))
	for i := range staff {
		out = append(out, toStaffResp(&staff[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// RotateLoginCode replaces the device login code of a staff member and
// returns the new code once.
func (h *StaffHandler) RotateLoginCode(c echo.Context) error {
	staffID := pathID(c, "id")
	if staffID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid staff id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.Staff.GetByID(ctx, staffID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if st == nil || st.MerchantID != middleware.MerchantID(c) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}

	code, err := utils.GenerateTicketCode(loginCodeLength)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "code generation failed"})
	}
	if err := h.Staff.SetLoginCode(ctx, staffID, &code); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"login_code": code})
}

type grantReq struct {
	CanCheckin bool `json:"can_checkin"`
	CanRevoke  bool `json:"can_revoke"`
}

// SetGrant creates or replaces the (staff, event) grant.  Both the
// staff member and the event must belong to the caller's merchant.
func (h *StaffHandler) SetGrant(c echo.Context) error {
	staffID := pathID(c, "id")
	eventID := pathID(c, "event_id")
	if staffID == 0 || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req grantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	merchantID := middleware.MerchantID(c)
	st, err := h.Staff.GetByID(ctx, staffID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if st == nil || st.MerchantID != merchantID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	event, err := h.Events.GetByID(ctx, merchantID, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if event == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}

	g := &model.StaffEventGrant{
		StaffID:    staffID,
		EventID:    eventID,
		CanCheckin: req.CanCheckin,
		CanRevoke:  req.CanRevoke,
	}
	if err := h.Grants.Upsert(ctx, g); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save grant failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"staff_id":    staffID,
		"event_id":    eventID,
		"can_checkin": req.CanCheckin,
		"can_revoke":  req.CanRevoke,
	})
}

// ListGrants returns all grants of one staff member.
func (h *StaffHandler) ListGrants(c echo.Context) error {
	staffID := pathID(c, "id")
	if staffID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid staff id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.Staff.GetByID(ctx, staffID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if st == nil || st.MerchantID != middleware.MerchantID(c) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}

	grants, err := h.Grants.ListByStaff(ctx, staffID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]echo.Map, 0, len(grants))
	for _, g := range grants {
		out = append(out, echo.Map{
			"event_id":    g.EventID,
			"can_checkin": g.CanCheckin,
			"can_revoke":  g.CanRevoke,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// DeleteGrant removes the (staff, event) grant.
func (h *StaffHandler) DeleteGrant(c echo.Context) error {
	staffID := pathID(c, "id")
	eventID := pathID(c, "event_id")
	if staffID == 0 || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.Staff.GetByID(ctx, staffID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if st == nil || st.MerchantID != middleware.MerchantID(c) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	if err := h.Grants.Delete(ctx, staffID, eventID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
