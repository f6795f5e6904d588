package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

// AuthHandler bundles dependencies for staff authentication endpoints.
type AuthHandler struct {
	Cfg       config.Config
	Staff     *repository.StaffRepo
	Tokens    *repository.TokenRepo
	Merchants *repository.MerchantRepo
}

func NewAuthHandler(cfg config.Config, s *repository.StaffRepo, t *repository.TokenRepo, m *repository.MerchantRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Staff: s, Tokens: t, Merchants: m}
}

// ----- DTOs -----

type registerReq struct {
	MerchantName string `json:"merchant_name"`
	ContactEmail string `json:"contact_email"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	Password     string `json:"password"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type codeLoginReq struct {
	Code string `json:"code"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type staffPart struct {
	ID         uint64 `json:"id"`
	MerchantID uint64 `json:"merchant_id"`
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	IsAdmin    bool   `json:"is_admin"`
}
type authResp struct {
	Staff   staffPart `json:"staff"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// issuePair mints an access/refresh pair for the staff member and
// stores the refresh hash.
func (h *AuthHandler) issuePair(c echo.Context, st *model.Staff) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, st.ID, st.MerchantID, st.IsAdmin, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, st.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		Staff:   staffPart{ID: st.ID, MerchantID: st.MerchantID, Username: st.Username, FullName: st.FullName, IsAdmin: st.IsAdmin},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}

// Register creates a merchant together with its first admin staff
// account and returns a session immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.MerchantName = strings.TrimSpace(req.MerchantName)
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.MerchantName == "" || req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "merchant_name/username/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}

	m := &model.Merchant{Name: req.MerchantName, IsActive: true}
	if req.ContactEmail != "" {
		email := strings.TrimSpace(req.ContactEmail)
		m.ContactEmail = &email
	}
	if err := h.Merchants.Create(ctx, m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create merchant failed"})
	}

	st := &model.Staff{
		MerchantID:   m.ID,
		Username:     req.Username,
		FullName:     req.FullName,
		PasswordHash: hash,
		IsActive:     true,
		IsAdmin:      true,
	}
	if err := h.Staff.Create(ctx, st); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create staff failed"})
	}

	return h.issuePair(c, st)
}

// Login verifies username/password and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.Staff.GetByUsername(ctx, req.Username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if st == nil || !st.IsActive || st.PasswordHash == "" || !utils.VerifyPassword(st.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err := h.requireActiveMerchant(c, st.MerchantID); err != nil {
		return err
	}

	return h.issuePair(c, st)
}

// LoginWithCode authenticates a scanning device with a staff login
// code instead of a password.
func (h *AuthHandler) LoginWithCode(c echo.Context) error {
	var req codeLoginReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.Staff.GetByLoginCode(ctx, req.Code)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if st == nil || !st.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid code"})
	}
	if err := h.requireActiveMerchant(c, st.MerchantID); err != nil {
		return err
	}

	return h.issuePair(c, st)
}

// requireActiveMerchant rejects logins for suspended tenants.  It
// writes the response itself and returns it when the merchant is
// unusable, and returns nil when the login may proceed.
func (h *AuthHandler) requireActiveMerchant(c echo.Context, merchantID uint64) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Merchants.GetByID(ctx, merchantID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if m == nil || !m.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "merchant inactive"})
	}
	return nil
}

// Refresh validates a refresh token by hash, revokes it, and issues a
// new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqCtx(c)
	defer cancel()

	staffID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	st, err := h.Staff.GetByID(ctx, staffID)
	if err != nil || st == nil || !st.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}

	return h.issuePair(c, st)
}

// Logout revokes the presented refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated staff member's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.Staff.GetByID(ctx, middleware.StaffID(c))
	if err != nil || st == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown staff"})
	}
	return c.JSON(http.StatusOK, staffPart{
		ID: st.ID, MerchantID: st.MerchantID, Username: st.Username,
		FullName: st.FullName, IsAdmin: st.IsAdmin,
	})
}
