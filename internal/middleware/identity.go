package middleware

// identity.go provides typed accessors for the authentication values
// JWTAuth stores in the Echo context, so handlers never repeat the
// type assertions.

import "github.com/labstack/echo/v4"

// StaffID returns the authenticated staff id, or 0 when the request is
// unauthenticated.
func StaffID(c echo.Context) uint64 {
	if v, ok := c.Get(CtxStaffID).(uint64); ok {
		return v
	}
	return 0
}

// MerchantID returns the tenant scope of the authenticated staff, or 0.
func MerchantID(c echo.Context) uint64 {
	if v, ok := c.Get(CtxMerchantID).(uint64); ok {
		return v
	}
	return 0
}

// IsAdmin reports whether the authenticated staff is a merchant admin.
func IsAdmin(c echo.Context) bool {
	v, _ := c.Get(CtxIsAdmin).(bool)
	return v
}
