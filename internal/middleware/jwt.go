package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys populated by JWTAuth for downstream handlers.
const (
	CtxStaffID    = "staff_id"
	CtxMerchantID = "merchant_id"
	CtxIsAdmin    = "is_admin"
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the staff id, merchant id and admin flag into the
// request context.  The secret must match the one used when issuing
// session tokens.  Handlers read the values back with the StaffID,
// MerchantID and IsAdmin helpers.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			// Numeric claims decode as float64; ids fit well below 2^53.
			staffID, okSub := claims["sub"].(float64)
			merchantID, okMid := claims["mid"].(float64)
			if !okSub || !okMid || staffID <= 0 || merchantID <= 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			admin, _ := claims["adm"].(bool)

			c.Set(CtxStaffID, uint64(staffID))
			c.Set(CtxMerchantID, uint64(merchantID))
			c.Set(CtxIsAdmin, admin)
			return next(c)
		}
	}
}
