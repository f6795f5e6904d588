package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/ticketing"
	"github.com/iliyamo/event-ticketing/internal/token"
)

// reqTimeout bounds every database round-trip made by a handler.
const reqTimeout = 5 * time.Second

// reqCtx derives a bounded context from the request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), reqTimeout)
}

// pathID parses a numeric path parameter; 0 means absent or malformed.
func pathID(c echo.Context, name string) uint64 {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// pageParams reads limit/offset query parameters with sane bounds.
func pageParams(c echo.Context) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// capsFor resolves the event capabilities of a staff member.  Merchant
// admins implicitly hold everything; other staff get exactly what
// their grant row says, which may be nothing.
func capsFor(ctx context.Context, grants *repository.GrantRepo, staffID, eventID uint64, admin bool) (ticketing.Capabilities, error) {
	if admin {
		return ticketing.Capabilities{CanCheckin: true, CanRevoke: true}, nil
	}
	g, err := grants.Get(ctx, staffID, eventID)
	if err != nil {
		return ticketing.Capabilities{}, err
	}
	if g == nil {
		return ticketing.Capabilities{}, nil
	}
	return ticketing.Capabilities{CanCheckin: g.CanCheckin, CanRevoke: g.CanRevoke}, nil
}

// engineError maps the engine's error taxonomy onto HTTP responses.
// Unrecognized errors become opaque 500s; the cause is left to the
// Echo logger.
func engineError(c echo.Context, err error) error {
	var quota *ticketing.QuotaExceededError
	switch {
	case errors.Is(err, ticketing.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, ticketing.ErrPermissionDenied):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, ticketing.ErrAlreadyUsed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket already used"})
	case errors.Is(err, ticketing.ErrAlreadyRevoked):
		return c.JSON(http.StatusConflict, echo.Map{"error": "check-in already revoked"})
	case errors.Is(err, ticketing.ErrWrongEvent):
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket belongs to another event"})
	case errors.Is(err, token.ErrInvalid):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid ticket token"})
	case errors.As(err, &quota):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "quota exceeded",
			"remaining": quota.Remaining,
		})
	default:
		c.Logger().Errorf("internal error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
