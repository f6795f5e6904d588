// Package token signs and verifies the stateless check-in tokens that
// end up inside QR codes.  A token proves possession of one ticket for
// one event until it expires; whether the ticket is still admissible is
// decided later by the check-in state machine, never by the codec.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose tags check-in tokens so that access tokens or any other JWT
// signed with a shared secret can never be replayed at the scan gate.
const Purpose = "checkin"

// DefaultTTL bounds token lifetime.  A week is long enough for holders
// to download their QR before the event while keeping leaked tokens
// from living forever.
const DefaultTTL = 7 * 24 * time.Hour

// ErrInvalid is the only error Verify returns to callers.  Bad
// signature, expiry, wrong purpose and malformed payloads are all
// collapsed into it so that responses never tell an untrusted scanner
// why a token failed; the wrapped cause is for logs only.
var ErrInvalid = errors.New("invalid token")

// Claims is the decoded payload of a valid check-in token.
type Claims struct {
	TicketPublicID uint64 // public snowflake id of the ticket
	EventID        uint64 // event the token admits to
}

// Codec issues and verifies check-in tokens with an HS256 secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time // injectable for tests
}

// New returns a Codec signing with the given secret.  A non-positive
// ttl falls back to DefaultTTL.
func New(secret string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the given ticket and event.  The public id
// travels as a decimal string because JSON numbers lose precision
// above 2^53.
func (c *Codec) Issue(ticketPublicID, eventID uint64) (string, error) {
	now := c.now().UTC()
	claims := jwt.MapClaims{
		"tid":     strconv.FormatUint(ticketPublicID, 10),
		"eid":     eventID,
		"purpose": Purpose,
		"exp":     now.Add(c.ttl).Unix(),
		"iat":     now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Verify parses and validates a token, returning its claims.  Every
// failure mode is reported as ErrInvalid with the underlying cause
// wrapped for logging.
func (c *Codec) Verify(raw string) (Claims, error) {
	// WithExpirationRequired: the default validator only checks exp when
	// the claim is present, and a token without one would never expire.
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, fmt.Errorf("%w: unexpected claims type", ErrInvalid)
	}
	if p, _ := mc["purpose"].(string); p != Purpose {
		return Claims{}, fmt.Errorf("%w: wrong purpose", ErrInvalid)
	}

	tidStr, ok := mc["tid"].(string)
	if !ok || tidStr == "" {
		return Claims{}, fmt.Errorf("%w: missing ticket id", ErrInvalid)
	}
	tid, err := strconv.ParseUint(tidStr, 10, 64)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: malformed ticket id", ErrInvalid)
	}

	// JSON numbers decode as float64; event ids fit comfortably.
	eidF, ok := mc["eid"].(float64)
	if !ok || eidF <= 0 {
		return Claims{}, fmt.Errorf("%w: missing event id", ErrInvalid)
	}

	return Claims{TicketPublicID: tid, EventID: uint64(eidF)}, nil
}
