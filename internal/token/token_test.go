package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueVerify_RoundTrip(t *testing.T) {
	c := New("secret", time.Hour)

	raw, err := c.Issue(1234567890123456789, 42)
	require.NoError(t, err)

	got, err := c.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(1234567890123456789), got.TicketPublicID)
	assert.Equal(t, uint64(42), got.EventID)
}

func TestVerify_Expired(t *testing.T) {
	c := New("secret", time.Hour)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	raw, err := c.Issue(99, 7)
	require.NoError(t, err)

	// Still valid just before expiry.
	c.now = func() time.Time { return base.Add(59 * time.Minute) }
	_, err = c.Verify(raw)
	require.NoError(t, err)

	// Rejected once the TTL has elapsed.
	c.now = func() time.Time { return base.Add(61 * time.Minute) }
	_, err = c.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerify_WrongSecret(t *testing.T) {
	raw, err := New("secret-a", time.Hour).Issue(1, 1)
	require.NoError(t, err)

	_, err = New("secret-b", time.Hour).Verify(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerify_WrongPurpose(t *testing.T) {
	// An access-token-shaped JWT signed with the same secret must not
	// pass as a check-in token.
	claims := jwt.MapClaims{
		"tid":     "55",
		"eid":     3,
		"purpose": "session",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = New("secret", time.Hour).Verify(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerify_MissingFields(t *testing.T) {
	for name, claims := range map[string]jwt.MapClaims{
		"no ticket id": {
			"eid":     3,
			"purpose": Purpose,
			"exp":     time.Now().Add(time.Hour).Unix(),
		},
		"no event id": {
			"tid":     "55",
			"purpose": Purpose,
			"exp":     time.Now().Add(time.Hour).Unix(),
		},
		"ticket id not a decimal string": {
			"tid":     "not-a-number",
			"eid":     3,
			"purpose": Purpose,
			"exp":     time.Now().Add(time.Hour).Unix(),
		},
		// Without an exp claim the token would never expire, so it must
		// be rejected outright rather than validated as unexpirable.
		"no expiry": {
			"tid":     "55",
			"eid":     3,
			"purpose": Purpose,
		},
	} {
		t.Run(name, func(t *testing.T) {
			raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
			require.NoError(t, err)

			_, err = New("secret", time.Hour).Verify(raw)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestVerify_Garbage(t *testing.T) {
	_, err := New("secret", time.Hour).Verify("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalid)
}
