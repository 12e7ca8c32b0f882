package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifierRoundTrip(t *testing.T) {
	v := NewJWTVerifier("secret", "dispatch", time.Hour)

	token, err := v.Issue("u1", "ambulance_driver")
	require.NoError(t, err)

	claims, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "ambulance_driver", claims.Role)
}

func TestJWTVerifierRejects(t *testing.T) {
	v := NewJWTVerifier("secret", "dispatch", time.Hour)
	good, err := v.Issue("u1", "vehicle_driver")
	require.NoError(t, err)

	other := NewJWTVerifier("other", "dispatch", time.Hour)
	wrongKey, err := other.Issue("u1", "vehicle_driver")
	require.NoError(t, err)

	expired := NewJWTVerifier("secret", "dispatch", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue("u1", "vehicle_driver")
	require.NoError(t, err)

	wrongIssuer, err := NewJWTVerifier("secret", "elsewhere", time.Hour).Issue("u1", "vehicle_driver")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &JWTClaims{UserID: "u1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"wrong key":    wrongKey,
		"expired":      old,
		"wrong issuer": wrongIssuer,
		"alg none":     unsigned,
		"tampered":     good + "x",
	}
	for name, credential := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), credential)
			require.Error(t, err)
			assert.True(t, IsInvalid(err))
		})
	}
}

func TestJWTVerifierCancelledContext(t *testing.T) {
	v := NewJWTVerifier("secret", "", time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := v.Verify(ctx, "anything")
	assert.ErrorIs(t, err, ErrUnavailable)
}
