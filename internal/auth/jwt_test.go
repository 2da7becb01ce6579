package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParseSessionID(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	tok, err := SignSessionID("session-123", secret, time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)

	id, err := ParseSessionID(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "session-123", id)
}

func TestParseSessionID_Rejects(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	expired, err := SignSessionID("s1", secret, time.Now().Add(-time.Hour), time.Now().Add(-time.Second))
	require.NoError(t, err)
	otherKey, err := SignSessionID("s1", []byte("other"), time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	noID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(secret)
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{ID: "s1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":     expired,
		"wrong key":   otherKey,
		"missing id":  noID,
		"alg none":    unsigned,
		"garbage":     "not-a-token",
		"empty token": "",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSessionID(tok, secret)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
