package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	at, err := NewAccessToken("s3cret", 42, 2, "STAFF", false, 5)
	require.NoError(t, err)

	c, err := ParseAccessToken("s3cret", at.Token)
	require.NoError(t, err)
	uid, err := c.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), uid)
	assert.Equal(t, uint64(2), c.ClientID)
	assert.Equal(t, "STAFF", c.Role)
	assert.False(t, c.Superadmin)
}

func TestParseAccessTokenRejects(t *testing.T) {
	at, err := NewAccessToken("s3cret", 42, 2, "USER", false, 5)
	require.NoError(t, err)
	_, err = ParseAccessToken("other", at.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewAccessToken("s3cret", 42, 2, "USER", false, -1)
	require.NoError(t, err)
	_, err = ParseAccessToken("s3cret", expired.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseAccessToken("s3cret", none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "correct horse"))
	assert.False(t, VerifyPassword(h, "wrong"))
}

func TestHashPassword_OutOfRangeCostFallsBack(t *testing.T) {
	h, err := HashPassword("correct horse", 99)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestBurnPasswordCheck(t *testing.T) {
	assert.NotPanics(t, func() { BurnPasswordCheck("anything") })
}
