package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "access-secret-for-tests"
	testRefreshSecret = "refresh-secret-for-tests"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testAccessSecret, 42, "user", 15)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	claims, err := ParseAccessToken(testAccessSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "user", claims.Role)
	assert.Empty(t, claims.JTI)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	tok, err := NewRefreshToken(testRefreshSecret, 7, "admin", 30)
	require.NoError(t, err)
	require.NotEmpty(t, tok.JTI)

	claims, err := ParseRefreshToken(testRefreshSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, tok.JTI, claims.JTI)
}

func TestRefreshTokenJTIUniquePerCall(t *testing.T) {
	a, err := NewRefreshToken(testRefreshSecret, 1, "user", 30)
	require.NoError(t, err)
	b, err := NewRefreshToken(testRefreshSecret, 1, "user", 30)
	require.NoError(t, err)
	assert.NotEqual(t, a.JTI, b.JTI)
	assert.NotEqual(t, a.Token, b.Token)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, err := NewAccessToken(testAccessSecret, 1, "user", 15)
	require.NoError(t, err)

	_, err = ParseAccessToken("some-other-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestKeysAreNotInterchangeable(t *testing.T) {
	// A refresh token must never verify as an access token and the other
	// way around; the two classes use independent secrets.
	refresh, err := NewRefreshToken(testRefreshSecret, 1, "user", 30)
	require.NoError(t, err)
	_, err = ParseAccessToken(testAccessSecret, refresh.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	access, err := NewAccessToken(testAccessSecret, 1, "user", 15)
	require.NoError(t, err)
	_, err = ParseRefreshToken(testRefreshSecret, access.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	tok, err := NewAccessToken(testAccessSecret, 1, "user", -5)
	require.NoError(t, err)
	_, err = ParseAccessToken(testAccessSecret, tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	ref, err := NewRefreshToken(testRefreshSecret, 1, "user", -1)
	require.NoError(t, err)
	_, err = ParseRefreshToken(testRefreshSecret, ref.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsAccessTokenWithoutJTI(t *testing.T) {
	// Access tokens signed with the refresh secret still fail refresh
	// parsing: the jti claim is mandatory there.
	tok, err := NewAccessToken(testRefreshSecret, 1, "user", 15)
	require.NoError(t, err)
	_, err = ParseRefreshToken(testRefreshSecret, tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "garbage", "a.b.c"} {
		_, err := ParseAccessToken(testAccessSecret, raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestHashTokenID(t *testing.T) {
	h1 := HashTokenID("jti-1")
	h2 := HashTokenID("jti-1")
	h3 := HashTokenID("jti-2")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64) // sha256 hex
	assert.NotContains(t, h1, "jti-1")
}
