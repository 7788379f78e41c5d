package auth

import (
	"testing"
	"time"

	"coursecms/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access",
		RefreshSecret: "refresh",
		AccessExpiry:  time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "cms-test",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	tok, err := GenerateAccessToken(cfg, 42, "ada@example.com", "Ada", "student")
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "student", claims.Role)
	assert.Equal(t, "cms-test", claims.Issuer)
}

func TestAccessTokenRejections(t *testing.T) {
	cfg := testJWTConfig()

	expired := *cfg
	expired.AccessExpiry = -time.Minute
	tok, err := GenerateAccessToken(&expired, 1, "a@b.c", "A", "student")
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := *cfg
	other.AccessSecret = "someone-else"
	tok, err = GenerateAccessToken(&other, 1, "a@b.c", "A", "admin")
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1, Role: "admin"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseAccessToken(cfg, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken(t *testing.T) {
	cfg := testJWTConfig()
	tok, err := GenerateRefreshToken(cfg, 7)
	require.NoError(t, err)

	id, err := ParseRefreshToken(cfg, tok)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)

	// an access token is not accepted as a refresh token
	access, err := GenerateAccessToken(cfg, 7, "a@b.c", "A", "student")
	require.NoError(t, err)
	_, err = ParseRefreshToken(cfg, access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
