package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestJWT() *JWTService {
	return NewJWTService(JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Hour, TokenIssuer: "impactlink.test"})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestJWT()
	user := &models.User{ID: uuid.New(), Email: "ngo@example.org"}

	token, expiresIn, err := svc.GenerateAccessToken(user, models.RoleNGO)
	require.NoError(t, err)
	assert.Equal(t, 3600, expiresIn)

	claims, err := svc.ValidateAndExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleNGO, claims.Role)
	assert.Equal(t, user.ID.String(), claims.Subject)
}

func TestExpiredToken(t *testing.T) {
	svc := newTestJWT()
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.GenerateAccessToken(&models.User{ID: uuid.New(), Email: "a@b.org"}, models.RoleExpert)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.True(t, errors.Is(err, ErrExpiredToken))
}

func TestTokenFromOtherSecretRejected(t *testing.T) {
	token, _, err := newTestJWT().GenerateAccessToken(&models.User{ID: uuid.New(), Email: "a@b.org"}, models.RoleExpert)
	require.NoError(t, err)

	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, TokenIssuer: "impactlink.test"})
	_, err = other.ValidateToken(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestExtractBearerToken(t *testing.T) {
	tok, err := ExtractBearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	_, err = ExtractBearerToken("  ")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestPasswordHashing(t *testing.T) {
	BcryptCost = bcrypt.MinCost
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-bcrypt-hash", "s3cret-pass"))

	_, err = HashPassword(strings.Repeat("x", PasswordMaxBytes+1))
	assert.Error(t, err)
}
