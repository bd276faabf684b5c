package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/repositories"
	"github.com/impactlink/impactlink/internal/app/repositories/memstore"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/impactlink/impactlink/internal/pkg/auth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(t *testing.T) (*AuthService, *memstore.Store, *auth.JWTService) {
	t.Helper()
	previous := auth.BcryptCost
	auth.BcryptCost = bcrypt.MinCost
	t.Cleanup(func() { auth.BcryptCost = previous })

	store := memstore.New()
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: time.Hour,
		TokenIssuer:    "impactlink-test",
	})
	return NewAuthService(store, jwtService, zerolog.Nop()), store, jwtService
}

func expertRegistration() RegisterInput {
	return RegisterInput{
		Email:    "Ada@Example.org",
		Password: "s3cretpass",
		FullName: "Ada Lovelace",
		Role:     models.RoleExpert,
		Expert:   &ExpertDetails{ExpertiseAreas: []string{"Data Analysis", "data analysis"}},
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, store, jwtService := newAuthService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, expertRegistration())
	require.NoError(t, err)
	assert.Equal(t, "Bearer", session.TokenType)
	assert.Equal(t, 3600, session.ExpiresIn)

	account, ok := session.Account.(*models.ExpertAccount)
	require.True(t, ok)
	assert.Equal(t, []string{"Data Analysis"}, account.Expert.ExpertiseAreas)

	claims, err := jwtService.ValidateToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, account.Profile.UserID, claims.UserID)
	assert.Equal(t, models.RoleExpert, claims.Role)

	login, err := svc.Login(ctx, "ada@example.org", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, account.Actor(), login.Account.Actor())

	user, err := store.Users().GetUserByID(ctx, claims.UserID)
	require.NoError(t, err)
	assert.NotNil(t, user.LastLoginAt)
}

func TestRegisterNGO(t *testing.T) {
	svc, _, _ := newAuthService(t)

	session, err := svc.Register(context.Background(), RegisterInput{
		Email:    "team@water.org",
		Password: "w4terforall",
		FullName: "Water Team",
		Role:     models.RoleNGO,
		NGO:      &NGODetails{OrganizationName: "Clean Water", Country: "Kenya", City: "Nairobi"},
	})
	require.NoError(t, err)
	_, ok := session.Account.(*models.NGOAccount)
	assert.True(t, ok)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newAuthService(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "not-an-email",
		Password: "short",
		FullName: "A",
		Role:     models.RoleNGO,
		NGO:      &NGODetails{},
	})
	var v *apperrors.ValidationError
	require.True(t, errors.As(err, &v))
	assert.ElementsMatch(t, []string{
		"email", "password", "full_name", "ngo.organization_name", "ngo.country", "ngo.city",
	}, v.FieldNames())

	_, err = svc.Register(context.Background(), RegisterInput{
		Email: "a@b.org", Password: "abcdefgh1", FullName: "Role less", Role: "admin",
	})
	require.True(t, errors.As(err, &v))
	assert.Equal(t, []string{"role"}, v.FieldNames())
}

func TestRegisterDuplicateEmailRollsBack(t *testing.T) {
	svc, store, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, expertRegistration())
	require.NoError(t, err)

	_, err = svc.Register(ctx, expertRegistration())
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	experts, err := store.Profiles().QueryExpertProfiles(ctx, repositories.ExpertFilter{})
	require.NoError(t, err)
	assert.Len(t, experts, 1)
}

func TestRegisterFailureLeavesNoUser(t *testing.T) {
	svc, store, _ := newAuthService(t)
	ctx := context.Background()

	store.FailNext(memstore.OpProfilesCreate, apperrors.NewConnectionError(errors.New("refused")))
	_, err := svc.Register(ctx, expertRegistration())
	require.Error(t, err)

	_, err = store.Users().GetUserByEmail(ctx, "ada@example.org")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, expertRegistration())
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ada@example.org", "wrongpass1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.org", "s3cretpass")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}
