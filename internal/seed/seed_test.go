package seed

import (
	"context"
	"testing"
	"time"

	"github.com/impactlink/impactlink/internal/app/auth"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/repositories"
	"github.com/impactlink/impactlink/internal/app/repositories/memstore"
	"github.com/impactlink/impactlink/internal/app/services"
	pkgAuth "github.com/impactlink/impactlink/internal/pkg/auth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type noopConsumer struct{}

func (noopConsumer) OnMessageReceived(context.Context, *models.Message) {}

func newServices(t *testing.T) (Services, *memstore.Store) {
	t.Helper()
	previous := pkgAuth.BcryptCost
	pkgAuth.BcryptCost = bcrypt.MinCost
	t.Cleanup(func() { pkgAuth.BcryptCost = previous })

	logger := zerolog.Nop()
	store := memstore.New()
	authz := auth.NewAuthorizationService(store, logger)
	jwtService := pkgAuth.NewJWTService(pkgAuth.JWTConfig{SecretKey: "seed-secret", AccessTokenExp: time.Hour, TokenIssuer: "seed"})

	return Services{
		Auth:          services.NewAuthService(store, jwtService, logger),
		Opportunities: services.NewOpportunityService(store, authz, services.DefaultLifecycleOptions(), logger),
		Applications:  services.NewApplicationService(store, authz, services.DefaultLifecycleOptions(), logger),
		Messages:      services.NewMessageService(store, noopConsumer{}, logger),
	}, store
}

func TestCreateDemoDataIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, store := newServices(t)

	require.NoError(t, CreateDemoData(ctx, svc, zerolog.Nop()))
	require.NoError(t, CreateDemoData(ctx, svc, zerolog.Nop()))

	opportunities, total, err := store.Opportunities().Query(ctx, repositories.OpportunityFilter{})
	require.NoError(t, err)
	assert.Len(t, opportunities, 2)
	assert.EqualValues(t, 2, total)

	applications, err := store.Applications().Query(ctx, repositories.ApplicationFilter{})
	require.NoError(t, err)
	assert.Len(t, applications, 1)

	messages, err := store.Messages().Query(ctx, repositories.MessageFilter{})
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestDemoAccountsCanLogIn(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)
	require.NoError(t, CreateDemoData(ctx, svc, zerolog.Nop()))

	for _, email := range []string{NGOEmail, ExpertEmail} {
		session, err := svc.Auth.Login(ctx, email, DemoPassword)
		require.NoError(t, err, email)
		assert.NotEmpty(t, session.AccessToken)
	}
}
