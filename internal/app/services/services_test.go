package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/auth"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/repositories"
	"github.com/impactlink/impactlink/internal/app/repositories/memstore"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plainStore hides memstore's WithTx so services fall back to their
// non-transactional paths.
type plainStore struct {
	repositories.Store
}

type fixture struct {
	ctx           context.Context
	store         *memstore.Store
	authz         *auth.AuthorizationService
	identity      IdentityService
	opportunities OpportunityService
	applications  ApplicationService
	saved         SavedOpportunityService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, DefaultLifecycleOptions(), nil)
}

// newFixtureWith builds the services over a fresh memstore. When wrap is set
// the services see wrap(store) instead of the store itself.
func newFixtureWith(t *testing.T, options LifecycleOptions, wrap func(repositories.Store) repositories.Store) *fixture {
	t.Helper()
	require.NoError(t, options.Validate())

	logger := zerolog.Nop()
	store := memstore.New()

	var port repositories.Store = store
	if wrap != nil {
		port = wrap(store)
	}
	authz := auth.NewAuthorizationService(port, logger)

	return &fixture{
		ctx:           context.Background(),
		store:         store,
		authz:         authz,
		identity:      NewIdentityService(port, logger),
		opportunities: NewOpportunityService(port, authz, options, logger),
		applications:  NewApplicationService(port, authz, options, logger),
		saved:         NewSavedOpportunityService(port, authz, logger),
	}
}

func (f *fixture) newNGO(t *testing.T, name string) models.Actor {
	t.Helper()
	profile := &models.Profile{UserID: uuid.New(), Role: models.RoleNGO, FullName: name}
	require.NoError(t, f.store.Profiles().CreateProfile(f.ctx, profile))
	ngo := &models.NGOProfile{ProfileID: profile.ID, OrganizationName: name, Country: "Kenya", City: "Nairobi"}
	require.NoError(t, f.store.Profiles().CreateNGOProfile(f.ctx, ngo))
	return (&models.NGOAccount{Profile: profile, NGO: ngo}).Actor()
}

func (f *fixture) newExpert(t *testing.T, name string, areas ...string) models.Actor {
	t.Helper()
	if len(areas) == 0 {
		areas = []string{"Web Development"}
	}
	profile := &models.Profile{UserID: uuid.New(), Role: models.RoleExpert, FullName: name}
	require.NoError(t, f.store.Profiles().CreateProfile(f.ctx, profile))
	expert := &models.ExpertProfile{ProfileID: profile.ID, ExpertiseAreas: areas}
	require.NoError(t, f.store.Profiles().CreateExpertProfile(f.ctx, expert))
	return (&models.ExpertAccount{Profile: profile, Expert: expert}).Actor()
}

func validOpportunityInput() CreateOpportunityInput {
	return CreateOpportunityInput{
		Title:             "Website rebuild",
		Description:       "Rebuild the donation site",
		RequiredExpertise: []string{"Web Development"},
		LocationName:      "Remote",
		StartDate:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		Compensation:      models.Compensation{Type: models.CompensationPaid, Amount: 500, Currency: "USD"},
	}
}

func (f *fixture) openOpportunity(t *testing.T, ngo models.Actor) *models.Opportunity {
	t.Helper()
	o, err := f.opportunities.Create(f.ctx, ngo, validOpportunityInput())
	require.NoError(t, err)
	require.Equal(t, models.OpportunityOpen, o.Status)
	return o
}

// withStatus stores an opportunity directly in the given status
func (f *fixture) withStatus(t *testing.T, ngo models.Actor, status models.OpportunityStatus) *models.Opportunity {
	t.Helper()
	ngoID, _ := ngo.NGOID()
	in := validOpportunityInput()
	o := &models.Opportunity{
		NGOID:             ngoID,
		Title:             in.Title,
		Description:       in.Description,
		RequiredExpertise: in.RequiredExpertise,
		LocationName:      in.LocationName,
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		Compensation:      in.Compensation,
		Status:            status,
	}
	require.NoError(t, f.store.Opportunities().Create(f.ctx, o))
	return o
}

func (f *fixture) reload(t *testing.T, o *models.Opportunity, a *models.Application) (*models.Opportunity, *models.Application) {
	t.Helper()
	gotO, err := f.store.Opportunities().GetByID(f.ctx, o.ID)
	require.NoError(t, err)
	gotA, err := f.store.Applications().GetByID(f.ctx, a.ID)
	require.NoError(t, err)
	return gotO, gotA
}

func TestLifecycleOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultLifecycleOptions().Validate())
	assert.NoError(t, LifecycleOptions{DefaultOpportunityStatus: models.OpportunityDraft}.Validate())
	assert.Error(t, LifecycleOptions{DefaultOpportunityStatus: models.OpportunityClosed}.Validate())
	assert.Error(t, LifecycleOptions{}.Validate())
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{apperrors.NewValidationError().Add("title", "is required"), "validation"},
		{apperrors.NewInvalidTransitionError("opportunity", "closed", "open"), "invalid_transition"},
		{apperrors.NewNotEligibleError("closed"), "not_eligible"},
		{apperrors.NewDuplicateApplicationError("again"), "duplicate_application"},
		{apperrors.NewForbiddenError(auth.ForbiddenMessage), "forbidden"},
		{apperrors.NewConflictError("moved"), "conflict"},
		{apperrors.NewConnectionError(errors.New("refused")), "connection"},
		{apperrors.NewResourceNotFoundError("gone"), "not_found"},
		{apperrors.ErrProfileNotFound, "not_found"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err), "%v", tt.err)
	}
}

func TestIdentityResolve(t *testing.T) {
	f := newFixture(t)
	ngo := f.newNGO(t, "Clean Water Org")
	expert := f.newExpert(t, "Ada")

	account, err := f.identity.Resolve(f.ctx, ngo.UserID)
	require.NoError(t, err)
	ngoAccount, ok := account.(*models.NGOAccount)
	require.True(t, ok)
	assert.Equal(t, ngo, ngoAccount.Actor())

	account, err = f.identity.ResolveProfile(f.ctx, expert.ProfileID)
	require.NoError(t, err)
	_, ok = account.(*models.ExpertAccount)
	assert.True(t, ok)

	_, err = f.identity.Resolve(f.ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrProfileNotFound)
}

func TestIdentityResolveMissingRoleHalf(t *testing.T) {
	f := newFixture(t)
	profile := &models.Profile{UserID: uuid.New(), Role: models.RoleExpert, FullName: "Half"}
	require.NoError(t, f.store.Profiles().CreateProfile(f.ctx, profile))

	_, err := f.identity.Resolve(f.ctx, profile.UserID)
	assert.ErrorIs(t, err, apperrors.ErrProfileNotFound)
}
