package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/repositories/memstore"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store       *memstore.Store
	guard       *AuthorizationService
	owner       models.Actor
	otherNGO    models.Actor
	applicant   models.Actor
	otherExpert models.Actor
	opportunity *models.Opportunity
	application *models.Application
}

func ngoActor() models.Actor {
	return models.Actor{UserID: uuid.New(), ProfileID: uuid.New(), Role: models.RoleNGO, RoleProfileID: uuid.New()}
}

func expertActor() models.Actor {
	return models.Actor{UserID: uuid.New(), ProfileID: uuid.New(), Role: models.RoleExpert, RoleProfileID: uuid.New()}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		store:       memstore.New(),
		owner:       ngoActor(),
		otherNGO:    ngoActor(),
		applicant:   expertActor(),
		otherExpert: expertActor(),
	}
	f.guard = NewAuthorizationService(f.store, zerolog.Nop())

	f.opportunity = &models.Opportunity{
		NGOID:             f.owner.RoleProfileID,
		Title:             "Solar microgrid survey",
		Description:       "Assess village sites",
		RequiredExpertise: []string{"Energy"},
		LocationName:      "Kisumu",
		StartDate:         time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		Compensation:      models.Compensation{Type: models.CompensationVolunteer},
		Status:            models.OpportunityOpen,
	}
	require.NoError(t, f.store.Opportunities().Create(ctx, f.opportunity))

	f.application = &models.Application{
		OpportunityID: f.opportunity.ID,
		ExpertID:      f.applicant.RoleProfileID,
		Status:        models.ApplicationPending,
	}
	require.NoError(t, f.store.Applications().Create(ctx, f.application))
	return f
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied), "got %v", err)
	assert.Equal(t, ForbiddenMessage, err.Error())
}

func TestCanCreateOpportunity(t *testing.T) {
	f := newFixture(t)

	id, err := f.guard.CanCreateOpportunity(f.owner, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, f.owner.RoleProfileID, id)

	_, err = f.guard.CanCreateOpportunity(f.owner, f.otherNGO.RoleProfileID)
	assertForbidden(t, err)

	_, err = f.guard.CanCreateOpportunity(f.applicant, uuid.Nil)
	assertForbidden(t, err)
}

func TestExpertDeniedSymmetrically(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.guard.AuthorizeOpportunityOwner(ctx, f.otherExpert, f.opportunity.ID)
	assertForbidden(t, err)

	_, _, err = f.guard.AuthorizeApplicationView(ctx, f.otherExpert, f.application.ID)
	assertForbidden(t, err)

	_, _, err = f.guard.AuthorizeApplicationView(ctx, f.otherExpert, uuid.New())
	assertForbidden(t, err)

	_, err = f.guard.AuthorizeOpportunityOwner(ctx, f.otherNGO, uuid.New())
	assertForbidden(t, err)
}

func TestApplicationViewParticipants(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	app, opp, err := f.guard.AuthorizeApplicationView(ctx, f.applicant, f.application.ID)
	require.NoError(t, err)
	assert.Equal(t, f.application.ID, app.ID)
	assert.Equal(t, f.opportunity.ID, opp.ID)

	_, _, err = f.guard.AuthorizeApplicationView(ctx, f.owner, f.application.ID)
	require.NoError(t, err)

	_, _, err = f.guard.AuthorizeApplicationView(ctx, f.otherNGO, f.application.ID)
	assertForbidden(t, err)
}

func TestApplicationDecisionAndWithdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, _, err := f.guard.AuthorizeApplicationDecision(ctx, f.owner, f.application.ID)
	require.NoError(t, err)

	_, _, err = f.guard.AuthorizeApplicationDecision(ctx, f.otherNGO, f.application.ID)
	assertForbidden(t, err)

	_, _, err = f.guard.AuthorizeApplicationDecision(ctx, f.applicant, f.application.ID)
	assertForbidden(t, err)

	_, err = f.guard.AuthorizeWithdraw(ctx, f.applicant, f.application.ID)
	require.NoError(t, err)

	_, err = f.guard.AuthorizeWithdraw(ctx, f.otherExpert, f.application.ID)
	assertForbidden(t, err)

	_, err = f.guard.AuthorizeWithdraw(ctx, f.owner, f.application.ID)
	assertForbidden(t, err)
}

func TestSelfExpertChecks(t *testing.T) {
	f := newFixture(t)

	id, err := f.guard.AuthorizeSave(f.applicant, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, f.applicant.RoleProfileID, id)

	_, err = f.guard.AuthorizeSave(f.applicant, f.otherExpert.RoleProfileID)
	assertForbidden(t, err)

	_, err = f.guard.AuthorizeSave(f.owner, uuid.Nil)
	assertForbidden(t, err)

	_, err = f.guard.AuthorizeExpertApplications(f.otherExpert, f.applicant.RoleProfileID)
	assertForbidden(t, err)
}

func TestConnectionErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.FailNext(memstore.OpApplicationsGet, apperrors.NewConnectionError(errors.New("timeout")))

	_, _, err := f.guard.AuthorizeApplicationView(ctx, f.applicant, f.application.ID)
	assert.True(t, apperrors.IsRetryable(err))
	assert.False(t, IsForbidden(err))
}

func TestProfileUpdate(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.guard.AuthorizeProfileUpdate(f.owner, f.owner.ProfileID))
	assertForbidden(t, f.guard.AuthorizeProfileUpdate(f.owner, f.applicant.ProfileID))
}
