package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/auth"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/repositories"
	"github.com/impactlink/impactlink/internal/app/repositories/memstore"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withoutTx(s repositories.Store) repositories.Store {
	return plainStore{Store: s}
}

func TestEndToEndAcceptScenario(t *testing.T) {
	f := newFixture(t)
	n1 := f.newNGO(t, "N1")
	e1 := f.newExpert(t, "E1")
	e2 := f.newExpert(t, "E2")

	o1, err := f.opportunities.Create(f.ctx, n1, validOpportunityInput())
	require.NoError(t, err)
	require.Equal(t, models.OpportunityOpen, o1.Status)

	applied, err := f.applications.Apply(f.ctx, e1, o1.ID, "Interested.")
	require.NoError(t, err)
	a1 := applied.Application
	assert.Equal(t, models.ApplicationPending, a1.Status)
	assert.False(t, applied.MissingMessage)

	accepted, err := f.applications.Accept(f.ctx, n1, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationAccepted, accepted.Status)

	gotO, gotA := f.reload(t, o1, a1)
	assert.Equal(t, models.ApplicationAccepted, gotA.Status)
	assert.Equal(t, models.OpportunityInProgress, gotO.Status)

	_, err = f.applications.Apply(f.ctx, e2, o1.ID, "Me too")
	assert.ErrorIs(t, err, apperrors.ErrNotEligible)
}

func TestApplyFlagsMissingMessage(t *testing.T) {
	f := newFixture(t)
	ngo := f.newNGO(t, "N1")
	expert := f.newExpert(t, "E1")
	o := f.openOpportunity(t, ngo)

	result, err := f.applications.Apply(f.ctx, expert, o.ID, "   ")
	require.NoError(t, err)
	assert.True(t, result.MissingMessage)
	assert.Nil(t, result.Application.Message)
}

func TestApplyEligibility(t *testing.T) {
	f := newFixture(t)
	ngo := f.newNGO(t, "N1")
	expert := f.newExpert(t, "E1")

	_, err := f.applications.Apply(f.ctx, ngo, f.openOpportunity(t, ngo).ID, "")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	for _, status := range []models.OpportunityStatus{models.OpportunityDraft, models.OpportunityInProgress, models.OpportunityClosed} {
		_, err = f.applications.Apply(f.ctx, expert, f.withStatus(t, ngo, status).ID, "")
		assert.ErrorIs(t, err, apperrors.ErrNotEligible, string(status))
	}

	_, err = f.applications.Apply(f.ctx, expert, uuid.New(), "")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestDuplicateThenReapplyAfterWithdraw(t *testing.T) {
	f := newFixture(t)
	ngo := f.newNGO(t, "N1")
	expert := f.newExpert(t, "E1")
	o := f.openOpportunity(t, ngo)

	first, err := f.applications.Apply(f.ctx, expert, o.ID, "first")
	require.NoError(t, err)

	_, err = f.applications.Apply(f.ctx, expert, o.ID, "second")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateApplication)

	_, err = f.applications.Withdraw(f.ctx, expert, first.Application.ID)
	require.NoError(t, err)

	third, err := f.applications.Apply(f.ctx, expert, o.ID, "third")
	require.NoError(t, err)
	assert.NotEqual(t, first.Application.ID, third.Application.ID)
}

func TestReapplyDisabled(t *testing.T) {
	f := newFixtureWith(t, LifecycleOptions{AllowReapply: false, DefaultOpportunityStatus: models.OpportunityOpen}, nil)
	ngo := f.newNGO(t, "N1")
	expert := f.newExpert(t, "E1")
	o := f.openOpportunity(t, ngo)

	first, err := f.applications.Apply(f.ctx, expert, o.ID, "first")
	require.NoError(t, err)
	_, err = f.applications.Withdraw(f.ctx, expert, first.Application.ID)
	require.NoError(t, err)

	_, err = f.applications.Apply(f.ctx, expert, o.ID, "again")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateApplication)
}

func TestApplicationTransitionClosure(t *testing.T) {
	type op struct {
		name   string
		target models.ApplicationStatus
		run    func(f *fixture, ngo, expert models.Actor, id uuid.UUID) error
	}
	ops := []op{
		{"accept", models.ApplicationAccepted, func(f *fixture, ngo, _ models.Actor, id uuid.UUID) error {
			_, err := f.applications.Accept(f.ctx, ngo, id)
			return err
		}},
		{"reject", models.ApplicationRejected, func(f *fixture, ngo, _ models.Actor, id uuid.UUID) error {
			_, err := f.applications.Reject(f.ctx, ngo, id)
			return err
		}},
		{"withdraw", models.ApplicationWithdrawn, func(f *fixture, _, expert models.Actor, id uuid.UUID) error {
			_, err := f.applications.Withdraw(f.ctx, expert, id)
			return err
		}},
	}

	for _, from := range models.ApplicationStatuses {
		for _, o := range ops {
			t.Run(fmt.Sprintf("%s from %s", o.name, from), func(t *testing.T) {
				f := newFixture(t)
				ngo := f.newNGO(t, "N1")
				expert := f.newExpert(t, "E1")
				opportunity := f.openOpportunity(t, ngo)
				expertID, _ := expert.ExpertID()

				a := &models.Application{OpportunityID: opportunity.ID, ExpertID: expertID, Status: from}
				require.NoError(t, f.store.Applications().Create(f.ctx, a))

				err := o.run(f, ngo, expert, a.ID)
				_, stored := f.reload(t, opportunity, a)

				if from.CanTransitionTo(o.target) {
					require.NoError(t, err)
					assert.Equal(t, o.target, stored.Status)
					return
				}
				var transition *apperrors.InvalidTransitionError
				require.True(t, errors.As(err, &transition), "got %v", err)
				assert.Equal(t, "application", transition.Entity)
				assert.Equal(t, from, stored.Status)
			})
		}
	}
}

func TestAcceptWhenOpportunityAlreadyInProgress(t *testing.T) {
	f := newFixture(t)
	ngo := f.newNGO(t, "N1")
	e1 := f.newExpert(t, "E1")
	e2 := f.newExpert(t, "E2")
	o := f.openOpportunity(t, ngo)

	a1, err := f.applications.Apply(f.ctx, e1, o.ID, "one")
	require.NoError(t, err)
	a2, err := f.applications.Apply(f.ctx, e2, o.ID, "two")
	require.NoError(t, err)

	_, err = f.applications.Accept(f.ctx, ngo, a1.Application.ID)
	require.NoError(t, err)
	before, _ := f.reload(t, o, a2.Application)

	_, err = f.applications.Accept(f.ctx, ngo, a2.Application.ID)
	require.NoError(t, err)

	after, gotA2 := f.reload(t, o, a2.Application)
	assert.Equal(t, models.ApplicationAccepted, gotA2.Status)
	assert.Equal(t, models.OpportunityInProgress, after.Status)
	assert.Equal(t, before.Version+1, after.Version, "accept writes the opportunity back under its version")
}

func TestAcceptOnClosedOpportunityIsNotEligible(t *testing.T) {
	f := newFixture(t)
	ngo := f.newNGO(t, "N1")
	expert := f.newExpert(t, "E1")
	o := f.openOpportunity(t, ngo)

	applied, err := f.applications.Apply(f.ctx, expert, o.ID, "hi")
	require.NoError(t, err)
	_, err = f.opportunities.Transition(f.ctx, ngo, o.ID, models.OpportunityClosed)
	require.NoError(t, err)

	_, err = f.applications.Accept(f.ctx, ngo, applied.Application.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotEligible)

	_, a := f.reload(t, o, applied.Application)
	assert.Equal(t, models.ApplicationPending, a.Status)
}

func TestAcceptLosesToConcurrentClose(t *testing.T) {
	paths := []struct {
		name string
		wrap func(repositories.Store) repositories.Store
	}{
		{"transaction", nil},
		{"compensation", withoutTx},
	}
	for _, path := range paths {
		t.Run(path.name, func(t *testing.T) {
			f := newFixtureWith(t, DefaultLifecycleOptions(), path.wrap)
			ngo := f.newNGO(t, "N1")
			e1 := f.newExpert(t, "E1")
			e2 := f.newExpert(t, "E2")
			o := f.openOpportunity(t, ngo)
			a1, err := f.applications.Apply(f.ctx, e1, o.ID, "one")
			require.NoError(t, err)
			a2, err := f.applications.Apply(f.ctx, e2, o.ID, "two")
			require.NoError(t, err)
			_, err = f.applications.Accept(f.ctx, ngo, a1.Application.ID)
			require.NoError(t, err)

			// Accept has read the in_progress opportunity when the NGO closes it.
			var closeErr error
			f.store.AfterNext(memstore.OpOpportunitiesGet, func() {
				_, closeErr = f.opportunities.Transition(f.ctx, ngo, o.ID, models.OpportunityClosed)
			})

			_, err = f.applications.Accept(f.ctx, ngo, a2.Application.ID)
			require.NoError(t, closeErr)
			assert.ErrorIs(t, err, apperrors.ErrNotEligible)

			gotO, gotA2 := f.reload(t, o, a2.Application)
			assert.Equal(t, models.OpportunityClosed, gotO.Status)
			assert.Equal(t, models.ApplicationPending, gotA2.Status)
		})
	}
}

func TestAcceptAtomicity(t *testing.T) {
	paths := []struct {
		name string
		wrap func(repositories.Store) repositories.Store
	}{
		{"transaction", nil},
		{"compensation", withoutTx},
	}
	for _, path := range paths {
		t.Run(path.name, func(t *testing.T) {
			f := newFixtureWith(t, DefaultLifecycleOptions(), path.wrap)
			ngo := f.newNGO(t, "N1")
			expert := f.newExpert(t, "E1")
			o := f.openOpportunity(t, ngo)
			applied, err := f.applications.Apply(f.ctx, expert, o.ID, "hi")
			require.NoError(t, err)

			// the opportunity write succeeds, the application write fails
			unreachable := apperrors.NewConnectionError(errors.New("connection reset"))
			f.store.FailNext(memstore.OpApplicationsUpdate, unreachable)

			_, err = f.applications.Accept(f.ctx, ngo, applied.Application.ID)
			require.Error(t, err)
			assert.True(t, apperrors.IsRetryable(err))

			gotO, gotA := f.reload(t, o, applied.Application)
			assert.Equal(t, models.OpportunityOpen, gotO.Status)
			assert.Equal(t, models.ApplicationPending, gotA.Status)

			// nothing is left half-done, so a retry goes through
			_, err = f.applications.Accept(f.ctx, ngo, applied.Application.ID)
			require.NoError(t, err)
			gotO, gotA = f.reload(t, o, applied.Application)
			assert.Equal(t, models.OpportunityInProgress, gotO.Status)
			assert.Equal(t, models.ApplicationAccepted, gotA.Status)
		})
	}
}

func TestAcceptCompensationRevertFailureReportsBoth(t *testing.T) {
	f := newFixtureWith(t, DefaultLifecycleOptions(), withoutTx)
	ngo := f.newNGO(t, "N1")
	expert := f.newExpert(t, "E1")
	o := f.openOpportunity(t, ngo)
	applied, err := f.applications.Apply(f.ctx, expert, o.ID, "hi")
	require.NoError(t, err)

	appErr := apperrors.NewConnectionError(errors.New("application write lost"))
	revertErr := errors.New("revert lost")
	f.store.FailNext(memstore.OpApplicationsUpdate, appErr)
	// a nil entry lets the first opportunity update through
	f.store.FailNext(memstore.OpOpportunitiesUpdate, nil)
	f.store.FailNext(memstore.OpOpportunitiesUpdate, revertErr)

	_, err = f.applications.Accept(f.ctx, ngo, applied.Application.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErr)
	assert.ErrorIs(t, err, revertErr)
}

func TestAuthorizationSymmetry(t *testing.T) {
	f := newFixture(t)
	ngo := f.newNGO(t, "N1")
	applicant := f.newExpert(t, "E1")
	outsider := f.newExpert(t, "E2")
	o := f.openOpportunity(t, ngo)
	applied, err := f.applications.Apply(f.ctx, applicant, o.ID, "hi")
	require.NoError(t, err)

	_, errList := f.applications.ListForOpportunity(f.ctx, outsider, o.ID)
	_, errView := f.applications.Get(f.ctx, outsider, applied.Application.ID)
	_, errViewMissing := f.applications.Get(f.ctx, outsider, uuid.New())
	_, errTransition := f.opportunities.Transition(f.ctx, outsider, o.ID, models.OpportunityClosed)
	_, errWithdraw := f.applications.Withdraw(f.ctx, outsider, applied.Application.ID)

	for _, err := range []error{errList, errView, errViewMissing, errTransition, errWithdraw} {
		require.Error(t, err)
		assert.True(t, auth.IsForbidden(err))
		assert.Equal(t, ErrorKind(errList), ErrorKind(err))
		assert.Equal(t, errList.Error(), err.Error())
	}

	otherNGO := f.newNGO(t, "N2")
	_, errAccept := f.applications.Accept(f.ctx, otherNGO, applied.Application.ID)
	_, errAcceptMissing := f.applications.Accept(f.ctx, otherNGO, uuid.New())
	assert.ErrorIs(t, errAccept, apperrors.ErrPermissionDenied)
	assert.Equal(t, errAccept.Error(), errAcceptMissing.Error())

	gotO, gotA := f.reload(t, o, applied.Application)
	assert.Equal(t, models.OpportunityOpen, gotO.Status)
	assert.Equal(t, models.ApplicationPending, gotA.Status)
}

func TestApplicationViews(t *testing.T) {
	f := newFixture(t)
	ngo := f.newNGO(t, "N1")
	e1 := f.newExpert(t, "E1")
	e2 := f.newExpert(t, "E2")
	o := f.openOpportunity(t, ngo)
	other := f.openOpportunity(t, ngo)

	a1, err := f.applications.Apply(f.ctx, e1, o.ID, "one")
	require.NoError(t, err)
	a2, err := f.applications.Apply(f.ctx, e2, o.ID, "two")
	require.NoError(t, err)
	a3, err := f.applications.Apply(f.ctx, e1, other.ID, "three")
	require.NoError(t, err)

	applicants, err := f.applications.ListForOpportunity(f.ctx, ngo, o.ID)
	require.NoError(t, err)
	require.Len(t, applicants, 2)
	assert.Equal(t, a2.Application.ID, applicants[0].Application.ID)
	assert.Equal(t, e2.ProfileID, applicants[0].Expert.Profile.ID)
	assert.Equal(t, a1.Application.ID, applicants[1].Application.ID)

	mine, err := f.applications.ListForExpert(f.ctx, e1, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, a3.Application.ID, mine[0].Application.ID)
	assert.Equal(t, other.ID, mine[0].Opportunity.ID)

	e2ID, _ := e2.ExpertID()
	_, err = f.applications.ListForExpert(f.ctx, e1, e2ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	detail, err := f.applications.Get(f.ctx, ngo, a1.Application.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, detail.Opportunity.ID)
	assert.Equal(t, e1.ProfileID, detail.Expert.Profile.ID)

	detail, err = f.applications.Get(f.ctx, e1, a1.Application.ID)
	require.NoError(t, err)
	assert.Equal(t, a1.Application.ID, detail.Application.ID)
}

func TestWithdrawLosesToConcurrentAccept(t *testing.T) {
	f := newFixture(t)
	ngo := f.newNGO(t, "N1")
	expert := f.newExpert(t, "E1")
	o := f.openOpportunity(t, ngo)
	applied, err := f.applications.Apply(f.ctx, expert, o.ID, "hi")
	require.NoError(t, err)

	// Withdraw reads the pending application, then the NGO accepts before
	// Withdraw writes.
	var acceptErr error
	f.store.AfterNext(memstore.OpApplicationsGet, func() {
		_, acceptErr = f.applications.Accept(f.ctx, ngo, applied.Application.ID)
	})

	_, err = f.applications.Withdraw(f.ctx, expert, applied.Application.ID)
	require.NoError(t, acceptErr)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	gotO, gotA := f.reload(t, o, applied.Application)
	assert.Equal(t, models.ApplicationAccepted, gotA.Status)
	assert.Equal(t, models.OpportunityInProgress, gotO.Status)
}

func TestConcurrentDecisionsHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	ngo := f.newNGO(t, "N1")
	expert := f.newExpert(t, "E1")
	o := f.openOpportunity(t, ngo)
	applied, err := f.applications.Apply(f.ctx, expert, o.ID, "hi")
	require.NoError(t, err)
	id := applied.Application.ID

	var wg sync.WaitGroup
	errs := make([]error, 3)
	run := []func() error{
		func() error { _, err := f.applications.Accept(f.ctx, ngo, id); return err },
		func() error { _, err := f.applications.Reject(f.ctx, ngo, id); return err },
		func() error { _, err := f.applications.Withdraw(f.ctx, expert, id); return err },
	}
	for i, fn := range run {
		wg.Add(1)
		go func(i int, fn func() error) {
			defer wg.Done()
			errs[i] = fn()
		}(i, fn)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var transition *apperrors.InvalidTransitionError
		assert.True(t, errors.Is(err, apperrors.ErrConflict) || errors.As(err, &transition), "got %v", err)
	}
	assert.Equal(t, 1, succeeded)

	gotO, gotA := f.reload(t, o, applied.Application)
	assert.True(t, gotA.Status.IsTerminal())
	assert.Equal(t, gotA.Status == models.ApplicationAccepted, gotO.Status == models.OpportunityInProgress)
}
