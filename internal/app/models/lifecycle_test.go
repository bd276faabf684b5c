package models

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestOpportunityTransitionClosure(t *testing.T) {
	legal := map[[2]OpportunityStatus]bool{
		{OpportunityDraft, OpportunityOpen}:        true,
		{OpportunityOpen, OpportunityInProgress}:   true,
		{OpportunityOpen, OpportunityClosed}:       true,
		{OpportunityInProgress, OpportunityClosed}: true,
	}

	for _, from := range OpportunityStatuses {
		for _, to := range OpportunityStatuses {
			err := from.CheckTransition(to)
			if legal[[2]OpportunityStatus{from, to}] {
				assert.NoError(t, err, "%s -> %s", from, to)
				continue
			}
			assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition), "%s -> %s", from, to)
		}
	}
}

func TestApplicationTransitionClosure(t *testing.T) {
	for _, from := range ApplicationStatuses {
		for _, to := range ApplicationStatuses {
			err := from.CheckTransition(to)
			if from == ApplicationPending && to != ApplicationPending {
				assert.NoError(t, err, "%s -> %s", from, to)
				continue
			}
			var transitionErr *apperrors.InvalidTransitionError
			assert.True(t, errors.As(err, &transitionErr), "%s -> %s", from, to)
		}
	}
}

func TestOpportunityStatusValid(t *testing.T) {
	for _, s := range OpportunityStatuses {
		assert.True(t, s.Valid())
	}
	assert.False(t, OpportunityStatus("archived").Valid())
}

func TestApplicationHasMessage(t *testing.T) {
	blank := "   "
	text := "Interested."

	assert.False(t, (&Application{}).HasMessage())
	assert.False(t, (&Application{Message: &blank}).HasMessage())
	assert.True(t, (&Application{Message: &text}).HasMessage())
}

func TestActorRoleAccessors(t *testing.T) {
	ngoProfileID := uuid.New()
	ngo := (&NGOAccount{Profile: &Profile{ID: uuid.New()}, NGO: &NGOProfile{ID: ngoProfileID}}).Actor()
	_, isExpert := ngo.ExpertID()
	ngoID, isNGO := ngo.NGOID()

	assert.True(t, isNGO)
	assert.False(t, isExpert)
	assert.Equal(t, ngoProfileID, ngoID)

	var account Account = &ExpertAccount{Profile: &Profile{ID: uuid.New()}, Expert: &ExpertProfile{ID: uuid.New()}}
	switch a := account.(type) {
	case *NGOAccount:
		t.Fatalf("expected expert account, got %T", a)
	case *ExpertAccount:
		expertID, ok := a.Actor().ExpertID()
		assert.True(t, ok)
		assert.Equal(t, a.Expert.ID, expertID)
	}
}
