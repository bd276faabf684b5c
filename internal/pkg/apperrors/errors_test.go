package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorCollectsAllFields(t *testing.T) {
	v := NewValidationError()
	assert.NoError(t, v.OrNil())

	v.Add("title", "required").Add("requiredExpertise", "at least one area required")
	err := v.OrNil()

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Equal(t, []string{"title", "requiredExpertise"}, v.FieldNames())
	assert.Contains(t, err.Error(), "title: required")
}

func TestInvalidTransitionErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewInvalidTransitionError("opportunity", "closed", "open"))

	var target *InvalidTransitionError
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, "closed", target.From)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestCustomErrorsMatchSentinels(t *testing.T) {
	assert.True(t, errors.Is(NewForbiddenError("nope"), ErrPermissionDenied))
	assert.True(t, errors.Is(NewNotEligibleError("closed"), ErrNotEligible))
	assert.True(t, errors.Is(NewDuplicateApplicationError("dup"), ErrDuplicateApplication))
	assert.True(t, Is(NewConflictError("stale"), ErrResourceNotFound, ErrConflict))
}

func TestOnlyConnectionErrorsAreRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewConnectionError(errors.New("dial tcp: refused"))))
	assert.False(t, IsRetryable(NewConflictError("stale")))
	assert.False(t, IsRetryable(NewValidationError().Add("title", "required")))
}
