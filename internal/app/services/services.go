// Package services holds the business operations behind the HTTP API:
//   - IdentityService resolves a session into an Account and Actor
//   - OpportunityService owns the opportunity lifecycle
//   - ApplicationService owns the application lifecycle and the accept cascade
//   - SavedOpportunityService toggles expert bookmarks
//   - MessageService handles direct messages and realtime hand-off
//   - AuthService registers accounts and issues sessions
//   - ProfileService edits profiles and serves the public/explore pages
//
// Every service receives its Data Access Port explicitly; none keeps global state.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/repositories"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/impactlink/impactlink/internal/pkg/metrics"
)

// LifecycleOptions are the business-rule switches for the lifecycle services
type LifecycleOptions struct {
	// AllowReapply lets an expert apply again after a withdrawn or rejected
	// application. When false any earlier application blocks the pair.
	AllowReapply bool
	// DefaultOpportunityStatus is used when Create is not given a status
	DefaultOpportunityStatus models.OpportunityStatus
}

// DefaultLifecycleOptions returns the options matching the mobile app's behaviour
func DefaultLifecycleOptions() LifecycleOptions {
	return LifecycleOptions{
		AllowReapply:             true,
		DefaultOpportunityStatus: models.OpportunityOpen,
	}
}

// Validate checks the option values
func (o LifecycleOptions) Validate() error {
	if o.DefaultOpportunityStatus != models.OpportunityOpen && o.DefaultOpportunityStatus != models.OpportunityDraft {
		return fmt.Errorf("default opportunity status must be open or draft, got %q", o.DefaultOpportunityStatus)
	}
	return nil
}

// ErrorKind names the taxonomy bucket of err for logs and metrics
func ErrorKind(err error) string {
	var transition *apperrors.InvalidTransitionError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, apperrors.ErrValidationFailed):
		return "validation"
	case errors.As(err, &transition):
		return "invalid_transition"
	case errors.Is(err, apperrors.ErrNotEligible):
		return "not_eligible"
	case errors.Is(err, apperrors.ErrDuplicateApplication):
		return "duplicate_application"
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return "forbidden"
	case errors.Is(err, apperrors.ErrConflict):
		return "conflict"
	case errors.Is(err, apperrors.ErrConnection):
		return "connection"
	case apperrors.Is(err, apperrors.ErrResourceNotFound, apperrors.ErrProfileNotFound, apperrors.ErrUserNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

// track counts a failed lifecycle operation and returns err unchanged
func track(operation string, err error) error {
	if err != nil {
		metrics.RecordFailure(operation, ErrorKind(err))
	}
	return err
}

// inTx runs fn inside a transaction when the store supports one and directly
// against the store otherwise.
func inTx(ctx context.Context, store repositories.Store, fn repositories.TxFn) error {
	if tx, ok := store.(repositories.Transactor); ok {
		return tx.WithTx(ctx, fn)
	}
	return fn(ctx, store)
}
