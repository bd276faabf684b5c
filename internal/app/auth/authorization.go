package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/repositories"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// ForbiddenMessage is the single message every denied check carries, so a
// denial for a missing object reads the same as one for somebody else's.
const ForbiddenMessage = "you do not have permission to access this resource"

func forbidden() error {
	return apperrors.NewForbiddenError(ForbiddenMessage)
}

// AuthorizationService is the capability check every lifecycle operation
// consults before it reads or writes anything on behalf of an actor.
type AuthorizationService struct {
	store  repositories.Store
	logger zerolog.Logger
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(store repositories.Store, logger zerolog.Logger) *AuthorizationService {
	return &AuthorizationService{
		store:  store,
		logger: logger.With().Str("component", "authz").Logger(),
	}
}

// deny logs and returns the shared ForbiddenError
func (s *AuthorizationService) deny(action string, actor models.Actor) error {
	s.logger.Debug().
		Str("action", action).
		Str("profileID", actor.ProfileID.String()).
		Str("role", string(actor.Role)).
		Msg("Authorization denied")
	return forbidden()
}

// lookupFailure turns a miss into Forbidden; store outages propagate unchanged.
func (s *AuthorizationService) lookupFailure(action string, actor models.Actor, err error) error {
	if apperrors.Is(err, apperrors.ErrResourceNotFound, apperrors.ErrProfileNotFound) {
		return s.deny(action, actor)
	}
	return err
}

// CanCreateOpportunity allows an NGO to post for its own ngo id. A nil ngoID
// means "my own".
func (s *AuthorizationService) CanCreateOpportunity(actor models.Actor, ngoID uuid.UUID) (uuid.UUID, error) {
	own, ok := actor.NGOID()
	if !ok || (ngoID != uuid.Nil && ngoID != own) {
		return uuid.Nil, s.deny("opportunity.create", actor)
	}
	return own, nil
}

// AuthorizeOpportunityOwner loads an opportunity the actor must own. Used for
// transitions and for listing its applications.
func (s *AuthorizationService) AuthorizeOpportunityOwner(ctx context.Context, actor models.Actor, opportunityID uuid.UUID) (*models.Opportunity, error) {
	ngoID, ok := actor.NGOID()
	if !ok {
		return nil, s.deny("opportunity.manage", actor)
	}

	opportunity, err := s.store.Opportunities().GetByID(ctx, opportunityID)
	if err != nil {
		return nil, s.lookupFailure("opportunity.manage", actor, err)
	}
	if !opportunity.IsOwnedBy(ngoID) {
		return nil, s.deny("opportunity.manage", actor)
	}
	return opportunity, nil
}

// AuthorizeApply allows experts only and returns the expert profile id.
func (s *AuthorizationService) AuthorizeApply(actor models.Actor) (uuid.UUID, error) {
	expertID, ok := actor.ExpertID()
	if !ok {
		return uuid.Nil, s.deny("application.create", actor)
	}
	return expertID, nil
}

// AuthorizeApplicationDecision allows the NGO owning the parent opportunity to
// accept or reject. It returns both records as read.
func (s *AuthorizationService) AuthorizeApplicationDecision(ctx context.Context, actor models.Actor, applicationID uuid.UUID) (*models.Application, *models.Opportunity, error) {
	ngoID, ok := actor.NGOID()
	if !ok {
		return nil, nil, s.deny("application.decide", actor)
	}

	application, err := s.store.Applications().GetByID(ctx, applicationID)
	if err != nil {
		return nil, nil, s.lookupFailure("application.decide", actor, err)
	}
	opportunity, err := s.store.Opportunities().GetByID(ctx, application.OpportunityID)
	if err != nil {
		return nil, nil, s.lookupFailure("application.decide", actor, err)
	}
	if !opportunity.IsOwnedBy(ngoID) {
		return nil, nil, s.deny("application.decide", actor)
	}
	return application, opportunity, nil
}

// AuthorizeWithdraw allows only the applicant.
func (s *AuthorizationService) AuthorizeWithdraw(ctx context.Context, actor models.Actor, applicationID uuid.UUID) (*models.Application, error) {
	expertID, ok := actor.ExpertID()
	if !ok {
		return nil, s.deny("application.withdraw", actor)
	}

	application, err := s.store.Applications().GetByID(ctx, applicationID)
	if err != nil {
		return nil, s.lookupFailure("application.withdraw", actor, err)
	}
	if application.ExpertID != expertID {
		return nil, s.deny("application.withdraw", actor)
	}
	return application, nil
}

// AuthorizeApplicationView allows the applicant or the owning NGO.
func (s *AuthorizationService) AuthorizeApplicationView(ctx context.Context, actor models.Actor, applicationID uuid.UUID) (*models.Application, *models.Opportunity, error) {
	application, err := s.store.Applications().GetByID(ctx, applicationID)
	if err != nil {
		return nil, nil, s.lookupFailure("application.view", actor, err)
	}

	if expertID, ok := actor.ExpertID(); ok && application.ExpertID != expertID {
		return nil, nil, s.deny("application.view", actor)
	}

	opportunity, err := s.store.Opportunities().GetByID(ctx, application.OpportunityID)
	if err != nil {
		return nil, nil, s.lookupFailure("application.view", actor, err)
	}

	switch actor.Role {
	case models.RoleExpert:
		return application, opportunity, nil
	case models.RoleNGO:
		if ngoID, ok := actor.NGOID(); ok && opportunity.IsOwnedBy(ngoID) {
			return application, opportunity, nil
		}
	}
	return nil, nil, s.deny("application.view", actor)
}

// AuthorizeSave allows an expert acting on its own expert id. A nil expertID
// means "my own".
func (s *AuthorizationService) AuthorizeSave(actor models.Actor, expertID uuid.UUID) (uuid.UUID, error) {
	return s.authorizeSelfExpert("opportunity.save", actor, expertID)
}

// AuthorizeExpertApplications allows an expert to list its own applications.
func (s *AuthorizationService) AuthorizeExpertApplications(actor models.Actor, expertID uuid.UUID) (uuid.UUID, error) {
	return s.authorizeSelfExpert("application.list_own", actor, expertID)
}

func (s *AuthorizationService) authorizeSelfExpert(action string, actor models.Actor, expertID uuid.UUID) (uuid.UUID, error) {
	own, ok := actor.ExpertID()
	if !ok || (expertID != uuid.Nil && expertID != own) {
		return uuid.Nil, s.deny(action, actor)
	}
	return own, nil
}

// AuthorizeProfileUpdate allows owners to edit their own profile only.
func (s *AuthorizationService) AuthorizeProfileUpdate(actor models.Actor, profileID uuid.UUID) error {
	if actor.ProfileID == uuid.Nil || actor.ProfileID != profileID {
		return s.deny("profile.update", actor)
	}
	return nil
}

// IsForbidden reports whether err came from a denied check.
func IsForbidden(err error) bool {
	return errors.Is(err, apperrors.ErrPermissionDenied)
}
