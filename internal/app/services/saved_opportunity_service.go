package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/auth"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/repositories"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// SavedOpportunityService manages expert bookmarks
type SavedOpportunityService interface {
	// Toggle removes the bookmark when present and creates it otherwise.
	// It returns whether the opportunity is saved afterwards.
	Toggle(ctx context.Context, actor models.Actor, expertID, opportunityID uuid.UUID) (bool, error)
	IsSaved(ctx context.Context, actor models.Actor, expertID, opportunityID uuid.UUID) (bool, error)
	ListSaved(ctx context.Context, actor models.Actor, expertID uuid.UUID) ([]*models.Opportunity, error)
}

type savedOpportunityServiceImpl struct {
	store  repositories.Store
	authz  *auth.AuthorizationService
	logger zerolog.Logger
}

// NewSavedOpportunityService creates a new bookmark service
func NewSavedOpportunityService(store repositories.Store, authz *auth.AuthorizationService, logger zerolog.Logger) SavedOpportunityService {
	return &savedOpportunityServiceImpl{
		store:  store,
		authz:  authz,
		logger: logger.With().Str("service", "saved_opportunity").Logger(),
	}
}

func (s *savedOpportunityServiceImpl) Toggle(ctx context.Context, actor models.Actor, expertID, opportunityID uuid.UUID) (bool, error) {
	expertID, err := s.authz.AuthorizeSave(actor, expertID)
	if err != nil {
		return false, err
	}

	saved := s.store.SavedOpportunities()
	exists, err := saved.Exists(ctx, expertID, opportunityID)
	if err != nil {
		return false, err
	}

	if exists {
		if err := saved.Delete(ctx, expertID, opportunityID); err != nil && !apperrors.Is(err, apperrors.ErrResourceNotFound) {
			s.logger.Error().Err(err).Str("opportunityID", opportunityID.String()).Msg("Failed to remove bookmark")
			return false, err
		}
		s.logger.Debug().Str("expertID", expertID.String()).Str("opportunityID", opportunityID.String()).Msg("Bookmark removed")
		return false, nil
	}

	opportunity, err := s.store.Opportunities().GetByID(ctx, opportunityID)
	if err != nil {
		return false, err
	}
	if opportunity.Status == models.OpportunityDraft {
		return false, apperrors.NewResourceNotFoundError("opportunity not found")
	}

	err = saved.Create(ctx, &models.SavedOpportunity{ExpertID: expertID, OpportunityID: opportunityID})
	if err != nil && !apperrors.Is(err, apperrors.ErrConflict) {
		s.logger.Error().Err(err).Str("opportunityID", opportunityID.String()).Msg("Failed to save opportunity")
		return false, err
	}
	s.logger.Debug().Str("expertID", expertID.String()).Str("opportunityID", opportunityID.String()).Msg("Bookmark added")
	return true, nil
}

func (s *savedOpportunityServiceImpl) IsSaved(ctx context.Context, actor models.Actor, expertID, opportunityID uuid.UUID) (bool, error) {
	expertID, err := s.authz.AuthorizeSave(actor, expertID)
	if err != nil {
		return false, err
	}
	return s.store.SavedOpportunities().Exists(ctx, expertID, opportunityID)
}

// ListSaved returns the bookmarked opportunities, most recently saved first
func (s *savedOpportunityServiceImpl) ListSaved(ctx context.Context, actor models.Actor, expertID uuid.UUID) ([]*models.Opportunity, error) {
	expertID, err := s.authz.AuthorizeSave(actor, expertID)
	if err != nil {
		return nil, err
	}

	bookmarks, err := s.store.SavedOpportunities().ListByExpert(ctx, expertID)
	if err != nil {
		return nil, err
	}

	opportunities := make([]*models.Opportunity, 0, len(bookmarks))
	for _, b := range bookmarks {
		opportunity, err := s.store.Opportunities().GetByID(ctx, b.OpportunityID)
		if err != nil {
			return nil, err
		}
		opportunities = append(opportunities, opportunity)
	}
	return opportunities, nil
}
