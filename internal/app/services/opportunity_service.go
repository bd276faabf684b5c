package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/auth"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/repositories"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/impactlink/impactlink/internal/pkg/metrics"
	"github.com/impactlink/impactlink/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// CreateOpportunityInput carries the fields of a new opportunity
type CreateOpportunityInput struct {
	// NGOID defaults to the actor's own NGO profile
	NGOID             uuid.UUID
	Title             string
	Description       string
	RequiredExpertise []string
	LocationName      string
	Geo               *models.GeoPoint
	StartDate         time.Time
	EndDate           time.Time
	Compensation      models.Compensation
	// Status may be draft or open; empty means the configured default
	Status models.OpportunityStatus
}

// OpportunityQuery narrows the explore listing
type OpportunityQuery struct {
	Search    string
	Expertise string
	Offset    uint64
	Limit     int
}

// OpportunitySummary is a dashboard row
type OpportunitySummary struct {
	Opportunity       *models.Opportunity `json:"opportunity"`
	PendingCount      int                 `json:"pendingCount"`
	ApplicationsCount int                 `json:"applicationsCount"`
}

// OpportunityService owns the draft/open/in_progress/closed lifecycle
type OpportunityService interface {
	Create(ctx context.Context, actor models.Actor, input CreateOpportunityInput) (*models.Opportunity, error)
	Transition(ctx context.Context, actor models.Actor, opportunityID uuid.UUID, target models.OpportunityStatus) (*models.Opportunity, error)
	Get(ctx context.Context, actor models.Actor, opportunityID uuid.UUID) (*models.Opportunity, error)
	ListOpen(ctx context.Context, query OpportunityQuery) ([]*models.Opportunity, int64, error)
	ListForNGO(ctx context.Context, actor models.Actor, ngoID uuid.UUID) ([]*models.Opportunity, error)
	Dashboard(ctx context.Context, actor models.Actor) ([]*OpportunitySummary, error)
}

type opportunityServiceImpl struct {
	store   repositories.Store
	authz   *auth.AuthorizationService
	options LifecycleOptions
	logger  zerolog.Logger
}

// NewOpportunityService creates a new opportunity lifecycle service
func NewOpportunityService(store repositories.Store, authz *auth.AuthorizationService, options LifecycleOptions, logger zerolog.Logger) OpportunityService {
	return &opportunityServiceImpl{
		store:   store,
		authz:   authz,
		options: options,
		logger:  logger.With().Str("service", "opportunity").Logger(),
	}
}

// ValidateOpportunityInput checks every field and reports all violations at once
func ValidateOpportunityInput(input CreateOpportunityInput) *apperrors.ValidationError {
	v := apperrors.NewValidationError()

	if validation.IsBlank(input.Title) {
		v.Add("title", "is required")
	}
	if validation.IsBlank(input.Description) {
		v.Add("description", "is required")
	}
	if validation.IsBlank(input.LocationName) {
		v.Add("location_name", "is required")
	}
	if len(validation.CleanList(input.RequiredExpertise)) == 0 {
		v.Add("required_expertise", "must contain at least one area")
	}

	switch {
	case input.StartDate.IsZero():
		v.Add("start_date", "is required")
	case input.EndDate.IsZero():
		v.Add("end_date", "is required")
	case input.EndDate.Before(input.StartDate):
		v.Add("end_date", "must not be before start_date")
	}

	switch input.Compensation.Type {
	case models.CompensationPaid:
		if input.Compensation.Amount <= 0 {
			v.Add("compensation.amount", "must be greater than zero for paid opportunities")
		}
		if !validation.IsCurrencyCode(input.Compensation.Currency) {
			v.Add("compensation.currency", "must be a three-letter currency code")
		}
	case models.CompensationVolunteer:
	default:
		v.Add("compensation.type", "must be paid or volunteer")
	}

	if g := input.Geo; g != nil && (g.Latitude < -90 || g.Latitude > 90 || g.Longitude < -180 || g.Longitude > 180) {
		v.Add("geo", "coordinates out of range")
	}

	if input.Status != "" && input.Status != models.OpportunityDraft && input.Status != models.OpportunityOpen {
		v.Add("status", "new opportunities start as draft or open")
	}

	return v
}

func (s *opportunityServiceImpl) Create(ctx context.Context, actor models.Actor, input CreateOpportunityInput) (*models.Opportunity, error) {
	ngoID, err := s.authz.CanCreateOpportunity(actor, input.NGOID)
	if err != nil {
		return nil, track("opportunity.create", err)
	}

	if v := ValidateOpportunityInput(input); v.HasErrors() {
		return nil, track("opportunity.create", v)
	}

	status := input.Status
	if status == "" {
		status = s.options.DefaultOpportunityStatus
	}

	compensation := input.Compensation
	if compensation.Type == models.CompensationVolunteer {
		compensation = models.Compensation{Type: models.CompensationVolunteer}
	}

	opportunity := &models.Opportunity{
		NGOID:             ngoID,
		Title:             strings.TrimSpace(input.Title),
		Description:       strings.TrimSpace(input.Description),
		RequiredExpertise: validation.CleanList(input.RequiredExpertise),
		LocationName:      strings.TrimSpace(input.LocationName),
		Geo:               input.Geo,
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		Compensation:      compensation,
		Status:            status,
	}

	if err := s.store.Opportunities().Create(ctx, opportunity); err != nil {
		s.logger.Error().Err(err).Str("ngoID", ngoID.String()).Msg("Failed to create opportunity")
		return nil, track("opportunity.create", err)
	}

	s.logger.Info().
		Str("opportunityID", opportunity.ID.String()).
		Str("ngoID", ngoID.String()).
		Str("status", string(status)).
		Msg("Opportunity created")
	return opportunity, nil
}

func (s *opportunityServiceImpl) Transition(ctx context.Context, actor models.Actor, opportunityID uuid.UUID, target models.OpportunityStatus) (*models.Opportunity, error) {
	opportunity, err := s.authz.AuthorizeOpportunityOwner(ctx, actor, opportunityID)
	if err != nil {
		return nil, track("opportunity.transition", err)
	}

	if !target.Valid() {
		return nil, track("opportunity.transition", apperrors.NewValidationError().Add("status", "unknown status"))
	}

	from := opportunity.Status
	if err := from.CheckTransition(target); err != nil {
		return nil, track("opportunity.transition", err)
	}

	opportunity.Status = target
	if err := s.store.Opportunities().Update(ctx, opportunity); err != nil {
		s.logger.Error().Err(err).Str("opportunityID", opportunityID.String()).Msg("Failed to transition opportunity")
		return nil, track("opportunity.transition", err)
	}

	metrics.RecordTransition("opportunity", string(from), string(target))
	s.logger.Info().
		Str("opportunityID", opportunityID.String()).
		Str("from", string(from)).
		Str("to", string(target)).
		Msg("Opportunity status changed")
	return opportunity, nil
}

// Get returns an opportunity. Drafts are visible to their owner only; anyone
// else sees them as missing.
func (s *opportunityServiceImpl) Get(ctx context.Context, actor models.Actor, opportunityID uuid.UUID) (*models.Opportunity, error) {
	opportunity, err := s.store.Opportunities().GetByID(ctx, opportunityID)
	if err != nil {
		return nil, err
	}
	if opportunity.Status == models.OpportunityDraft {
		ngoID, ok := actor.NGOID()
		if !ok || !opportunity.IsOwnedBy(ngoID) {
			return nil, apperrors.NewResourceNotFoundError("opportunity not found")
		}
	}
	return opportunity, nil
}

func (s *opportunityServiceImpl) ListOpen(ctx context.Context, query OpportunityQuery) ([]*models.Opportunity, int64, error) {
	return s.store.Opportunities().Query(ctx, repositories.OpportunityFilter{
		Statuses:  []models.OpportunityStatus{models.OpportunityOpen},
		Search:    strings.TrimSpace(query.Search),
		Expertise: strings.TrimSpace(query.Expertise),
		Offset:    query.Offset,
		Limit:     query.Limit,
		Order:     repositories.NewestFirst,
	})
}

// ListForNGO lists an NGO's opportunities newest-first. The owner sees every
// status; everyone else sees non-draft ones.
func (s *opportunityServiceImpl) ListForNGO(ctx context.Context, actor models.Actor, ngoID uuid.UUID) ([]*models.Opportunity, error) {
	if _, err := s.store.Profiles().GetNGOProfileByID(ctx, ngoID); err != nil {
		return nil, err
	}

	filter := repositories.OpportunityFilter{NGOID: &ngoID, Order: repositories.NewestFirst}
	if own, ok := actor.NGOID(); !ok || own != ngoID {
		filter.Statuses = []models.OpportunityStatus{
			models.OpportunityOpen, models.OpportunityInProgress, models.OpportunityClosed,
		}
	}

	opportunities, _, err := s.store.Opportunities().Query(ctx, filter)
	return opportunities, err
}

// Dashboard lists the actor's own opportunities with application counts
func (s *opportunityServiceImpl) Dashboard(ctx context.Context, actor models.Actor) ([]*OpportunitySummary, error) {
	ngoID, err := s.authz.CanCreateOpportunity(actor, uuid.Nil)
	if err != nil {
		return nil, err
	}

	opportunities, _, err := s.store.Opportunities().Query(ctx, repositories.OpportunityFilter{
		NGOID: &ngoID,
		Order: repositories.NewestFirst,
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]*OpportunitySummary, 0, len(opportunities))
	for _, o := range opportunities {
		id := o.ID
		applications, err := s.store.Applications().Query(ctx, repositories.ApplicationFilter{OpportunityID: &id})
		if err != nil {
			return nil, err
		}
		summary := &OpportunitySummary{Opportunity: o, ApplicationsCount: len(applications)}
		for _, a := range applications {
			if a.Status == models.ApplicationPending {
				summary.PendingCount++
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
