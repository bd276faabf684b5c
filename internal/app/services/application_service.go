package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/auth"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/repositories"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/impactlink/impactlink/internal/pkg/metrics"
	"github.com/impactlink/impactlink/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// ApplyResult is the outcome of Apply. MissingMessage flags an application
// submitted without a cover message so clients can nudge the expert.
type ApplyResult struct {
	Application    *models.Application `json:"application"`
	MissingMessage bool                `json:"missingMessage"`
}

// Applicant pairs an application with the expert who sent it
type Applicant struct {
	Application *models.Application   `json:"application"`
	Expert      *models.ExpertAccount `json:"expert"`
}

// ExpertApplication pairs an application with the opportunity it targets
type ExpertApplication struct {
	Application *models.Application `json:"application"`
	Opportunity *models.Opportunity `json:"opportunity"`
}

// ApplicationDetail is the full view shown to the applicant or the owning NGO
type ApplicationDetail struct {
	Application *models.Application   `json:"application"`
	Opportunity *models.Opportunity   `json:"opportunity"`
	Expert      *models.ExpertAccount `json:"expert"`
}

// ApplicationService owns the pending/accepted/rejected/withdrawn lifecycle
type ApplicationService interface {
	Apply(ctx context.Context, actor models.Actor, opportunityID uuid.UUID, message string) (*ApplyResult, error)
	Accept(ctx context.Context, actor models.Actor, applicationID uuid.UUID) (*models.Application, error)
	Reject(ctx context.Context, actor models.Actor, applicationID uuid.UUID) (*models.Application, error)
	Withdraw(ctx context.Context, actor models.Actor, applicationID uuid.UUID) (*models.Application, error)
	ListForOpportunity(ctx context.Context, actor models.Actor, opportunityID uuid.UUID) ([]*Applicant, error)
	ListForExpert(ctx context.Context, actor models.Actor, expertID uuid.UUID) ([]*ExpertApplication, error)
	Get(ctx context.Context, actor models.Actor, applicationID uuid.UUID) (*ApplicationDetail, error)
}

type applicationServiceImpl struct {
	store   repositories.Store
	authz   *auth.AuthorizationService
	options LifecycleOptions
	logger  zerolog.Logger
}

// NewApplicationService creates a new application lifecycle service
func NewApplicationService(store repositories.Store, authz *auth.AuthorizationService, options LifecycleOptions, logger zerolog.Logger) ApplicationService {
	return &applicationServiceImpl{
		store:   store,
		authz:   authz,
		options: options,
		logger:  logger.With().Str("service", "application").Logger(),
	}
}

func (s *applicationServiceImpl) Apply(ctx context.Context, actor models.Actor, opportunityID uuid.UUID, message string) (*ApplyResult, error) {
	expertID, err := s.authz.AuthorizeApply(actor)
	if err != nil {
		return nil, track("application.apply", err)
	}

	message = strings.TrimSpace(message)
	if len([]rune(message)) > validation.MessageMaxLength {
		return nil, track("application.apply", apperrors.NewValidationError().Add("message", "is too long"))
	}

	opportunity, err := s.store.Opportunities().GetByID(ctx, opportunityID)
	if err != nil {
		return nil, track("application.apply", err)
	}
	if opportunity.Status != models.OpportunityOpen {
		return nil, track("application.apply", apperrors.NewNotEligibleError("opportunity is not accepting applications"))
	}

	if !s.options.AllowReapply {
		previous, err := s.store.Applications().Query(ctx, repositories.ApplicationFilter{
			OpportunityID: &opportunityID,
			ExpertID:      &expertID,
		})
		if err != nil {
			return nil, track("application.apply", err)
		}
		if len(previous) > 0 {
			return nil, track("application.apply", apperrors.NewDuplicateApplicationError("you have already applied to this opportunity"))
		}
	}

	application := &models.Application{
		OpportunityID: opportunityID,
		ExpertID:      expertID,
		Status:        models.ApplicationPending,
	}
	if message != "" {
		application.Message = &message
	}

	if err := s.store.Applications().Create(ctx, application); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicateApplication) {
			s.logger.Error().Err(err).Str("opportunityID", opportunityID.String()).Msg("Failed to create application")
		}
		return nil, track("application.apply", err)
	}

	s.logger.Info().
		Str("applicationID", application.ID.String()).
		Str("opportunityID", opportunityID.String()).
		Str("expertID", expertID.String()).
		Msg("Application submitted")

	return &ApplyResult{Application: application, MissingMessage: !application.HasMessage()}, nil
}

// Accept marks the application accepted and moves an open opportunity to
// in_progress. Both writes land together or not at all.
func (s *applicationServiceImpl) Accept(ctx context.Context, actor models.Actor, applicationID uuid.UUID) (*models.Application, error) {
	application, opportunity, err := s.authz.AuthorizeApplicationDecision(ctx, actor, applicationID)
	if err != nil {
		return nil, track("application.accept", err)
	}
	if err := application.Status.CheckTransition(models.ApplicationAccepted); err != nil {
		return nil, track("application.accept", err)
	}

	var cascade bool
	switch opportunity.Status {
	case models.OpportunityOpen:
		cascade = true
	case models.OpportunityInProgress:
	default:
		return nil, track("application.accept", apperrors.NewNotEligibleError("opportunity is "+string(opportunity.Status)))
	}

	var accepted *models.Application
	if tx, ok := s.store.(repositories.Transactor); ok {
		err = tx.WithTx(ctx, func(ctx context.Context, store repositories.Store) error {
			var txErr error
			accepted, txErr = acceptWrites(ctx, store, application, opportunity, cascade)
			return txErr
		})
	} else {
		accepted, err = s.acceptCompensating(ctx, application, opportunity, cascade)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("applicationID", applicationID.String()).Msg("Failed to accept application")
		return nil, track("application.accept", err)
	}

	metrics.RecordTransition("application", string(models.ApplicationPending), string(models.ApplicationAccepted))
	if cascade {
		metrics.RecordTransition("opportunity", string(models.OpportunityOpen), string(models.OpportunityInProgress))
	}
	s.logger.Info().
		Str("applicationID", applicationID.String()).
		Str("opportunityID", opportunity.ID.String()).
		Bool("opportunityStarted", cascade).
		Msg("Application accepted")
	return accepted, nil
}

// acceptWrites performs the accept against a transaction-bound store.
// The opportunity is read again inside the transaction and written back
// under its version even when its status stays in_progress, so a concurrent
// close makes the accept fail instead of landing on a closed opportunity.
// The inputs are not modified.
func acceptWrites(ctx context.Context, store repositories.Store, application *models.Application, opportunity *models.Opportunity, cascade bool) (*models.Application, error) {
	current, err := store.Opportunities().GetByID(ctx, opportunity.ID)
	if err != nil {
		return nil, err
	}
	if err := checkAcceptable(current, opportunity); err != nil {
		return nil, err
	}

	started := *current
	if cascade {
		started.Status = models.OpportunityInProgress
	}
	if err := store.Opportunities().Update(ctx, &started); err != nil {
		return nil, err
	}

	accepted := *application
	accepted.Status = models.ApplicationAccepted
	if err := store.Applications().Update(ctx, &accepted); err != nil {
		return nil, err
	}
	return &accepted, nil
}

// checkAcceptable compares a fresh read of the opportunity with the one the
// decision was authorized against.
func checkAcceptable(current, seen *models.Opportunity) error {
	switch current.Status {
	case models.OpportunityOpen, models.OpportunityInProgress:
	default:
		return apperrors.NewNotEligibleError("opportunity is " + string(current.Status))
	}
	if current.Version != seen.Version {
		return apperrors.NewConflictError("opportunity was modified concurrently")
	}
	return nil
}

// acceptCompensating is used when the store cannot open a transaction. The
// opportunity is written first and put back if the application write fails.
func (s *applicationServiceImpl) acceptCompensating(ctx context.Context, application *models.Application, opportunity *models.Opportunity, cascade bool) (*models.Application, error) {
	current, err := s.store.Opportunities().GetByID(ctx, opportunity.ID)
	if err != nil {
		return nil, err
	}
	if err := checkAcceptable(current, opportunity); err != nil {
		return nil, err
	}

	started := *current
	if cascade {
		started.Status = models.OpportunityInProgress
		if err := s.store.Opportunities().Update(ctx, &started); err != nil {
			return nil, err
		}
	}

	accepted := *application
	accepted.Status = models.ApplicationAccepted
	err = s.store.Applications().Update(ctx, &accepted)
	if err == nil {
		return &accepted, nil
	}
	if !cascade {
		return nil, err
	}

	// in_progress -> open is not a legal edge; the revert writes the old
	// status directly.
	reverted := started
	reverted.Status = opportunity.Status
	if rerr := s.store.Opportunities().Update(ctx, &reverted); rerr != nil {
		s.logger.Error().
			Err(rerr).
			Str("opportunityID", opportunity.ID.String()).
			Msg("Failed to revert opportunity after rejected accept; opportunity left in_progress")
		return nil, errors.Join(err, rerr)
	}
	return nil, err
}

func (s *applicationServiceImpl) Reject(ctx context.Context, actor models.Actor, applicationID uuid.UUID) (*models.Application, error) {
	application, _, err := s.authz.AuthorizeApplicationDecision(ctx, actor, applicationID)
	if err != nil {
		return nil, track("application.reject", err)
	}
	return s.finish(ctx, "application.reject", application, models.ApplicationRejected)
}

func (s *applicationServiceImpl) Withdraw(ctx context.Context, actor models.Actor, applicationID uuid.UUID) (*models.Application, error) {
	application, err := s.authz.AuthorizeWithdraw(ctx, actor, applicationID)
	if err != nil {
		return nil, track("application.withdraw", err)
	}
	return s.finish(ctx, "application.withdraw", application, models.ApplicationWithdrawn)
}

// finish moves a pending application to a terminal status without touching
// the opportunity.
func (s *applicationServiceImpl) finish(ctx context.Context, operation string, application *models.Application, target models.ApplicationStatus) (*models.Application, error) {
	from := application.Status
	if err := from.CheckTransition(target); err != nil {
		return nil, track(operation, err)
	}

	application.Status = target
	if err := s.store.Applications().Update(ctx, application); err != nil {
		if !errors.Is(err, apperrors.ErrConflict) {
			s.logger.Error().Err(err).Str("applicationID", application.ID.String()).Msg("Failed to update application")
		}
		return nil, track(operation, err)
	}

	metrics.RecordTransition("application", string(from), string(target))
	s.logger.Info().
		Str("applicationID", application.ID.String()).
		Str("status", string(target)).
		Msg("Application status changed")
	return application, nil
}

func (s *applicationServiceImpl) ListForOpportunity(ctx context.Context, actor models.Actor, opportunityID uuid.UUID) ([]*Applicant, error) {
	if _, err := s.authz.AuthorizeOpportunityOwner(ctx, actor, opportunityID); err != nil {
		return nil, err
	}

	applications, err := s.store.Applications().Query(ctx, repositories.ApplicationFilter{
		OpportunityID: &opportunityID,
		Order:         repositories.NewestFirst,
	})
	if err != nil {
		return nil, err
	}

	experts := make(map[uuid.UUID]*models.ExpertAccount)
	result := make([]*Applicant, 0, len(applications))
	for _, a := range applications {
		expert, ok := experts[a.ExpertID]
		if !ok {
			if expert, err = s.expertAccount(ctx, a.ExpertID); err != nil {
				return nil, err
			}
			experts[a.ExpertID] = expert
		}
		result = append(result, &Applicant{Application: a, Expert: expert})
	}
	return result, nil
}

func (s *applicationServiceImpl) ListForExpert(ctx context.Context, actor models.Actor, expertID uuid.UUID) ([]*ExpertApplication, error) {
	expertID, err := s.authz.AuthorizeExpertApplications(actor, expertID)
	if err != nil {
		return nil, err
	}

	applications, err := s.store.Applications().Query(ctx, repositories.ApplicationFilter{
		ExpertID: &expertID,
		Order:    repositories.NewestFirst,
	})
	if err != nil {
		return nil, err
	}

	result := make([]*ExpertApplication, 0, len(applications))
	for _, a := range applications {
		opportunity, err := s.store.Opportunities().GetByID(ctx, a.OpportunityID)
		if err != nil {
			return nil, err
		}
		result = append(result, &ExpertApplication{Application: a, Opportunity: opportunity})
	}
	return result, nil
}

func (s *applicationServiceImpl) Get(ctx context.Context, actor models.Actor, applicationID uuid.UUID) (*ApplicationDetail, error) {
	application, opportunity, err := s.authz.AuthorizeApplicationView(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}

	expert, err := s.expertAccount(ctx, application.ExpertID)
	if err != nil {
		return nil, err
	}
	return &ApplicationDetail{Application: application, Opportunity: opportunity, Expert: expert}, nil
}

func (s *applicationServiceImpl) expertAccount(ctx context.Context, expertID uuid.UUID) (*models.ExpertAccount, error) {
	expert, err := s.store.Profiles().GetExpertProfileByID(ctx, expertID)
	if err != nil {
		return nil, err
	}
	profile, err := s.store.Profiles().GetProfileByID(ctx, expert.ProfileID)
	if err != nil {
		return nil, err
	}
	return &models.ExpertAccount{Profile: profile, Expert: expert}, nil
}
