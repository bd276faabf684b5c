package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/auth"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/repositories"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/impactlink/impactlink/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// UpdateProfileInput holds the editable base profile fields; nil leaves a field unchanged
type UpdateProfileInput struct {
	FullName  *string
	Bio       *string
	AvatarRef *string
}

// UpdateNGOInput holds the editable NGO fields; nil leaves a field unchanged
type UpdateNGOInput struct {
	OrganizationName *string
	Country          *string
	City             *string
	Website          *string
	MissionStatement *string
	FoundedYear      *int
}

// UpdateExpertInput holds the editable expert fields; nil leaves a field unchanged
type UpdateExpertInput struct {
	ExpertiseAreas  []string
	YearsExperience *int
	Education       *string
	Certifications  *string
	HourlyRate      *float64
}

// ExpertQuery narrows the explore-experts listing
type ExpertQuery struct {
	Search    string
	Expertise string
	Limit     int
}

// NGOPage is the public page of an NGO
type NGOPage struct {
	Account       *models.NGOAccount    `json:"account"`
	Opportunities []*models.Opportunity `json:"opportunities"`
}

// ProfileService edits profiles and serves the public profile pages
type ProfileService interface {
	UpdateProfile(ctx context.Context, actor models.Actor, input UpdateProfileInput) (models.Account, error)
	UpdateNGO(ctx context.Context, actor models.Actor, input UpdateNGOInput) (*models.NGOAccount, error)
	UpdateExpert(ctx context.Context, actor models.Actor, input UpdateExpertInput) (*models.ExpertAccount, error)
	NGOPage(ctx context.Context, actor models.Actor, ngoID uuid.UUID) (*NGOPage, error)
	ExpertPage(ctx context.Context, expertID uuid.UUID) (*models.ExpertAccount, error)
	ExploreExperts(ctx context.Context, query ExpertQuery) ([]*models.ExpertAccount, error)
}

type profileServiceImpl struct {
	store         repositories.Store
	authz         *auth.AuthorizationService
	identity      IdentityService
	opportunities OpportunityService
	logger        zerolog.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(
	store repositories.Store,
	authz *auth.AuthorizationService,
	identity IdentityService,
	opportunities OpportunityService,
	logger zerolog.Logger,
) ProfileService {
	return &profileServiceImpl{
		store:         store,
		authz:         authz,
		identity:      identity,
		opportunities: opportunities,
		logger:        logger.With().Str("service", "profile").Logger(),
	}
}

func (s *profileServiceImpl) UpdateProfile(ctx context.Context, actor models.Actor, input UpdateProfileInput) (models.Account, error) {
	if err := s.authz.AuthorizeProfileUpdate(actor, actor.ProfileID); err != nil {
		return nil, err
	}

	account, err := s.identity.ResolveProfile(ctx, actor.ProfileID)
	if err != nil {
		return nil, err
	}
	profile := account.Base()

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if len(name) < validation.NameMinLength || len(name) > validation.NameMaxLength {
			return nil, apperrors.NewValidationError().Add("full_name", "has an invalid length")
		}
		profile.FullName = name
	}
	if input.Bio != nil {
		profile.Bio = input.Bio
	}
	if input.AvatarRef != nil {
		profile.AvatarRef = input.AvatarRef
	}

	if err := s.store.Profiles().UpdateProfile(ctx, profile); err != nil {
		s.logger.Error().Err(err).Str("profileID", profile.ID.String()).Msg("Failed to update profile")
		return nil, err
	}
	return account, nil
}

func (s *profileServiceImpl) UpdateNGO(ctx context.Context, actor models.Actor, input UpdateNGOInput) (*models.NGOAccount, error) {
	account, err := s.ownAccount(ctx, actor)
	if err != nil {
		return nil, err
	}
	ngoAccount, ok := account.(*models.NGOAccount)
	if !ok {
		return nil, apperrors.NewForbiddenError(auth.ForbiddenMessage)
	}

	ngo := ngoAccount.NGO
	v := apperrors.NewValidationError()
	setRequired(v, "organization_name", input.OrganizationName, &ngo.OrganizationName)
	setRequired(v, "country", input.Country, &ngo.Country)
	setRequired(v, "city", input.City, &ngo.City)
	if v.HasErrors() {
		return nil, v
	}
	if input.Website != nil {
		ngo.Website = input.Website
	}
	if input.MissionStatement != nil {
		ngo.MissionStatement = input.MissionStatement
	}
	if input.FoundedYear != nil {
		ngo.FoundedYear = input.FoundedYear
	}

	if err := s.store.Profiles().UpdateNGOProfile(ctx, ngo); err != nil {
		s.logger.Error().Err(err).Str("ngoID", ngo.ID.String()).Msg("Failed to update NGO profile")
		return nil, err
	}
	return ngoAccount, nil
}

func (s *profileServiceImpl) UpdateExpert(ctx context.Context, actor models.Actor, input UpdateExpertInput) (*models.ExpertAccount, error) {
	account, err := s.ownAccount(ctx, actor)
	if err != nil {
		return nil, err
	}
	expertAccount, ok := account.(*models.ExpertAccount)
	if !ok {
		return nil, apperrors.NewForbiddenError(auth.ForbiddenMessage)
	}

	expert := expertAccount.Expert
	if input.ExpertiseAreas != nil {
		areas := validation.CleanList(input.ExpertiseAreas)
		if len(areas) == 0 {
			return nil, apperrors.NewValidationError().Add("expertise_areas", "must contain at least one area")
		}
		expert.ExpertiseAreas = areas
	}
	if input.YearsExperience != nil {
		expert.YearsExperience = input.YearsExperience
	}
	if input.Education != nil {
		expert.Education = input.Education
	}
	if input.Certifications != nil {
		expert.Certifications = input.Certifications
	}
	if input.HourlyRate != nil {
		expert.HourlyRate = input.HourlyRate
	}

	if err := s.store.Profiles().UpdateExpertProfile(ctx, expert); err != nil {
		s.logger.Error().Err(err).Str("expertID", expert.ID.String()).Msg("Failed to update expert profile")
		return nil, err
	}
	return expertAccount, nil
}

func (s *profileServiceImpl) ownAccount(ctx context.Context, actor models.Actor) (models.Account, error) {
	if err := s.authz.AuthorizeProfileUpdate(actor, actor.ProfileID); err != nil {
		return nil, err
	}
	return s.identity.ResolveProfile(ctx, actor.ProfileID)
}

func setRequired(v *apperrors.ValidationError, field string, value *string, target *string) {
	if value == nil {
		return
	}
	if validation.IsBlank(*value) {
		v.Add(field, "cannot be empty")
		return
	}
	*target = strings.TrimSpace(*value)
}

// NGOPage returns the NGO with the opportunities the actor may see
func (s *profileServiceImpl) NGOPage(ctx context.Context, actor models.Actor, ngoID uuid.UUID) (*NGOPage, error) {
	ngo, err := s.store.Profiles().GetNGOProfileByID(ctx, ngoID)
	if err != nil {
		return nil, err
	}
	profile, err := s.store.Profiles().GetProfileByID(ctx, ngo.ProfileID)
	if err != nil {
		return nil, err
	}

	opportunities, err := s.opportunities.ListForNGO(ctx, actor, ngoID)
	if err != nil {
		return nil, err
	}
	return &NGOPage{
		Account:       &models.NGOAccount{Profile: profile, NGO: ngo},
		Opportunities: opportunities,
	}, nil
}

func (s *profileServiceImpl) ExpertPage(ctx context.Context, expertID uuid.UUID) (*models.ExpertAccount, error) {
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

// ExploreExperts lists experts newest-first, optionally filtered by an
// expertise area and by a case-insensitive name search
func (s *profileServiceImpl) ExploreExperts(ctx context.Context, query ExpertQuery) ([]*models.ExpertAccount, error) {
	search := strings.ToLower(strings.TrimSpace(query.Search))

	filter := repositories.ExpertFilter{Expertise: strings.TrimSpace(query.Expertise)}
	if search == "" {
		filter.Limit = query.Limit
	}

	experts, err := s.store.Profiles().QueryExpertProfiles(ctx, filter)
	if err != nil {
		return nil, err
	}

	accounts := make([]*models.ExpertAccount, 0, len(experts))
	for _, expert := range experts {
		profile, err := s.store.Profiles().GetProfileByID(ctx, expert.ProfileID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrProfileNotFound) {
				continue
			}
			return nil, err
		}
		if search != "" && !strings.Contains(strings.ToLower(profile.FullName), search) {
			continue
		}
		accounts = append(accounts, &models.ExpertAccount{Profile: profile, Expert: expert})
		if query.Limit > 0 && len(accounts) == query.Limit {
			break
		}
	}
	return accounts, nil
}
