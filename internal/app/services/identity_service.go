package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/repositories"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// IdentityService resolves an authenticated identity into its Account
type IdentityService interface {
	// Resolve loads the account owned by a user id taken from a session
	Resolve(ctx context.Context, userID uuid.UUID) (models.Account, error)
	// ResolveProfile loads the account for a profile id
	ResolveProfile(ctx context.Context, profileID uuid.UUID) (models.Account, error)
}

type identityServiceImpl struct {
	profiles repositories.IProfileRepository
	logger   zerolog.Logger
}

// NewIdentityService creates a new identity resolver
func NewIdentityService(store repositories.Store, logger zerolog.Logger) IdentityService {
	return &identityServiceImpl{
		profiles: store.Profiles(),
		logger:   logger,
	}
}

func (s *identityServiceImpl) Resolve(ctx context.Context, userID uuid.UUID) (models.Account, error) {
	profile, err := s.profiles.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.complete(ctx, profile)
}

func (s *identityServiceImpl) ResolveProfile(ctx context.Context, profileID uuid.UUID) (models.Account, error) {
	profile, err := s.profiles.GetProfileByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.complete(ctx, profile)
}

func (s *identityServiceImpl) complete(ctx context.Context, profile *models.Profile) (models.Account, error) {
	return loadAccount(ctx, s.profiles, profile, s.logger)
}

// loadAccount attaches the role-specific half to profile. A profile whose
// role half is missing is reported as ErrProfileNotFound.
func loadAccount(ctx context.Context, profiles repositories.IProfileRepository, profile *models.Profile, logger zerolog.Logger) (models.Account, error) {
	switch profile.Role {
	case models.RoleNGO:
		ngo, err := profiles.GetNGOProfileByProfileID(ctx, profile.ID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrProfileNotFound) {
				logger.Warn().Str("profileID", profile.ID.String()).Msg("NGO profile row missing for ngo role")
			}
			return nil, err
		}
		return &models.NGOAccount{Profile: profile, NGO: ngo}, nil
	case models.RoleExpert:
		expert, err := profiles.GetExpertProfileByProfileID(ctx, profile.ID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrProfileNotFound) {
				logger.Warn().Str("profileID", profile.ID.String()).Msg("Expert profile row missing for expert role")
			}
			return nil, err
		}
		return &models.ExpertAccount{Profile: profile, Expert: expert}, nil
	default:
		logger.Error().Str("profileID", profile.ID.String()).Str("role", string(profile.Role)).Msg("Profile has unknown role")
		return nil, apperrors.ErrProfileNotFound
	}
}
