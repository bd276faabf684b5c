package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/repositories"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/impactlink/impactlink/internal/pkg/auth"
	"github.com/impactlink/impactlink/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// NGODetails is the NGO half of a registration
type NGODetails struct {
	OrganizationName string
	Country          string
	City             string
	Website          *string
	MissionStatement *string
	FoundedYear      *int
}

// ExpertDetails is the expert half of a registration
type ExpertDetails struct {
	ExpertiseAreas  []string
	YearsExperience *int
	Education       *string
	Certifications  *string
	HourlyRate      *float64
}

// RegisterInput creates a user, its profile and the role-specific profile.
// Exactly one of NGO and Expert must be set, matching Role.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Role     models.Role
	NGO      *NGODetails
	Expert   *ExpertDetails
}

// Session is returned after a successful register or login
type Session struct {
	AccessToken string         `json:"accessToken"`
	TokenType   string         `json:"tokenType"`
	ExpiresIn   int            `json:"expiresIn"`
	Account     models.Account `json:"account"`
}

// AuthService registers accounts and issues sessions
type AuthService struct {
	store      repositories.Store
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(store repositories.Store, jwtService *auth.JWTService, logger zerolog.Logger) *AuthService {
	return &AuthService{
		store:      store,
		jwtService: jwtService,
		logger:     logger.With().Str("service", "auth").Logger(),
	}
}

// validatePassword checks length and requires at least one letter and one digit
func validatePassword(password string) string {
	if len(password) < validation.PasswordMinLength {
		return fmt.Sprintf("must be at least %d characters long", validation.PasswordMinLength)
	}
	if len(password) > auth.PasswordMaxBytes {
		return fmt.Sprintf("must be at most %d bytes long", auth.PasswordMaxBytes)
	}
	var hasLetter, hasDigit bool
	for _, char := range password {
		hasLetter = hasLetter || unicode.IsLetter(char)
		hasDigit = hasDigit || unicode.IsDigit(char)
	}
	if !hasLetter || !hasDigit {
		return "must contain at least one letter and one digit"
	}
	return ""
}

func validateRegistration(input RegisterInput) *apperrors.ValidationError {
	v := apperrors.NewValidationError()

	if !validation.IsEmail(input.Email) {
		v.Add("email", "must be a valid email address")
	}
	if reason := validatePassword(input.Password); reason != "" {
		v.Add("password", reason)
	}
	if name := strings.TrimSpace(input.FullName); len(name) < validation.NameMinLength || len(name) > validation.NameMaxLength {
		v.Add("full_name", fmt.Sprintf("must be between %d and %d characters", validation.NameMinLength, validation.NameMaxLength))
	}

	switch input.Role {
	case models.RoleNGO:
		if input.NGO == nil {
			v.Add("ngo", "is required for the ngo role")
			break
		}
		if validation.IsBlank(input.NGO.OrganizationName) {
			v.Add("ngo.organization_name", "is required")
		}
		if validation.IsBlank(input.NGO.Country) {
			v.Add("ngo.country", "is required")
		}
		if validation.IsBlank(input.NGO.City) {
			v.Add("ngo.city", "is required")
		}
	case models.RoleExpert:
		if input.Expert == nil {
			v.Add("expert", "is required for the expert role")
			break
		}
		if len(validation.CleanList(input.Expert.ExpertiseAreas)) == 0 {
			v.Add("expert.expertise_areas", "must contain at least one area")
		}
	default:
		v.Add("role", "must be ngo or expert")
	}
	return v
}

// Register creates the user, profile and role profile in one transaction
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	if v := validateRegistration(input); v.HasErrors() {
		return nil, v
	}

	hashedPassword, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hashedPassword,
	}

	var account models.Account
	err = inTx(ctx, s.store, func(ctx context.Context, tx repositories.Store) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}

		profile := &models.Profile{
			UserID:   user.ID,
			Role:     input.Role,
			FullName: strings.TrimSpace(input.FullName),
		}
		if err := tx.Profiles().CreateProfile(ctx, profile); err != nil {
			return err
		}

		switch input.Role {
		case models.RoleNGO:
			ngo := &models.NGOProfile{
				ProfileID:        profile.ID,
				OrganizationName: strings.TrimSpace(input.NGO.OrganizationName),
				Country:          strings.TrimSpace(input.NGO.Country),
				City:             strings.TrimSpace(input.NGO.City),
				Website:          input.NGO.Website,
				MissionStatement: input.NGO.MissionStatement,
				FoundedYear:      input.NGO.FoundedYear,
			}
			if err := tx.Profiles().CreateNGOProfile(ctx, ngo); err != nil {
				return err
			}
			account = &models.NGOAccount{Profile: profile, NGO: ngo}
		case models.RoleExpert:
			expert := &models.ExpertProfile{
				ProfileID:       profile.ID,
				ExpertiseAreas:  validation.CleanList(input.Expert.ExpertiseAreas),
				YearsExperience: input.Expert.YearsExperience,
				Education:       input.Expert.Education,
				Certifications:  input.Expert.Certifications,
				HourlyRate:      input.Expert.HourlyRate,
			}
			if err := tx.Profiles().CreateExpertProfile(ctx, expert); err != nil {
				return err
			}
			account = &models.ExpertAccount{Profile: profile, Expert: expert}
		}
		return nil
	})
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrEmailAlreadyExists) {
			s.logger.Error().Err(err).Msg("Failed to register account")
		}
		return nil, err
	}

	s.logger.Info().
		Str("userID", user.ID.String()).
		Str("role", string(input.Role)).
		Msg("Account registered")
	return s.issue(user, account)
}

// Login checks the credentials and issues a new session
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		s.logger.Debug().Str("userID", user.ID.String()).Msg("Password mismatch")
		return nil, apperrors.ErrInvalidCredentials
	}

	account, err := NewIdentityService(s.store, s.logger).Resolve(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.store.Users().UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Str("userID", user.ID.String()).Msg("Failed to update last login time")
	}

	return s.issue(user, account)
}

func (s *AuthService) issue(user *models.User, account models.Account) (*Session, error) {
	token, expiresIn, err := s.jwtService.GenerateAccessToken(user, account.Base().Role)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		Account:     account,
	}, nil
}
