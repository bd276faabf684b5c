package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/impactlink/impactlink/internal/pkg/dberrors"
	"github.com/impactlink/impactlink/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
)

var (
	profileColumns = []string{"id", "user_id", "role", "full_name", "bio", "avatar_ref", "created_at", "updated_at"}
	ngoColumns     = []string{
		"id", "profile_id", "organization_name", "country", "city", "website",
		"mission_statement", "founded_year", "verified", "created_at", "updated_at",
	}
	expertColumns = []string{
		"id", "profile_id", "expertise_areas", "years_experience", "education",
		"certifications", "hourly_rate", "created_at", "updated_at",
	}
)

// ProfileRepository handles profiles, ngo_profiles and expert_profiles
type ProfileRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db, sb: newBuilder()}
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	p := &models.Profile{}
	err := row.Scan(&p.ID, &p.UserID, &p.Role, &p.FullName, &p.Bio, &p.AvatarRef, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanNGO(row pgx.Row) (*models.NGOProfile, error) {
	n := &models.NGOProfile{}
	err := row.Scan(&n.ID, &n.ProfileID, &n.OrganizationName, &n.Country, &n.City, &n.Website,
		&n.MissionStatement, &n.FoundedYear, &n.Verified, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func scanExpert(row pgx.Row) (*models.ExpertProfile, error) {
	e := &models.ExpertProfile{}
	err := row.Scan(&e.ID, &e.ProfileID, &e.ExpertiseAreas, &e.YearsExperience, &e.Education,
		&e.Certifications, &e.HourlyRate, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// CreateProfile inserts the role-independent profile
func (r *ProfileRepository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	sql, args, err := r.sb.Insert("profiles").
		Columns("id", "user_id", "role", "full_name", "bio", "avatar_ref").
		Values(profile.ID, profile.UserID, profile.Role, profile.FullName, profile.Bio, profile.AvatarRef).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create profile query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&profile.CreatedAt, &profile.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "profiles_user_id_key") {
			return apperrors.NewConflictError("profile already exists for user")
		}
		logger.Error().Err(err).Str("userID", profile.UserID.String()).Msg("Error creating profile")
		return dberrors.Classify(err, apperrors.ErrProfileNotFound)
	}
	return nil
}

func (r *ProfileRepository) getProfile(ctx context.Context, where squirrel.Sqlizer) (*models.Profile, error) {
	sql, args, err := r.sb.Select(profileColumns...).From("profiles").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get profile query: %w", err)
	}
	p, err := scanProfile(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, dberrors.Classify(err, apperrors.ErrProfileNotFound)
	}
	return p, nil
}

// GetProfileByID retrieves a profile by ID
func (r *ProfileRepository) GetProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return r.getProfile(ctx, squirrel.Eq{"id": id})
}

// GetProfileByUserID retrieves the profile owned by a user
func (r *ProfileRepository) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return r.getProfile(ctx, squirrel.Eq{"user_id": userID})
}

// UpdateProfile updates the editable profile fields
func (r *ProfileRepository) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	sql, args, err := r.sb.Update("profiles").
		Set("full_name", profile.FullName).
		Set("bio", profile.Bio).
		Set("avatar_ref", profile.AvatarRef).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": profile.ID}).
		Suffix("RETURNING user_id, role, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update profile query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&profile.UserID, &profile.Role, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return dberrors.Classify(err, apperrors.ErrProfileNotFound)
	}
	return nil
}

// CreateNGOProfile inserts the NGO half of an account
func (r *ProfileRepository) CreateNGOProfile(ctx context.Context, ngo *models.NGOProfile) error {
	if ngo.ID == uuid.Nil {
		ngo.ID = uuid.New()
	}
	sql, args, err := r.sb.Insert("ngo_profiles").
		Columns("id", "profile_id", "organization_name", "country", "city", "website",
			"mission_statement", "founded_year", "verified").
		Values(ngo.ID, ngo.ProfileID, ngo.OrganizationName, ngo.Country, ngo.City, ngo.Website,
			ngo.MissionStatement, ngo.FoundedYear, ngo.Verified).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create ngo profile query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&ngo.CreatedAt, &ngo.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "ngo_profiles_profile_id_key") {
			return apperrors.NewConflictError("ngo profile already exists")
		}
		logger.Error().Err(err).Str("profileID", ngo.ProfileID.String()).Msg("Error creating ngo profile")
		return dberrors.Classify(err, apperrors.ErrProfileNotFound)
	}
	return nil
}

func (r *ProfileRepository) getNGO(ctx context.Context, where squirrel.Sqlizer) (*models.NGOProfile, error) {
	sql, args, err := r.sb.Select(ngoColumns...).From("ngo_profiles").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get ngo profile query: %w", err)
	}
	n, err := scanNGO(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, dberrors.Classify(err, apperrors.ErrProfileNotFound)
	}
	return n, nil
}

// GetNGOProfileByID retrieves an NGO profile by ID
func (r *ProfileRepository) GetNGOProfileByID(ctx context.Context, id uuid.UUID) (*models.NGOProfile, error) {
	return r.getNGO(ctx, squirrel.Eq{"id": id})
}

// GetNGOProfileByProfileID retrieves the NGO half of a profile
func (r *ProfileRepository) GetNGOProfileByProfileID(ctx context.Context, profileID uuid.UUID) (*models.NGOProfile, error) {
	return r.getNGO(ctx, squirrel.Eq{"profile_id": profileID})
}

// UpdateNGOProfile updates organisation details; verification is not editable here
func (r *ProfileRepository) UpdateNGOProfile(ctx context.Context, ngo *models.NGOProfile) error {
	sql, args, err := r.sb.Update("ngo_profiles").
		Set("organization_name", ngo.OrganizationName).
		Set("country", ngo.Country).
		Set("city", ngo.City).
		Set("website", ngo.Website).
		Set("mission_statement", ngo.MissionStatement).
		Set("founded_year", ngo.FoundedYear).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": ngo.ID}).
		Suffix("RETURNING profile_id, verified, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update ngo profile query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&ngo.ProfileID, &ngo.Verified, &ngo.CreatedAt, &ngo.UpdatedAt)
	if err != nil {
		return dberrors.Classify(err, apperrors.ErrProfileNotFound)
	}
	return nil
}

// CreateExpertProfile inserts the expert half of an account
func (r *ProfileRepository) CreateExpertProfile(ctx context.Context, expert *models.ExpertProfile) error {
	if expert.ID == uuid.Nil {
		expert.ID = uuid.New()
	}
	if expert.ExpertiseAreas == nil {
		expert.ExpertiseAreas = []string{}
	}
	sql, args, err := r.sb.Insert("expert_profiles").
		Columns("id", "profile_id", "expertise_areas", "years_experience", "education",
			"certifications", "hourly_rate").
		Values(expert.ID, expert.ProfileID, expert.ExpertiseAreas, expert.YearsExperience, expert.Education,
			expert.Certifications, expert.HourlyRate).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create expert profile query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&expert.CreatedAt, &expert.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "expert_profiles_profile_id_key") {
			return apperrors.NewConflictError("expert profile already exists")
		}
		logger.Error().Err(err).Str("profileID", expert.ProfileID.String()).Msg("Error creating expert profile")
		return dberrors.Classify(err, apperrors.ErrProfileNotFound)
	}
	return nil
}

func (r *ProfileRepository) getExpert(ctx context.Context, where squirrel.Sqlizer) (*models.ExpertProfile, error) {
	sql, args, err := r.sb.Select(expertColumns...).From("expert_profiles").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get expert profile query: %w", err)
	}
	e, err := scanExpert(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, dberrors.Classify(err, apperrors.ErrProfileNotFound)
	}
	return e, nil
}

// GetExpertProfileByID retrieves an expert profile by ID
func (r *ProfileRepository) GetExpertProfileByID(ctx context.Context, id uuid.UUID) (*models.ExpertProfile, error) {
	return r.getExpert(ctx, squirrel.Eq{"id": id})
}

// GetExpertProfileByProfileID retrieves the expert half of a profile
func (r *ProfileRepository) GetExpertProfileByProfileID(ctx context.Context, profileID uuid.UUID) (*models.ExpertProfile, error) {
	return r.getExpert(ctx, squirrel.Eq{"profile_id": profileID})
}

// UpdateExpertProfile updates the expert's professional details
func (r *ProfileRepository) UpdateExpertProfile(ctx context.Context, expert *models.ExpertProfile) error {
	if expert.ExpertiseAreas == nil {
		expert.ExpertiseAreas = []string{}
	}
	sql, args, err := r.sb.Update("expert_profiles").
		Set("expertise_areas", expert.ExpertiseAreas).
		Set("years_experience", expert.YearsExperience).
		Set("education", expert.Education).
		Set("certifications", expert.Certifications).
		Set("hourly_rate", expert.HourlyRate).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": expert.ID}).
		Suffix("RETURNING profile_id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update expert profile query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&expert.ProfileID, &expert.CreatedAt, &expert.UpdatedAt)
	if err != nil {
		return dberrors.Classify(err, apperrors.ErrProfileNotFound)
	}
	return nil
}

// QueryExpertProfiles lists expert profiles, newest first
func (r *ProfileRepository) QueryExpertProfiles(ctx context.Context, filter ExpertFilter) ([]*models.ExpertProfile, error) {
	q := r.sb.Select(expertColumns...).From("expert_profiles").OrderBy("created_at DESC")
	if filter.Expertise != "" {
		q = q.Where(squirrel.Expr(
			"EXISTS (SELECT 1 FROM unnest(expertise_areas) AS area WHERE lower(area) = lower(?))",
			filter.Expertise))
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query experts query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying expert profiles")
		return nil, dberrors.Classify(err, apperrors.ErrProfileNotFound)
	}
	defer rows.Close()

	experts := []*models.ExpertProfile{}
	for rows.Next() {
		e, err := scanExpert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expert profile: %w", err)
		}
		experts = append(experts, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dberrors.Classify(err, apperrors.ErrProfileNotFound)
	}
	return experts, nil
}
