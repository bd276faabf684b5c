package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/impactlink/impactlink/internal/pkg/dberrors"
	"github.com/impactlink/impactlink/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
)

var opportunityColumns = []string{
	"id", "ngo_id", "title", "description", "required_expertise", "location_name", "location",
	"start_date", "end_date", "compensation", "status", "version", "created_at", "updated_at",
}

func errOpportunityNotFound() error {
	return apperrors.NewResourceNotFoundError("opportunity not found")
}

// OpportunityRepository handles opportunity database operations
type OpportunityRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewOpportunityRepository creates a new OpportunityRepository
func NewOpportunityRepository(db DBTX) *OpportunityRepository {
	return &OpportunityRepository{db: db, sb: newBuilder()}
}

func scanOpportunity(row pgx.Row) (*models.Opportunity, error) {
	var (
		o            models.Opportunity
		geo          []byte
		compensation []byte
	)
	err := row.Scan(&o.ID, &o.NGOID, &o.Title, &o.Description, &o.RequiredExpertise, &o.LocationName, &geo,
		&o.StartDate, &o.EndDate, &compensation, &o.Status, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(geo) > 0 {
		o.Geo = &models.GeoPoint{}
		if err := json.Unmarshal(geo, o.Geo); err != nil {
			return nil, fmt.Errorf("failed to decode opportunity location: %w", err)
		}
	}
	if len(compensation) > 0 {
		if err := json.Unmarshal(compensation, &o.Compensation); err != nil {
			return nil, fmt.Errorf("failed to decode opportunity compensation: %w", err)
		}
	}
	return &o, nil
}

func encodeDocuments(o *models.Opportunity) (geo *string, compensation string, err error) {
	c, err := json.Marshal(o.Compensation)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode compensation: %w", err)
	}
	if o.Geo != nil {
		g, err := json.Marshal(o.Geo)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode location: %w", err)
		}
		s := string(g)
		geo = &s
	}
	return geo, string(c), nil
}

// Create inserts an opportunity at version 1
func (r *OpportunityRepository) Create(ctx context.Context, o *models.Opportunity) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.RequiredExpertise == nil {
		o.RequiredExpertise = []string{}
	}
	geo, compensation, err := encodeDocuments(o)
	if err != nil {
		return err
	}

	sql, args, err := r.sb.Insert("opportunities").
		Columns("id", "ngo_id", "title", "description", "required_expertise", "location_name", "location",
			"start_date", "end_date", "compensation", "status", "version").
		Values(o.ID, o.NGOID, o.Title, o.Description, o.RequiredExpertise, o.LocationName, geo,
			o.StartDate, o.EndDate, compensation, o.Status, 1).
		Suffix("RETURNING version, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create opportunity query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
		logger.Error().Err(err).Str("ngoID", o.NGOID.String()).Msg("Error creating opportunity")
		return dberrors.Classify(err, errOpportunityNotFound())
	}
	return nil
}

// GetByID retrieves an opportunity by ID
func (r *OpportunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	sql, args, err := r.sb.Select(opportunityColumns...).From("opportunities").
		Where(squirrel.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get opportunity query: %w", err)
	}

	o, err := scanOpportunity(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, dberrors.Classify(err, errOpportunityNotFound())
	}
	return o, nil
}

// Update writes every mutable column when the stored version still matches
func (r *OpportunityRepository) Update(ctx context.Context, o *models.Opportunity) error {
	geo, compensation, err := encodeDocuments(o)
	if err != nil {
		return err
	}

	sql, args, err := r.sb.Update("opportunities").
		Set("title", o.Title).
		Set("description", o.Description).
		Set("required_expertise", o.RequiredExpertise).
		Set("location_name", o.LocationName).
		Set("location", geo).
		Set("start_date", o.StartDate).
		Set("end_date", o.EndDate).
		Set("compensation", compensation).
		Set("status", o.Status).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": o.ID, "version": o.Version}).
		Suffix("RETURNING ngo_id, version, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update opportunity query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&o.NGOID, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		logger.Error().Err(err).Str("opportunityID", o.ID.String()).Msg("Error updating opportunity")
		return dberrors.Classify(err, errOpportunityNotFound())
	}

	// No row matched: either the id is unknown or the version moved on.
	if _, err := r.GetByID(ctx, o.ID); err != nil {
		return err
	}
	return apperrors.NewConflictError("opportunity was modified concurrently")
}

// Query lists opportunities matching the filter together with the unpaged total
func (r *OpportunityRepository) Query(ctx context.Context, filter OpportunityFilter) ([]*models.Opportunity, int64, error) {
	where := squirrel.And{}
	if filter.NGOID != nil {
		where = append(where, squirrel.Eq{"ngo_id": *filter.NGOID})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, squirrel.Eq{"status": statuses})
	}
	if filter.Expertise != "" {
		where = append(where, squirrel.Expr(
			"EXISTS (SELECT 1 FROM unnest(required_expertise) AS area WHERE lower(area) = lower(?))",
			filter.Expertise))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"title": pattern},
			squirrel.ILike{"description": pattern},
		})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("opportunities").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count opportunities query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting opportunities")
		return nil, 0, dberrors.Classify(err, errOpportunityNotFound())
	}

	q := r.sb.Select(opportunityColumns...).From("opportunities").Where(where).
		OrderBy(orderBy(filter.Order), "id").
		Offset(filter.Offset)
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query opportunities query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying opportunities")
		return nil, 0, dberrors.Classify(err, errOpportunityNotFound())
	}
	defer rows.Close()

	opportunities := []*models.Opportunity{}
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		opportunities = append(opportunities, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberrors.Classify(err, errOpportunityNotFound())
	}
	return opportunities, total, nil
}
