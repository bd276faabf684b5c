package repositories

import (
	"context"
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

var applicationColumns = []string{
	"id", "opportunity_id", "expert_id", "message", "status", "version", "created_at", "updated_at",
}

func errApplicationNotFound() error {
	return apperrors.NewResourceNotFoundError("application not found")
}

// ApplicationRepository handles application database operations
type ApplicationRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(db DBTX) *ApplicationRepository {
	return &ApplicationRepository{db: db, sb: newBuilder()}
}

func scanApplication(row pgx.Row) (*models.Application, error) {
	a := &models.Application{}
	err := row.Scan(&a.ID, &a.OpportunityID, &a.ExpertID, &a.Message, &a.Status, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// Create inserts an application. The partial unique index on pending rows
// rejects a second pending application for the same pair.
func (r *ApplicationRepository) Create(ctx context.Context, a *models.Application) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	sql, args, err := r.sb.Insert("applications").
		Columns("id", "opportunity_id", "expert_id", "message", "status", "version").
		Values(a.ID, a.OpportunityID, a.ExpertID, a.Message, a.Status, 1).
		Suffix("RETURNING version, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create application query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&a.Version, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintActiveApplication) {
			logger.Warn().
				Str("expertID", a.ExpertID.String()).
				Str("opportunityID", a.OpportunityID.String()).
				Msg("Attempted to create duplicate pending application")
			return apperrors.NewDuplicateApplicationError("a pending application already exists for this opportunity")
		}
		logger.Error().Err(err).Str("opportunityID", a.OpportunityID.String()).Msg("Error creating application")
		return dberrors.Classify(err, errApplicationNotFound())
	}
	return nil
}

// GetByID retrieves an application by ID
func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	sql, args, err := r.sb.Select(applicationColumns...).From("applications").
		Where(squirrel.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get application query: %w", err)
	}

	a, err := scanApplication(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, dberrors.Classify(err, errApplicationNotFound())
	}
	return a, nil
}

// Update writes status and message when the stored version still matches
func (r *ApplicationRepository) Update(ctx context.Context, a *models.Application) error {
	sql, args, err := r.sb.Update("applications").
		Set("status", a.Status).
		Set("message", a.Message).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": a.ID, "version": a.Version}).
		Suffix("RETURNING opportunity_id, expert_id, version, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update application query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&a.OpportunityID, &a.ExpertID, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		logger.Error().Err(err).Str("applicationID", a.ID.String()).Msg("Error updating application")
		return dberrors.Classify(err, errApplicationNotFound())
	}

	if _, err := r.GetByID(ctx, a.ID); err != nil {
		return err
	}
	return apperrors.NewConflictError("application was modified concurrently")
}

// Query lists applications matching the filter
func (r *ApplicationRepository) Query(ctx context.Context, filter ApplicationFilter) ([]*models.Application, error) {
	q := r.sb.Select(applicationColumns...).From("applications").OrderBy(orderBy(filter.Order), "id")
	if filter.OpportunityID != nil {
		q = q.Where(squirrel.Eq{"opportunity_id": *filter.OpportunityID})
	}
	if filter.ExpertID != nil {
		q = q.Where(squirrel.Eq{"expert_id": *filter.ExpertID})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where(squirrel.Eq{"status": statuses})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query applications query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying applications")
		return nil, dberrors.Classify(err, errApplicationNotFound())
	}
	defer rows.Close()

	applications := []*models.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		applications = append(applications, a)
	}
	if err := rows.Err(); err != nil {
		return nil, dberrors.Classify(err, errApplicationNotFound())
	}
	return applications, nil
}
