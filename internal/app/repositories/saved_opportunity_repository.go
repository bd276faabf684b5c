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
)

func errSavedNotFound() error {
	return apperrors.NewResourceNotFoundError("saved opportunity not found")
}

// SavedOpportunityRepository handles the expert bookmark table
type SavedOpportunityRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewSavedOpportunityRepository creates a new SavedOpportunityRepository
func NewSavedOpportunityRepository(db DBTX) *SavedOpportunityRepository {
	return &SavedOpportunityRepository{db: db, sb: newBuilder()}
}

// Exists reports whether the expert has saved the opportunity
func (r *SavedOpportunityRepository) Exists(ctx context.Context, expertID, opportunityID uuid.UUID) (bool, error) {
	sql, args, err := r.sb.Select("1").From("saved_opportunities").
		Where(squirrel.Eq{"expert_id": expertID, "opportunity_id": opportunityID}).
		Prefix("SELECT EXISTS (").Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build saved exists query: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, dberrors.Classify(err, errSavedNotFound())
	}
	return exists, nil
}

// Create bookmarks an opportunity for an expert
func (r *SavedOpportunityRepository) Create(ctx context.Context, saved *models.SavedOpportunity) error {
	if saved.ID == uuid.Nil {
		saved.ID = uuid.New()
	}
	sql, args, err := r.sb.Insert("saved_opportunities").
		Columns("id", "expert_id", "opportunity_id").
		Values(saved.ID, saved.ExpertID, saved.OpportunityID).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build save opportunity query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&saved.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintSavedOpportunityKey) {
			return apperrors.NewConflictError("opportunity already saved")
		}
		logger.Error().Err(err).Str("expertID", saved.ExpertID.String()).Msg("Error saving opportunity")
		return dberrors.Classify(err, errSavedNotFound())
	}
	return nil
}

// Delete removes a bookmark
func (r *SavedOpportunityRepository) Delete(ctx context.Context, expertID, opportunityID uuid.UUID) error {
	sql, args, err := r.sb.Delete("saved_opportunities").
		Where(squirrel.Eq{"expert_id": expertID, "opportunity_id": opportunityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build unsave opportunity query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("expertID", expertID.String()).Msg("Error removing saved opportunity")
		return dberrors.Classify(err, errSavedNotFound())
	}
	if tag.RowsAffected() == 0 {
		return errSavedNotFound()
	}
	return nil
}

// ListByExpert lists an expert's bookmarks, newest first
func (r *SavedOpportunityRepository) ListByExpert(ctx context.Context, expertID uuid.UUID) ([]*models.SavedOpportunity, error) {
	sql, args, err := r.sb.Select("id", "expert_id", "opportunity_id", "created_at").
		From("saved_opportunities").
		Where(squirrel.Eq{"expert_id": expertID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list saved query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, dberrors.Classify(err, errSavedNotFound())
	}
	defer rows.Close()

	saved := []*models.SavedOpportunity{}
	for rows.Next() {
		s := &models.SavedOpportunity{}
		if err := rows.Scan(&s.ID, &s.ExpertID, &s.OpportunityID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan saved opportunity: %w", err)
		}
		saved = append(saved, s)
	}
	if err := rows.Err(); err != nil {
		return nil, dberrors.Classify(err, errSavedNotFound())
	}
	return saved, nil
}
