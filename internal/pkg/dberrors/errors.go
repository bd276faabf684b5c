package dberrors

import (
	"context"
	"errors"
	"net"

	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn" // Import pgconn for PgError
)

// Constraint names declared in migrations/001_init.sql
const (
	ConstraintUsersEmail          = "users_email_key"
	ConstraintActiveApplication   = "applications_one_pending_per_pair"
	ConstraintSavedOpportunityKey = "saved_opportunities_expert_opportunity_key"
)

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation error
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	// 23505 is unique_violation
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraintName
}

// IsConnectionError reports failures reaching the server, as opposed to
// errors the server returned for a statement.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 is connection_exception
		return len(pgErr.Code) == 5 && pgErr.Code[:2] == "08"
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.SafeToRetry(err) || errors.Is(err, context.DeadlineExceeded)
}

// Classify maps a driver error onto the application taxonomy. notFound is
// returned for pgx.ErrNoRows so callers can keep entity-specific sentinels.
func Classify(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return notFound
	case IsConnectionError(err):
		return apperrors.NewConnectionError(err)
	default:
		return err
	}
}
