package dberrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateConstraintError(t *testing.T) {
	pending := &pgconn.PgError{Code: "23505", ConstraintName: ConstraintActiveApplication}

	assert.True(t, IsDuplicateConstraintError(pending, ConstraintActiveApplication))
	assert.True(t, IsDuplicateConstraintError(fmt.Errorf("insert: %w", pending), ConstraintActiveApplication))
	assert.False(t, IsDuplicateConstraintError(pending, ConstraintUsersEmail))
	assert.False(t, IsDuplicateConstraintError(&pgconn.PgError{Code: "23503", ConstraintName: ConstraintActiveApplication}, ConstraintActiveApplication))
	assert.False(t, IsDuplicateConstraintError(nil, ConstraintActiveApplication))
}

func TestClassify(t *testing.T) {
	notFound := apperrors.NewResourceNotFoundError("opportunity not found")
	checkViolation := &pgconn.PgError{Code: "23514", ConstraintName: "opportunities_dates_check"}

	tests := []struct {
		name      string
		err       error
		wantIs    error
		retryable bool
	}{
		{"no rows", pgx.ErrNoRows, apperrors.ErrResourceNotFound, false},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), apperrors.ErrResourceNotFound, false},
		{"connection class", &pgconn.PgError{Code: "08006"}, apperrors.ErrConnection, true},
		{"deadline", context.DeadlineExceeded, apperrors.ErrConnection, true},
		{"constraint", checkViolation, checkViolation, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err, notFound)
			assert.ErrorIs(t, got, tt.wantIs)
			assert.Equal(t, tt.retryable, apperrors.IsRetryable(got))
		})
	}

	assert.NoError(t, Classify(nil, notFound))
}

func TestIsConnectionError(t *testing.T) {
	assert.False(t, IsConnectionError(nil))
	assert.False(t, IsConnectionError(errors.New("syntax error")))
	assert.True(t, IsConnectionError(&pgconn.PgError{Code: "08001"}))
	assert.False(t, IsConnectionError(&pgconn.PgError{Code: "23505"}))
}
