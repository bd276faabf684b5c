package repositories

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/impactlink/impactlink/internal/db"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/impactlink/impactlink/internal/pkg/dberrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, so every repository can run
// either on the pool or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func newBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// PostgresStore is the PostgreSQL implementation of Store and Transactor
type PostgresStore struct {
	pg   *db.PostgresDB
	conn DBTX
}

var (
	_ Store      = (*PostgresStore)(nil)
	_ Transactor = (*PostgresStore)(nil)
)

// NewPostgresStore creates a store bound to the connection pool
func NewPostgresStore(pg *db.PostgresDB) *PostgresStore {
	return &PostgresStore{pg: pg, conn: pg.Pool}
}

// WithTx runs fn inside a single database transaction. Nested calls reuse the
// outer transaction.
func (s *PostgresStore) WithTx(ctx context.Context, fn TxFn) error {
	if s.pg == nil {
		return fn(ctx, s)
	}

	err := s.pg.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &PostgresStore{conn: tx})
	})
	if err != nil && !errors.Is(err, apperrors.ErrConnection) && dberrors.IsConnectionError(err) {
		return apperrors.NewConnectionError(err)
	}
	return err
}

// Users returns the user repository
func (s *PostgresStore) Users() IUserRepository { return NewUserRepository(s.conn) }

// Profiles returns the profile repository
func (s *PostgresStore) Profiles() IProfileRepository { return NewProfileRepository(s.conn) }

// Opportunities returns the opportunity repository
func (s *PostgresStore) Opportunities() IOpportunityRepository {
	return NewOpportunityRepository(s.conn)
}

// Applications returns the application repository
func (s *PostgresStore) Applications() IApplicationRepository {
	return NewApplicationRepository(s.conn)
}

// SavedOpportunities returns the saved opportunity repository
func (s *PostgresStore) SavedOpportunities() ISavedOpportunityRepository {
	return NewSavedOpportunityRepository(s.conn)
}

// Messages returns the message repository
func (s *PostgresStore) Messages() IMessageRepository { return NewMessageRepository(s.conn) }

func orderBy(order SortOrder) string {
	if order == OldestFirst {
		return "created_at ASC"
	}
	return "created_at DESC"
}
