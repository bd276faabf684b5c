package db

import (
	"context"
	"fmt"
	"time"

	"github.com/impactlink/impactlink/internal/config"
	"github.com/impactlink/impactlink/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	connectAttempts = 5
	connectBackoff  = time.Second
	txTimeout       = 30 * time.Second
)

// PostgresDB owns the pgx connection pool
type PostgresDB struct {
	Pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresDB opens the pool and waits for the server to answer a ping.
// A server that is still starting gets a few attempts with growing backoff.
func NewPostgresDB(cfg *config.Config) (*PostgresDB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetPostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgxpool config: %w", err)
	}

	maxLifetime, err := time.ParseDuration(cfg.Database.ConnMaxLifetime)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection max lifetime: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnLifetime = maxLifetime
	poolConfig.HealthCheckPeriod = time.Minute

	lgr := logger.Component("postgres")

	var lastErr error
	backoff := connectBackoff
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pool, err := connect(poolConfig)
		if err == nil {
			lgr.Info().
				Str("host", cfg.Database.Host).
				Str("database", cfg.Database.DBName).
				Int32("maxConns", poolConfig.MaxConns).
				Msg("Connected to PostgreSQL")
			return &PostgresDB{Pool: pool, logger: lgr}, nil
		}
		lastErr = err
		lgr.Warn().Err(err).Int("attempt", attempt).Dur("retryIn", backoff).Msg("PostgreSQL not reachable yet")
		if attempt < connectAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("failed to establish database connection after %d attempts: %w", connectAttempts, lastErr)
}

func connect(poolConfig *pgxpool.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Close releases every pooled connection
func (db *PostgresDB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// TransactionFn is a function that executes within a transaction
type TransactionFn func(ctx context.Context, tx pgx.Tx) error

// WithTransaction runs fn in one transaction. It commits when fn returns nil
// and rolls back otherwise, including when fn panics.
func (db *PostgresDB) WithTransaction(ctx context.Context, fn TransactionFn) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, txTimeout)
		defer cancel()
	}

	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		return fn(ctx, tx)
	})
	if err != nil {
		db.logger.Debug().Err(err).Msg("Transaction rolled back")
	}
	return err
}
