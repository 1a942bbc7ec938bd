// Package postgres is the relational document store: message records,
// channel metadata and the argot/drug reference tables.
//
// Schema changes are goose migrations embedded from the migrations package.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegrasper/migrations"
)

// DB implements ports.DocumentStore on a pgx pool.
type DB struct {
	Pool   *pgxpool.Pool
	Logger *zerolog.Logger
}

// New parses dsn, sizes the pool and waits for the server to accept
// connections, retrying while it starts up.
func New(ctx context.Context, dsn string, logger *zerolog.Logger) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	configurePool(cfg)

	pool, err := dial(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &DB{Pool: pool, Logger: logger}, nil
}

func configurePool(cfg *pgxpool.Config) {
	cfg.MaxConns = poolMaxConns
	cfg.MinConns = poolMinConns
	cfg.MaxConnIdleTime = poolMaxConnIdleTime
	cfg.MaxConnLifetime = poolMaxConnLifetime
	cfg.HealthCheckPeriod = poolHealthCheck
}

func dial(ctx context.Context, cfg *pgxpool.Config, logger *zerolog.Logger) (*pgxpool.Pool, error) {
	var lastErr error

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}

			pool.Close()
		}

		lastErr = err
		logger.Warn().Err(err).Int("attempt", attempt).Str("host", cfg.ConnConfig.Host).Msg("Postgres not ready")

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("dial postgres: %w", ctx.Err())
		case <-time.After(connectRetryDelay):
		}
	}

	return nil, fmt.Errorf("postgres unreachable after %d attempts: %w", connectAttempts, lastErr)
}

func (db *DB) Name() string { return "postgres" }

func (db *DB) Ping(ctx context.Context) error {
	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}

	return nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

// Migrate applies pending migrations. A session advisory lock keeps two
// instances from migrating at once.
func (db *DB) Migrate(ctx context.Context) error {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return fmt.Errorf("lock migrations: %w", err)
	}

	defer func() {
		if _, err := conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", migrationLockID); err != nil {
			db.Logger.Warn().Err(err).Msg("Failed to release migration lock")
		}
	}()

	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, migrations.FS)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	for _, r := range results {
		db.Logger.Info().Str("migration", r.Source.Path).Dur("took", r.Duration).Msg("Migration applied")
	}

	return nil
}
