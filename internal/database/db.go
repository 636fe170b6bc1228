// Package database opens the Postgres pool behind the document store and
// applies its schema.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fame-api/internal/config"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

const (
	connectAttempts = 5
	connectBackoff  = time.Second
	pingTimeout     = 5 * time.Second
)

// DB is the pooled Postgres handle
type DB struct {
	*sql.DB
	log zerolog.Logger
}

// Connect opens the pool and waits for Postgres to accept connections. The
// server often starts alongside its database, so a refused ping is retried
// with doubling backoff before giving up.
func Connect(ctx context.Context, cfg *config.DatabaseConfig, log zerolog.Logger) (*DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)

	db := &DB{DB: sqlDB, log: log.With().Str("component", "database").Logger()}
	if err := db.waitReady(ctx, connectAttempts, connectBackoff); err != nil {
		sqlDB.Close()
		return nil, err
	}

	db.log.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Name).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("Database connection established")
	return db, nil
}

func (db *DB) waitReady(ctx context.Context, attempts int, backoff time.Duration) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = db.HealthCheck(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		db.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", backoff).Msg("Database not ready")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("failed to ping database after %d attempts: %w", attempts, err)
}

// Migrate brings the documents schema up to date
func (db *DB) Migrate(migrationsPath string) error {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to load migrations from %s: %w", migrationsPath, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty", version)
	}
	db.log.Info().Uint("version", version).Msg("Schema up to date")
	return nil
}

// HealthCheck pings the database, bounded by a short timeout
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return db.PingContext(ctx)
}
