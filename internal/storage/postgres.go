package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PostgresStore keeps documents in the documents table created by the
// migrations. The version column is bumped on every write.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open connection pool
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Name() string { return "postgres" }

func (p *PostgresStore) Get(ctx context.Context, key string) (*Document, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	query := `SELECT body, version FROM documents WHERE key = $1`

	var body string
	var version int64
	err = p.db.QueryRowContext(ctx, query, key).Scan(&body, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return &Document{Key: key, Body: []byte(body), Version: version}, nil
}

func (p *PostgresStore) Put(ctx context.Context, key string, body []byte, ifVersion int64) (int64, error) {
	key, err := CleanKey(key)
	if err != nil {
		return 0, err
	}

	var query string
	args := []interface{}{key, string(body)}
	switch {
	case ifVersion == AnyVersion:
		query = `
			INSERT INTO documents (key, body, version, updated_at)
			VALUES ($1, $2, 1, NOW())
			ON CONFLICT (key) DO UPDATE SET
				body = EXCLUDED.body, version = documents.version + 1, updated_at = NOW()
			RETURNING version
		`
	case ifVersion == MustNotExist:
		query = `
			INSERT INTO documents (key, body, version, updated_at)
			VALUES ($1, $2, 1, NOW())
			ON CONFLICT (key) DO NOTHING
			RETURNING version
		`
	default:
		query = `
			UPDATE documents SET body = $2, version = version + 1, updated_at = NOW()
			WHERE key = $1 AND version = $3
			RETURNING version
		`
		args = append(args, ifVersion)
	}

	var version int64
	err = p.db.QueryRowContext(ctx, query, args...).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("failed to put %s: %w", key, err)
	}
	return version, nil
}

func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	result, err := p.db.ExecContext(ctx, `DELETE FROM documents WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context, prefix string) ([]string, error) {
	query := `SELECT key FROM documents WHERE key LIKE $1 ESCAPE '\' ORDER BY key`
	rows, err := p.db.QueryContext(ctx, query, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
