package storage

import (
	"context"
	"database/sql"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"github.com/fame-api/internal/config"
)

// Backends bundles the stores selected by configuration
type Backends struct {
	Documents DocumentStore
	Media     BlobStore
	closers   []func() error
}

// Close releases any clients opened for the backends
func (b *Backends) Close() error {
	var first error
	for _, c := range b.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open builds the document and media stores named by cfg. db is only used by
// the postgres backend and may be nil otherwise.
func Open(ctx context.Context, cfg config.StorageConfig, db *sql.DB) (*Backends, error) {
	b := &Backends{}

	var client *gcs.Client
	gcsClient := func() (*gcs.Client, error) {
		if client != nil {
			return client, nil
		}
		c, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCS client: %w", err)
		}
		client = c
		b.closers = append(b.closers, c.Close)
		return c, nil
	}

	switch cfg.Backend {
	case "memory":
		b.Documents = NewMemoryStore()
	case "local":
		s, err := NewLocalStore(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		b.Documents = s
	case "gcs":
		c, err := gcsClient()
		if err != nil {
			return nil, err
		}
		b.Documents = NewGCSStore(c, cfg.GCSBucket)
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres backend requires a database connection")
		}
		b.Documents = NewPostgresStore(db)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	switch cfg.MediaBackend {
	case "gcs":
		c, err := gcsClient()
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Media = NewGCSBlobStore(c, cfg.GCSBucket)
	default:
		m, err := NewLocalBlobStore(cfg.MediaDir)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Media = m
	}

	return b, nil
}
