package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// GCSStore keeps documents as objects in a Cloud Storage bucket. The version
// is the object generation and conditional writes use generation
// preconditions.
type GCSStore struct {
	bucket *gcs.BucketHandle
	name   string
}

// NewGCSStore wraps a bucket handle
func NewGCSStore(client *gcs.Client, bucket string) *GCSStore {
	return &GCSStore{bucket: client.Bucket(bucket), name: bucket}
}

func (g *GCSStore) Name() string { return "gcs:" + g.name }

func (g *GCSStore) Get(ctx context.Context, key string) (*Document, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	r, err := g.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", g.name, key, err)
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", g.name, key, err)
	}
	return &Document{Key: key, Body: body, Version: r.Attrs.Generation}, nil
}

func (g *GCSStore) Put(ctx context.Context, key string, body []byte, ifVersion int64) (int64, error) {
	key, err := CleanKey(key)
	if err != nil {
		return 0, err
	}
	obj := g.bucket.Object(key)
	switch {
	case ifVersion == MustNotExist:
		obj = obj.If(gcs.Conditions{DoesNotExist: true})
	case ifVersion > 0:
		obj = obj.If(gcs.Conditions{GenerationMatch: ifVersion})
	}

	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	w.CacheControl = "no-cache"
	if _, err := w.Write(body); err != nil {
		w.Close()
		return 0, fmt.Errorf("failed to write gs://%s/%s: %w", g.name, key, err)
	}
	if err := w.Close(); err != nil {
		if isPreconditionFailed(err) {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("failed to write gs://%s/%s: %w", g.name, key, err)
	}
	return w.Attrs().Generation, nil
}

func (g *GCSStore) Delete(ctx context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	err = g.bucket.Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete gs://%s/%s: %w", g.name, key, err)
	}
	return nil
}

func (g *GCSStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	it := g.bucket.Objects(ctx, &gcs.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", g.name, prefix, err)
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

func isPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusPreconditionFailed
	}
	return false
}
