// Package storage keeps whole JSON documents addressed by slash-separated
// keys, with optimistic concurrency via per-document versions.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when no document exists at a key
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a conditional write loses to another writer
	ErrConflict = errors.New("document version conflict")
	// ErrInvalidKey is returned for empty keys or keys escaping the root
	ErrInvalidKey = errors.New("invalid document key")
)

const (
	// AnyVersion makes Put unconditional
	AnyVersion int64 = -1
	// MustNotExist makes Put fail with ErrConflict if the key already exists
	MustNotExist int64 = 0
)

// Document is a stored JSON body and the version it was read at
type Document struct {
	Key     string
	Body    []byte
	Version int64
}

// DocumentStore is implemented by every backend
type DocumentStore interface {
	// Get returns the document at key or ErrNotFound
	Get(ctx context.Context, key string) (*Document, error)
	// Put writes body at key if the stored version equals ifVersion and
	// returns the new version. See AnyVersion and MustNotExist.
	Put(ctx context.Context, key string, body []byte, ifVersion int64) (int64, error)
	// Delete removes the document at key or returns ErrNotFound
	Delete(ctx context.Context, key string) error
	// List returns the keys under prefix in lexical order
	List(ctx context.Context, prefix string) ([]string, error)
	// Name identifies the backend in logs
	Name() string
}

// CleanKey validates a document key and returns it in canonical form
func CleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}
