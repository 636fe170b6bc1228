package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fame-api/internal/monitoring"
)

// MaxUpdateAttempts bounds how often Update retries after a conflict
const MaxUpdateAttempts = 5

// ErrSkipWrite can be returned by an Update mutation to leave the document
// untouched without failing the call.
var ErrSkipWrite = errors.New("skip write")

// ReadJSON decodes the document at key into a T. A missing document yields the
// zero value and found=false.
func ReadJSON[T any](ctx context.Context, s DocumentStore, key string) (value T, found bool, err error) {
	doc, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}
	if err := json.Unmarshal(doc.Body, &value); err != nil {
		return value, false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return value, true, nil
}

// WriteJSON stores v at key unconditionally
func WriteJSON(ctx context.Context, s DocumentStore, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	_, err = s.Put(ctx, key, body, AnyVersion)
	return err
}

// Update performs a read-modify-write of the document at key. mutate receives
// the current value (zero value if the document is missing) and may change it
// in place. The write is conditional on the version that was read; when
// another writer got there first the document is re-read and mutate runs
// again, up to MaxUpdateAttempts times.
func Update[T any](ctx context.Context, s DocumentStore, key string, mutate func(value *T, exists bool) error) (T, error) {
	var zero T
	for attempt := 1; attempt <= MaxUpdateAttempts; attempt++ {
		var value T
		version := MustNotExist

		doc, err := s.Get(ctx, key)
		switch {
		case err == nil:
			if err := json.Unmarshal(doc.Body, &value); err != nil {
				return zero, fmt.Errorf("failed to decode %s: %w", key, err)
			}
			version = doc.Version
		case errors.Is(err, ErrNotFound):
		default:
			return zero, err
		}

		if err := mutate(&value, version != MustNotExist); err != nil {
			if errors.Is(err, ErrSkipWrite) {
				return value, nil
			}
			return zero, err
		}

		body, err := json.Marshal(value)
		if err != nil {
			return zero, fmt.Errorf("failed to encode %s: %w", key, err)
		}

		_, err = s.Put(ctx, key, body, version)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrConflict) {
			return zero, err
		}
		monitoring.TrackStorageConflict()

		if err := ctx.Err(); err != nil {
			return zero, err
		}
	}
	return zero, fmt.Errorf("update %s: %w after %d attempts", key, ErrConflict, MaxUpdateAttempts)
}
