package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/storage"
)

// eventRepo is the concrete implementation of EventRepository
type eventRepo struct {
	store storage.DocumentStore
}

// NewEventRepo creates a new event repository
func NewEventRepo(store storage.DocumentStore) EventRepository {
	return &eventRepo{store: store}
}

// Create stores a new event. The id must be unused.
func (r *eventRepo) Create(ctx context.Context, event *models.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = r.store.Put(ctx, eventKey(event.ID), body, storage.MustNotExist)
	if errors.Is(err, storage.ErrConflict) {
		return fmt.Errorf("event %s: %w", event.ID, ErrDuplicate)
	}
	return err
}

// GetByID retrieves an event by ID
func (r *eventRepo) GetByID(ctx context.Context, id string) (*models.Event, error) {
	event, found, err := storage.ReadJSON[models.Event](ctx, r.store, eventKey(id))
	if err != nil || !found {
		return nil, err
	}
	return &event, nil
}

// List returns every event, newest first
func (r *eventRepo) List(ctx context.Context) ([]*models.Event, error) {
	keys, err := r.store.List(ctx, eventsPrefix)
	if err != nil {
		return nil, err
	}

	events := make([]*models.Event, 0, len(keys))
	for _, key := range keys {
		id, ok := topLevelID(key, eventsPrefix)
		if !ok {
			continue
		}
		event, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if event != nil {
			events = append(events, event)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}

// Update applies fn to the stored event. Returns nil if the event is missing.
func (r *eventRepo) Update(ctx context.Context, id string, fn func(*models.Event) error) (*models.Event, error) {
	var missing bool
	event, err := storage.Update(ctx, r.store, eventKey(id), func(e *models.Event, exists bool) error {
		if !exists {
			missing = true
			return storage.ErrSkipWrite
		}
		return fn(e)
	})
	if err != nil || missing {
		return nil, err
	}
	return &event, nil
}

// Delete removes an event together with its artists, cues and emergency state
func (r *eventRepo) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, eventKey(id)); err != nil {
		return err
	}
	for _, key := range []string{artistsKey(id), cuesKey(id), emergencyKey(id)} {
		if err := r.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}
	return nil
}
