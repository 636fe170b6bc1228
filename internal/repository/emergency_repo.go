package repository

import (
	"context"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/storage"
)

// emergencyRepo keeps the latest broadcast of each event
type emergencyRepo struct {
	store storage.DocumentStore
}

// NewEmergencyRepo creates a new emergency repository
func NewEmergencyRepo(store storage.DocumentStore) EmergencyRepository {
	return &emergencyRepo{store: store}
}

// Get returns the latest broadcast for an event, active or not
func (r *emergencyRepo) Get(ctx context.Context, eventID string) (*models.EmergencyBroadcast, error) {
	b, found, err := storage.ReadJSON[models.EmergencyBroadcast](ctx, r.store, emergencyKey(eventID))
	if err != nil || !found {
		return nil, err
	}
	return &b, nil
}

// Put replaces the broadcast for an event
func (r *emergencyRepo) Put(ctx context.Context, broadcast *models.EmergencyBroadcast) error {
	return storage.WriteJSON(ctx, r.store, emergencyKey(broadcast.EventID), broadcast)
}

// Clear applies fn to the stored broadcast. Returns nil if there is none.
func (r *emergencyRepo) Clear(ctx context.Context, eventID string, fn func(*models.EmergencyBroadcast) error) (*models.EmergencyBroadcast, error) {
	var missing bool
	b, err := storage.Update(ctx, r.store, emergencyKey(eventID), func(b *models.EmergencyBroadcast, exists bool) error {
		missing = !exists
		if missing {
			return storage.ErrSkipWrite
		}
		return fn(b)
	})
	if err != nil || missing {
		return nil, err
	}
	return &b, nil
}
