package repository

import (
	"context"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/storage"
)

// cueRepo keeps all cues of an event in one document
type cueRepo struct {
	store storage.DocumentStore
}

// NewCueRepo creates a new cue repository
func NewCueRepo(store storage.DocumentStore) CueRepository {
	return &cueRepo{store: store}
}

// Create appends a cue
func (r *cueRepo) Create(ctx context.Context, cue *models.Cue) error {
	_, err := storage.Update(ctx, r.store, cuesKey(cue.EventID), func(list *[]models.Cue, exists bool) error {
		*list = append(*list, *cue)
		return nil
	})
	return err
}

// GetByID retrieves a cue by ID
func (r *cueRepo) GetByID(ctx context.Context, eventID, id string) (*models.Cue, error) {
	list, err := r.List(ctx, eventID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, nil
}

// List returns every cue of an event
func (r *cueRepo) List(ctx context.Context, eventID string) ([]models.Cue, error) {
	list, _, err := storage.ReadJSON[[]models.Cue](ctx, r.store, cuesKey(eventID))
	return list, err
}

// Update applies fn to one cue. Returns nil if the cue is missing.
func (r *cueRepo) Update(ctx context.Context, eventID, id string, fn func(*models.Cue) error) (*models.Cue, error) {
	var updated *models.Cue
	_, err := storage.Update(ctx, r.store, cuesKey(eventID), func(list *[]models.Cue, exists bool) error {
		updated = nil
		for i := range *list {
			if (*list)[i].ID == id {
				if err := fn(&(*list)[i]); err != nil {
					return err
				}
				c := (*list)[i]
				updated = &c
				return nil
			}
		}
		return storage.ErrSkipWrite
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateAll applies fn to the whole cue list in one write
func (r *cueRepo) UpdateAll(ctx context.Context, eventID string, fn func([]models.Cue) error) ([]models.Cue, error) {
	return storage.Update(ctx, r.store, cuesKey(eventID), func(list *[]models.Cue, exists bool) error {
		return fn(*list)
	})
}

// Delete removes a cue. Returns storage.ErrNotFound if it is missing.
func (r *cueRepo) Delete(ctx context.Context, eventID, id string) error {
	found := false
	_, err := storage.Update(ctx, r.store, cuesKey(eventID), func(list *[]models.Cue, exists bool) error {
		kept := (*list)[:0:0]
		found = false
		for _, c := range *list {
			if c.ID == id {
				found = true
				continue
			}
			kept = append(kept, c)
		}
		if !found {
			return storage.ErrSkipWrite
		}
		*list = kept
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return storage.ErrNotFound
	}
	return nil
}
