package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/storage"
)

// artistRepo keeps all artists of an event in one document
type artistRepo struct {
	store storage.DocumentStore
}

// NewArtistRepo creates a new artist repository
func NewArtistRepo(store storage.DocumentStore) ArtistRepository {
	return &artistRepo{store: store}
}

// Create appends an artist. Emails are unique per event.
func (r *artistRepo) Create(ctx context.Context, artist *models.Artist) error {
	_, err := r.BatchInsert(ctx, artist.EventID, []*models.Artist{artist})
	return err
}

// BatchInsert appends artists in a single write and returns how many were
// stored. Duplicate emails fail the whole batch.
func (r *artistRepo) BatchInsert(ctx context.Context, eventID string, artists []*models.Artist) (int, error) {
	if len(artists) == 0 {
		return 0, nil
	}
	_, err := storage.Update(ctx, r.store, artistsKey(eventID), func(list *[]models.Artist, exists bool) error {
		emails := make(map[string]bool, len(*list))
		for _, a := range *list {
			emails[strings.ToLower(a.Email)] = true
		}
		for _, a := range artists {
			email := strings.ToLower(a.Email)
			if emails[email] {
				return fmt.Errorf("artist email %s: %w", a.Email, ErrDuplicate)
			}
			emails[email] = true
			*list = append(*list, *a)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(artists), nil
}

// GetByID retrieves an artist by ID
func (r *artistRepo) GetByID(ctx context.Context, eventID, id string) (*models.Artist, error) {
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

// List returns every artist of an event in registration order
func (r *artistRepo) List(ctx context.Context, eventID string) ([]models.Artist, error) {
	list, _, err := storage.ReadJSON[[]models.Artist](ctx, r.store, artistsKey(eventID))
	return list, err
}

// Update applies fn to one artist. Returns nil if the artist is missing.
func (r *artistRepo) Update(ctx context.Context, eventID, id string, fn func(*models.Artist) error) (*models.Artist, error) {
	var updated *models.Artist
	_, err := storage.Update(ctx, r.store, artistsKey(eventID), func(list *[]models.Artist, exists bool) error {
		updated = nil
		for i := range *list {
			if (*list)[i].ID == id {
				if err := fn(&(*list)[i]); err != nil {
					return err
				}
				a := (*list)[i]
				updated = &a
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

// UpdateAll applies fn to the whole artist list in one write
func (r *artistRepo) UpdateAll(ctx context.Context, eventID string, fn func([]models.Artist) error) ([]models.Artist, error) {
	return storage.Update(ctx, r.store, artistsKey(eventID), func(list *[]models.Artist, exists bool) error {
		return fn(*list)
	})
}

// Delete removes an artist. Returns storage.ErrNotFound if it is missing.
func (r *artistRepo) Delete(ctx context.Context, eventID, id string) error {
	found := false
	_, err := storage.Update(ctx, r.store, artistsKey(eventID), func(list *[]models.Artist, exists bool) error {
		kept := (*list)[:0:0]
		found = false
		for _, a := range *list {
			if a.ID == id {
				found = true
				continue
			}
			kept = append(kept, a)
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

// Emails returns the email of every artist of an event
func (r *artistRepo) Emails(ctx context.Context, eventID string) ([]string, error) {
	list, err := r.List(ctx, eventID)
	if err != nil {
		return nil, err
	}
	emails := make([]string, len(list))
	for i, a := range list {
		emails[i] = a.Email
	}
	return emails, nil
}
