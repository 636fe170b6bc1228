package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/storage"
)

// registrationRepo keeps pending stage manager sign-ups in one document
type registrationRepo struct {
	store storage.DocumentStore
}

// NewRegistrationRepo creates a new registration repository
func NewRegistrationRepo(store storage.DocumentStore) RegistrationRepository {
	return &registrationRepo{store: store}
}

// Add queues a registration. One pending registration per email.
func (r *registrationRepo) Add(ctx context.Context, reg *models.StageManagerRegistration) error {
	_, err := storage.Update(ctx, r.store, pendingRegistrationsKey, func(list *[]models.StageManagerRegistration, exists bool) error {
		for _, p := range *list {
			if strings.EqualFold(p.Email, reg.Email) {
				return fmt.Errorf("registration %s: %w", reg.Email, ErrDuplicate)
			}
		}
		*list = append(*list, *reg)
		return nil
	})
	return err
}

// List returns every pending registration, oldest first
func (r *registrationRepo) List(ctx context.Context) ([]models.StageManagerRegistration, error) {
	list, _, err := storage.ReadJSON[[]models.StageManagerRegistration](ctx, r.store, pendingRegistrationsKey)
	return list, err
}

// Take removes a registration from the queue and returns it. Returns nil if
// no registration has that id.
func (r *registrationRepo) Take(ctx context.Context, id string) (*models.StageManagerRegistration, error) {
	var taken *models.StageManagerRegistration
	_, err := storage.Update(ctx, r.store, pendingRegistrationsKey, func(list *[]models.StageManagerRegistration, exists bool) error {
		taken = nil
		kept := (*list)[:0:0]
		for _, p := range *list {
			if p.ID == id {
				p := p
				taken = &p
				continue
			}
			kept = append(kept, p)
		}
		if taken == nil {
			return storage.ErrSkipWrite
		}
		*list = kept
		return nil
	})
	if err != nil {
		return nil, err
	}
	return taken, nil
}

// EmailPending reports whether a registration for email is waiting
func (r *registrationRepo) EmailPending(ctx context.Context, email string) (bool, error) {
	list, err := r.List(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range list {
		if strings.EqualFold(p.Email, strings.TrimSpace(email)) {
			return true, nil
		}
	}
	return false, nil
}
