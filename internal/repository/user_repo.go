package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/storage"
)

// roleOrder is the order user files are searched in
var roleOrder = []models.Role{models.RoleSuperAdmin, models.RoleStageManager, models.RoleDJ, models.RoleArtist}

// userRepo keeps one user document per role
type userRepo struct {
	store storage.DocumentStore
}

// NewUserRepo creates a new user repository
func NewUserRepo(store storage.DocumentStore) UserRepository {
	return &userRepo{store: store}
}

// Create inserts a new user. Emails are unique across all roles.
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	existing, err := r.GetByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("user email %s: %w", user.Email, ErrDuplicate)
	}

	_, err = storage.Update(ctx, r.store, usersKey(user.Role), func(list *[]models.User, exists bool) error {
		for _, u := range *list {
			if strings.EqualFold(u.Email, user.Email) {
				return fmt.Errorf("user email %s: %w", user.Email, ErrDuplicate)
			}
		}
		*list = append(*list, *user)
		return nil
	})
	return err
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(ctx, func(u *models.User) bool { return u.ID == id })
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	return r.find(ctx, func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *userRepo) find(ctx context.Context, match func(*models.User) bool) (*models.User, error) {
	for _, role := range roleOrder {
		users, err := r.ListByRole(ctx, role)
		if err != nil {
			return nil, err
		}
		for i := range users {
			if match(&users[i]) {
				return &users[i], nil
			}
		}
	}
	return nil, nil
}

// ListByRole returns every user with the given role
func (r *userRepo) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	users, _, err := storage.ReadJSON[[]models.User](ctx, r.store, usersKey(role))
	return users, err
}

// Update applies fn to one user. Returns nil if the user is missing.
func (r *userRepo) Update(ctx context.Context, role models.Role, id string, fn func(*models.User) error) (*models.User, error) {
	var updated *models.User
	_, err := storage.Update(ctx, r.store, usersKey(role), func(list *[]models.User, exists bool) error {
		updated = nil
		for i := range *list {
			if (*list)[i].ID == id {
				if err := fn(&(*list)[i]); err != nil {
					return err
				}
				u := (*list)[i]
				updated = &u
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

// Count returns the total number of users
func (r *userRepo) Count(ctx context.Context) (int, error) {
	total := 0
	for _, role := range roleOrder {
		users, err := r.ListByRole(ctx, role)
		if err != nil {
			return 0, err
		}
		total += len(users)
	}
	return total, nil
}
