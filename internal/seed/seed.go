// Package seed bootstraps events and accounts from a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/service"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// File is the seed document
type File struct {
	Events []map[string]any `yaml:"events"`
	Users  []User           `yaml:"users"`
}

// User is an account to create when missing
type User struct {
	Email    string      `yaml:"email"`
	Name     string      `yaml:"name"`
	Password string      `yaml:"password"`
	Role     models.Role `yaml:"role"`
	EventIDs []string    `yaml:"event_ids"`
}

// Result counts what Apply created and skipped
type Result struct {
	EventsCreated int
	EventsSkipped int
	UsersCreated  int
	UsersSkipped  int
}

// Load reads and decodes a seed file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &f, nil
}

// Apply creates the seeded events and users. Events are matched by name and
// users by email, so applying the same file twice changes nothing.
func Apply(ctx context.Context, services *service.Services, f *File, log zerolog.Logger) (Result, error) {
	log = log.With().Str("component", "seed").Logger()
	var res Result

	existing, err := services.Event.List(ctx)
	if err != nil {
		return res, err
	}
	names := make(map[string]bool, len(existing))
	for _, e := range existing {
		names[strings.ToLower(e.Name)] = true
	}

	for i, raw := range f.Events {
		name, _ := raw["name"].(string)
		if names[strings.ToLower(name)] {
			res.EventsSkipped++
			continue
		}
		event, err := services.Event.Create(ctx, raw, "seed")
		if err != nil {
			return res, fmt.Errorf("seed event %d (%q): %w", i+1, name, err)
		}
		names[strings.ToLower(event.Name)] = true
		res.EventsCreated++
		log.Info().Str("event_id", event.ID).Str("name", event.Name).Msg("Seeded event")
	}

	for _, u := range f.Users {
		user, err := services.Auth.CreateUser(ctx, &models.CreateUserRequest{
			Email:    u.Email,
			Name:     u.Name,
			Password: u.Password,
			Role:     u.Role,
			EventIDs: u.EventIDs,
		})
		if errors.Is(err, service.ErrConflict) {
			res.UsersSkipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		res.UsersCreated++
		log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("Seeded user")
	}

	return res, nil
}
