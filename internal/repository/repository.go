package repository

import (
	"context"
	"errors"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/storage"
)

// ErrDuplicate is returned when a record with the same unique field exists
var ErrDuplicate = errors.New("duplicate record")

// Lookups return (nil, nil) when the record does not exist.

// EventRepository defines the interface for event data operations
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
	Update(ctx context.Context, id string, fn func(*models.Event) error) (*models.Event, error)
	Delete(ctx context.Context, id string) error
}

// ArtistRepository defines the interface for artist data operations
type ArtistRepository interface {
	Create(ctx context.Context, artist *models.Artist) error
	BatchInsert(ctx context.Context, eventID string, artists []*models.Artist) (int, error)
	GetByID(ctx context.Context, eventID, id string) (*models.Artist, error)
	List(ctx context.Context, eventID string) ([]models.Artist, error)
	Update(ctx context.Context, eventID, id string, fn func(*models.Artist) error) (*models.Artist, error)
	UpdateAll(ctx context.Context, eventID string, fn func([]models.Artist) error) ([]models.Artist, error)
	Delete(ctx context.Context, eventID, id string) error
	Emails(ctx context.Context, eventID string) ([]string, error)
}

// CueRepository defines the interface for cue data operations
type CueRepository interface {
	Create(ctx context.Context, cue *models.Cue) error
	GetByID(ctx context.Context, eventID, id string) (*models.Cue, error)
	List(ctx context.Context, eventID string) ([]models.Cue, error)
	Update(ctx context.Context, eventID, id string, fn func(*models.Cue) error) (*models.Cue, error)
	UpdateAll(ctx context.Context, eventID string, fn func([]models.Cue) error) ([]models.Cue, error)
	Delete(ctx context.Context, eventID, id string) error
}

// EmergencyRepository defines the interface for emergency broadcast storage
type EmergencyRepository interface {
	Get(ctx context.Context, eventID string) (*models.EmergencyBroadcast, error)
	Put(ctx context.Context, broadcast *models.EmergencyBroadcast) error
	Clear(ctx context.Context, eventID string, fn func(*models.EmergencyBroadcast) error) (*models.EmergencyBroadcast, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
	Update(ctx context.Context, role models.Role, id string, fn func(*models.User) error) (*models.User, error)
	Count(ctx context.Context) (int, error)
}

// RegistrationRepository defines the interface for pending stage manager sign-ups
type RegistrationRepository interface {
	Add(ctx context.Context, reg *models.StageManagerRegistration) error
	List(ctx context.Context) ([]models.StageManagerRegistration, error)
	Take(ctx context.Context, id string) (*models.StageManagerRegistration, error)
	EmailPending(ctx context.Context, email string) (bool, error)
}

// JobRepository defines the interface for job data operations
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	Update(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id string) (*models.Job, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Job, error)
	GetPendingJobs(ctx context.Context) ([]*models.Job, error)
	MarkJobAsProcessing(ctx context.Context, jobID string) (bool, error)
	AddErrors(ctx context.Context, jobID string, errors []models.ValidationError) error
	GetErrors(ctx context.Context, jobID string, limit int) ([]models.ValidationError, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Event        EventRepository
	Artist       ArtistRepository
	Cue          CueRepository
	Emergency    EmergencyRepository
	User         UserRepository
	Registration RegistrationRepository
	Job          JobRepository
}

// New creates all repositories over the given document store
func New(store storage.DocumentStore) *Repositories {
	return &Repositories{
		Event:        NewEventRepo(store),
		Artist:       NewArtistRepo(store),
		Cue:          NewCueRepo(store),
		Emergency:    NewEmergencyRepo(store),
		User:         NewUserRepo(store),
		Registration: NewRegistrationRepo(store),
		Job:          NewJobRepo(store),
	}
}
