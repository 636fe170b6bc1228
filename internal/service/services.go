package service

import (
	"context"
	"net/http"
	"time"

	"github.com/fame-api/internal/auth"
	"github.com/fame-api/internal/config"
	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/realtime"
	"github.com/fame-api/internal/repository"
	"github.com/fame-api/internal/storage"
	"github.com/rs/zerolog"
)

// AuthService defines the interface for accounts and sessions
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.User, string, time.Time, error)
	ParseSession(token string) (*auth.Session, error)
	RegisterStageManager(ctx context.Context, req *models.RegistrationRequest) (*models.StageManagerRegistration, error)
	ListPendingRegistrations(ctx context.Context) ([]models.StageManagerRegistration, error)
	ApproveRegistration(ctx context.Context, id string) (*models.User, error)
	RejectRegistration(ctx context.Context, id string) error
	CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
	EnsureSuperAdmin(ctx context.Context, email, password string) error
}

// EventService defines the interface for event management
type EventService interface {
	Create(ctx context.Context, raw map[string]any, createdBy string) (*models.Event, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
	Update(ctx context.Context, id string, raw map[string]any) (*models.Event, error)
	Delete(ctx context.Context, id string) error
}

// ArtistService defines the interface for artist registration and editing
type ArtistService interface {
	Register(ctx context.Context, eventID string, raw map[string]any) (*models.Artist, error)
	Get(ctx context.Context, eventID, id string, actor *auth.Session) (*models.Artist, error)
	List(ctx context.Context, eventID string, filter models.ArtistFilter) ([]models.Artist, error)
	Update(ctx context.Context, eventID, id string, raw map[string]any, actor *auth.Session) (*models.Artist, error)
	Delete(ctx context.Context, eventID, id string) error
	Assign(ctx context.Context, eventID, id string, req *models.AssignRequest) (*models.Artist, error)
}

// CueService defines the interface for cue management
type CueService interface {
	Create(ctx context.Context, eventID string, raw map[string]any) (*models.Cue, error)
	List(ctx context.Context, eventID string) ([]models.Cue, error)
	Update(ctx context.Context, eventID, id string, raw map[string]any) (*models.Cue, error)
	Delete(ctx context.Context, eventID, id string) error
}

// ShowOrderService defines the interface for the running order and live board
type ShowOrderService interface {
	Get(ctx context.Context, eventID, date string) (*models.ShowOrder, error)
	Reorder(ctx context.Context, eventID, date string, items []models.ShowItemRef) (*models.ShowOrder, error)
	UpdateStatus(ctx context.Context, eventID string, itemType models.ShowItemType, id string, status models.ArtistStatus) (*models.ShowItem, error)
	LiveBoard(ctx context.Context, eventID, date string) (*models.LiveBoard, error)
}

// EmergencyService defines the interface for emergency broadcasts
type EmergencyService interface {
	Broadcast(ctx context.Context, eventID, message string, code models.EmergencyCode, createdBy string) (*models.EmergencyBroadcast, error)
	Clear(ctx context.Context, eventID string) (*models.EmergencyBroadcast, error)
	Active(ctx context.Context, eventID string) (*models.EmergencyBroadcast, error)
}

// MediaService defines the interface for media upload and playback
type MediaService interface {
	Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error)
	Open(ctx context.Context, key string) (*storage.BlobObject, error)
}

// ImportService defines the interface for import operations
type ImportService interface {
	CreateImportJob(ctx context.Context, req *models.ImportRequest, filePath string) (*models.Job, error)
	ProcessImport(ctx context.Context, job *models.Job) error
}

// ExportService defines the interface for export operations
type ExportService interface {
	StreamLineup(ctx context.Context, w http.ResponseWriter, eventID, format string) error
}

// JobService defines the interface for job management
type JobService interface {
	StartProcessor(ctx context.Context)
	StopProcessor()
	GetJob(ctx context.Context, id string) (*models.JobResponse, error)
	GetJobByIdempotencyKey(ctx context.Context, key string) (*models.Job, error)
	GetJobErrors(ctx context.Context, id string) ([]models.ValidationError, error)
	SetImportService(importService ImportService)
}

// Services holds all service interfaces
type Services struct {
	Auth      AuthService
	Event     EventService
	Artist    ArtistService
	Cue       CueService
	ShowOrder ShowOrderService
	Emergency EmergencyService
	Media     MediaService
	Import    ImportService
	Export    ExportService
	Job       JobService
}

// NewServices creates all services
func NewServices(
	repos *repository.Repositories,
	media storage.BlobStore,
	publisher realtime.Publisher,
	sessions *auth.SessionManager,
	cfg *config.Config,
	log zerolog.Logger,
) *Services {
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}

	jobSvc := newJobService(repos.Job, cfg.Import, log)
	importSvc := newImportService(repos, publisher, cfg, log)
	exportSvc := newExportService(repos, log)

	// Wire up job processor to import service
	jobSvc.SetImportService(importSvc)

	return &Services{
		Auth:      newAuthService(repos, sessions, log),
		Event:     newEventService(repos, log),
		Artist:    newArtistService(repos, publisher, log),
		Cue:       newCueService(repos, publisher, log),
		ShowOrder: newShowOrderService(repos, publisher, log),
		Emergency: newEmergencyService(repos, publisher, log),
		Media:     newMediaService(repos, media, cfg, log),
		Import:    importSvc,
		Export:    exportSvc,
		Job:       jobSvc,
	}
}
