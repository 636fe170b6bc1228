package mocks

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fame-api/internal/auth"
	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/service"
	"github.com/fame-api/internal/storage"
)

// MockAuthService is a mock implementation of AuthService. Sessions maps a
// bearer token to the session it stands for.
type MockAuthService struct {
	Sessions      map[string]*auth.Session
	Users         map[string]*models.User
	Passwords     map[string]string
	Registrations map[string]*models.StageManagerRegistration
	LoginFunc     func(ctx context.Context, email, password string) (*models.User, string, time.Time, error)
}

// Verify interface compliance
var _ service.AuthService = (*MockAuthService)(nil)

func NewMockAuthService() *MockAuthService {
	return &MockAuthService{
		Sessions:      make(map[string]*auth.Session),
		Users:         make(map[string]*models.User),
		Passwords:     make(map[string]string),
		Registrations: make(map[string]*models.StageManagerRegistration),
	}
}

// AddSession registers token as a valid session
func (m *MockAuthService) AddSession(token string, s *auth.Session) {
	m.Sessions[token] = s
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*models.User, string, time.Time, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	u, ok := m.Users[strings.ToLower(email)]
	if !ok || m.Passwords[u.Email] != password {
		return nil, "", time.Time{}, auth.ErrInvalidCredentials
	}
	token := "token-" + u.ID
	s := auth.SessionFor(u)
	m.Sessions[token] = &s
	pub := u.Public()
	return &pub, token, time.Now().Add(time.Hour), nil
}

func (m *MockAuthService) ParseSession(token string) (*auth.Session, error) {
	if s, ok := m.Sessions[token]; ok {
		return s, nil
	}
	return nil, auth.ErrInvalidSession
}

func (m *MockAuthService) RegisterStageManager(ctx context.Context, req *models.RegistrationRequest) (*models.StageManagerRegistration, error) {
	reg := &models.StageManagerRegistration{
		ID:          fmt.Sprintf("reg-%d", len(m.Registrations)+1),
		Name:        req.Name,
		Email:       req.Email,
		EventIDs:    req.EventIDs,
		RequestedAt: time.Now().UTC(),
	}
	m.Registrations[reg.ID] = reg
	return reg, nil
}

func (m *MockAuthService) ListPendingRegistrations(ctx context.Context) ([]models.StageManagerRegistration, error) {
	out := make([]models.StageManagerRegistration, 0, len(m.Registrations))
	for _, r := range m.Registrations {
		out = append(out, *r)
	}
	return out, nil
}

func (m *MockAuthService) ApproveRegistration(ctx context.Context, id string) (*models.User, error) {
	reg, ok := m.Registrations[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	delete(m.Registrations, id)
	u := &models.User{ID: "user-" + id, Email: reg.Email, Name: reg.Name, Role: models.RoleStageManager, Status: models.UserActive}
	m.Users[strings.ToLower(u.Email)] = u
	return u, nil
}

func (m *MockAuthService) RejectRegistration(ctx context.Context, id string) error {
	if _, ok := m.Registrations[id]; !ok {
		return service.ErrNotFound
	}
	delete(m.Registrations, id)
	return nil
}

func (m *MockAuthService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	if !models.ValidRoles[req.Role] {
		return nil, &service.ValidationError{Details: []string{"role is invalid"}}
	}
	u := &models.User{ID: fmt.Sprintf("user-%d", len(m.Users)+1), Email: req.Email, Name: req.Name, Role: req.Role, Status: models.UserActive}
	m.Users[strings.ToLower(u.Email)] = u
	m.Passwords[u.Email] = req.Password
	return u, nil
}

func (m *MockAuthService) EnsureSuperAdmin(ctx context.Context, email, password string) error {
	return nil
}

// MockEmergencyService is a mock implementation of EmergencyService
type MockEmergencyService struct {
	mu         sync.Mutex
	Broadcasts map[string]*models.EmergencyBroadcast
}

// Verify interface compliance
var _ service.EmergencyService = (*MockEmergencyService)(nil)

func NewMockEmergencyService() *MockEmergencyService {
	return &MockEmergencyService{Broadcasts: make(map[string]*models.EmergencyBroadcast)}
}

func (m *MockEmergencyService) Broadcast(ctx context.Context, eventID, message string, code models.EmergencyCode, createdBy string) (*models.EmergencyBroadcast, error) {
	if strings.TrimSpace(message) == "" || !models.ValidEmergencyCodes[code] {
		return nil, &service.ValidationError{Details: []string{"message and a valid emergency_code are required"}}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b := &models.EmergencyBroadcast{
		ID:            "em-" + eventID,
		EventID:       eventID,
		Message:       message,
		EmergencyCode: code,
		Active:        true,
		CreatedBy:     createdBy,
		CreatedAt:     time.Now().UTC(),
	}
	m.Broadcasts[eventID] = b
	return b, nil
}

func (m *MockEmergencyService) Clear(ctx context.Context, eventID string) (*models.EmergencyBroadcast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Broadcasts[eventID]
	if !ok || !b.Active {
		return nil, service.ErrNotFound
	}
	cleared := *b
	cleared.Active = false
	m.Broadcasts[eventID] = &cleared
	return &cleared, nil
}

func (m *MockEmergencyService) Active(ctx context.Context, eventID string) (*models.EmergencyBroadcast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.Broadcasts[eventID]; ok && b.Active {
		return b, nil
	}
	return nil, nil
}

// MockMediaService is a mock implementation of MediaService. Uploads are
// recorded; Open serves nothing unless OpenFunc is set.
type MockMediaService struct {
	UploadFunc func(ctx context.Context, req *service.UploadRequest) (*service.UploadResult, error)
	OpenFunc   func(ctx context.Context, key string) (*storage.BlobObject, error)
	Uploads    []*service.UploadRequest
}

// Verify interface compliance
var _ service.MediaService = (*MockMediaService)(nil)

func NewMockMediaService() *MockMediaService {
	return &MockMediaService{}
}

func (m *MockMediaService) Upload(ctx context.Context, req *service.UploadRequest) (*service.UploadResult, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, req)
	}
	m.Uploads = append(m.Uploads, req)
	key := fmt.Sprintf("media/%s/%s/%s", req.EventID, req.ArtistID, req.FileName)
	return &service.UploadResult{Key: key, URL: "/api/media/" + key, Kind: models.MediaImage}, nil
}

func (m *MockMediaService) Open(ctx context.Context, key string) (*storage.BlobObject, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, key)
	}
	return nil, service.ErrNotFound
}

// MockImportService is a mock implementation of ImportService
type MockImportService struct {
	CreateJobFunc func(ctx context.Context, req *models.ImportRequest, filePath string) (*models.Job, error)
	ProcessFunc   func(ctx context.Context, job *models.Job) error
	ProcessedJobs []*models.Job
	CreatedJobs   []*models.Job
}

// Verify interface compliance
var _ service.ImportService = (*MockImportService)(nil)

func NewMockImportService() *MockImportService {
	return &MockImportService{
		ProcessedJobs: make([]*models.Job, 0),
		CreatedJobs:   make([]*models.Job, 0),
	}
}

func (m *MockImportService) CreateImportJob(ctx context.Context, req *models.ImportRequest, filePath string) (*models.Job, error) {
	if m.CreateJobFunc != nil {
		return m.CreateJobFunc(ctx, req, filePath)
	}
	job := &models.Job{
		ID:             "test-job-id",
		EventID:        req.EventID,
		Format:         req.Format,
		Status:         models.JobStatusPending,
		IdempotencyKey: req.IdempotencyKey,
		FilePath:       filePath,
	}
	m.CreatedJobs = append(m.CreatedJobs, job)
	return job, nil
}

func (m *MockImportService) ProcessImport(ctx context.Context, job *models.Job) error {
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, job)
	}
	m.ProcessedJobs = append(m.ProcessedJobs, job)
	job.Status = models.JobStatusCompleted
	return nil
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	StreamLineupFunc func(ctx context.Context, w http.ResponseWriter, eventID, format string) error
	Calls            []string
}

// Verify interface compliance
var _ service.ExportService = (*MockExportService)(nil)

func NewMockExportService() *MockExportService {
	return &MockExportService{}
}

func (m *MockExportService) StreamLineup(ctx context.Context, w http.ResponseWriter, eventID, format string) error {
	m.Calls = append(m.Calls, eventID+":"+format)
	if m.StreamLineupFunc != nil {
		return m.StreamLineupFunc(ctx, w, eventID, format)
	}
	return nil
}

// MockJobService is a mock implementation of JobService
type MockJobService struct {
	Jobs          map[string]*models.JobResponse
	Errors        map[string][]models.ValidationError
	ImportService service.ImportService
}

// Verify interface compliance
var _ service.JobService = (*MockJobService)(nil)

func NewMockJobService() *MockJobService {
	return &MockJobService{
		Jobs:   make(map[string]*models.JobResponse),
		Errors: make(map[string][]models.ValidationError),
	}
}

func (m *MockJobService) StartProcessor(ctx context.Context) {}

func (m *MockJobService) StopProcessor() {}

func (m *MockJobService) GetJob(ctx context.Context, id string) (*models.JobResponse, error) {
	job, ok := m.Jobs[id]
	if !ok {
		return nil, fmt.Errorf("import job %s: %w", id, service.ErrNotFound)
	}
	return job, nil
}

func (m *MockJobService) GetJobByIdempotencyKey(ctx context.Context, key string) (*models.Job, error) {
	for _, job := range m.Jobs {
		if job.IdempotencyKey == key {
			return &job.Job, nil
		}
	}
	return nil, nil
}

func (m *MockJobService) GetJobErrors(ctx context.Context, id string) ([]models.ValidationError, error) {
	if _, ok := m.Jobs[id]; !ok {
		return nil, fmt.Errorf("import job %s: %w", id, service.ErrNotFound)
	}
	return m.Errors[id], nil
}

func (m *MockJobService) SetImportService(importService service.ImportService) {
	m.ImportService = importService
}
