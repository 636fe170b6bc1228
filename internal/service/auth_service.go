package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fame-api/internal/auth"
	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/repository"
	"github.com/fame-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// authService is the concrete implementation of AuthService
type authService struct {
	repos    *repository.Repositories
	sessions *auth.SessionManager
	log      zerolog.Logger
}

func newAuthService(repos *repository.Repositories, sessions *auth.SessionManager, log zerolog.Logger) *authService {
	return &authService{
		repos:    repos,
		sessions: sessions,
		log:      log.With().Str("service", "auth").Logger(),
	}
}

// Login checks credentials and issues a session token
func (s *authService) Login(ctx context.Context, email, password string) (*models.User, string, time.Time, error) {
	user, err := s.repos.User.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	hash := ""
	if user != nil {
		hash = user.PasswordHash
	}
	if err := auth.CheckPassword(hash, password); err != nil {
		s.log.Info().Str("email", email).Msg("Failed login attempt")
		return nil, "", time.Time{}, err
	}
	if user.Status != models.UserActive {
		return nil, "", time.Time{}, fmt.Errorf("account is %s: %w", user.Status, ErrForbidden)
	}

	token, expires, err := s.sessions.Issue(auth.SessionFor(user))
	if err != nil {
		return nil, "", time.Time{}, err
	}

	loginAt := now()
	if _, err := s.repos.User.Update(ctx, user.Role, user.ID, func(u *models.User) error {
		u.LastLoginAt = &loginAt
		return nil
	}); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to record last login")
	}
	user.LastLoginAt = &loginAt

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("User logged in")
	public := user.Public()
	return &public, token, expires, nil
}

// ParseSession verifies a session token
func (s *authService) ParseSession(token string) (*auth.Session, error) {
	return s.sessions.Parse(token)
}

// RegisterStageManager queues a stage manager sign-up for approval
func (s *authService) RegisterStageManager(ctx context.Context, req *models.RegistrationRequest) (*models.StageManagerRegistration, error) {
	email := strings.TrimSpace(req.Email)
	var problems []string
	if strings.TrimSpace(req.Name) == "" {
		problems = append(problems, "name is required")
	}
	if !validation.ValidEmail(email) {
		problems = append(problems, "email must be a valid email address")
	}
	if len(req.Password) < auth.MinPasswordLength {
		problems = append(problems, auth.ErrWeakPassword.Error())
	}
	if len(problems) > 0 {
		return nil, invalid(problems...)
	}

	existing, err := s.repos.User.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("an account with this email already exists: %w", ErrConflict)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	reg := &models.StageManagerRegistration{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		EventIDs:     req.EventIDs,
		RequestedAt:  now(),
	}
	if err := s.repos.Registration.Add(ctx, reg); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("a registration for this email is already pending: %w", ErrConflict)
		}
		return nil, err
	}

	s.log.Info().Str("registration_id", reg.ID).Str("email", email).Msg("Stage manager registration received")
	reg.PasswordHash = ""
	return reg, nil
}

// ListPendingRegistrations returns sign-ups awaiting approval
func (s *authService) ListPendingRegistrations(ctx context.Context) ([]models.StageManagerRegistration, error) {
	list, err := s.repos.Registration.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.StageManagerRegistration, len(list))
	for i, r := range list {
		r.PasswordHash = ""
		out[i] = r
	}
	return out, nil
}

// ApproveRegistration turns a pending sign-up into an active stage manager
func (s *authService) ApproveRegistration(ctx context.Context, id string) (*models.User, error) {
	reg, err := s.repos.Registration.Take(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, fmt.Errorf("registration %s: %w", id, ErrNotFound)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        reg.Email,
		Name:         reg.Name,
		PasswordHash: reg.PasswordHash,
		Role:         models.RoleStageManager,
		Status:       models.UserActive,
		EventIDs:     reg.EventIDs,
		CreatedAt:    now(),
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		// put the registration back so the approval can be retried
		if addErr := s.repos.Registration.Add(ctx, reg); addErr != nil {
			s.log.Error().Err(addErr).Str("registration_id", id).Msg("Failed to restore registration")
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("an account with this email already exists: %w", ErrConflict)
		}
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("registration_id", id).Msg("Stage manager approved")
	public := user.Public()
	return &public, nil
}

// RejectRegistration discards a pending sign-up
func (s *authService) RejectRegistration(ctx context.Context, id string) error {
	reg, err := s.repos.Registration.Take(ctx, id)
	if err != nil {
		return err
	}
	if reg == nil {
		return fmt.Errorf("registration %s: %w", id, ErrNotFound)
	}
	s.log.Info().Str("registration_id", id).Msg("Stage manager registration rejected")
	return nil
}

// CreateUser creates an active account directly
func (s *authService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	email := strings.TrimSpace(req.Email)
	var problems []string
	if strings.TrimSpace(req.Name) == "" {
		problems = append(problems, "name is required")
	}
	if !validation.ValidEmail(email) {
		problems = append(problems, "email must be a valid email address")
	}
	if !models.ValidRoles[req.Role] {
		problems = append(problems, "role must be one of: super_admin, stage_manager, dj, artist")
	}
	if len(req.Password) < auth.MinPasswordLength {
		problems = append(problems, auth.ErrWeakPassword.Error())
	}
	if len(problems) > 0 {
		return nil, invalid(problems...)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         req.Role,
		Status:       models.UserActive,
		EventIDs:     req.EventIDs,
		CreatedAt:    now(),
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("an account with this email already exists: %w", ErrConflict)
		}
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("User created")
	public := user.Public()
	return &public, nil
}

// EnsureSuperAdmin creates the bootstrap super admin when no account uses
// the email yet
func (s *authService) EnsureSuperAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	existing, err := s.repos.User.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	_, err = s.CreateUser(ctx, &models.CreateUserRequest{
		Email:    email,
		Name:     "Super Admin",
		Password: password,
		Role:     models.RoleSuperAdmin,
	})
	if err == nil {
		s.log.Info().Str("email", email).Msg("Bootstrap super admin created")
	}
	return err
}
