package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fame-api/internal/auth"
	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/realtime"
	"github.com/fame-api/internal/repository"
	"github.com/fame-api/internal/status"
	"github.com/fame-api/internal/storage"
	"github.com/fame-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// staffOnlyArtistFields may only be set by stage managers and above
var staffOnlyArtistFields = []string{
	"performance_order", "performance_date", "performance_status",
	"rehearsal_completed", "stage_manager_notes",
}

// artistService is the concrete implementation of ArtistService
type artistService struct {
	repos     *repository.Repositories
	publisher realtime.Publisher
	status    *showOrderService
	log       zerolog.Logger
}

func newArtistService(repos *repository.Repositories, publisher realtime.Publisher, log zerolog.Logger) *artistService {
	return &artistService{
		repos:     repos,
		publisher: publisher,
		status:    newShowOrderService(repos, publisher, log),
		log:       log.With().Str("service", "artist").Logger(),
	}
}

// Register stores a public artist registration
func (s *artistService) Register(ctx context.Context, eventID string, raw map[string]any) (*models.Artist, error) {
	if _, err := s.event(ctx, eventID); err != nil {
		return nil, err
	}
	if problems := validation.ValidateArtist(raw); len(problems) > 0 {
		return nil, invalid(problems...)
	}

	clean := withoutFields(raw, staffOnlyArtistFields)
	artist := &models.Artist{}
	if err := applyPatch(artist, clean); err != nil {
		return nil, err
	}

	ts := now()
	artist.ID = uuid.New().String()
	artist.EventID = eventID
	artist.Email = strings.TrimSpace(artist.Email)
	artist.ArtistName = strings.TrimSpace(artist.ArtistName)
	artist.PerformanceStatus = models.StatusNotStarted
	artist.CreatedAt = ts
	artist.UpdatedAt = ts
	if artist.MusicTracks == nil {
		artist.MusicTracks = []models.MusicTrack{}
	}
	if artist.GalleryFiles == nil {
		artist.GalleryFiles = []models.MediaFile{}
	}

	if err := s.repos.Artist.Create(ctx, artist); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("an artist with this email is already registered: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to register artist: %w", err)
	}

	s.log.Info().Str("event_id", eventID).Str("artist_id", artist.ID).Msg("Artist registered")
	publish(ctx, s.publisher, s.log, realtime.ArtistRegistered, eventID, map[string]any{
		"artist_id":   artist.ID,
		"artist_name": artist.ArtistName,
	})
	return artist, nil
}

// Get retrieves an artist. Artists may only read their own record.
func (s *artistService) Get(ctx context.Context, eventID, id string, actor *auth.Session) (*models.Artist, error) {
	artist, err := s.repos.Artist.GetByID(ctx, eventID, id)
	if err != nil {
		return nil, err
	}
	if artist == nil {
		return nil, fmt.Errorf("artist %s: %w", id, ErrNotFound)
	}
	if !canViewArtist(actor, artist) {
		return nil, ErrForbidden
	}
	return artist, nil
}

// List returns the artists of an event, optionally narrowed by status or date
func (s *artistService) List(ctx context.Context, eventID string, filter models.ArtistFilter) ([]models.Artist, error) {
	if _, err := s.event(ctx, eventID); err != nil {
		return nil, err
	}
	artists, err := s.repos.Artist.List(ctx, eventID)
	if err != nil {
		return nil, err
	}

	out := make([]models.Artist, 0, len(artists))
	for _, a := range artists {
		if filter.Status != "" && status.Normalize(a.PerformanceStatus) != filter.Status {
			continue
		}
		if filter.Date != "" && (a.PerformanceDate == nil || *a.PerformanceDate != filter.Date) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Update applies a validated patch. Artists may edit their own profile but
// not the fields that control the show.
func (s *artistService) Update(ctx context.Context, eventID, id string, raw map[string]any, actor *auth.Session) (*models.Artist, error) {
	if problems := validation.ValidateArtistPatch(raw); len(problems) > 0 {
		return nil, invalid(problems...)
	}

	staff := actor != nil && auth.HasRole(actor.Role, models.RoleStageManager)
	if !staff {
		for _, f := range staffOnlyArtistFields {
			if _, ok := raw[f]; ok {
				return nil, fmt.Errorf("%s can only be changed by a stage manager: %w", f, ErrForbidden)
			}
		}
	}

	patch, st, statusChange := takeStatus(raw)

	artist, err := s.repos.Artist.Update(ctx, eventID, id, func(a *models.Artist) error {
		if !staff && !ownsArtist(actor, a) {
			return ErrForbidden
		}
		if email, ok := patch["email"].(string); ok && !strings.EqualFold(strings.TrimSpace(email), a.Email) {
			return invalid("email cannot be changed")
		}
		if err := applyPatch(a, patch); err != nil {
			return err
		}
		a.UpdatedAt = now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if artist == nil {
		return nil, fmt.Errorf("artist %s: %w", id, ErrNotFound)
	}
	s.log.Info().Str("event_id", eventID).Str("artist_id", id).Msg("Artist updated")

	if statusChange {
		if _, err := s.status.UpdateStatus(ctx, eventID, models.ShowItemArtist, id, st); err != nil {
			return nil, err
		}
		if artist, err = s.repos.Artist.GetByID(ctx, eventID, id); err != nil {
			return nil, err
		}
		if artist == nil {
			return nil, fmt.Errorf("artist %s: %w", id, ErrNotFound)
		}
	} else if _, ok := patch["performance_order"]; ok {
		publish(ctx, s.publisher, s.log, realtime.ArtistAssigned, eventID, artistPayload(artist))
	}
	return artist, nil
}

// Delete removes an artist
func (s *artistService) Delete(ctx context.Context, eventID, id string) error {
	err := s.repos.Artist.Delete(ctx, eventID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("artist %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}
	s.log.Info().Str("event_id", eventID).Str("artist_id", id).Msg("Artist deleted")
	return nil
}

// Assign sets or clears an artist's show date and running-order slot
func (s *artistService) Assign(ctx context.Context, eventID, id string, req *models.AssignRequest) (*models.Artist, error) {
	event, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}

	var problems []string
	if req.PerformanceDate != nil && !event.HasShowDate(*req.PerformanceDate) {
		problems = append(problems, fmt.Sprintf("performance_date %s is not a show date of this event", *req.PerformanceDate))
	}
	if req.PerformanceOrder != nil && *req.PerformanceOrder < 1 {
		problems = append(problems, "performance_order must be a positive integer or null")
	}
	if req.PerformanceOrder != nil && req.PerformanceDate == nil {
		problems = append(problems, "performance_date is required when assigning a performance_order")
	}
	if len(problems) > 0 {
		return nil, invalid(problems...)
	}

	artist, err := s.repos.Artist.Update(ctx, eventID, id, func(a *models.Artist) error {
		a.PerformanceDate = req.PerformanceDate
		a.PerformanceOrder = req.PerformanceOrder
		a.UpdatedAt = now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if artist == nil {
		return nil, fmt.Errorf("artist %s: %w", id, ErrNotFound)
	}

	s.log.Info().
		Str("event_id", eventID).
		Str("artist_id", id).
		Interface("performance_order", artist.PerformanceOrder).
		Msg("Artist assigned")
	publish(ctx, s.publisher, s.log, realtime.ArtistAssigned, eventID, artistPayload(artist))
	return artist, nil
}

func (s *artistService) event(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.repos.Event.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}
	return event, nil
}

func artistPayload(a *models.Artist) map[string]any {
	return map[string]any{
		"artist_id":          a.ID,
		"artist_name":        a.ArtistName,
		"performance_status": a.PerformanceStatus,
		"performance_order":  a.PerformanceOrder,
		"performance_date":   a.PerformanceDate,
	}
}

func ownsArtist(actor *auth.Session, a *models.Artist) bool {
	return actor != nil && strings.EqualFold(actor.Email, a.Email)
}

func canViewArtist(actor *auth.Session, a *models.Artist) bool {
	if actor == nil {
		return false
	}
	if auth.HasRole(actor.Role, models.RoleDJ) {
		return auth.CanAccessEvent(actor, a.EventID)
	}
	return ownsArtist(actor, a)
}

func withoutFields(raw map[string]any, fields []string) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	for _, f := range fields {
		delete(out, f)
	}
	return out
}
