package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/repository"
	"github.com/fame-api/internal/storage"
	"github.com/fame-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Timing applied when an event is created without it
const (
	defaultShowStart           = "19:00"
	defaultPerformanceDuration = 5
)

// eventService is the concrete implementation of EventService
type eventService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

func newEventService(repos *repository.Repositories, log zerolog.Logger) *eventService {
	return &eventService{
		repos: repos,
		log:   log.With().Str("service", "event").Logger(),
	}
}

// Create validates and stores a new event
func (s *eventService) Create(ctx context.Context, raw map[string]any, createdBy string) (*models.Event, error) {
	if problems := validation.ValidateEvent(raw); len(problems) > 0 {
		return nil, invalid(problems...)
	}

	event := &models.Event{
		Timing: models.EventTiming{
			ShowStartTime:              defaultShowStart,
			DefaultPerformanceDuration: defaultPerformanceDuration,
		},
		Status: models.EventDraft,
	}
	if err := applyPatch(event, raw); err != nil {
		return nil, err
	}

	ts := now()
	event.ID = uuid.New().String()
	event.CreatedBy = createdBy
	event.CreatedAt = ts
	event.UpdatedAt = ts
	event.ShowDates = normalizeDates(event.ShowDates)

	if err := s.repos.Event.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.log.Info().Str("event_id", event.ID).Str("name", event.Name).Msg("Event created")
	return event, nil
}

// Get retrieves an event
func (s *eventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repos.Event.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return event, nil
}

// List returns all events, newest first
func (s *eventService) List(ctx context.Context) ([]*models.Event, error) {
	return s.repos.Event.List(ctx)
}

// Update applies a validated patch to an event
func (s *eventService) Update(ctx context.Context, id string, raw map[string]any) (*models.Event, error) {
	if problems := validation.ValidateEventPatch(raw); len(problems) > 0 {
		return nil, invalid(problems...)
	}

	event, err := s.repos.Event.Update(ctx, id, func(e *models.Event) error {
		if err := applyPatch(e, raw); err != nil {
			return err
		}
		e.ShowDates = normalizeDates(e.ShowDates)
		e.UpdatedAt = now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}

	s.log.Info().Str("event_id", id).Msg("Event updated")
	return event, nil
}

// Delete removes an event and everything stored under it
func (s *eventService) Delete(ctx context.Context, id string) error {
	err := s.repos.Event.Delete(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}
	s.log.Info().Str("event_id", id).Msg("Event deleted")
	return nil
}

// normalizeDates sorts show dates and drops duplicates
func normalizeDates(dates []string) []string {
	seen := make(map[string]bool, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}
