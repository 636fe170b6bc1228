package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/realtime"
	"github.com/fame-api/internal/repository"
	"github.com/fame-api/internal/storage"
	"github.com/fame-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// cueService is the concrete implementation of CueService
type cueService struct {
	repos     *repository.Repositories
	publisher realtime.Publisher
	status    *showOrderService
	log       zerolog.Logger
}

func newCueService(repos *repository.Repositories, publisher realtime.Publisher, log zerolog.Logger) *cueService {
	return &cueService{
		repos:     repos,
		publisher: publisher,
		status:    newShowOrderService(repos, publisher, log),
		log:       log.With().Str("service", "cue").Logger(),
	}
}

// Create validates and stores a cue
func (s *cueService) Create(ctx context.Context, eventID string, raw map[string]any) (*models.Cue, error) {
	event, err := s.repos.Event.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}
	if problems := validation.ValidateCue(raw); len(problems) > 0 {
		return nil, invalid(problems...)
	}

	cue := &models.Cue{PerformanceStatus: models.StatusNotStarted}
	if err := applyPatch(cue, raw); err != nil {
		return nil, err
	}
	if cue.PerformanceDate != nil && !event.HasShowDate(*cue.PerformanceDate) {
		return nil, invalid(fmt.Sprintf("performance_date %s is not a show date of this event", *cue.PerformanceDate))
	}

	ts := now()
	cue.ID = uuid.New().String()
	cue.EventID = eventID
	cue.Title = strings.TrimSpace(cue.Title)
	cue.CreatedAt = ts
	cue.UpdatedAt = ts

	if err := s.repos.Cue.Create(ctx, cue); err != nil {
		return nil, fmt.Errorf("failed to create cue: %w", err)
	}

	s.log.Info().Str("event_id", eventID).Str("cue_id", cue.ID).Str("type", string(cue.Type)).Msg("Cue created")
	publish(ctx, s.publisher, s.log, realtime.CueUpdated, eventID, cuePayload(cue, "created"))
	return cue, nil
}

// List returns the cues of an event ordered by running-order slot
func (s *cueService) List(ctx context.Context, eventID string) ([]models.Cue, error) {
	cues, err := s.repos.Cue.List(ctx, eventID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(cues, func(i, j int) bool {
		return orderKey(cues[i].PerformanceOrder) < orderKey(cues[j].PerformanceOrder)
	})
	return cues, nil
}

// Update applies a validated patch to a cue
func (s *cueService) Update(ctx context.Context, eventID, id string, raw map[string]any) (*models.Cue, error) {
	if problems := validation.ValidateCuePatch(raw); len(problems) > 0 {
		return nil, invalid(problems...)
	}

	event, err := s.repos.Event.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}
	patch, st, statusChange := takeStatus(raw)

	cue, err := s.repos.Cue.Update(ctx, eventID, id, func(c *models.Cue) error {
		if err := applyPatch(c, patch); err != nil {
			return err
		}
		if _, ok := patch["performance_date"]; ok && c.PerformanceDate != nil && !event.HasShowDate(*c.PerformanceDate) {
			return invalid(fmt.Sprintf("performance_date %s is not a show date of this event", *c.PerformanceDate))
		}
		c.UpdatedAt = now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if cue == nil {
		return nil, fmt.Errorf("cue %s: %w", id, ErrNotFound)
	}
	s.log.Info().Str("event_id", eventID).Str("cue_id", id).Msg("Cue updated")

	if statusChange {
		// UpdateStatus announces the change itself
		if _, err := s.status.UpdateStatus(ctx, eventID, models.ShowItemCue, id, st); err != nil {
			return nil, err
		}
		if cue, err = s.repos.Cue.GetByID(ctx, eventID, id); err != nil {
			return nil, err
		}
		if cue == nil {
			return nil, fmt.Errorf("cue %s: %w", id, ErrNotFound)
		}
		return cue, nil
	}

	publish(ctx, s.publisher, s.log, realtime.CueUpdated, eventID, cuePayload(cue, "updated"))
	return cue, nil
}

// Delete removes a cue
func (s *cueService) Delete(ctx context.Context, eventID, id string) error {
	err := s.repos.Cue.Delete(ctx, eventID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("cue %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}

	s.log.Info().Str("event_id", eventID).Str("cue_id", id).Msg("Cue deleted")
	publish(ctx, s.publisher, s.log, realtime.CueUpdated, eventID, map[string]any{
		"cue_id": id,
		"action": "deleted",
	})
	return nil
}

func cuePayload(c *models.Cue, action string) map[string]any {
	return map[string]any{
		"cue_id":             c.ID,
		"title":              c.Title,
		"type":               c.Type,
		"performance_status": c.PerformanceStatus,
		"performance_order":  c.PerformanceOrder,
		"action":             action,
	}
}

// orderKey sorts unassigned items after every assigned slot
func orderKey(order *int) int {
	if order == nil {
		return int(^uint(0) >> 1)
	}
	return *order
}
