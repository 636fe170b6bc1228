package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/realtime"
	"github.com/fame-api/internal/repository"
	"github.com/fame-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// emergencyService is the concrete implementation of EmergencyService
type emergencyService struct {
	repos     *repository.Repositories
	publisher realtime.Publisher
	log       zerolog.Logger
}

func newEmergencyService(repos *repository.Repositories, publisher realtime.Publisher, log zerolog.Logger) *emergencyService {
	return &emergencyService{
		repos:     repos,
		publisher: publisher,
		log:       log.With().Str("service", "emergency").Logger(),
	}
}

// Broadcast replaces the event's emergency message and alerts every dashboard
func (s *emergencyService) Broadcast(ctx context.Context, eventID, message string, code models.EmergencyCode, createdBy string) (*models.EmergencyBroadcast, error) {
	if problems := validation.ValidateEmergency(message, code); len(problems) > 0 {
		return nil, invalid(problems...)
	}
	event, err := s.repos.Event.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}

	b := &models.EmergencyBroadcast{
		ID:            uuid.New().String(),
		EventID:       eventID,
		Message:       strings.TrimSpace(message),
		EmergencyCode: code,
		Active:        true,
		CreatedBy:     createdBy,
		CreatedAt:     now(),
	}
	if err := s.repos.Emergency.Put(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to store emergency broadcast: %w", err)
	}

	s.log.Warn().Str("event_id", eventID).Str("code", string(code)).Msg("Emergency broadcast sent")
	publish(ctx, s.publisher, s.log, realtime.EmergencyAlert, eventID, b)
	return b, nil
}

// Clear deactivates the current broadcast
func (s *emergencyService) Clear(ctx context.Context, eventID string) (*models.EmergencyBroadcast, error) {
	b, err := s.repos.Emergency.Clear(ctx, eventID, func(b *models.EmergencyBroadcast) error {
		if !b.Active {
			return fmt.Errorf("no active emergency: %w", ErrNotFound)
		}
		ts := now()
		b.Active = false
		b.ClearedAt = &ts
		return nil
	})
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("no active emergency: %w", ErrNotFound)
	}

	s.log.Info().Str("event_id", eventID).Msg("Emergency cleared")
	publish(ctx, s.publisher, s.log, realtime.EmergencyClear, eventID, map[string]any{"id": b.ID})
	return b, nil
}

// Active returns the active broadcast, or nil when there is none
func (s *emergencyService) Active(ctx context.Context, eventID string) (*models.EmergencyBroadcast, error) {
	b, err := s.repos.Emergency.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if b == nil || !b.Active {
		return nil, nil
	}
	return b, nil
}
