package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/realtime"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned when the addressed record does not exist
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller may not perform the operation
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when the operation clashes with existing data
	ErrConflict = errors.New("conflict")
)

// ValidationError carries the human-readable problems found in a request
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Details, "; ")
}

func invalid(details ...string) error {
	return &ValidationError{Details: details}
}

// immutableFields are never taken from client patches
var immutableFields = []string{"id", "event_id", "created_at", "updated_at", "created_by"}

// applyPatch merges the keys present in raw onto dst. raw must already be
// validated.
func applyPatch(dst any, raw map[string]any) error {
	clean := make(map[string]any, len(raw))
	for k, v := range raw {
		clean[k] = v
	}
	for _, f := range immutableFields {
		delete(clean, f)
	}
	body, err := json.Marshal(clean)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return invalid(fmt.Sprintf("patch does not fit record: %v", err))
	}
	return nil
}

// takeStatus splits performance_status off a validated patch. Status changes
// go through the show order so that only one item is ever on stage.
func takeStatus(raw map[string]any) (map[string]any, models.ArtistStatus, bool) {
	v, ok := raw["performance_status"].(string)
	if !ok {
		return raw, "", false
	}
	rest := make(map[string]any, len(raw))
	for k, val := range raw {
		if k != "performance_status" {
			rest[k] = val
		}
	}
	return rest, models.ArtistStatus(v), true
}

func now() time.Time {
	return time.Now().UTC()
}

// publish sends a realtime event. Delivery problems are logged, never
// returned: the write that triggered the event has already succeeded.
func publish(ctx context.Context, p realtime.Publisher, log zerolog.Logger, t realtime.EventType, eventID string, data any) {
	ev, err := realtime.NewEvent(t, eventID, data)
	if err != nil {
		log.Warn().Err(err).Str("type", string(t)).Msg("Failed to build realtime event")
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("type", string(t)).Str("event_id", eventID).Msg("Failed to publish realtime event")
	}
}
