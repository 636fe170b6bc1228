// Package realtime pushes state changes to connected dashboards over
// WebSockets and provides the Go client used by the live board.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// EventType names a push notification
type EventType string

const (
	ArtistRegistered    EventType = "artist_registered"
	ArtistAssigned      EventType = "artist_assigned"
	ArtistStatusChanged EventType = "artist_status_changed"
	CueUpdated          EventType = "cue_updated"
	ShowOrderUpdated    EventType = "show_order_updated"
	EmergencyAlert      EventType = "emergency_alert"
	EmergencyClear      EventType = "emergency_clear"
)

// Event is the envelope sent to WebSocket clients
type Event struct {
	Type      EventType       `json:"type"`
	EventID   string          `json:"event_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent builds an event with data encoded as JSON
func NewEvent(t EventType, eventID string, data any) (Event, error) {
	ev := Event{Type: t, EventID: eventID, Timestamp: time.Now().UTC()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, fmt.Errorf("encode %s payload: %w", t, err)
		}
		ev.Data = raw
	}
	return ev, nil
}

// Publisher delivers events to subscribers of an event room
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, ev Event) error { return nil }
