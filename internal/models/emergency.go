package models

import "time"

// EmergencyCode is the colour code shown with a broadcast
type EmergencyCode string

const (
	EmergencyRed    EmergencyCode = "red"
	EmergencyBlue   EmergencyCode = "blue"
	EmergencyGreen  EmergencyCode = "green"
	EmergencyYellow EmergencyCode = "yellow"
)

// ValidEmergencyCodes defines allowed colour codes
var ValidEmergencyCodes = map[EmergencyCode]bool{
	EmergencyRed:    true,
	EmergencyBlue:   true,
	EmergencyGreen:  true,
	EmergencyYellow: true,
}

// EmergencyBroadcast is a message pushed to every dashboard of an event
type EmergencyBroadcast struct {
	ID            string        `json:"id"`
	EventID       string        `json:"event_id"`
	Message       string        `json:"message"`
	EmergencyCode EmergencyCode `json:"emergency_code"`
	Active        bool          `json:"active"`
	CreatedBy     string        `json:"created_by,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	ClearedAt     *time.Time    `json:"cleared_at,omitempty"`
}
