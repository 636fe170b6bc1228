package models

import "time"

// EventStatus is the lifecycle state of an event
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventActive    EventStatus = "active"
	EventCompleted EventStatus = "completed"
)

// Event is a festival or show with one or more show dates
type Event struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Venue       string      `json:"venue"`
	Description string      `json:"description,omitempty"`
	ShowDates   []string    `json:"show_dates"`
	Timing      EventTiming `json:"timing"`
	Status      EventStatus `json:"status"`
	CreatedBy   string      `json:"created_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// EventTiming holds the running-order settings of an event
type EventTiming struct {
	ShowStartTime              string `json:"show_start_time"`              // HH:MM, venue local time
	DefaultPerformanceDuration int    `json:"default_performance_duration"` // minutes
	BufferBetweenActs          int    `json:"buffer_between_acts"`          // minutes
}

// HasShowDate reports whether date is one of the event's show dates
func (e *Event) HasShowDate(date string) bool {
	for _, d := range e.ShowDates {
		if d == date {
			return true
		}
	}
	return false
}
