package models

import "time"

// ShowItemType distinguishes artists from cues in the show order
type ShowItemType string

const (
	ShowItemArtist ShowItemType = "artist"
	ShowItemCue    ShowItemType = "cue"
)

// ShowItem is one row of the running order
type ShowItem struct {
	Type               ShowItemType  `json:"type"`
	ID                 string        `json:"id"`
	Title              string        `json:"title"`
	PerformanceOrder   int           `json:"performance_order"`
	PerformanceStatus  ArtistStatus  `json:"performance_status"`
	Duration           time.Duration `json:"-"`
	DurationSeconds    int           `json:"duration_seconds"`
	RehearsalCompleted bool          `json:"rehearsal_completed"`
}

// ShowItemRef identifies an item when reordering
type ShowItemRef struct {
	Type ShowItemType `json:"type"`
	ID   string       `json:"id"`
}

// TimelineEntry is a show item with its computed clock times
type TimelineEntry struct {
	ShowItem
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Start     string    `json:"start"` // HH:MM
	End       string    `json:"end"`   // HH:MM
}

// ConsistencyIssue is a problem found in a show order
type ConsistencyIssue struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Order   int    `json:"order,omitempty"`
	ItemID  string `json:"item_id,omitempty"`
}

// ShowOrder is the full running order of one show date
type ShowOrder struct {
	EventID          string             `json:"event_id"`
	Date             string             `json:"date"`
	Items            []ShowItem         `json:"items"`
	Timeline         []TimelineEntry    `json:"timeline"`
	TotalShowMinutes float64            `json:"total_show_minutes"`
	TotalShowTime    string             `json:"total_show_time"`
	Issues           []ConsistencyIssue `json:"issues"`
}

// LiveBoard is the now / next / on-deck view
type LiveBoard struct {
	EventID     string              `json:"event_id"`
	Date        string              `json:"date"`
	Current     *ShowItem           `json:"current"`
	NextOnStage *ShowItem           `json:"next_on_stage"`
	NextOnDeck  *ShowItem           `json:"next_on_deck"`
	Upcoming    []ShowItem          `json:"upcoming"`
	Completed   int                 `json:"completed"`
	Emergency   *EmergencyBroadcast `json:"emergency"`
	GeneratedAt time.Time           `json:"generated_at"`
}
