package models

import "time"

// CueType is the kind of non-artist show-order item
type CueType string

const (
	CueOpening       CueType = "opening"
	CueMCBreak       CueType = "mc_break"
	CueVideoBreak    CueType = "video_break"
	CueCleaningBreak CueType = "cleaning_break"
	CueSpeechBreak   CueType = "speech_break"
	CueIntermission  CueType = "intermission"
	CueCountdown     CueType = "countdown"
	CueAnnouncement  CueType = "announcement"
	CueClosing       CueType = "closing"
)

// ValidCueTypes defines allowed cue types
var ValidCueTypes = map[CueType]bool{
	CueOpening:       true,
	CueMCBreak:       true,
	CueVideoBreak:    true,
	CueCleaningBreak: true,
	CueSpeechBreak:   true,
	CueIntermission:  true,
	CueCountdown:     true,
	CueAnnouncement:  true,
	CueClosing:       true,
}

// Cue is a break, countdown, announcement or similar item in the show order
type Cue struct {
	ID                string       `json:"id"`
	EventID           string       `json:"event_id"`
	Type              CueType      `json:"type"`
	Title             string       `json:"title"`
	Duration          int          `json:"duration"` // minutes
	PerformanceOrder  *int         `json:"performance_order"`
	PerformanceDate   *string      `json:"performance_date"`
	PerformanceStatus ArtistStatus `json:"performance_status"`
	Notes             string       `json:"notes,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}
