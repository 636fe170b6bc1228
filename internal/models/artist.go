package models

import (
	"time"
)

// ArtistStatus is the performance state of a show item on the live board
type ArtistStatus string

const (
	StatusNotStarted       ArtistStatus = "not_started"
	StatusNextOnDeck       ArtistStatus = "next_on_deck"
	StatusNextOnStage      ArtistStatus = "next_on_stage"
	StatusCurrentlyOnStage ArtistStatus = "currently_on_stage"
	StatusCompleted        ArtistStatus = "completed"
)

// ValidArtistStatuses defines allowed performance statuses
var ValidArtistStatuses = map[ArtistStatus]bool{
	StatusNotStarted:       true,
	StatusNextOnDeck:       true,
	StatusNextOnStage:      true,
	StatusCurrentlyOnStage: true,
	StatusCompleted:        true,
}

// Artist represents a registered performer for an event
type Artist struct {
	ID                  string            `json:"id"`
	EventID             string            `json:"event_id"`
	ArtistName          string            `json:"artist_name"`
	RealName            string            `json:"real_name,omitempty"`
	Email               string            `json:"email"`
	Phone               string            `json:"phone,omitempty"`
	Style               string            `json:"style,omitempty"`
	PerformanceType     string            `json:"performance_type,omitempty"`
	PerformanceDuration int               `json:"performance_duration"`      // minutes, stated by the artist
	ActualDuration      *int              `json:"actual_duration,omitempty"` // seconds, from the main track
	Biography           string            `json:"biography,omitempty"`
	CostumeColor        string            `json:"costume_color,omitempty"`
	LightColor          string            `json:"light_color,omitempty"`
	LightRequests       string            `json:"light_requests,omitempty"`
	StagePositionStart  string            `json:"stage_position_start,omitempty"`
	StagePositionEnd    string            `json:"stage_position_end,omitempty"`
	MCNotes             string            `json:"mc_notes,omitempty"`
	StageManagerNotes   string            `json:"stage_manager_notes,omitempty"`
	SocialMedia         map[string]string `json:"social_media,omitempty"`
	MusicTracks         []MusicTrack      `json:"music_tracks"`
	GalleryFiles        []MediaFile       `json:"gallery_files"`
	PerformanceStatus   ArtistStatus      `json:"performance_status"`
	PerformanceOrder    *int              `json:"performance_order"`
	PerformanceDate     *string           `json:"performance_date"`
	RehearsalCompleted  bool              `json:"rehearsal_completed"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// MusicTrack is an audio file attached to an artist
type MusicTrack struct {
	SongTitle   string `json:"song_title"`
	Duration    int    `json:"duration"` // seconds
	FileURL     string `json:"file_url,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	IsMainTrack bool   `json:"is_main_track"`
	Notes       string `json:"notes,omitempty"`
}

// MediaKind classifies uploaded media
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// MediaFile is an uploaded gallery item
type MediaFile struct {
	URL         string    `json:"url"`
	Name        string    `json:"name"`
	Type        MediaKind `json:"type"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// ArtistFilter narrows artist listings
type ArtistFilter struct {
	Status ArtistStatus
	Date   string
}

// AssignRequest sets an artist's performance slot
type AssignRequest struct {
	PerformanceDate  *string `json:"performance_date"`
	PerformanceOrder *int    `json:"performance_order"`
}
