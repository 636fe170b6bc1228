package validation

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/fame-api/internal/models"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

const (
	MinPerformanceMinutes = 1
	MaxPerformanceMinutes = 60
	MinCueMinutes         = 1
	MaxCueMinutes         = 180
	MaxEmergencyMessage   = 500
)

// Issue kinds reported by CheckShowOrderConsistency
const (
	IssueDuplicateOrder  = "duplicate_order"
	IssueOrderGap        = "order_gap"
	IssueMultipleOnStage = "multiple_on_stage"
	IssueNotRehearsed    = "not_rehearsed"
)

// optional free-text artist fields; only their type is checked
var artistStringFields = []string{
	"real_name", "phone", "style", "performance_type", "biography",
	"costume_color", "light_color", "light_requests", "stage_position_start",
	"stage_position_end", "mc_notes", "stage_manager_notes",
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Messages flattens errors to their human-readable messages
func Messages(errs []ValidationError) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Message
	}
	return out
}

// ValidEmail reports whether s looks like an email address
func ValidEmail(s string) bool {
	return emailRegex.MatchString(strings.TrimSpace(s))
}

// ValidateArtist checks a full artist registration
func ValidateArtist(raw map[string]any) []string {
	return Messages(checkArtist(raw, true))
}

// ValidateArtistPatch checks a partial artist update. Nothing is required but
// every present field must have the right type and range.
func ValidateArtistPatch(raw map[string]any) []string {
	return Messages(checkArtist(raw, false))
}

// ValidateCue checks a new cue
func ValidateCue(raw map[string]any) []string {
	return Messages(checkCue(raw, true))
}

// ValidateCuePatch checks a partial cue update
func ValidateCuePatch(raw map[string]any) []string {
	return Messages(checkCue(raw, false))
}

// ValidateEvent checks a new event
func ValidateEvent(raw map[string]any) []string {
	return Messages(checkEvent(raw, true))
}

// ValidateEventPatch checks a partial event update
func ValidateEventPatch(raw map[string]any) []string {
	return Messages(checkEvent(raw, false))
}

// ValidateEmergency checks a broadcast message and colour code
func ValidateEmergency(message string, code models.EmergencyCode) []string {
	var errors []string
	msg := strings.TrimSpace(message)
	if msg == "" {
		errors = append(errors, "message is required")
	} else if len(msg) > MaxEmergencyMessage {
		errors = append(errors, fmt.Sprintf("message must be at most %d characters", MaxEmergencyMessage))
	}
	if !models.ValidEmergencyCodes[code] {
		errors = append(errors, "emergency_code must be one of: red, blue, green, yellow")
	}
	return errors
}

func checkArtist(raw map[string]any, full bool) []ValidationError {
	var errors []ValidationError

	// Validate artist_name
	errors = append(errors, checkRequiredString(raw, "artist_name", full)...)

	// Validate email
	if v, ok := raw["email"]; ok {
		s, isStr := v.(string)
		if !isStr {
			errors = append(errors, ValidationError{Field: "email", Message: "email must be a string", Value: v})
		} else if !emailRegex.MatchString(strings.TrimSpace(s)) {
			errors = append(errors, ValidationError{Field: "email", Message: "email must be a valid email address", Value: s})
		}
	} else if full {
		errors = append(errors, ValidationError{Field: "email", Message: "email is required"})
	}

	// Validate performance_duration (minutes)
	if v, ok := raw["performance_duration"]; ok {
		errors = append(errors, checkRange(v, "performance_duration", MinPerformanceMinutes, MaxPerformanceMinutes, "minutes")...)
	} else if full {
		errors = append(errors, ValidationError{Field: "performance_duration", Message: "performance_duration is required"})
	}

	// Validate actual_duration (seconds)
	if v, ok := raw["actual_duration"]; ok && v != nil {
		if n, isNum := toNumber(v); !isNum {
			errors = append(errors, ValidationError{Field: "actual_duration", Message: "actual_duration must be a number", Value: v})
		} else if n != math.Trunc(n) {
			errors = append(errors, ValidationError{Field: "actual_duration", Message: "actual_duration must be a whole number of seconds", Value: v})
		} else if n < 0 {
			errors = append(errors, ValidationError{Field: "actual_duration", Message: "actual_duration must not be negative", Value: v})
		}
	}

	errors = append(errors, checkShowFields(raw)...)

	// Validate music_tracks
	if v, ok := raw["music_tracks"]; ok && v != nil {
		tracks, isArr := v.([]any)
		if !isArr {
			errors = append(errors, ValidationError{Field: "music_tracks", Message: "music_tracks must be an array"})
		} else {
			for i, t := range tracks {
				errors = append(errors, checkTrack(i, t)...)
			}
		}
	}

	if v, ok := raw["rehearsal_completed"]; ok {
		if _, isBool := v.(bool); !isBool {
			errors = append(errors, ValidationError{Field: "rehearsal_completed", Message: "rehearsal_completed must be a boolean", Value: v})
		}
	}

	if v, ok := raw["social_media"]; ok && v != nil {
		if _, isObj := v.(map[string]any); !isObj {
			errors = append(errors, ValidationError{Field: "social_media", Message: "social_media must be an object"})
		}
	}

	for _, field := range artistStringFields {
		if v, ok := raw[field]; ok && v != nil {
			if _, isStr := v.(string); !isStr {
				errors = append(errors, ValidationError{Field: field, Message: field + " must be a string", Value: v})
			}
		}
	}

	return errors
}

func checkTrack(i int, t any) []ValidationError {
	field := fmt.Sprintf("music_tracks[%d]", i)
	track, ok := t.(map[string]any)
	if !ok {
		return []ValidationError{{Field: field, Message: field + " must be an object"}}
	}

	var errors []ValidationError
	if title, ok := track["song_title"].(string); !ok || strings.TrimSpace(title) == "" {
		errors = append(errors, ValidationError{Field: field + ".song_title", Message: field + ".song_title must be a non-empty string"})
	}
	if d, ok := track["duration"]; ok && d != nil {
		if n, isNum := toNumber(d); !isNum || n < 0 {
			errors = append(errors, ValidationError{Field: field + ".duration", Message: field + ".duration must be a non-negative number", Value: d})
		} else if n != math.Trunc(n) {
			errors = append(errors, ValidationError{Field: field + ".duration", Message: field + ".duration must be a whole number of seconds", Value: d})
		}
	}
	if m, ok := track["is_main_track"]; ok {
		if _, isBool := m.(bool); !isBool {
			errors = append(errors, ValidationError{Field: field + ".is_main_track", Message: field + ".is_main_track must be a boolean", Value: m})
		}
	}
	return errors
}

func checkCue(raw map[string]any, full bool) []ValidationError {
	var errors []ValidationError

	// Validate type
	if v, ok := raw["type"]; ok {
		s, _ := v.(string)
		if !models.ValidCueTypes[models.CueType(s)] {
			errors = append(errors, ValidationError{
				Field:   "type",
				Message: "type must be one of: opening, mc_break, video_break, cleaning_break, speech_break, intermission, countdown, announcement, closing",
				Value:   v,
			})
		}
	} else if full {
		errors = append(errors, ValidationError{Field: "type", Message: "type is required"})
	}

	errors = append(errors, checkRequiredString(raw, "title", full)...)

	// Validate duration (minutes)
	if v, ok := raw["duration"]; ok {
		errors = append(errors, checkRange(v, "duration", MinCueMinutes, MaxCueMinutes, "minutes")...)
	} else if full {
		errors = append(errors, ValidationError{Field: "duration", Message: "duration is required"})
	}

	errors = append(errors, checkShowFields(raw)...)

	if v, ok := raw["notes"]; ok && v != nil {
		if _, isStr := v.(string); !isStr {
			errors = append(errors, ValidationError{Field: "notes", Message: "notes must be a string", Value: v})
		}
	}

	return errors
}

func checkEvent(raw map[string]any, full bool) []ValidationError {
	var errors []ValidationError

	errors = append(errors, checkRequiredString(raw, "name", full)...)
	errors = append(errors, checkRequiredString(raw, "venue", full)...)

	if v, ok := raw["show_dates"]; ok {
		dates, isArr := v.([]any)
		if !isArr {
			errors = append(errors, ValidationError{Field: "show_dates", Message: "show_dates must be an array of dates"})
		} else {
			if len(dates) == 0 {
				errors = append(errors, ValidationError{Field: "show_dates", Message: "show_dates must contain at least one date"})
			}
			for i, d := range dates {
				if s, isStr := d.(string); !isStr || !isDate(s) {
					errors = append(errors, ValidationError{
						Field:   fmt.Sprintf("show_dates[%d]", i),
						Message: fmt.Sprintf("show_dates[%d] must be a date (YYYY-MM-DD)", i),
						Value:   d,
					})
				}
			}
		}
	} else if full {
		errors = append(errors, ValidationError{Field: "show_dates", Message: "show_dates is required"})
	}

	if v, ok := raw["timing"]; ok && v != nil {
		timing, isObj := v.(map[string]any)
		if !isObj {
			errors = append(errors, ValidationError{Field: "timing", Message: "timing must be an object"})
		} else {
			if st, ok := timing["show_start_time"]; ok {
				if s, isStr := st.(string); !isStr || !clockRegex.MatchString(s) {
					errors = append(errors, ValidationError{Field: "timing.show_start_time", Message: "timing.show_start_time must be HH:MM", Value: st})
				}
			}
			if d, ok := timing["default_performance_duration"]; ok {
				errors = append(errors, checkRange(d, "timing.default_performance_duration", MinPerformanceMinutes, MaxPerformanceMinutes, "minutes")...)
			}
			if b, ok := timing["buffer_between_acts"]; ok {
				errors = append(errors, checkRange(b, "timing.buffer_between_acts", 0, 60, "minutes")...)
			}
		}
	}

	if v, ok := raw["status"]; ok {
		switch models.EventStatus(fmt.Sprint(v)) {
		case models.EventDraft, models.EventActive, models.EventCompleted:
		default:
			errors = append(errors, ValidationError{Field: "status", Message: "status must be one of: draft, active, completed", Value: v})
		}
	}

	return errors
}

// checkShowFields validates the running-order fields shared by artists and cues
func checkShowFields(raw map[string]any) []ValidationError {
	var errors []ValidationError

	if v, ok := raw["performance_status"]; ok && v != nil {
		s, _ := v.(string)
		if !models.ValidArtistStatuses[models.ArtistStatus(s)] {
			errors = append(errors, ValidationError{
				Field:   "performance_status",
				Message: "performance_status must be one of: not_started, next_on_deck, next_on_stage, currently_on_stage, completed",
				Value:   v,
			})
		}
	}

	if v, ok := raw["performance_order"]; ok && v != nil {
		n, isNum := toNumber(v)
		if !isNum || n != math.Trunc(n) || n < 1 {
			errors = append(errors, ValidationError{Field: "performance_order", Message: "performance_order must be a positive integer or null", Value: v})
		}
	}

	if v, ok := raw["performance_date"]; ok && v != nil {
		if s, isStr := v.(string); !isStr || !isDate(s) {
			errors = append(errors, ValidationError{Field: "performance_date", Message: "performance_date must be a date (YYYY-MM-DD) or null", Value: v})
		}
	}

	return errors
}

func checkRequiredString(raw map[string]any, field string, required bool) []ValidationError {
	v, ok := raw[field]
	if !ok {
		if required {
			return []ValidationError{{Field: field, Message: field + " is required"}}
		}
		return nil
	}
	s, isStr := v.(string)
	if !isStr {
		return []ValidationError{{Field: field, Message: field + " must be a string", Value: v}}
	}
	if strings.TrimSpace(s) == "" {
		return []ValidationError{{Field: field, Message: field + " must not be empty"}}
	}
	return nil
}

func checkRange(v any, field string, min, max float64, unit string) []ValidationError {
	n, ok := toNumber(v)
	if !ok {
		return []ValidationError{{Field: field, Message: field + " must be a number", Value: v}}
	}
	if n != math.Trunc(n) {
		return []ValidationError{{Field: field, Message: fmt.Sprintf("%s must be a whole number of %s", field, unit), Value: v}}
	}
	if n < min || n > max {
		return []ValidationError{{
			Field:   field,
			Message: fmt.Sprintf("%s must be between %g and %g %s", field, min, max, unit),
			Value:   v,
		}}
	}
	return nil
}

// toNumber accepts the numeric types encoding/json and Go callers produce
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

func isDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// CheckShowOrderConsistency lints a show order: duplicate or gapped order
// numbers, more than one item on stage, and artists that have not rehearsed.
// Items without an order are ignored for the numbering checks.
func CheckShowOrderConsistency(items []models.ShowItem) []models.ConsistencyIssue {
	ordered := make([]models.ShowItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PerformanceOrder < ordered[j].PerformanceOrder
	})

	var issues []models.ConsistencyIssue
	onStage := 0
	prev := 0
	for _, item := range ordered {
		if order := item.PerformanceOrder; order > 0 {
			switch {
			case order == prev:
				issues = append(issues, models.ConsistencyIssue{
					Kind:    IssueDuplicateOrder,
					Message: fmt.Sprintf("performance order %d is used more than once", order),
					Order:   order,
					ItemID:  item.ID,
				})
			case prev > 0 && order > prev+1:
				issues = append(issues, models.ConsistencyIssue{
					Kind:    IssueOrderGap,
					Message: fmt.Sprintf("gap in performance order between %d and %d", prev, order),
					Order:   order,
					ItemID:  item.ID,
				})
			}
			prev = order
		}

		if item.PerformanceStatus == models.StatusCurrentlyOnStage {
			onStage++
			if onStage == 2 {
				issues = append(issues, models.ConsistencyIssue{
					Kind:    IssueMultipleOnStage,
					Message: "more than one item is currently on stage",
					ItemID:  item.ID,
				})
			}
		}

		if item.Type == models.ShowItemArtist && !item.RehearsalCompleted {
			issues = append(issues, models.ConsistencyIssue{
				Kind:    IssueNotRehearsed,
				Message: fmt.Sprintf("%s has not completed rehearsal", item.Title),
				Order:   item.PerformanceOrder,
				ItemID:  item.ID,
			})
		}
	}

	return issues
}
