package validation

import (
	"strings"
	"testing"

	"github.com/fame-api/internal/models"
)

func validArtist() map[string]any {
	return map[string]any{
		"artist_name":          "DJ Nova",
		"email":                "nova@example.com",
		"performance_duration": float64(5),
	}
}

func with(base map[string]any, kv ...any) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i].(string)] = kv[i+1]
	}
	return out
}

func without(base map[string]any, keys ...string) map[string]any {
	out := with(base)
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

func containsMessage(errs []string, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidateArtist(t *testing.T) {
	tests := []struct {
		name       string
		raw        map[string]any
		wantErrors int
		wantSubstr string
	}{
		{
			name:       "valid artist with required fields",
			raw:        validArtist(),
			wantErrors: 0,
		},
		{
			name: "valid artist with optional fields",
			raw: with(validArtist(),
				"actual_duration", float64(215),
				"performance_status", "next_on_deck",
				"performance_order", float64(3),
				"performance_date", "2025-06-01",
				"rehearsal_completed", true,
				"social_media", map[string]any{"instagram": "@nova"},
				"music_tracks", []any{map[string]any{"song_title": "Intro", "duration": float64(200), "is_main_track": true}},
			),
			wantErrors: 0,
		},
		{
			name:       "missing artist_name - required field",
			raw:        without(validArtist(), "artist_name"),
			wantErrors: 1,
			wantSubstr: "artist_name is required",
		},
		{
			name:       "blank artist_name",
			raw:        with(validArtist(), "artist_name", "   "),
			wantErrors: 1,
			wantSubstr: "artist_name must not be empty",
		},
		{
			name:       "artist_name wrong type",
			raw:        with(validArtist(), "artist_name", float64(12)),
			wantErrors: 1,
			wantSubstr: "artist_name must be a string",
		},
		{
			name:       "invalid email format",
			raw:        with(validArtist(), "email", "not-an-email"),
			wantErrors: 1,
			wantSubstr: "valid email",
		},
		{
			name:       "duration as string",
			raw:        with(validArtist(), "performance_duration", "5"),
			wantErrors: 1,
			wantSubstr: "performance_duration must be a number",
		},
		{
			name:       "duration over an hour",
			raw:        with(validArtist(), "performance_duration", float64(61)),
			wantErrors: 1,
			wantSubstr: "between 1 and 60",
		},
		{
			name:       "fractional duration",
			raw:        with(validArtist(), "performance_duration", 4.5),
			wantErrors: 1,
			wantSubstr: "performance_duration must be a whole number of minutes",
		},
		{
			name:       "fractional actual duration",
			raw:        with(validArtist(), "actual_duration", 183.45),
			wantErrors: 1,
			wantSubstr: "actual_duration must be a whole number of seconds",
		},
		{
			name:       "fractional track duration",
			raw:        with(validArtist(), "music_tracks", []any{map[string]any{"song_title": "Intro", "duration": 200.5}}),
			wantErrors: 1,
			wantSubstr: "music_tracks[0].duration must be a whole number of seconds",
		},
		{
			name:       "duration zero",
			raw:        with(validArtist(), "performance_duration", float64(0)),
			wantErrors: 1,
		},
		{
			name:       "unknown status",
			raw:        with(validArtist(), "performance_status", "backstage"),
			wantErrors: 1,
			wantSubstr: "performance_status must be one of",
		},
		{
			name:       "fractional order",
			raw:        with(validArtist(), "performance_order", 1.5),
			wantErrors: 1,
		},
		{
			name:       "null order and date allowed",
			raw:        with(validArtist(), "performance_order", nil, "performance_date", nil),
			wantErrors: 0,
		},
		{
			name:       "bad date",
			raw:        with(validArtist(), "performance_date", "01/06/2025"),
			wantErrors: 1,
		},
		{
			name:       "track without title",
			raw:        with(validArtist(), "music_tracks", []any{map[string]any{"duration": float64(10)}}),
			wantErrors: 1,
			wantSubstr: "music_tracks[0].song_title",
		},
		{
			name:       "rehearsal flag as string",
			raw:        with(validArtist(), "rehearsal_completed", "yes"),
			wantErrors: 1,
		},
		{
			name:       "multiple validation errors",
			raw:        map[string]any{"email": "bad", "performance_duration": "long", "phone": float64(5)},
			wantErrors: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := ValidateArtist(tt.raw)
			if len(errors) != tt.wantErrors {
				t.Errorf("ValidateArtist() got %d errors, want %d. Errors: %v", len(errors), tt.wantErrors, errors)
			}
			if tt.wantSubstr != "" && !containsMessage(errors, tt.wantSubstr) {
				t.Errorf("expected an error containing %q, got %v", tt.wantSubstr, errors)
			}
		})
	}
}

func TestValidateArtistPatch(t *testing.T) {
	if errs := ValidateArtistPatch(map[string]any{}); len(errs) != 0 {
		t.Errorf("empty patch should be valid, got %v", errs)
	}
	if errs := ValidateArtistPatch(map[string]any{"biography": "hi"}); len(errs) != 0 {
		t.Errorf("partial patch should be valid, got %v", errs)
	}
	if errs := ValidateArtistPatch(map[string]any{"performance_duration": float64(90)}); len(errs) != 1 {
		t.Errorf("out of range patch should fail once, got %v", errs)
	}
	if errs := ValidateArtistPatch(map[string]any{"artist_name": ""}); len(errs) != 1 {
		t.Errorf("blank name patch should fail, got %v", errs)
	}
}

func TestValidateCue(t *testing.T) {
	valid := map[string]any{"type": "mc_break", "title": "MC talk", "duration": float64(5)}

	tests := []struct {
		name       string
		raw        map[string]any
		wantErrors int
	}{
		{"valid cue", valid, 0},
		{"missing everything", map[string]any{}, 3},
		{"unknown type", with(valid, "type", "fireworks"), 1},
		{"duration too long", with(valid, "duration", float64(181)), 1},
		{"duration at upper bound", with(valid, "duration", float64(180)), 0},
		{"duration wrong type", with(valid, "duration", true), 1},
		{"fractional duration", with(valid, "duration", 2.5), 1},
		{"status valid", with(valid, "performance_status", "completed"), 0},
		{"order zero", with(valid, "performance_order", float64(0)), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := ValidateCue(tt.raw)
			if len(errors) != tt.wantErrors {
				t.Errorf("ValidateCue() got %d errors, want %d. Errors: %v", len(errors), tt.wantErrors, errors)
			}
		})
	}

	if errs := ValidateCuePatch(map[string]any{"title": "Renamed"}); len(errs) != 0 {
		t.Errorf("ValidateCuePatch() unexpected errors %v", errs)
	}
}

func TestValidateEvent(t *testing.T) {
	valid := map[string]any{
		"name":       "Summer Fest",
		"venue":      "Main Hall",
		"show_dates": []any{"2025-06-01", "2025-06-02"},
		"timing":     map[string]any{"show_start_time": "19:00", "buffer_between_acts": float64(2)},
	}

	if errs := ValidateEvent(valid); len(errs) != 0 {
		t.Fatalf("ValidateEvent() unexpected errors %v", errs)
	}
	if errs := ValidateEvent(with(valid, "show_dates", []any{"June 1"})); len(errs) != 1 {
		t.Errorf("bad date should fail once, got %v", errs)
	}
	if errs := ValidateEvent(with(valid, "timing", map[string]any{"show_start_time": "7pm"})); len(errs) != 1 {
		t.Errorf("bad start time should fail once, got %v", errs)
	}
	if errs := ValidateEvent(with(valid, "timing", map[string]any{"default_performance_duration": 4.5, "buffer_between_acts": 1.5})); len(errs) != 2 {
		t.Errorf("fractional timing minutes should fail twice, got %v", errs)
	} else if !containsMessage(errs, "whole number of minutes") {
		t.Errorf("expected whole number message, got %v", errs)
	}
	if errs := ValidateEvent(without(valid, "name", "venue")); len(errs) != 2 {
		t.Errorf("missing name and venue should fail twice, got %v", errs)
	}
	if errs := ValidateEventPatch(map[string]any{"status": "active"}); len(errs) != 0 {
		t.Errorf("ValidateEventPatch() unexpected errors %v", errs)
	}
	if errs := ValidateEventPatch(map[string]any{"status": "archived"}); len(errs) != 1 {
		t.Errorf("bad status should fail, got %v", errs)
	}
}

func TestValidateEmergency(t *testing.T) {
	if errs := ValidateEmergency("Evacuate stage left", models.EmergencyRed); len(errs) != 0 {
		t.Errorf("unexpected errors %v", errs)
	}
	if errs := ValidateEmergency("  ", "purple"); len(errs) != 2 {
		t.Errorf("expected 2 errors, got %v", errs)
	}
	if errs := ValidateEmergency(strings.Repeat("x", MaxEmergencyMessage+1), models.EmergencyBlue); len(errs) != 1 {
		t.Errorf("expected length error, got %v", errs)
	}
}

func TestCheckShowOrderConsistency(t *testing.T) {
	artist := func(id string, order int, st models.ArtistStatus, rehearsed bool) models.ShowItem {
		return models.ShowItem{Type: models.ShowItemArtist, ID: id, Title: id, PerformanceOrder: order, PerformanceStatus: st, RehearsalCompleted: rehearsed}
	}
	cue := func(id string, order int) models.ShowItem {
		return models.ShowItem{Type: models.ShowItemCue, ID: id, Title: id, PerformanceOrder: order, RehearsalCompleted: true}
	}

	tests := []struct {
		name      string
		items     []models.ShowItem
		wantKinds []string
	}{
		{
			name:  "clean order",
			items: []models.ShowItem{cue("c1", 1), artist("a1", 2, models.StatusCompleted, true), artist("a2", 3, models.StatusCurrentlyOnStage, true)},
		},
		{
			name:      "duplicate order",
			items:     []models.ShowItem{artist("a1", 1, "", true), artist("a2", 1, "", true)},
			wantKinds: []string{IssueDuplicateOrder},
		},
		{
			name:      "gap",
			items:     []models.ShowItem{artist("a1", 1, "", true), artist("a2", 4, "", true)},
			wantKinds: []string{IssueOrderGap},
		},
		{
			name: "two on stage",
			items: []models.ShowItem{
				artist("a1", 1, models.StatusCurrentlyOnStage, true),
				cue("c1", 2),
				artist("a2", 3, models.StatusCurrentlyOnStage, true),
			},
			wantKinds: []string{IssueMultipleOnStage},
		},
		{
			name:      "unrehearsed artist",
			items:     []models.ShowItem{artist("a1", 1, "", false), cue("c1", 2)},
			wantKinds: []string{IssueNotRehearsed},
		},
		{
			name:  "unordered items are skipped for numbering",
			items: []models.ShowItem{artist("a1", 0, "", true), artist("a2", 1, "", true), artist("a3", 0, "", true)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := CheckShowOrderConsistency(tt.items)
			if len(issues) != len(tt.wantKinds) {
				t.Fatalf("got %d issues, want %d: %+v", len(issues), len(tt.wantKinds), issues)
			}
			for i, kind := range tt.wantKinds {
				if issues[i].Kind != kind {
					t.Errorf("issue %d kind = %s, want %s", i, issues[i].Kind, kind)
				}
			}
		})
	}
}

func TestRosterValidator_DuplicateEmail(t *testing.T) {
	v := NewRosterValidator()
	v.SetEmailCache([]string{"Existing@Example.com"})

	errs := v.ValidateRow(with(validArtist(), "email", "existing@example.com"))
	if len(errs) != 1 || errs[0].Message != "duplicate email" {
		t.Fatalf("expected duplicate email, got %v", errs)
	}

	row := validArtist()
	if errs := v.ValidateRow(row); len(errs) != 0 {
		t.Fatalf("unexpected errors %v", errs)
	}
	v.AddEmail(row["email"].(string))
	if errs := v.ValidateRow(row); len(errs) != 1 {
		t.Fatalf("second insert should be a duplicate, got %v", errs)
	}
}
