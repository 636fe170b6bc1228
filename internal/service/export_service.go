package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/repository"
	"github.com/rs/zerolog"
)

// exportFlushEvery is how many records are written between flushes
const exportFlushEvery = 100

var lineupCSVHeader = []string{
	"performance_date", "performance_order", "artist_name", "real_name", "email",
	"phone", "style", "performance_type", "performance_duration", "actual_duration",
	"performance_status", "rehearsal_completed", "costume_color", "light_color",
	"mc_notes", "stage_manager_notes", "main_track", "registered_at",
}

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// StreamLineup writes every artist of an event in running order: by show
// date, then slot, with unassigned artists last.
func (s *exportService) StreamLineup(ctx context.Context, w http.ResponseWriter, eventID, format string) error {
	var write func(http.ResponseWriter, []models.Artist) error
	switch format {
	case "ndjson":
		write = s.writeNDJSON
	case "json":
		write = s.writeJSON
	case "csv":
		write = s.writeCSV
	default:
		return invalid(fmt.Sprintf("unsupported format: %s", format))
	}

	event, err := s.repos.Event.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}
	artists, err := s.repos.Artist.List(ctx, eventID)
	if err != nil {
		return err
	}
	sortLineup(artists)

	s.log.Info().Str("event_id", eventID).Str("format", format).Int("count", len(artists)).Msg("Starting lineup export")

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=lineup-%s.%s", eventID, format))
	return write(w, artists)
}

func sortLineup(artists []models.Artist) {
	sort.SliceStable(artists, func(i, j int) bool {
		a, b := artists[i], artists[j]
		da, db := dateKey(a.PerformanceDate), dateKey(b.PerformanceDate)
		if da != db {
			return da < db
		}
		return orderKey(a.PerformanceOrder) < orderKey(b.PerformanceOrder)
	})
}

// dateKey sorts undated artists after every show date
func dateKey(d *string) string {
	if d == nil {
		return "~"
	}
	return *d
}

func (s *exportService) writeNDJSON(w http.ResponseWriter, artists []models.Artist) error {
	w.Header().Set("Content-Type", "application/x-ndjson")

	flusher, _ := w.(http.Flusher)
	for i := range artists {
		data, err := json.Marshal(&artists[i])
		if err != nil {
			return err
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
		if (i+1)%exportFlushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
	}
	return nil
}

func (s *exportService) writeJSON(w http.ResponseWriter, artists []models.Artist) error {
	w.Header().Set("Content-Type", "application/json")

	if _, err := w.Write([]byte("[")); err != nil {
		return err
	}
	for i := range artists {
		if i > 0 {
			w.Write([]byte(","))
		}
		data, err := json.Marshal(&artists[i])
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte("]"))
	return err
}

func (s *exportService) writeCSV(w http.ResponseWriter, artists []models.Artist) error {
	w.Header().Set("Content-Type", "text/csv")

	writer := csv.NewWriter(w)
	if err := writer.Write(lineupCSVHeader); err != nil {
		return err
	}
	for i := range artists {
		if err := writer.Write(lineupRecord(&artists[i])); err != nil {
			return err
		}
		if (i+1)%exportFlushEvery == 0 {
			writer.Flush()
		}
	}
	writer.Flush()
	return writer.Error()
}

func lineupRecord(a *models.Artist) []string {
	date, order, actual := "", "", ""
	if a.PerformanceDate != nil {
		date = *a.PerformanceDate
	}
	if a.PerformanceOrder != nil {
		order = strconv.Itoa(*a.PerformanceOrder)
	}
	if a.ActualDuration != nil {
		actual = strconv.Itoa(*a.ActualDuration)
	}
	mainTrack := ""
	for _, t := range a.MusicTracks {
		if t.IsMainTrack {
			mainTrack = t.SongTitle
			break
		}
	}
	return []string{
		date,
		order,
		a.ArtistName,
		a.RealName,
		a.Email,
		a.Phone,
		a.Style,
		a.PerformanceType,
		strconv.Itoa(a.PerformanceDuration),
		actual,
		string(a.PerformanceStatus),
		strconv.FormatBool(a.RehearsalCompleted),
		a.CostumeColor,
		a.LightColor,
		a.MCNotes,
		a.StageManagerNotes,
		mainTrack,
		formatTimestamp(a.CreatedAt),
	}
}

// formatTimestamp renders t for CSV output
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
