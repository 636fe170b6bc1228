// Package timing computes show lengths and running-order clock times.
package timing

import (
	"fmt"
	"time"

	"github.com/fame-api/internal/models"
)

// ArtistDuration returns how long an artist's set runs. The measured length
// of the main track wins over the stated estimate.
func ArtistDuration(a *models.Artist) time.Duration {
	if a.ActualDuration != nil && *a.ActualDuration > 0 {
		return time.Duration(*a.ActualDuration) * time.Second
	}
	return time.Duration(a.PerformanceDuration) * time.Minute
}

// CueDuration returns the length of a cue
func CueDuration(c *models.Cue) time.Duration {
	return time.Duration(c.Duration) * time.Minute
}

// CalculateTotalShowTime sums every artist set and cue
func CalculateTotalShowTime(artists []models.Artist, cues []models.Cue) time.Duration {
	var total time.Duration
	for i := range artists {
		total += ArtistDuration(&artists[i])
	}
	for i := range cues {
		total += CueDuration(&cues[i])
	}
	return total
}

// BuildTimeline assigns each item a start and end time, in the order given,
// starting at start. buffer is inserted between consecutive items.
func BuildTimeline(start time.Time, items []models.ShowItem, buffer time.Duration) []models.TimelineEntry {
	entries := make([]models.TimelineEntry, 0, len(items))
	cursor := start
	for i, item := range items {
		if i > 0 && buffer > 0 {
			cursor = cursor.Add(buffer)
		}
		end := cursor.Add(item.Duration)
		entries = append(entries, models.TimelineEntry{
			ShowItem:  item,
			StartTime: cursor,
			EndTime:   end,
			Start:     FormatClock(cursor),
			End:       FormatClock(end),
		})
		cursor = end
	}
	return entries
}

// FormatDuration renders d as m:ss, or h:mm:ss from one hour up
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d.Round(time.Second) / time.Second)
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatClock renders t as HH:MM
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}

// ParseShowStart combines a show date (YYYY-MM-DD) and a start clock (HH:MM)
// into a time in loc. A nil loc means UTC.
func ParseShowStart(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid show start %q %q: %w", date, clock, err)
	}
	return t, nil
}
