// Package status holds the fixed performance-status table used by the show
// order, the live board and the dashboards.
package status

import (
	"sort"
	"strings"

	"github.com/fame-api/internal/models"
)

type entry struct {
	order int
	label string
	color string
}

var table = map[models.ArtistStatus]entry{
	models.StatusNotStarted:       {order: 1, label: "Not Started", color: "#6b7280"},
	models.StatusNextOnDeck:       {order: 2, label: "Next on Deck", color: "#3b82f6"},
	models.StatusNextOnStage:      {order: 3, label: "Next on Stage", color: "#f59e0b"},
	models.StatusCurrentlyOnStage: {order: 4, label: "Currently on Stage", color: "#10b981"},
	models.StatusCompleted:        {order: 5, label: "Completed", color: "#8b5cf6"},
}

func lookup(s models.ArtistStatus) entry {
	if e, ok := table[s]; ok {
		return e
	}
	return table[models.StatusNotStarted]
}

// Order returns the position of s in the status progression, 1 through 5.
// Unknown and empty statuses map to 1.
func Order(s models.ArtistStatus) int {
	return lookup(s).order
}

// Label returns the display label for s
func Label(s models.ArtistStatus) string {
	return lookup(s).label
}

// Color returns the hex colour used to render s
func Color(s models.ArtistStatus) string {
	return lookup(s).color
}

// Parse normalizes raw and reports whether it names a known status.
// "Currently On Stage" and "currently-on-stage" both parse.
func Parse(raw string) (models.ArtistStatus, bool) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	s := models.ArtistStatus(norm)
	if _, ok := table[s]; !ok {
		return models.StatusNotStarted, false
	}
	return s, true
}

// Normalize returns s, or not_started when s is unknown or empty
func Normalize(s models.ArtistStatus) models.ArtistStatus {
	if _, ok := table[s]; ok {
		return s
	}
	return models.StatusNotStarted
}

// All returns every status in progression order
func All() []models.ArtistStatus {
	return []models.ArtistStatus{
		models.StatusNotStarted,
		models.StatusNextOnDeck,
		models.StatusNextOnStage,
		models.StatusCurrentlyOnStage,
		models.StatusCompleted,
	}
}

// Sort orders items by status progression. Items with the same status keep
// their relative order.
func Sort(items []models.ShowItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return Order(items[i].PerformanceStatus) < Order(items[j].PerformanceStatus)
	})
}
