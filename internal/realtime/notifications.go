package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Level is the severity of a toast notification
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is what a dashboard shows for an event
type Notification struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type payloadFields struct {
	ArtistName        string `json:"artist_name"`
	Title             string `json:"title"`
	PerformanceStatus string `json:"performance_status"`
	PerformanceOrder  *int   `json:"performance_order"`
	Message           string `json:"message"`
	EmergencyCode     string `json:"emergency_code"`
}

// Describe maps an event to the toast a dashboard should show. The second
// result is false for unknown event types.
func Describe(ev Event) (Notification, bool) {
	var p payloadFields
	if len(ev.Data) > 0 {
		_ = json.Unmarshal(ev.Data, &p)
	}
	name := firstNonEmpty(p.ArtistName, p.Title, "An item")

	switch ev.Type {
	case ArtistRegistered:
		return Notification{LevelSuccess, "New registration", fmt.Sprintf("%s registered", name)}, true
	case ArtistAssigned:
		msg := fmt.Sprintf("%s was assigned to the show", name)
		if p.PerformanceOrder != nil {
			msg = fmt.Sprintf("%s was assigned slot %d", name, *p.PerformanceOrder)
		}
		return Notification{LevelInfo, "Artist assigned", msg}, true
	case ArtistStatusChanged:
		status := strings.ReplaceAll(firstNonEmpty(p.PerformanceStatus, "updated"), "_", " ")
		return Notification{LevelInfo, "Status changed", fmt.Sprintf("%s is now %s", name, status)}, true
	case CueUpdated:
		return Notification{LevelInfo, "Cue updated", fmt.Sprintf("%s was updated", name)}, true
	case ShowOrderUpdated:
		return Notification{LevelInfo, "Show order updated", "The running order has changed"}, true
	case EmergencyAlert:
		title := "Emergency"
		if p.EmergencyCode != "" {
			title = fmt.Sprintf("Code %s", strings.ToUpper(p.EmergencyCode))
		}
		return Notification{LevelError, title, firstNonEmpty(p.Message, "Emergency broadcast")}, true
	case EmergencyClear:
		return Notification{LevelSuccess, "All clear", "The emergency has been cleared"}, true
	default:
		return Notification{}, false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
