package repository

import (
	"fmt"
	"strings"

	"github.com/fame-api/internal/models"
	"github.com/google/uuid"
)

// Document keys. The layout is shared by every storage backend.

func eventKey(id string) string          { return fmt.Sprintf("events/%s.json", id) }
func artistsKey(eventID string) string   { return fmt.Sprintf("events/%s/artists.json", eventID) }
func cuesKey(eventID string) string      { return fmt.Sprintf("events/%s/cues.json", eventID) }
func emergencyKey(eventID string) string { return fmt.Sprintf("events/%s/emergency.json", eventID) }
func usersKey(role models.Role) string   { return fmt.Sprintf("users/%s/users.json", role) }
func jobKey(id string) string            { return fmt.Sprintf("jobs/%s.json", id) }
func jobErrorsKey(id string) string      { return fmt.Sprintf("jobs/%s/errors.json", id) }

const (
	eventsPrefix            = "events/"
	jobsPrefix              = "jobs/"
	pendingRegistrationsKey = "registrations/stage-managers/pending.json"
)

// idempotencyKey maps a client-supplied key onto a safe document name
func idempotencyKey(key string) string {
	return "jobs/idempotency/" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String() + ".json"
}

// topLevelID extracts {id} from keys shaped prefix{id}.json
func topLevelID(key, prefix string) (string, bool) {
	rest := strings.TrimPrefix(key, prefix)
	if rest == key || strings.Contains(rest, "/") || !strings.HasSuffix(rest, ".json") {
		return "", false
	}
	return strings.TrimSuffix(rest, ".json"), true
}
