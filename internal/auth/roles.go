package auth

import "github.com/fame-api/internal/models"

var roleLevels = map[models.Role]int{
	models.RoleSuperAdmin:   4,
	models.RoleStageManager: 3,
	models.RoleDJ:           2,
	models.RoleArtist:       1,
}

// Level returns the rank of a role, 0 for unknown roles
func Level(role models.Role) int {
	return roleLevels[role]
}

// HasRole reports whether role is at least as privileged as required
func HasRole(role, required models.Role) bool {
	return Level(role) > 0 && Level(role) >= Level(required)
}

// CanAccessEvent reports whether a session may work on an event. Super admins
// see every event; other staff are limited to their assigned events when they
// have any.
func CanAccessEvent(s *Session, eventID string) bool {
	if s == nil {
		return false
	}
	if s.Role == models.RoleSuperAdmin || len(s.EventIDs) == 0 {
		return true
	}
	for _, id := range s.EventIDs {
		if id == eventID {
			return true
		}
	}
	return false
}
