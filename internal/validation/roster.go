package validation

import (
	"strings"
)

// RosterValidator validates imported artist rows and tracks emails already
// seen so a roster cannot register the same artist twice.
type RosterValidator struct {
	emailCache map[string]bool
}

// NewRosterValidator creates a new roster validator
func NewRosterValidator() *RosterValidator {
	return &RosterValidator{
		emailCache: make(map[string]bool),
	}
}

// SetEmailCache seeds the cache with emails of artists already registered
func (v *RosterValidator) SetEmailCache(emails []string) {
	for _, e := range emails {
		v.AddEmail(e)
	}
}

// AddEmail adds an email to the uniqueness cache
func (v *RosterValidator) AddEmail(email string) {
	v.emailCache[strings.ToLower(strings.TrimSpace(email))] = true
}

// ValidateRow validates one roster row
func (v *RosterValidator) ValidateRow(raw map[string]any) []ValidationError {
	errors := checkArtist(raw, true)

	if email, ok := raw["email"].(string); ok && emailRegex.MatchString(strings.TrimSpace(email)) {
		if v.emailCache[strings.ToLower(strings.TrimSpace(email))] {
			errors = append(errors, ValidationError{Field: "email", Message: "duplicate email", Value: email})
		}
	}

	return errors
}
