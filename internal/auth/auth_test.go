package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fame-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong horse"), ErrInvalidCredentials)
	assert.ErrorIs(t, CheckPassword("", "anything"), ErrInvalidCredentials)

	_, err = HashPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestHasRole(t *testing.T) {
	tests := []struct {
		role     models.Role
		required models.Role
		want     bool
	}{
		{models.RoleSuperAdmin, models.RoleStageManager, true},
		{models.RoleStageManager, models.RoleStageManager, true},
		{models.RoleDJ, models.RoleStageManager, false},
		{models.RoleDJ, models.RoleArtist, true},
		{models.RoleArtist, models.RoleDJ, false},
		{"", models.RoleArtist, false},
		{"mc", models.RoleArtist, false},
	}
	for _, tt := range tests {
		if got := HasRole(tt.role, tt.required); got != tt.want {
			t.Errorf("HasRole(%q, %q) = %v, want %v", tt.role, tt.required, got, tt.want)
		}
	}
}

func TestCanAccessEvent(t *testing.T) {
	assert.False(t, CanAccessEvent(nil, "e1"))
	assert.True(t, CanAccessEvent(&Session{Role: models.RoleDJ}, "e1"))
	assert.True(t, CanAccessEvent(&Session{Role: models.RoleSuperAdmin, EventIDs: []string{"e2"}}, "e1"))
	assert.True(t, CanAccessEvent(&Session{Role: models.RoleStageManager, EventIDs: []string{"e1"}}, "e1"))
	assert.False(t, CanAccessEvent(&Session{Role: models.RoleStageManager, EventIDs: []string{"e2"}}, "e1"))
}

func TestSessionManager_RoundTrip(t *testing.T) {
	m := NewSessionManager("0123456789abcdef", time.Hour)
	in := Session{UserID: "u1", Email: "sm@test.com", Name: "SM", Role: models.RoleStageManager, EventIDs: []string{"e1"}}

	token, expires, err := m.Issue(in)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	out, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, in, *out)
}

func TestSessionManager_Rejects(t *testing.T) {
	m := NewSessionManager("0123456789abcdef", time.Hour)
	token, _, err := m.Issue(Session{UserID: "u1", Role: models.RoleDJ})
	require.NoError(t, err)

	other := NewSessionManager("fedcba9876543210", time.Hour)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidSession, "wrong secret")

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + strings.ToUpper(parts[1]) + "." + parts[2]
	_, err = m.Parse(tampered)
	assert.ErrorIs(t, err, ErrInvalidSession, "tampered payload")

	_, err = m.Parse("")
	assert.True(t, errors.Is(err, ErrInvalidSession))

	expired := NewSessionManager("0123456789abcdef", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(Session{UserID: "u1", Role: models.RoleDJ})
	require.NoError(t, err)
	_, err = m.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidSession, "expired")
}
