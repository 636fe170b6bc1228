package models

import (
	"time"
)

// Role is a user's position in the access hierarchy
type Role string

const (
	RoleSuperAdmin   Role = "super_admin"
	RoleStageManager Role = "stage_manager"
	RoleDJ           Role = "dj"
	RoleArtist       Role = "artist"
)

// ValidRoles defines allowed user roles
var ValidRoles = map[Role]bool{
	RoleSuperAdmin:   true,
	RoleStageManager: true,
	RoleDJ:           true,
	RoleArtist:       true,
}

// UserStatus is the account state
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserPending   UserStatus = "pending"
	UserSuspended UserStatus = "suspended"
)

// User represents an account that can sign in
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"password_hash,omitempty"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	EventIDs     []string   `json:"event_ids,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// Public returns a copy without credentials, safe to send to clients
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// StageManagerRegistration is a sign-up waiting for super admin approval
type StageManagerRegistration struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"`
	EventIDs     []string  `json:"event_ids,omitempty"`
	RequestedAt  time.Time `json:"requested_at"`
}

// CreateUserRequest is the payload for creating accounts directly
type CreateUserRequest struct {
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Password string   `json:"password"`
	Role     Role     `json:"role"`
	EventIDs []string `json:"event_ids,omitempty"`
}

// RegistrationRequest is the stage manager sign-up payload
type RegistrationRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	EventIDs []string `json:"event_ids,omitempty"`
}
