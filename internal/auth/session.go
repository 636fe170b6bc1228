package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/fame-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the HTTP-only cookie carrying the session token
const CookieName = "fame_session"

const issuer = "fame-api"

// ErrInvalidSession is returned for missing, expired or tampered tokens
var ErrInvalidSession = errors.New("invalid session")

// Session is the identity carried by a session token
type Session struct {
	UserID   string      `json:"user_id"`
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
	EventIDs []string    `json:"event_ids,omitempty"`
}

type claims struct {
	Session
	jwt.RegisteredClaims
}

// SessionManager signs and verifies HS256 session tokens
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionManager creates a session manager
func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns how long issued sessions stay valid
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// SessionFor builds the session of a user
func SessionFor(u *models.User) Session {
	return Session{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, EventIDs: u.EventIDs}
}

// Issue signs a token for s
func (m *SessionManager) Issue(s Session) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Session: s,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies a token and returns its session
func (m *SessionManager) Parse(token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !models.ValidRoles[c.Role] {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidSession, c.Role)
	}
	return &c.Session, nil
}
