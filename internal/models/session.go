package models

import (
	"time"

	"github.com/google/uuid"
)

// Auth-state event types.
const (
	AuthEventSignedIn    = "SIGNED_IN"
	AuthEventSignedOut   = "SIGNED_OUT"
	AuthEventUserUpdated = "USER_UPDATED"
)

// SessionUser is the authenticated identity carried by a Session.
type SessionUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Session is an issued access token and the identity it belongs to.
type Session struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        SessionUser `json:"user"`
}

// AuthEvent is published on every auth-state transition of a user.
type AuthEvent struct {
	Type    string    `json:"type"`
	UserID  uuid.UUID `json:"user_id"`
	Session *Session  `json:"session,omitempty"`
	At      time.Time `json:"at"`
}

// AuthResult is returned by sign-in and sign-up.
type AuthResult struct {
	Session *Session `json:"session"`
	Profile *Profile `json:"profile"`
}
