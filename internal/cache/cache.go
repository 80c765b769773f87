// Package cache holds the short-lived shared state of the service: submit
// guards, revoked tokens and the session event feed. RedisStore is used in
// deployments; MemoryStore serves a single process.
package cache

import "time"

const (
	submitGuardPrefix = "submit:guard:"
	blacklistPrefix   = "token:blacklist:"
	sessionChannel    = "auth:session_events"
)

type SessionEventType string

const (
	SessionSignedIn  SessionEventType = "signed_in"
	SessionSignedOut SessionEventType = "signed_out"
)

// SessionEvent is published on every sign-in and sign-out.
type SessionEvent struct {
	Type   SessionEventType `json:"type"`
	UserID string           `json:"user_id"`
	At     time.Time        `json:"at"`
}
