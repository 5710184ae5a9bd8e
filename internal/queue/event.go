// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// Event types published on the auth.audit queue.
const (
	EventUserRegistered       = "user.registered"
	EventSessionReuseDetected = "session.reuse_detected"
	EventUserDeleted          = "user.deleted"
)

// AuthEvent is published whenever something security-relevant happens in the
// session lifecycle.  It contains enough information for downstream
// consumers to log or alert without querying the primary database.  Reuse
// detection is surfaced here and only here: the HTTP caller sees a plain
// unauthorized response with no hint that detection fired.
type AuthEvent struct {
	Type      string    `json:"type"`
	UserID    uint64    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}
