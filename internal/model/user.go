package model

import "time"

// Role values stored in users.role.  Roles are fixed at creation time; there
// is no promotion endpoint.  Admin accounts are created by direct seeding.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an application user record as stored in the `users` table.
// It carries no JSON tags: the handler layer marshals users through its own
// response type so PasswordHash can never leak into a response.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique display handle.
//  Email        – unique, normalized (lower-cased) email address.
//  PasswordHash – bcrypt hashed password.  Never leaves the server.
//  Role         – "user" or "admin".
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	CreatedAt    time.Time // users.created_at
}

// RefreshSession models a row in the `refresh_sessions` table: the durable
// counterpart of one issued refresh token.  Only a SHA‑256 hash of the token's
// jti is stored, never anything that could be replayed as a credential.
// Rows are never deleted by the application; revoked and rotated sessions
// remain as an audit trail.
//
// A session is active iff RevokedAt is nil and ExpiresAt is in the future.
// Once revoked (rotation, logout, or reuse-triggered mass revocation) a row
// never becomes active again.
//
// Fields:
//  ID                  – primary key identifier.
//  UserID              – owner of the session.
//  TokenHash           – SHA‑256 hex digest of the refresh token's jti (unique).
//  ExpiresAt           – expiration timestamp of the token.
//  RevokedAt           – when the session was revoked (null while active).
//  ReplacedBySessionID – successor session id, set on rotation.
//  CreatedByIP         – client IP captured at issuance, for audit.
//  UserAgent           – client user agent captured at issuance, for audit.
//  CreatedAt           – timestamp of creation.
type RefreshSession struct {
	ID                  uint64     // refresh_sessions.id
	UserID              uint64     // refresh_sessions.user_id
	TokenHash           string     // refresh_sessions.token_hash
	ExpiresAt           time.Time  // refresh_sessions.expires_at
	RevokedAt           *time.Time // refresh_sessions.revoked_at (nullable)
	ReplacedBySessionID *uint64    // refresh_sessions.replaced_by_session_id (nullable)
	CreatedByIP         string     // refresh_sessions.created_by_ip
	UserAgent           string     // refresh_sessions.user_agent
	CreatedAt           time.Time  // refresh_sessions.created_at
}

// Active reports whether the session can still be exchanged for new tokens.
func (s *RefreshSession) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
