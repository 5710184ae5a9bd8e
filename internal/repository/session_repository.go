package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jobtrackhq/jobtrack/internal/model"
)

// SessionRepo persists refresh sessions: one row per issued refresh token,
// keyed by the SHA-256 hash of the token's jti.  Rows are only ever inserted
// and flipped to revoked; the table doubles as an audit trail and nothing is
// physically deleted here.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a new active session and populates s.ID.
func (r *SessionRepo) Create(ctx context.Context, s *model.RefreshSession) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_sessions (user_id, token_hash, expires_at, created_by_ip, user_agent) VALUES (?,?,?,?,?)",
		s.UserID, s.TokenHash, s.ExpiresAt, s.CreatedByIP, s.UserAgent)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// FindByTokenHash returns the session row for a token hash regardless of its
// state; deciding what a revoked or expired row means is the lifecycle
// manager's job, not this layer's.
func (r *SessionRepo) FindByTokenHash(ctx context.Context, hash string) (*model.RefreshSession, error) {
	var (
		s          model.RefreshSession
		revokedAt  sql.NullTime
		replacedBy sql.NullInt64
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, expires_at, revoked_at, replaced_by_session_id, created_by_ip, user_agent, created_at
		 FROM refresh_sessions WHERE token_hash=? LIMIT 1`,
		hash).Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &revokedAt, &replacedBy, &s.CreatedByIP, &s.UserAgent, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		s.RevokedAt = &t
	}
	if replacedBy.Valid {
		id := uint64(replacedBy.Int64)
		s.ReplacedBySessionID = &id
	}
	return &s, nil
}

// Revoke marks a session revoked, optionally recording its successor.  The
// revoked_at IS NULL guard makes the update atomic: of two concurrent
// rotations of the same token exactly one sees a row flip.  The returned
// bool reports whether this call won.
func (r *SessionRepo) Revoke(ctx context.Context, hash string, replacedBy *uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_sessions SET revoked_at=UTC_TIMESTAMP(), replaced_by_session_id=? WHERE token_hash=? AND revoked_at IS NULL",
		nullableID(replacedBy), hash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RevokeAllForUser revokes every active session of a user and returns how
// many rows flipped.  Used on reuse detection, account deletion, and
// whole-account logout.
func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_sessions SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountActiveForUser reports how many sessions are currently usable.  Only
// exercised by housekeeping and tests.
func (r *SessionRepo) CountActiveForUser(ctx context.Context, userID uint64, now time.Time) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM refresh_sessions WHERE user_id=? AND revoked_at IS NULL AND expires_at > ?",
		userID, now).Scan(&n)
	return n, err
}

func nullableID(v *uint64) any {
	if v == nil {
		return nil
	}
	return *v
}
