// Package service implements the session lifecycle: issuing token pairs,
// rotating refresh tokens, detecting reuse of rotated tokens, and revoking
// session families.  Handlers own the HTTP surface (cookies, status codes);
// this layer owns the state machine.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/jobtrackhq/jobtrack/internal/config"
	"github.com/jobtrackhq/jobtrack/internal/model"
	"github.com/jobtrackhq/jobtrack/internal/queue"
	"github.com/jobtrackhq/jobtrack/internal/repository"
	"github.com/jobtrackhq/jobtrack/internal/utils"
)

// Sentinel errors surfaced to handlers.  The login path returns
// ErrInvalidCredentials for both an unknown email and a wrong password so
// the two are indistinguishable to the caller.  Every failed refresh,
// including those where reuse detection revoked the whole session family,
// collapses to ErrInvalidRefresh: an attacker gets no signal that detection
// fired.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
)

// UserStore is the subset of the user repository the lifecycle needs.
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash, role string) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// SessionStore is the authoritative record of issued refresh credentials.
// Revoke reports whether a row actually flipped from active to revoked;
// that bool is the whole concurrency story of rotation (see Refresh).
type SessionStore interface {
	Create(ctx context.Context, s *model.RefreshSession) error
	FindByTokenHash(ctx context.Context, hash string) (*model.RefreshSession, error)
	Revoke(ctx context.Context, hash string, replacedBy *uint64) (bool, error)
	RevokeAllForUser(ctx context.Context, userID uint64) (int64, error)
}

// AuditSink receives security-relevant lifecycle events.  Implementations
// must be best-effort; the lifecycle never fails a request over a publish
// error.
type AuditSink interface {
	Publish(ctx context.Context, ev queue.AuthEvent) error
}

// ClientInfo is the per-request metadata recorded on each session for audit.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// TokenPair is the result of a successful register, login, or refresh.
type TokenPair struct {
	User    model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// AuthService orchestrates the credential hasher, token codec, and session
// store.
type AuthService struct {
	cfg      config.Config
	users    UserStore
	sessions SessionStore
	audit    AuditSink // may be nil
}

func NewAuthService(cfg config.Config, users UserStore, sessions SessionStore, audit AuditSink) *AuthService {
	return &AuthService{cfg: cfg, users: users, sessions: sessions, audit: audit}
}

// Register creates a user with role "user" and immediately issues a token
// pair.  Duplicate username or email surfaces as repository.ErrUserExists.
// The password is hashed before it ever reaches the store.
func (s *AuthService) Register(ctx context.Context, username, email, password string, client ClientInfo) (*TokenPair, error) {
	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	uid, err := s.users.Create(ctx, username, email, hash, model.RoleUser)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	pair, _, err := s.issueTokens(ctx, u, client)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.AuthEvent{
		Type: queue.EventUserRegistered, UserID: u.ID, Email: u.Email,
		IP: client.IP, UserAgent: client.UserAgent, At: time.Now().UTC(),
	})
	return pair, nil
}

// Login verifies credentials and issues a token pair.  Unknown email and
// wrong password take observably identical failure paths.
func (s *AuthService) Login(ctx context.Context, email, password string, client ClientInfo) (*TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	pair, _, err := s.issueTokens(ctx, u, client)
	return pair, err
}

// issueTokens signs one access and one refresh token and records the
// refresh token's session row.  Access tokens are never persisted; their
// exposure window is bounded by TTL alone.
func (s *AuthService) issueTokens(ctx context.Context, u model.User, client ClientInfo) (*TokenPair, *model.RefreshSession, error) {
	access, err := utils.NewAccessToken(s.cfg.AccessSecret, u.ID, u.Role, s.cfg.AccessTTLMin)
	if err != nil {
		return nil, nil, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshSecret, u.ID, u.Role, s.cfg.RefreshTTLDays)
	if err != nil {
		return nil, nil, err
	}
	sess := &model.RefreshSession{
		UserID:      u.ID,
		TokenHash:   utils.HashTokenID(refresh.JTI),
		ExpiresAt:   refresh.Exp,
		CreatedByIP: client.IP,
		UserAgent:   client.UserAgent,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, nil, err
	}
	return &TokenPair{User: u, Access: access, Refresh: refresh}, sess, nil
}

// Refresh exchanges a valid refresh token for a brand-new pair, rotating
// the session.  Presenting a token whose session is missing, revoked,
// mismatched, or expired is treated as evidence of theft or replay: the
// user's entire session family is revoked and the caller gets the same
// ErrInvalidRefresh as any other failure.
//
// Rotation order is find -> issue new -> revoke old with the rows-affected
// guard.  Two concurrent refreshes of the same token therefore resolve to
// one winner; the loser's revoke flips nothing, which is indistinguishable
// from replay and takes the mass-revocation path.
func (s *AuthService) Refresh(ctx context.Context, rawToken string, client ClientInfo) (*TokenPair, error) {
	claims, err := utils.ParseRefreshToken(s.cfg.RefreshSecret, rawToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}
	oldHash := utils.HashTokenID(claims.JTI)

	sess, err := s.sessions.FindByTokenHash(ctx, oldHash)
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		return nil, s.reuseDetected(ctx, claims.UserID, client, "session not found for presented token")
	case err != nil:
		return nil, err
	case sess.UserID != claims.UserID:
		return nil, s.reuseDetected(ctx, claims.UserID, client, "token subject does not match session owner")
	case !sess.Active(time.Now().UTC()):
		return nil, s.reuseDetected(ctx, claims.UserID, client, "presented token already rotated, revoked or expired")
	}

	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	pair, newSess, err := s.issueTokens(ctx, u, client)
	if err != nil {
		return nil, err
	}
	won, err := s.sessions.Revoke(ctx, oldHash, &newSess.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		// A concurrent refresh rotated this token first.
		return nil, s.reuseDetected(ctx, u.ID, client, "concurrent rotation of the same token")
	}
	return pair, nil
}

// Logout revokes the session behind the presented refresh token when the
// token decodes; otherwise it does nothing.  It never fails: logging out
// with an invalid, expired, or absent token is still a successful logout.
func (s *AuthService) Logout(ctx context.Context, rawToken string) {
	claims, err := utils.ParseRefreshToken(s.cfg.RefreshSecret, rawToken)
	if err != nil {
		return
	}
	_, _ = s.sessions.Revoke(ctx, utils.HashTokenID(claims.JTI), nil)
}

// RevokeUserSessions revokes every active session for a user.  Called when
// an account is deleted so no outstanding refresh token survives the
// identity it belongs to.
func (s *AuthService) RevokeUserSessions(ctx context.Context, userID uint64) error {
	_, err := s.sessions.RevokeAllForUser(ctx, userID)
	return err
}

// reuseDetected revokes the whole session family and returns the generic
// refresh error.  The revocation is a side effect, not a reported error.
func (s *AuthService) reuseDetected(ctx context.Context, userID uint64, client ClientInfo, detail string) error {
	_, _ = s.sessions.RevokeAllForUser(ctx, userID)
	s.publish(ctx, queue.AuthEvent{
		Type: queue.EventSessionReuseDetected, UserID: userID,
		IP: client.IP, UserAgent: client.UserAgent, Detail: detail, At: time.Now().UTC(),
	})
	return ErrInvalidRefresh
}

func (s *AuthService) publish(ctx context.Context, ev queue.AuthEvent) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Publish(ctx, ev)
}
