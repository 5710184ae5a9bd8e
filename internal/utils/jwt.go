package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/sha256" // SHA‑256 hashing for refresh token identifiers
	"encoding/hex"  // hex encoding of digests
	"errors"        // sentinel error values
	"strconv"       // string-to-int fallback for the sub claim
	"time"          // expiry computation

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
	"github.com/google/uuid"       // uuid generates the per-token jti
)

// ErrInvalidToken is returned for any token that fails verification: bad
// signature, wrong signing algorithm, malformed claims or expired.  The
// distinct causes are deliberately collapsed into one value so callers
// surface an identical response for all of them.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short‑lived, stateless and never persisted: the server
// holds no record and verification is pure computation against the signing
// key plus the expiry check.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long‑lived token used to obtain new access
// tokens.  Each refresh token carries a fresh random jti; the database
// stores only a SHA‑256 hash of that jti, keyed to one session row.
type RefreshToken struct {
	Token string    // the serialized JWT string, delivered via http-only cookie
	JTI   string    // unique identifier embedded in the token
	Exp   time.Time // UTC expiration time
}

// TokenClaims is the verified content of an access or refresh token.
type TokenClaims struct {
	UserID uint64 // subject
	Role   string // role claim
	JTI    string // jti claim; empty for access tokens
}

// NewAccessToken builds and signs an HS256 JWT for a user.  It takes the
// access-token signing secret, the user ID, the user's role, and a TTL in
// minutes.  The JWT includes standard claims: subject (sub), role,
// expiration (exp) and issued at (iat).
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken builds and signs a refresh JWT with its own secret and a
// fresh random jti.  The jti, not the token itself, is what the session
// store tracks; HashTokenID(jti) is the lookup key for the session row.
func NewRefreshToken(secret string, userID uint64, role string, ttlDays int) (RefreshToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"jti":  jti,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Token: signed, JTI: jti, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of an access token and
// returns its claims.  Any failure collapses to ErrInvalidToken.
func ParseAccessToken(secret, raw string) (TokenClaims, error) {
	return parseHS256(secret, raw, false)
}

// ParseRefreshToken is like ParseAccessToken but for refresh tokens, which
// are signed with a distinct secret and must carry a jti claim.
func ParseRefreshToken(secret, raw string) (TokenClaims, error) {
	return parseHS256(secret, raw, true)
}

func parseHS256(secret, raw string, wantJTI bool) (TokenClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens using a different signing algorithm.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return TokenClaims{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, ErrInvalidToken
	}
	out := TokenClaims{}
	// JWT numeric values decode as float64; some clients send the subject as
	// a numeric string, so accept both forms.
	switch sub := claims["sub"].(type) {
	case float64:
		out.UserID = uint64(sub)
	case string:
		n, perr := strconv.ParseUint(sub, 10, 64)
		if perr != nil {
			return TokenClaims{}, ErrInvalidToken
		}
		out.UserID = n
	default:
		return TokenClaims{}, ErrInvalidToken
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = role
	}
	if out.UserID == 0 || out.Role == "" {
		return TokenClaims{}, ErrInvalidToken
	}
	if wantJTI {
		jti, ok := claims["jti"].(string)
		if !ok || jti == "" {
			return TokenClaims{}, ErrInvalidToken
		}
		out.JTI = jti
	}
	return out, nil
}

// HashTokenID returns the SHA‑256 hash of a refresh token's jti as a hex
// string.  Storing only the hash means a leaked database dump never yields
// a usable credential.
func HashTokenID(jti string) string {
	sum := sha256.Sum256([]byte(jti))
	return hex.EncodeToString(sum[:])
}
