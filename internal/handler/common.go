package handler // handler defines http handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jobtrackhq/jobtrack/internal/model"
)

// Identity is the authenticated subject attached to the request context by
// the JWT middleware.
type Identity struct {
	UserID uint64
	Role   string
}

// currentIdentity extracts the authenticated user from echo.Context.  The
// middleware stores normalized values, but we stay tolerant of the raw
// claim types a different producer might have set.
func currentIdentity(c echo.Context) (Identity, error) {
	id := Identity{}
	switch t := c.Get("user_id").(type) {
	case uint64:
		id.UserID = t
	case int:
		id.UserID = uint64(t)
	case int64:
		id.UserID = uint64(t)
	case float64:
		id.UserID = uint64(t)
	case string:
		n, err := strconv.ParseUint(t, 10, 64)
		if err != nil {
			return Identity{}, errors.New("invalid user_id in context")
		}
		id.UserID = n
	default:
		return Identity{}, errors.New("missing user_id in context")
	}
	role, ok := c.Get("role").(string)
	if !ok || role == "" {
		return Identity{}, errors.New("missing role in context")
	}
	id.Role = role
	return id, nil
}

// canRead reports whether the identity may view a resource owned by
// ownerID.  Admins can read anything; users can read only their own.
func canRead(ownerID uint64, id Identity) bool {
	return id.Role == model.RoleAdmin || id.UserID == ownerID
}

// canModify reports whether the identity may mutate a resource owned by
// ownerID.  Only the owning regular user qualifies: the admin role is
// deliberately read-only over resources, including ones it would own.
func canModify(ownerID uint64, id Identity) bool {
	return id.Role == model.RoleUser && id.UserID == ownerID
}

// targetUserID resolves the effective owner for list endpoints.  Admins may
// inspect any user's data via the user_id query parameter; regular users
// always get their own.
func targetUserID(c echo.Context, id Identity) (uint64, bool) {
	raw := c.QueryParam("user_id")
	if raw == "" {
		return id.UserID, true
	}
	if id.Role != model.RoleAdmin {
		return 0, false
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
