package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jobtrackhq/jobtrack/internal/queue"
	"github.com/jobtrackhq/jobtrack/internal/repository"
	"github.com/jobtrackhq/jobtrack/internal/service"
)

// UserAdminHandler exposes the admin-only user management endpoints.  There
// is no role update: roles are fixed at creation and admin accounts come
// from seeding.
type UserAdminHandler struct {
	Users *repository.UserRepo
	Auth  *service.AuthService
	Audit service.AuditSink // may be nil
}

func NewUserAdminHandler(users *repository.UserRepo, auth *service.AuthService, audit service.AuditSink) *UserAdminHandler {
	return &UserAdminHandler{Users: users, Auth: auth, Audit: audit}
}

// ListUsers handles GET /v1/users with limit/offset pagination and an
// optional username/email search term.
func (h *UserAdminHandler) ListUsers(c echo.Context) error {
	limit := 50
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil {
		offset = v
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	search := strings.TrimSpace(c.QueryParam("search"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx, search, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "list users failed"})
	}
	items := make([]userPart, 0, len(users))
	for _, u := range users {
		items = append(items, toUserPart(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetUser handles GET /v1/users/:id.
func (h *UserAdminHandler) GetUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "load user failed"})
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

type updateUserReq struct {
	Username string `json:"username"`
}

// UpdateUser handles PUT /v1/users/:id.  Only the username can change:
// email is an immutable login identifier and roles are fixed at creation,
// so neither is accepted here.
func (h *UserAdminHandler) UpdateUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "invalid id"})
	}
	var body updateUserReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "invalid body"})
	}
	username := strings.TrimSpace(body.Username)
	if username == "" || len(username) > 120 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "username is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "load user failed"})
	}

	if err := h.Users.UpdateUsername(ctx, id, username); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": "username already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "update user failed"})
	}
	u.Username = username
	return c.JSON(http.StatusOK, toUserPart(u))
}

// DeleteUser handles DELETE /v1/users/:id.  Every refresh session of the
// user is revoked before the identity row goes away, so no outstanding
// refresh token survives the account.
func (h *UserAdminHandler) DeleteUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "load user failed"})
	}

	if err := h.Auth.RevokeUserSessions(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "revoke sessions failed"})
	}
	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "delete user failed"})
	}
	if h.Audit != nil {
		_ = h.Audit.Publish(ctx, queue.AuthEvent{
			Type: queue.EventUserDeleted, UserID: u.ID, Email: u.Email,
			IP: c.RealIP(), UserAgent: c.Request().UserAgent(), At: time.Now().UTC(),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}
