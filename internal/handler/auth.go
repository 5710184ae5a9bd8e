package handler

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jobtrackhq/jobtrack/internal/config"
	"github.com/jobtrackhq/jobtrack/internal/model"
	"github.com/jobtrackhq/jobtrack/internal/repository"
	"github.com/jobtrackhq/jobtrack/internal/service"
)

// refreshCookieName is the cookie carrying the refresh token.  The token
// never appears in a response body; http-only keeps it away from scripts.
const refreshCookieName = "refresh_token"

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Auth  *service.AuthService
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, auth *service.AuthService, users *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Auth: auth, Users: users}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPart struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
type authResp struct {
	AccessToken string   `json:"accessToken"`
	User        userPart `json:"user"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

func clientInfo(c echo.Context) service.ClientInfo {
	return service.ClientInfo{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
}

// ----- refresh cookie handling -----

func (h *AuthHandler) setRefreshCookie(c echo.Context, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if h.Cfg.IsProd() {
		sameSite = http.SameSiteStrictMode
	}
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(time.Until(exp) / time.Second),
		HttpOnly: true,
		Secure:   h.Cfg.IsProd(),
		SameSite: sameSite,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	sameSite := http.SameSiteLaxMode
	if h.Cfg.IsProd() {
		sameSite = http.SameSiteStrictMode
	}
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.IsProd(),
		SameSite: sameSite,
	})
}

// Register creates a user and returns tokens immediately: the access token
// in the body and the refresh token as an http-only cookie.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || len(req.Username) > 120 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "username is required"})
	}
	if !emailRe.MatchString(req.Email) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "invalid email format"})
	}
	if len(req.Password) < 6 || len(req.Password) > 200 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "password must be at least 6 characters"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Auth.Register(ctx, req.Username, req.Email, req.Password, clientInfo(c))
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": "username or email already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "could not create user"})
	}

	h.setRefreshCookie(c, pair.Refresh.Token, pair.Refresh.Exp)
	return c.JSON(http.StatusCreated, authResp{AccessToken: pair.Access.Token, User: toUserPart(pair.User)})
}

// Login verifies credentials and returns a fresh token pair.  Unknown email
// and wrong password produce byte-identical responses.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Auth.Login(ctx, req.Email, req.Password, clientInfo(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_credentials", "message": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "login failed"})
	}

	h.setRefreshCookie(c, pair.Refresh.Token, pair.Refresh.Exp)
	return c.JSON(http.StatusOK, authResp{AccessToken: pair.Access.Token, User: toUserPart(pair.User)})
}

// Refresh rotates the refresh cookie and returns a new access token.  Every
// failure mode, including detected reuse, answers with the same 401 and a
// cleared cookie.
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "refresh token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Auth.Refresh(ctx, cookie.Value, clientInfo(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			h.clearRefreshCookie(c)
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "refresh failed"})
	}

	h.setRefreshCookie(c, pair.Refresh.Token, pair.Refresh.Exp)
	return c.JSON(http.StatusOK, echo.Map{"accessToken": pair.Access.Token})
}

// Logout is best-effort and idempotent: it revokes the session when the
// cookie decodes, clears the cookie either way, and always returns 200.
func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		h.Auth.Logout(ctx, cookie.Value)
	}
	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "user no longer exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "load user failed"})
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}
