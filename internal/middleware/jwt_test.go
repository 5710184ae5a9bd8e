package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobtrackhq/jobtrack/internal/utils"
)

const (
	mwAccessSecret  = "mw-access-secret"
	mwRefreshSecret = "mw-refresh-secret"
)

// newProtectedEcho builds an Echo app with one route behind JWTAuth that
// echoes back the identity the middleware stored in the context.
func newProtectedEcho(extra ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	mw := append([]echo.MiddlewareFunc{JWTAuth(mwAccessSecret)}, extra...)
	e.GET("/protected", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"user_id": c.Get("user_id"),
			"role":    c.Get("role"),
		})
	}, mw...)
	return e
}

func doGet(e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken(mwAccessSecret, 42, "user", 15)
	require.NoError(t, err)

	rec := doGet(newProtectedEcho(), "Bearer "+tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":42`)
	assert.Contains(t, rec.Body.String(), `"role":"user"`)
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	rec := doGet(newProtectedEcho(), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}

func TestJWTAuthRejectsMalformedHeader(t *testing.T) {
	rec := doGet(newProtectedEcho(), "Token abc.def.ghi")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsExpiredToken(t *testing.T) {
	tok, err := utils.NewAccessToken(mwAccessSecret, 42, "user", -1)
	require.NoError(t, err)

	rec := doGet(newProtectedEcho(), "Bearer "+tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsRefreshTokenOnProtectedRoute(t *testing.T) {
	// Refresh tokens are signed with a different secret; they must not
	// double as access tokens.
	tok, err := utils.NewRefreshToken(mwRefreshSecret, 42, "user", 7)
	require.NoError(t, err)

	rec := doGet(newProtectedEcho(), "Bearer "+tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
	tok, err := utils.NewAccessToken(mwAccessSecret, 1, "admin", 15)
	require.NoError(t, err)

	rec := doGet(newProtectedEcho(RequireRole("admin")), "Bearer "+tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleForbidsOtherRoles(t *testing.T) {
	tok, err := utils.NewAccessToken(mwAccessSecret, 1, "user", 15)
	require.NoError(t, err)

	rec := doGet(newProtectedEcho(RequireRole("admin")), "Bearer "+tok.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "forbidden")
}

func TestRequireRoleWithoutIdentityForbids(t *testing.T) {
	e := echo.New()
	e.GET("/admin-only", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RequireRole("admin"))

	req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
