package handler

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobtrackhq/jobtrack/internal/middleware"
	"github.com/jobtrackhq/jobtrack/internal/repository"
	"github.com/jobtrackhq/jobtrack/internal/utils"
)

const resourceSecret = "resource-access-secret"

var companyCols = []string{"id", "user_id", "name", "website", "location", "created_at", "updated_at"}

// newResourceApp wires the company routes behind JWTAuth over a sqlmock
// database.
func newResourceApp(t *testing.T) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewResourceHandler(repository.NewCompanyRepo(db), repository.NewJobRepo(db))
	e := echo.New()
	g := e.Group("/v1", middleware.JWTAuth(resourceSecret))
	g.POST("/companies", h.CreateCompany)
	g.GET("/companies", h.ListCompanies)
	g.GET("/companies/:id", h.GetCompany)
	g.PUT("/companies/:id", h.UpdateCompany)
	g.DELETE("/companies/:id", h.DeleteCompany)
	return e, mock
}

func bearerFor(t *testing.T, userID uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(resourceSecret, userID, role, 15)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func doJSON(e *echo.Echo, method, path, body, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", auth)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func expectCompanyByID(mock sqlmock.Sqlmock, id, ownerID uint64) {
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, user_id, name, website, location, created_at, updated_at FROM companies WHERE id = ?")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(companyCols).
			AddRow(id, ownerID, "Initech", "https://initech.example", "Austin", now, now))
}

func TestCreateCompany(t *testing.T) {
	e, mock := newResourceApp(t)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO companies (user_id, name, website, location) VALUES (?, ?, ?, ?)")).
		WithArgs(uint64(1), "Initech", "https://initech.example", "Austin").
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT created_at, updated_at FROM companies WHERE id = ?")).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	rec := doJSON(e, http.MethodPost, "/v1/companies",
		`{"name":"Initech","website":"https://initech.example","location":"Austin"}`,
		bearerFor(t, 1, "user"))

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"Initech"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCompanyAdminIsReadOnly(t *testing.T) {
	e, _ := newResourceApp(t)

	rec := doJSON(e, http.MethodPost, "/v1/companies",
		`{"name":"Initech"}`, bearerFor(t, 3, "admin"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "forbidden")
}

func TestGetCompanyOwnership(t *testing.T) {
	e, mock := newResourceApp(t)

	// Owner reads their own company.
	expectCompanyByID(mock, 10, 1)
	rec := doJSON(e, http.MethodGet, "/v1/companies/10", "", bearerFor(t, 1, "user"))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Another user is refused.
	expectCompanyByID(mock, 10, 1)
	rec = doJSON(e, http.MethodGet, "/v1/companies/10", "", bearerFor(t, 2, "user"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Admin reads anything.
	expectCompanyByID(mock, 10, 1)
	rec = doJSON(e, http.MethodGet, "/v1/companies/10", "", bearerFor(t, 3, "admin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateCompanyForbiddenForNonOwnerAndAdmin(t *testing.T) {
	e, mock := newResourceApp(t)
	body := `{"name":"Initech Global"}`

	expectCompanyByID(mock, 10, 1)
	rec := doJSON(e, http.MethodPut, "/v1/companies/10", body, bearerFor(t, 2, "user"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Admin can read the row but not rewrite it.
	expectCompanyByID(mock, 10, 1)
	rec = doJSON(e, http.MethodPut, "/v1/companies/10", body, bearerFor(t, 3, "admin"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateCompanyOwner(t *testing.T) {
	e, mock := newResourceApp(t)

	expectCompanyByID(mock, 10, 1)
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE companies SET name = ?, website = ?, location = ? WHERE id = ?")).
		WithArgs("Initech Global", "", "", uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doJSON(e, http.MethodPut, "/v1/companies/10",
		`{"name":"Initech Global"}`, bearerFor(t, 1, "user"))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Initech Global")
}

func TestDeleteCompanyOwner(t *testing.T) {
	e, mock := newResourceApp(t)

	expectCompanyByID(mock, 10, 1)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM companies WHERE id = ?")).
		WithArgs(uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doJSON(e, http.MethodDelete, "/v1/companies/10", "", bearerFor(t, 1, "user"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetCompanyNotFound(t *testing.T) {
	e, mock := newResourceApp(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, user_id, name, website, location, created_at, updated_at FROM companies WHERE id = ?")).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows(companyCols))

	rec := doJSON(e, http.MethodGet, "/v1/companies/99", "", bearerFor(t, 1, "user"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestListCompaniesUserIDFilterRequiresAdmin(t *testing.T) {
	e, mock := newResourceApp(t)

	rec := doJSON(e, http.MethodGet, "/v1/companies?user_id=2", "", bearerFor(t, 1, "user"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, user_id, name, website, location, created_at, updated_at").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows(companyCols).
			AddRow(11, 2, "Hooli", "", "", now, now))
	rec = doJSON(e, http.MethodGet, "/v1/companies?user_id=2", "", bearerFor(t, 3, "admin"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hooli")
}
