package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// newMeteredEcho builds an Echo app with the metrics middleware, one plain
// route, one parameterized route and one failing route.
func newMeteredEcho() *echo.Echo {
	e := echo.New()
	e.Use(Metrics())
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})
	e.GET("/things/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Param("id"))
	})
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "boom")
	})
	return e
}

func hitPath(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMetricsCountsRequests(t *testing.T) {
	e := newMeteredEcho()

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/ping", "200"))
	hitPath(e, "/ping")
	hitPath(e, "/ping")
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/ping", "200"))

	assert.Equal(t, before+2, after)
}

func TestMetricsUsesRouteTemplateAsPathLabel(t *testing.T) {
	e := newMeteredEcho()

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/things/:id", "200"))
	hitPath(e, "/things/123")
	hitPath(e, "/things/456")
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/things/:id", "200"))

	// Both requests land on the same template label; raw ids never appear.
	assert.Equal(t, before+2, after)
}

func TestMetricsCountsHandlerErrorsUnderTheirStatus(t *testing.T) {
	e := newMeteredEcho()

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/boom", "418"))
	hitPath(e, "/boom")
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/boom", "418"))

	assert.Equal(t, before+1, after)
}

func TestMetricsEndpointExposesSeries(t *testing.T) {
	e := newMeteredEcho()
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	hitPath(e, "/ping")
	rec := hitPath(e, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
	assert.Contains(t, rec.Body.String(), "http_request_duration_seconds")
}
