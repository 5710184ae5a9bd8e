package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework handles routing
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jobtrackhq/jobtrack/internal/config"
	"github.com/jobtrackhq/jobtrack/internal/handler"
	"github.com/jobtrackhq/jobtrack/internal/middleware"
	"github.com/jobtrackhq/jobtrack/internal/model"

	"github.com/redis/go-redis/v9"
)

// RegisterRoutes installs the global middleware and the routes that do not
// require authentication: a health check for load balancers and the
// Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.Use(middleware.SecureHeaders())
	e.Use(middleware.Metrics())

	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated session operations live under
// /v1/auth behind the Redis token-bucket limiter; /v1/me requires a valid
// access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rl config.RateLimitConfig, rdb *redis.Client) {
	// The limiter is an external guard in front of the session core: the
	// lifecycle endpoints behave identically with or without it.
	g := e.Group("/v1/auth", middleware.NewTokenBucket(rl, rdb))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the cookie-carried refresh token on every call.
	g.POST("/refresh", a.Refresh)
	// Logout is deliberately unauthenticated: an expired access token must
	// not prevent a client from terminating its session.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(a.Cfg.AccessSecret))
	auth.GET("/me", a.Me)
}

// RegisterResources registers the company and job endpoints.  All of them
// require a valid access token; per-resource ownership is enforced inside
// the handlers via the canRead/canModify helpers.
func RegisterResources(e *echo.Echo, r *handler.ResourceHandler, accessSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(accessSecret))

	g.POST("/companies", r.CreateCompany)
	g.GET("/companies", r.ListCompanies)
	g.GET("/companies/:id", r.GetCompany)
	g.PUT("/companies/:id", r.UpdateCompany)
	g.DELETE("/companies/:id", r.DeleteCompany)

	g.POST("/jobs", r.CreateJob)
	g.GET("/jobs", r.ListJobs)
	g.GET("/jobs/:id", r.GetJob)
	g.PUT("/jobs/:id", r.UpdateJob)
	g.DELETE("/jobs/:id", r.DeleteJob)
}

// RegisterAdmin registers the admin-only user management endpoints.  There
// is no role promotion route: roles are fixed at creation.
func RegisterAdmin(e *echo.Echo, u *handler.UserAdminHandler, accessSecret string) {
	g := e.Group("/v1/users")
	g.Use(middleware.JWTAuth(accessSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin))

	g.GET("", u.ListUsers)
	g.GET("/:id", u.GetUser)
	g.PUT("/:id", u.UpdateUser)
	g.DELETE("/:id", u.DeleteUser)
}
