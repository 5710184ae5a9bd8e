package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/jobtrackhq/jobtrack/internal/config"
	"github.com/jobtrackhq/jobtrack/internal/database"
	"github.com/jobtrackhq/jobtrack/internal/handler"
	"github.com/jobtrackhq/jobtrack/internal/queue"
	"github.com/jobtrackhq/jobtrack/internal/repository"
	"github.com/jobtrackhq/jobtrack/internal/router"
	"github.com/jobtrackhq/jobtrack/internal/service"
)

func main() {
	// Load a .env file when present; in production the variables come from
	// the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the auth-endpoint rate limiter.  nil means degraded mode:
	// the limiter fails open.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting disabled")
	}
	rl := config.LoadRateLimitConfig()

	// Background consumer writing the security audit trail.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	companies := repository.NewCompanyRepo(db)
	jobs := repository.NewJobRepo(db)

	audit := queue.NewAuditPublisher()
	auth := service.NewAuthService(cfg, users, sessions, audit)

	authHandler := handler.NewAuthHandler(cfg, auth, users)
	resHandler := handler.NewResourceHandler(companies, jobs)
	adminHandler := handler.NewUserAdminHandler(users, auth, audit)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, rl, rdb)
	router.RegisterResources(e, resHandler, cfg.AccessSecret)
	router.RegisterAdmin(e, adminHandler, cfg.AccessSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
