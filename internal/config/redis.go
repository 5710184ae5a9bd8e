package config

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds the client backing the distributed rate limiter.
// REDIS_URL takes precedence (any redis:// or rediss:// URL); otherwise
// REDIS_ADDR or REDIS_HOST/REDIS_PORT plus REDIS_PASSWORD and REDIS_DB are
// consulted, defaulting to localhost:6379.
//
// The connection is verified with a short ping.  On failure the function
// returns nil and the caller runs without rate limiting; Redis being down
// must never keep the service from starting.
func NewRedisClient() *redis.Client {
	var opts *redis.Options

	if rawURL := os.Getenv("REDIS_URL"); rawURL != "" {
		parsed, err := redis.ParseURL(rawURL)
		if err != nil {
			log.Printf("redis: invalid REDIS_URL: %v", err)
			return nil
		}
		opts = parsed
	} else {
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			host := os.Getenv("REDIS_HOST")
			port := os.Getenv("REDIS_PORT")
			if host != "" && port != "" {
				addr = host + ":" + port
			}
		}
		if addr == "" {
			addr = "localhost:6379"
		}
		db := 0
		if raw := os.Getenv("REDIS_DB"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				db = n
			}
		}
		opts = &redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       db,
		}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
