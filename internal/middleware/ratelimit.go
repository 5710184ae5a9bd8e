package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/jobtrackhq/jobtrack/internal/config"
)

// tokenBucketScript implements a refilling bucket in Redis.  Running it as a
// Lua script makes take-one-token atomic across server instances sharing the
// same Redis.  Returns {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
	local bucket = KEYS[1]
	local now = tonumber(ARGV[1])
	local cap = tonumber(ARGV[2])
	local refill = tonumber(ARGV[3])
	local step_ms = tonumber(ARGV[4])
	local ttl = tonumber(ARGV[5])

	local st = redis.call('HMGET', bucket, 'tokens', 'stamp')
	local tokens = tonumber(st[1])
	local stamp = tonumber(st[2])
	if tokens == nil or stamp == nil then
		tokens = cap
		stamp = now
	end

	if step_ms > 0 and refill > 0 then
		local steps = math.floor(math.max(0, now - stamp) / step_ms)
		if steps > 0 then
			tokens = math.min(cap, tokens + steps * refill)
			stamp = stamp + steps * step_ms
		end
	end

	local allowed = 0
	local wait_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		wait_ms = math.max(0, step_ms - (now - stamp))
	end

	redis.call('HMSET', bucket, 'tokens', tokens, 'stamp', stamp)
	redis.call('EXPIRE', bucket, ttl)
	return { allowed, tokens, wait_ms }
`)

// NewTokenBucket builds the limiter guarding the auth endpoints.  Bucket
// state lives in Redis so multiple server instances share one view of a
// client's budget.  When Redis is unreachable mid-request the limiter fails
// open: login availability outranks strict limiting.  A nil client or a
// disabled config yields a no-op middleware.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)

			res, err := tokenBucketScript.Run(c.Request().Context(), rdb,
				[]string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Result()
			if err != nil {
				if cfg.Debug {
					c.Logger().Warnf("ratelimit: redis error for %s: %v", key, err)
				}
				return next(c)
			}

			arr, ok := res.([]interface{})
			if !ok || len(arr) != 3 {
				if cfg.Debug {
					c.Logger().Warnf("ratelimit: unexpected script result for %s: %#v", key, res)
				}
				return next(c)
			}
			allowed := asInt64(arr[0]) == 1
			remaining := asInt64(arr[1])
			waitMs := asInt64(arr[2])

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				secs := int(math.Ceil(float64(waitMs) / 1000.0))
				h.Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too_many_requests",
					"message":     "rate limit exceeded",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

// buildRateKey derives the bucket key from the configured strategy.  The
// default couples client IP with method+path so one hot endpoint cannot
// drain a client's budget everywhere else.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	parts := []string{cfg.Prefix}
	ip := c.RealIP()
	if ip == "" { ip = "unknown" }
	route := c.Request().Method + " " + c.Path()

	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "route":
		parts = append(parts, "route", route)
	default: // "ip_route"
		parts = append(parts, "ip", ip, "route", route)
	}
	return strings.Join(parts, ":")
}

// asInt64 normalizes the mixed numeric types a Lua script result can carry.
func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64: return t
	case int32: return int64(t)
	case int: return int64(t)
	case float64: return int64(t)
	case float32: return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil { return n }
	}
	return 0
}
