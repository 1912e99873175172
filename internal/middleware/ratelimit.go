package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	logging "github.com/op/go-logging"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-pos/internal/config"
)

var log = logging.MustGetLogger("middleware")

// tokenBucket takes one token from the bucket at KEYS[1].  Tokens refill
// continuously at refill/interval per millisecond up to capacity.  The
// reply is {allowed, remaining, retry_after_ms}.
var tokenBucket = redis.NewScript(`
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3]) / math.max(1, tonumber(ARGV[4]))
local ttl = tonumber(ARGV[5])

local bucket = redis.call('HMGET', KEYS[1], 'tokens', 'at')
local tokens = tonumber(bucket[1]) or capacity
local at = tonumber(bucket[2]) or now

tokens = math.min(capacity, tokens + math.max(0, now - at) * rate)

local allowed, wait = 0, 0
if tokens >= 1 then
    allowed = 1
    tokens = tokens - 1
else
    wait = math.ceil((1 - tokens) / rate)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'at', now)
redis.call('EXPIRE', KEYS[1], ttl)
return { allowed, math.floor(tokens), wait }
`)

// rateDecision is the parsed reply of tokenBucket.
type rateDecision struct {
	Allowed   bool
	Remaining int64
	RetryMs   int64
}

func parseDecision(v interface{}) (rateDecision, bool) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != 3 {
		return rateDecision{}, false
	}
	return rateDecision{
		Allowed:   asInt64(arr[0]) == 1,
		Remaining: asInt64(arr[1]),
		RetryMs:   asInt64(arr[2]),
	}, true
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// NewTokenBucket limits requests per key with a Redis token bucket.  It is
// a pass-through when disabled or when Redis is unavailable, and it fails
// open on Redis errors so the floor keeps working.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	limit := strconv.Itoa(cfg.Capacity)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			reply, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Result()
			if err != nil {
				log.Warningf("ratelimit: redis error for %s, letting request through: %v", key, err)
				return next(c)
			}
			d, ok := parseDecision(reply)
			if !ok {
				log.Warningf("ratelimit: unexpected reply for %s: %#v", key, reply)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if d.Allowed {
				return next(c)
			}
			secs := int((d.RetryMs + 999) / 1000)
			h.Set("Retry-After", strconv.Itoa(secs))
			log.Debugf("ratelimit: %s blocked for %dms", key, d.RetryMs)
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "too many requests, slow down",
				"retry_after": secs,
			})
		}
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}

// buildRateKey joins the dimensions named by cfg.KeyStrategy ("ip",
// "user", "route", combined with underscores such as "ip_user").  An
// unknown or empty strategy keys on all three.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	parts := []string{cfg.Prefix}
	for _, dim := range strings.Split(strings.ToLower(cfg.KeyStrategy), "_") {
		switch dim {
		case "ip":
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			parts = append(parts, "ip", ip)
		case "user":
			parts = append(parts, "user", userKey(c))
		case "route":
			parts = append(parts, "route", c.Request().Method+" "+c.Path())
		}
	}
	if len(parts) == 1 {
		return buildRateKey(config.RateLimitConfig{Prefix: cfg.Prefix, KeyStrategy: "ip_user_route"}, c)
	}
	return strings.Join(parts, ":")
}
