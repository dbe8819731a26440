package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/summer-camp-booking/internal/config"
)

// tokenBucket refills and takes one token atomically.  It returns
// {allowed (0|1), tokens left, ms until the next refill}.
var tokenBucket = redis.NewScript(`
local key         = KEYS[1]
local now         = tonumber(ARGV[1])
local capacity    = tonumber(ARGV[2])
local refill      = tonumber(ARGV[3])
local interval    = tonumber(ARGV[4])
local ttl         = tonumber(ARGV[5])

local tokens = tonumber(redis.call('HGET', key, 't'))
local last   = tonumber(redis.call('HGET', key, 'l'))
if tokens == nil or last == nil then
  tokens = capacity
  last = now
end

local steps = math.floor(math.max(0, now - last) / interval)
if steps > 0 then
  tokens = math.min(capacity, tokens + steps * refill)
  last = last + steps * interval
end

local allowed = 0
local wait = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  wait = math.max(0, interval - (now - last))
end

redis.call('HSET', key, 't', tokens, 'l', last)
redis.call('EXPIRE', key, ttl)
return { allowed, tokens, wait }
`)

// NewTokenBucket returns a distributed rate limiter backed by Redis.  With
// limiting disabled or no client it is a pass-through.  Redis failures fail
// open: the request proceeds and, in debug mode, a warning is logged.
//
// The limiter runs before any route guard, so the user based key strategies
// check the bearer token themselves with verify.  A nil verify, or a missing
// or invalid token, keys the caller as "anon".
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, verify Verifier) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c, verify)
			res, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Int64Slice()
			if err != nil || len(res) != 3 {
				if cfg.Debug {
					c.Logger().Warnf("[ratelimit] key=%s result=%v err=%v", key, res, err)
				}
				return next(c)
			}
			allowed, remaining, waitMs := res[0] == 1, res[1], res[2]

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if !allowed {
				secs := int(math.Ceil(float64(waitMs) / 1000.0))
				h.Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       true,
					"message":     "rate limit exceeded",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context, verify Verifier) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	route := c.Request().Method + " " + c.Path()

	user := func() string { return rateUser(c, verify) }

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", user())
	case "route":
		parts = append(parts, "route", route)
	case "user_route":
		parts = append(parts, "user", user(), "route", route)
	case "ip_user_route":
		parts = append(parts, "ip", ip, "user", user(), "route", route)
	default: // "ip_route"
		parts = append(parts, "ip", ip, "route", route)
	}
	return strings.Join(parts, ":")
}

// rateUser names the caller for user keyed buckets.  An identity already on
// the context wins; otherwise the bearer token is verified here.
func rateUser(c echo.Context, verify Verifier) string {
	if _, ok := IdentityFrom(c); ok || verify == nil {
		return userID(c)
	}
	raw, ok := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		return "anon"
	}
	id, err := verify(raw)
	if err != nil || id.Email == "" {
		return "anon"
	}
	return id.Email
}
