package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
	"github.com/iliyamo/travel-booking-api/internal/config"
)

var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 and refill_tokens > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + (intervals * refill_tokens))
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

// decision is the outcome of one rate-limit check.
type decision struct {
	allowed    bool
	remaining  int64
	retryAfter time.Duration
}

// KeyedLimiter is the in-process token bucket used when Redis is not
// configured or fails. Buckets idle for longer than ttl are dropped.
type KeyedLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
	sweep   time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewKeyedLimiter refills refill tokens every interval up to capacity.
func NewKeyedLimiter(capacity, refill int, interval, ttl time.Duration) *KeyedLimiter {
	refill = max(refill, 1)
	return &KeyedLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Every(interval / time.Duration(refill)),
		burst:   capacity,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (k *KeyedLimiter) allow(key string) decision {
	k.mu.Lock()
	defer k.mu.Unlock()
	now := k.now()
	if now.Sub(k.sweep) > k.ttl {
		for key, b := range k.buckets {
			if now.Sub(b.seen) > k.ttl {
				delete(k.buckets, key)
			}
		}
		k.sweep = now
	}
	b, ok := k.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(k.limit, k.burst)}
		k.buckets[key] = b
	}
	b.seen = now
	r := b.lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return decision{retryAfter: delay}
	}
	return decision{allowed: true, remaining: int64(math.Floor(b.lim.TokensAt(now)))}
}

// Allow reports whether a request for key may proceed.
func (k *KeyedLimiter) Allow(key string) bool { return k.allow(key).allowed }

// NewTokenBucket limits requests per key with a Redis token bucket shared by
// every API process. Without Redis, or when a Redis call fails, the
// in-process KeyedLimiter decides instead. Rejections are RATE_LIMITED with a
// Retry-After header.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *slog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled {
		return passthrough
	}
	local := NewKeyedLimiter(cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval, cfg.TTL)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			d, err := redisAllow(c, rdb, cfg, key)
			if err != nil {
				if rdb != nil {
					log.Warn("rate limit redis error, using local limiter", "key", key, "err", err)
				}
				d = local.allow(key)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if !d.allowed {
				secs := int(math.Ceil(d.retryAfter.Seconds()))
				h.Set("Retry-After", strconv.Itoa(secs))
				if cfg.Debug {
					log.Info("rate limit block", "key", key, "retry_after", d.retryAfter)
				}
				return apperr.RateLimited(fmt.Sprintf("too many requests, retry in %d seconds", secs))
			}
			return next(c)
		}
	}
}

var errNoRedis = errors.New("redis not configured")

func redisAllow(c echo.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string) (decision, error) {
	if rdb == nil {
		return decision{}, errNoRedis
	}
	vals, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key},
		time.Now().UnixMilli(),
		cfg.Capacity,
		cfg.RefillTokens,
		cfg.RefillInterval.Milliseconds(),
		int64(cfg.TTL/time.Second),
	).Int64Slice()
	if err != nil {
		return decision{}, err
	}
	if len(vals) != 3 {
		return decision{}, fmt.Errorf("unexpected script result %v", vals)
	}
	return decision{
		allowed:    vals[0] == 1,
		remaining:  vals[1],
		retryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := CurrentUserID(c)
	if uid == "" {
		uid = "anon"
	}
	route := c.Request().Method + " " + c.Path()

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", uid)
	case "route":
		parts = append(parts, "route", route)
	case "ip_user":
		parts = append(parts, "ip", ip, "user", uid)
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	case "user_route":
		parts = append(parts, "user", uid, "route", route)
	default:
		parts = append(parts, "ip", ip, "user", uid, "route", route)
	}
	return strings.Join(parts, ":")
}
