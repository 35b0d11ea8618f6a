package config

// Redis backs the response cache and the distributed rate limiter. When the
// server cannot be reached at startup the constructor returns nil and callers
// degrade: caching turns off and rate limiting falls back to in-process buckets.

import (
	"context"
	"crypto/tls"
	"net"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig locates the Redis server.
type RedisConfig struct {
	Disabled    bool
	Addr        string
	Password    string
	DB          int
	TLS         bool
	DialTimeout time.Duration
}

// LoadRedisConfig reads:
//
//	REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//	REDIS_ADDR – host:port shorthand (host/port take precedence when both are set)
//	REDIS_PASSWORD – optional password
//	REDIS_DB – database number (default 0)
//	REDIS_TLS – enable TLS
//	REDIS_DISABLED – skip Redis entirely
func LoadRedisConfig() RedisConfig {
	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = net.JoinHostPort(host, port)
	}
	return RedisConfig{
		Disabled:    envBool("REDIS_DISABLED", false),
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DB:          max(envInt("REDIS_DB", 0), 0),
		TLS:         envBool("REDIS_TLS", false),
		DialTimeout: envDur("REDIS_DIAL_TIMEOUT", 2*time.Second),
	}
}

// Options converts the config into client options.
func (c RedisConfig) Options() *redis.Options {
	opts := &redis.Options{
		Addr:        c.Addr,
		Password:    c.Password,
		DB:          c.DB,
		DialTimeout: c.DialTimeout,
	}
	if c.TLS {
		host, _, _ := strings.Cut(c.Addr, ":")
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
	}
	return opts
}

// NewRedisClient connects and pings. The returned client is nil when Redis
// is disabled or unreachable.
func NewRedisClient(ctx context.Context, cfg RedisConfig) *redis.Client {
	if cfg.Disabled {
		return nil
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	client := redis.NewClient(cfg.Options())
	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
