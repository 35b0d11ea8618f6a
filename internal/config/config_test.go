package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SQLiteDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("API_PREFIX", "api/v2/")
	t.Setenv("CLIENT_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/api/v2", cfg.APIPrefix)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost, "cost is clamped to the minimum")
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.ClientOrigins)
	assert.Equal(t, 10, cfg.Upload.MaxFiles)
	assert.Equal(t, int64(5<<20), cfg.Upload.MaxFileBytes)
	assert.Equal(t, "INR", cfg.Payment.Currency)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	require.Error(t, err)
	for _, key := range []string{"JWT_SECRET", "DB_HOST", "DB_NAME"} {
		assert.Contains(t, err.Error(), key)
	}
	assert.NotContains(t, err.Error(), "DB_USER")
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	t.Setenv("JWT_SECRET", "x")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfig_Methods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
}

func TestEnvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_DUR", "soon")
	t.Setenv("X_BOOL", "maybe")
	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.Equal(t, time.Minute, envDur("X_DUR", time.Minute))
	assert.True(t, envBool("X_BOOL", true))
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache.internal:6380")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_DB", "-2")
	cfg := LoadRedisConfig()
	assert.Equal(t, "cache.internal:6380", cfg.Addr)
	assert.Zero(t, cfg.DB)
	assert.Nil(t, cfg.Options().TLSConfig)

	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_TLS", "true")
	cfg = LoadRedisConfig()
	assert.Equal(t, "redis:6379", cfg.Addr)
	require.NotNil(t, cfg.Options().TLSConfig)
	assert.Equal(t, "redis", cfg.Options().TLSConfig.ServerName)
}

func TestNewRedisClient_Disabled(t *testing.T) {
	assert.Nil(t, NewRedisClient(context.Background(), RedisConfig{Disabled: true}))
}
