//go:build integration

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
	"github.com/iliyamo/travel-booking-api/internal/config"
	"github.com/iliyamo/travel-booking-api/internal/logger"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := ctr.Terminate(ctx); err != nil {
			t.Logf("terminate redis: %v", err)
		}
	})
	addr, err := ctr.Endpoint(ctx, "")
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())
	return rdb
}

func newTestServer() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if ae, ok := apperr.As(err); ok {
			_ = c.NoContent(ae.HTTPStatus())
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
	return e
}

func do(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestResponseCache_Redis(t *testing.T) {
	rdb := startRedis(t)
	cfg := config.CacheConfig{
		Enabled: true, Methods: map[string]bool{http.MethodGet: true}, TTL: time.Minute,
		KeyStrategy: "route_query", Prefix: "cache", MaxBodyBytes: 1 << 20,
	}
	rc := NewResponseCache(cfg, rdb, logger.Discard())

	calls := 0
	e := newTestServer()
	e.GET("/tours", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, map[string]int{"calls": calls})
	}, rc.Cache(NamespaceTours))
	e.POST("/tours", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, rc.PurgeOn(NamespaceTours))

	first := do(e, http.MethodGet, "/tours?page=1")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := do(e, http.MethodGet, "/tours?page=1")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	assert.Equal(t, "MISS", do(e, http.MethodGet, "/tours?page=2").Header().Get("X-Cache"))

	assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/tours").Code)
	keys, err := rdb.Keys(context.Background(), "cache:tours:*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)

	third := do(e, http.MethodGet, "/tours?page=1")
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)
}

func TestTokenBucket_Redis(t *testing.T) {
	rdb := startRedis(t)
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Minute,
		TTL: 10 * time.Minute, KeyStrategy: "ip_route", Prefix: "rl",
	}
	e := newTestServer()
	e.POST("/auth/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewTokenBucket(cfg, rdb, logger.Discard()))

	assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/auth/login").Code)
	second := do(e, http.MethodPost, "/auth/login")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	blocked := do(e, http.MethodPost, "/auth/login")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
}
