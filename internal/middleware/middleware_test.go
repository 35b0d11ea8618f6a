package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
	"github.com/iliyamo/travel-booking-api/internal/config"
	"github.com/iliyamo/travel-booking-api/internal/id"
	"github.com/iliyamo/travel-booking-api/internal/logger"
	"github.com/iliyamo/travel-booking-api/internal/model"
	"github.com/iliyamo/travel-booking-api/internal/utils"
)

var tokens = utils.NewTokenService("middleware-test-secret", time.Hour)

func newContext(method, target, auth string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func bearer(t *testing.T, ts *utils.TokenService, userID, role string) string {
	t.Helper()
	tok, _, err := ts.Issue(userID, role, "someone")
	require.NoError(t, err)
	return "Bearer " + tok
}

func ok(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

func TestRequireAuth(t *testing.T) {
	userID := id.New()
	expired := tokens.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })

	tests := []struct {
		name string
		auth string
		want error
	}{
		{"missing header", "", apperr.ErrUnauthenticated},
		{"wrong scheme", "Basic dXNlcjpwYXNz", apperr.ErrUnauthenticated},
		{"empty token", "Bearer ", apperr.ErrUnauthenticated},
		{"garbage token", "Bearer not.a.jwt", apperr.ErrInvalidToken},
		{"expired token", bearer(t, expired, userID, model.RoleUser), apperr.ErrInvalidToken},
		{"foreign secret", bearer(t, utils.NewTokenService("other", time.Hour), userID, model.RoleUser), apperr.ErrInvalidToken},
		{"valid token", bearer(t, tokens, userID, model.RoleUser), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/", tt.auth)
			err := RequireAuth(tokens)(ok)(c)
			if tt.want != nil {
				assert.True(t, errors.Is(err, tt.want), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, http.StatusNoContent, rec.Code)
			who, found := CurrentIdentity(c)
			require.True(t, found)
			assert.Equal(t, userID, who.ID)
			assert.Equal(t, model.RoleUser, who.Role)
			assert.Equal(t, "someone", who.Username)
		})
	}
}

func TestBearerScheme_CaseInsensitive(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/", "bearer abc.def.ghi")
	raw, found := bearerToken(c)
	assert.True(t, found)
	assert.Equal(t, "abc.def.ghi", raw)
}

func TestOptionalAuth(t *testing.T) {
	t.Run("bad token proceeds anonymously", func(t *testing.T) {
		c, rec := newContext(http.MethodGet, "/", "Bearer broken")
		require.NoError(t, OptionalAuth(tokens)(ok)(c))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		_, found := CurrentIdentity(c)
		assert.False(t, found)
		assert.Empty(t, CurrentUserID(c))
	})
	t.Run("good token attaches identity", func(t *testing.T) {
		userID := id.New()
		c, _ := newContext(http.MethodGet, "/", bearer(t, tokens, userID, model.RoleUser))
		require.NoError(t, OptionalAuth(tokens)(ok)(c))
		assert.Equal(t, userID, CurrentUserID(c))
	})
}

func TestRequireAdmin(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/", bearer(t, tokens, id.New(), model.RoleUser))
	assert.True(t, errors.Is(RequireAdmin(tokens)(ok)(c), apperr.ErrForbidden))

	c, _ = newContext(http.MethodGet, "/", "")
	assert.True(t, errors.Is(RequireAdmin(tokens)(ok)(c), apperr.ErrUnauthenticated))

	c, rec := newContext(http.MethodGet, "/", bearer(t, tokens, id.New(), model.RoleAdmin))
	require.NoError(t, RequireAdmin(tokens)(ok)(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireOwnerOrAdmin_Param(t *testing.T) {
	owner, other := id.New(), id.New()
	run := func(auth string) (int, error) {
		c, rec := newContext(http.MethodGet, "/users/"+owner, auth)
		c.SetParamNames("id")
		c.SetParamValues(owner)
		err := RequireOwnerOrAdmin(tokens, ParamOwner("id"))(ok)(c)
		return rec.Code, err
	}

	_, err := run(bearer(t, tokens, other, model.RoleUser))
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	code, err := run(bearer(t, tokens, owner, model.RoleUser))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, code)

	code, err = run(bearer(t, tokens, other, model.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, code)

	_, err = run("")
	assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))
}

func TestRequireOwnerOrAdmin_Lookup(t *testing.T) {
	owner, bookingID := id.New(), id.New()
	lookup := func(_ context.Context, rid string) (string, error) {
		if rid != bookingID {
			return "", apperr.NotFound("booking not found")
		}
		return owner, nil
	}
	run := func(auth, param string) error {
		c, _ := newContext(http.MethodGet, "/bookings/"+param, auth)
		c.SetParamNames("id")
		c.SetParamValues(param)
		return RequireOwnerOrAdmin(tokens, LookupOwner("id", lookup))(ok)(c)
	}

	assert.NoError(t, run(bearer(t, tokens, owner, model.RoleUser), bookingID))
	assert.True(t, errors.Is(run(bearer(t, tokens, id.New(), model.RoleUser), bookingID), apperr.ErrForbidden))
	assert.True(t, errors.Is(run(bearer(t, tokens, owner, model.RoleUser), id.New()), apperr.ErrNotFound))
}

func TestKeyedLimiter(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	lim := NewKeyedLimiter(2, 1, time.Second, time.Minute)
	lim.now = func() time.Time { return now }

	assert.True(t, lim.Allow("a"))
	assert.True(t, lim.Allow("a"))
	d := lim.allow("a")
	assert.False(t, d.allowed)
	assert.Equal(t, time.Second, d.retryAfter)
	assert.True(t, lim.Allow("b"), "keys have separate buckets")

	now = now.Add(time.Second)
	assert.True(t, lim.Allow("a"))
	assert.False(t, lim.Allow("a"))
}

func TestNewTokenBucket_LocalFallback(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Minute,
		TTL: 10 * time.Minute, KeyStrategy: "ip_route", Prefix: "rl",
	}
	mw := NewTokenBucket(cfg, nil, logger.Discard())

	e := echo.New()
	var codes []int
	var last error
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/auth/login")
		last = mw(ok)(c)
		codes = append(codes, rec.Code)
		if last != nil {
			assert.Equal(t, "60", rec.Header().Get("Retry-After"))
			assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		}
	}
	assert.Equal(t, http.StatusNoContent, codes[0])
	assert.Equal(t, http.StatusNoContent, codes[1])
	assert.True(t, errors.Is(last, apperr.ErrRateLimited))
}

func TestNewTokenBucket_Disabled(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil, logger.Discard())
	for range 5 {
		c, rec := newContext(http.MethodPost, "/auth/login", "")
		require.NoError(t, mw(ok)(c))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestResponseCache_DisabledIsPassthrough(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{Enabled: true}, nil, logger.Discard())
	assert.False(t, rc.Enabled())
	assert.NoError(t, rc.Purge(context.Background(), NamespaceTours))

	c, rec := newContext(http.MethodGet, "/tours", "")
	require.NoError(t, rc.Cache(NamespaceTours)(ok)(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestResponseCache_Keys(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}, nil, logger.Discard())

	c1, _ := newContext(http.MethodGet, "/api/v1/tours?page=1", "")
	c2, _ := newContext(http.MethodGet, "/api/v1/tours?page=2", "")
	k1 := rc.key(NamespaceTours, c1)
	k2 := rc.key(NamespaceTours, c2)

	assert.NotEqual(t, k1, k2)
	assert.Equal(t, k1, rc.key(NamespaceTours, c1))
	assert.Regexp(t, `^cache:tours:[0-9a-f]{40}$`, k1)
	assert.Regexp(t, `^cache:experiences:`, rc.key(NamespaceExperiences, c1))
	assert.Equal(t, "cache:tours:*", rc.pattern(NamespaceTours))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"success":true}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.JSONEq(t, `{"success":true}`, string(body))

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok)
}
