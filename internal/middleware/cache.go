package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/travel-booking-api/internal/config"
)

// Cache namespaces. A mutation purges every key of its namespace.
const (
	NamespaceTours       = "tours"
	NamespaceReviews     = "reviews"
	NamespaceExperiences = "experiences"
)

// captureWriter tees the response body while forwarding it to the client.
type captureWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	size     int64
	limit    int64
	overflow bool
}

// WriteHeader records the status before passing it on.
func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

// Write passes b through, buffering it until limit is exceeded.
func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.size += int64(len(b))
	if cw.limit > 0 && cw.size > cw.limit {
		cw.overflow = true
	}
	if !cw.overflow {
		cw.buf.Write(b)
	}
	return cw.ResponseWriter.Write(b)
}

// ResponseCache stores successful GET responses in Redis, keyed per
// namespace so writers can drop a whole namespace at once.
type ResponseCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
	log *slog.Logger
}

// NewResponseCache returns a cache that is a no-op when cfg disables it or
// rdb is nil.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, log *slog.Logger) *ResponseCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "cache"
	}
	return &ResponseCache{cfg: cfg, rdb: rdb, log: log}
}

// Enabled reports whether responses are actually cached.
func (rc *ResponseCache) Enabled() bool {
	return rc != nil && rc.cfg.Enabled && rc.rdb != nil
}

func (rc *ResponseCache) pattern(namespace string) string {
	return rc.cfg.Prefix + ":" + namespace + ":*"
}

// key builds a stable cache key honoring the configured strategy.
func (rc *ResponseCache) key(namespace string, c echo.Context) string {
	r := c.Request()
	var parts []string
	switch strings.ToLower(rc.cfg.KeyStrategy) {
	case "route":
		parts = []string{"route", c.Path(), "params", strings.Join(c.ParamValues(), ",")}
	case "method_route_query":
		parts = []string{"method", r.Method, "path", r.URL.Path, "q", r.URL.RawQuery}
	default: // route_query
		parts = []string{"path", r.URL.Path, "q", r.URL.RawQuery}
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:%s:%x", rc.cfg.Prefix, namespace, sum[:])
}

// Cache serves cached responses for the configured methods and stores 200
// responses on a miss. Requests carrying credentials bypass the cache since
// their bodies may be personalised.
func (rc *ResponseCache) Cache(namespace string) echo.MiddlewareFunc {
	if !rc.Enabled() {
		return passthrough
	}
	maxBody := int64(rc.cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !rc.cfg.Methods[strings.ToUpper(req.Method)] || req.Header.Get(echo.HeaderAuthorization) != "" {
				return next(c)
			}

			ctx := req.Context()
			key := rc.key(namespace, c)

			if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						if strings.EqualFold(k, echo.HeaderContentLength) {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, err := c.Response().Write(body)
					return err
				}
			} else if err != redis.Nil {
				rc.log.Warn("cache read failed", "key", key, "err", err)
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.overflow {
				return nil
			}
			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			hdr.Del(echo.HeaderXRequestID)
			payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
			if err != nil {
				return nil
			}
			if err := rc.rdb.Set(context.WithoutCancel(ctx), key, payload, rc.cfg.TTL).Err(); err != nil {
				rc.log.Warn("cache write failed", "key", key, "err", err)
			}
			return nil
		}
	}
}

// Purge deletes every cached response in the given namespaces.
func (rc *ResponseCache) Purge(ctx context.Context, namespaces ...string) error {
	if !rc.Enabled() {
		return nil
	}
	for _, ns := range namespaces {
		iter := rc.rdb.Scan(ctx, 0, rc.pattern(ns), 200).Iterator()
		var batch []string
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) == 200 {
				if err := rc.rdb.Del(ctx, batch...).Err(); err != nil {
					return err
				}
				batch = batch[:0]
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
		if len(batch) > 0 {
			if err := rc.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

// PurgeOn purges namespaces after the wrapped handler succeeds. Purge
// failures are logged; the response is already written.
func (rc *ResponseCache) PurgeOn(namespaces ...string) echo.MiddlewareFunc {
	if !rc.Enabled() {
		return passthrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				return err
			}
			if c.Response().Status >= http.StatusBadRequest {
				return nil
			}
			if err := rc.Purge(context.WithoutCancel(c.Request().Context()), namespaces...); err != nil {
				rc.log.Warn("cache purge failed", "namespaces", namespaces, "err", err)
			}
			return nil
		}
	}
}

// encodePayload packs [4 bytes status][4 bytes headerLen][headerJSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }
