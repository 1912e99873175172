package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-pos/internal/config"
)

// captureWriter forwards the response to the client while keeping a copy
// of up to limit bytes of the body.  A limit of zero keeps everything.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	keep := b
	if cw.limit > 0 {
		room := cw.limit - cw.size
		if room < 0 {
			room = 0
		}
		if int64(len(keep)) > room {
			keep = keep[:room]
		}
	}
	cw.buf.Write(keep)
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// complete reports whether the whole body was captured.
func (cw *captureWriter) complete() bool {
	return cw.limit <= 0 || cw.size <= cw.limit
}

// cachedResponse is what a cache entry holds.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// skipOnReplay lists headers that belong to the first response only.
var skipOnReplay = map[string]bool{
	echo.HeaderContentLength: true,
	echo.HeaderXRequestID:    true,
	"X-Cache":                true,
}

func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	return json.Marshal(cachedResponse{Status: status, Header: header, Body: body})
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	var cr cachedResponse
	if err := json.Unmarshal(bs, &cr); err != nil || cr.Status == 0 {
		return 0, nil, nil, false
	}
	if cr.Header == nil {
		cr.Header = make(http.Header)
	}
	return cr.Status, cr.Header, cr.Body, true
}

// cacheKeyFrom hashes the request parts named by cfg.KeyStrategy
// ("method", "route", "query", joined by underscores).  An unknown or
// empty strategy means route_query.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var parts []string
	for _, dim := range strings.Split(strings.ToLower(cfg.KeyStrategy), "_") {
		switch dim {
		case "method":
			parts = append(parts, "method", r.Method)
		case "route":
			parts = append(parts, "route", c.Path())
		case "query":
			parts = append(parts, "q", r.URL.RawQuery)
		}
	}
	if len(parts) == 0 {
		parts = []string{"route", c.Path(), "q", r.URL.RawQuery}
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

// NewRedisCache caches 200 responses (status and headers included) in
// Redis for cfg.TTL.  Responses carry X-Cache HIT or MISS.  It is a
// pass-through when disabled or when Redis is unavailable.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			key := cacheKeyFrom(cfg, c)

			if bs, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					out := c.Response().Header()
					for k, vals := range hdr {
						if skipOnReplay[http.CanonicalHeaderKey(k)] {
							continue
						}
						for _, v := range vals {
							out.Add(k, v)
						}
					}
					out.Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, _ = c.Response().Write(body)
					return nil
				}
				log.Warningf("cache: dropping unreadable entry %s", key)
			} else if !errors.Is(err, redis.Nil) {
				log.Warningf("cache: read %s: %v", key, err)
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || !cw.complete() {
				return nil
			}
			payload, err := encodePayload(cw.status, c.Response().Header().Clone(), cw.buf.Bytes())
			if err != nil {
				return nil
			}
			// the request context may already be cancelled once the body is written
			if err := rdb.SetEx(context.Background(), key, payload, cfg.TTL).Err(); err != nil {
				log.Warningf("cache: store %s: %v", key, err)
			}
			return nil
		}
	}
}
