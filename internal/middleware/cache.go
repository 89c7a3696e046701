package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/restaurant-table-booking/internal/config"
)

// The availability widget polls GET /v1/restaurants/:id/availability hard
// during peak hours, and the listing is advisory anyway (the booking path
// re-checks under the lock). A short shared Redis cache in front of it
// absorbs the polling without changing correctness. The default
// route+query key strategy keeps date and party_size in the key.

// recorder mirrors the response to a buffer while streaming it to the
// client, so a cacheable body is captured without double-rendering.
type recorder struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64 // 0 means unbounded
}

func (r *recorder) WriteHeader(code int) {
    r.status = code
    r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
    switch {
    case r.limit <= 0:
        r.buf.Write(b)
    case r.size < r.limit:
        if remain := r.limit - r.size; int64(len(b)) <= remain {
            r.buf.Write(b)
        } else {
            r.buf.Write(b[:remain])
        }
    }
    r.size += int64(len(b))
    return r.ResponseWriter.Write(b)
}

// cacheKey hashes the request coordinates chosen by the key strategy so
// keys stay short regardless of query length.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
    req := c.Request()
    var tail string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        tail = c.Path()
    case "method_route":
        tail = req.Method + ":" + c.Path()
    case "method_route_query":
        tail = req.Method + ":" + c.Path() + "?" + req.URL.RawQuery
    default: // route_query
        tail = c.Path() + "?" + req.URL.RawQuery
    }
    sum := sha1.Sum([]byte(tail))
    return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// Cached entries carry status and headers alongside the body so a hit
// replays the exact original response:
// [4 bytes status][4 bytes header length][header JSON][body].

func encodeEntry(status int, header http.Header, body []byte) ([]byte, error) {
    hdr, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8+len(hdr)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdr)))
    copy(out[8:], hdr)
    copy(out[8+len(hdr):], body)
    return out, nil
}

func decodeEntry(bs []byte) (status int, header http.Header, body []byte, ok bool) {
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

// NewRedisCache returns a response cache for the read-only availability
// routes. Only configured methods are cached, only 200s are stored, and
// a cache/Redis fault falls through to the handler.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error { return next(c) }
        }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        // Availability goes stale the moment someone books; keep it short.
        ttl = 15 * time.Second
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            key := cacheKey(cfg, c)

            if bs, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
                if status, hdr, body, ok := decodeEntry(bs); ok {
                    for k, vals := range hdr {
                        if strings.EqualFold(k, "Content-Length") {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    _, _ = c.Response().Write(body)
                    return nil
                }
            }

            rec := &recorder{
                ResponseWriter: c.Response().Writer,
                status:         http.StatusOK,
                limit:          int64(cfg.MaxBodyBytes),
            }
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if rec.status != http.StatusOK {
                return nil
            }
            if rec.limit > 0 && rec.size > rec.limit {
                // Truncated capture must never be served back.
                return nil
            }

            hdr := make(http.Header, len(c.Response().Header()))
            for k, vals := range c.Response().Header() {
                hdr[k] = append([]string(nil), vals...)
            }
            if payload, err := encodeEntry(rec.status, hdr, rec.buf.Bytes()); err == nil {
                // Detached context: the client is already answered.
                _ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
            }
            return nil
        }
    }
}
