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

    "github.com/iliyamo/store-ratings/internal/config"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }
func (cw *captureWriter) Write(b []byte) (int, error) {
    if cw.limit <= 0 || cw.size < cw.limit {
        remain := cw.limit - cw.size
        if cw.limit <= 0 {
            cw.buf.Write(b)
        } else if remain > 0 {
            if int64(len(b)) <= remain {
                cw.buf.Write(b)
            } else {
                cw.buf.Write(b[:remain])
            }
        }
        cw.size += int64(len(b))
    }
    return cw.ResponseWriter.Write(b)
}

// ResponseCache caches public GET responses (store listings and
// per-store rating lists) in Redis.  Alongside each entry it records
// the cache key in a per-path index set, so write paths can drop the
// entries for a path the moment its data changes instead of waiting
// for the TTL.  A rating submission must never leave a stale aggregate
// visible to the submitter.
//
// A nil *ResponseCache is valid: Middleware returns a pass-through and
// Invalidate does nothing.  That is how the server runs without Redis.
type ResponseCache struct {
    cfg config.CacheConfig
    rdb *redis.Client
    ttl time.Duration
}

func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client) *ResponseCache {
    if !cfg.Enabled || rdb == nil {
        return nil
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 15 * time.Second
    }
    return &ResponseCache{cfg: cfg, rdb: rdb, ttl: ttl}
}

// cacheKey hashes the concrete request path (so each store's rating
// list gets its own entry) plus whatever else the key strategy adds.
func (rc *ResponseCache) cacheKey(method, path, query string) string {
    var tail string
    switch strings.ToLower(rc.cfg.KeyStrategy) {
    case "route":
        tail = "route:" + path
    case "method_route":
        tail = "method:" + method + ":route:" + path
    case "method_route_query":
        tail = "method:" + method + ":route:" + path + ":q:" + query
    default: // "route_query"
        tail = "route:" + path + ":q:" + query
    }
    sum := sha1.Sum([]byte(tail))
    return fmt.Sprintf("%s:%x", rc.cfg.Prefix, sum[:])
}

// indexKey names the set holding every cache key stored for a path.
func (rc *ResponseCache) indexKey(path string) string {
    return rc.cfg.Prefix + ":idx:" + path
}

// Invalidate drops all cached entries recorded for the given request
// paths.  Callers run it after a committed write so the next read
// reflects the new state.
func (rc *ResponseCache) Invalidate(ctx context.Context, paths ...string) error {
    if rc == nil || rc.rdb == nil {
        return nil
    }
    var firstErr error
    for _, p := range paths {
        idx := rc.indexKey(p)
        keys, err := rc.rdb.SMembers(ctx, idx).Result()
        if err != nil {
            if firstErr == nil {
                firstErr = err
            }
            continue
        }
        keys = append(keys, idx)
        if err := rc.rdb.Del(ctx, keys...).Err(); err != nil && firstErr == nil {
            firstErr = err
        }
    }
    return firstErr
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    total := 4 + 4 + len(hdrJSON) + len(body)
    out := make([]byte, total)
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:8+len(hdrJSON)], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if 8+hlen > len(bs) || hlen < 0 {
        return 0, nil, nil, false
    }
    var hdr http.Header
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
            return 0, nil, nil, false
        }
    } else {
        hdr = make(http.Header)
    }
    body = bs[8+hlen:]
    return status, hdr, body, true
}

// Middleware serves cacheable requests from Redis when possible,
// otherwise captures the response and stores it together with its
// headers so clients see identical formatting on a hit.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
    if rc == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
    }
    maxBody := int64(rc.cfg.MaxBodyBytes)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            r := c.Request()
            if !rc.cfg.Methods[strings.ToUpper(r.Method)] {
                return next(c)
            }

            ctx := r.Context()
            path := r.URL.Path
            key := rc.cacheKey(r.Method, path, r.URL.RawQuery)

            // Try get from Redis
            if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil && len(bs) >= 8 {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    // Restore headers (except hop-by-hop)
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
                    if len(body) > 0 {
                        _, _ = c.Response().Write(body)
                    }
                    return nil
                }
            }

            // Miss: capture
            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }

            if cw.status == http.StatusOK {
                hdr := make(http.Header, len(c.Response().Header()))
                for k, vals := range c.Response().Header() {
                    vv := make([]string, len(vals))
                    copy(vv, vals)
                    hdr[k] = vv
                }
                body := cw.buf.Bytes()
                if maxBody > 0 && int64(len(body)) > maxBody {
                    body = body[:maxBody]
                }
                if payload, err := encodePayload(cw.status, hdr, body); err == nil {
                    bg := context.Background()
                    idx := rc.indexKey(path)
                    pipe := rc.rdb.TxPipeline()
                    pipe.SetEx(bg, key, payload, rc.ttl)
                    pipe.SAdd(bg, idx, key)
                    // The index outlives its entries slightly; stale
                    // members are harmless to delete.
                    pipe.Expire(bg, idx, rc.ttl+time.Minute)
                    _, _ = pipe.Exec(bg)
                }
            }
            return nil
        }
    }
}
