package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/store-ratings/internal/config"
)

func newTestCache(t *testing.T) *ResponseCache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewResponseCache(config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}, rdb)
}

// listingServer mimics the two cached public routes.  The /stores body
// reads *avg on every invocation, so the test can move the backing
// value the way a committed rating would.
func listingServer(rc *ResponseCache, avg *string) *echo.Echo {
	e := echo.New()
	mw := rc.Middleware()
	e.GET("/stores", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"average_rating": *avg})
	}, mw)
	e.GET("/stores/:id/ratings", func(c echo.Context) error {
		return c.String(http.StatusOK, "ratings for store "+c.Param("id"))
	}, mw)
	return e
}

func getPath(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCacheServesStaleUntilInvalidated(t *testing.T) {
	rc := newTestCache(t)
	avg := "0.00"
	e := listingServer(rc, &avg)

	first := getPath(e, "/stores")
	require.Equal(t, "MISS", first.Header().Get("X-Cache"))
	require.Contains(t, first.Body.String(), "0.00")

	avg = "4.00"
	second := getPath(e, "/stores")
	require.Equal(t, "HIT", second.Header().Get("X-Cache"))
	require.Contains(t, second.Body.String(), "0.00")

	require.NoError(t, rc.Invalidate(context.Background(), "/stores"))

	third := getPath(e, "/stores")
	require.Equal(t, "MISS", third.Header().Get("X-Cache"))
	require.Contains(t, third.Body.String(), "4.00")
}

func TestCacheKeysScopedToConcretePath(t *testing.T) {
	rc := newTestCache(t)
	avg := "0.00"
	e := listingServer(rc, &avg)

	one := getPath(e, "/stores/1/ratings")
	require.Contains(t, one.Body.String(), "ratings for store 1")

	two := getPath(e, "/stores/2/ratings")
	require.Equal(t, "MISS", two.Header().Get("X-Cache"))
	require.Contains(t, two.Body.String(), "ratings for store 2")
}

func TestInvalidateLeavesOtherPathsAlone(t *testing.T) {
	rc := newTestCache(t)
	avg := "0.00"
	e := listingServer(rc, &avg)

	getPath(e, "/stores/1/ratings")
	getPath(e, "/stores/2/ratings")

	require.NoError(t, rc.Invalidate(context.Background(), "/stores/1/ratings"))

	require.Equal(t, "MISS", getPath(e, "/stores/1/ratings").Header().Get("X-Cache"))
	require.Equal(t, "HIT", getPath(e, "/stores/2/ratings").Header().Get("X-Cache"))
}

func TestNilCacheIsPassThrough(t *testing.T) {
	var rc *ResponseCache

	e := echo.New()
	e.GET("/stores", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, rc.Middleware())

	rec := getPath(e, "/stores")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("X-Cache"))
	require.NoError(t, rc.Invalidate(context.Background(), "/stores"))
}
