package middleware

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"/api/locations/search":                    "/api/locations/search",
		"/api/locations/stats":                     "/api/locations/stats",
		"/api/locations/mcdonalds-strand-1":        "/api/locations/{slug}",
		"/api/locations/":                          "/api/locations/",
		"/api/geocode":                             "/api/geocode",
		"/sitemap.xml":                             "/sitemap.xml",
		"/wp-admin/setup.php":                      "unmatched",
		"/api/analytics/zero-result-queries":       "/api/analytics/zero-result-queries",
		"/api/locations/mcdonalds-oxford-street-2": "/api/locations/{slug}",
	}
	for path, want := range tests {
		assert.Equal(t, want, routeLabel(path), path)
	}
}

func jsonHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, body)
	})
}

func TestCompression_LargeJSONIsGzipped(t *testing.T) {
	body := `{"locations":[` + strings.Repeat(`{"name":"McDonald's"},`, 100) + `{}]}`

	req := httptest.NewRequest(http.MethodGet, "/api/locations/search", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rec := httptest.NewRecorder()
	Compression(jsonHandler(body)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, body, string(plain))
}

func TestCompression_SmallBodyPassesThrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/locations/stats", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	Compression(jsonHandler(`{"total_locations":5}`)).ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, `{"total_locations":5}`, rec.Body.String())
}

func TestCompression_KeepsErrorStatus(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, strings.Repeat("x", 2048))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/locations/nope", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	Compression(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}

func TestCacheControl_PerRoute(t *testing.T) {
	tests := map[string]string{
		"/api/locations/search":             "private, max-age=60",
		"/api/locations/stats":              "public, max-age=300",
		"/api/locations/mcdonalds-strand-1": "public, max-age=300, must-revalidate",
		"/health":                           "private, no-cache, must-revalidate",
	}
	for path, want := range tests {
		rec := httptest.NewRecorder()
		CacheControl(jsonHandler("{}")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Header().Get("Cache-Control"), path)
	}
}

func TestResponseCacheKey_IgnoresParameterOrder(t *testing.T) {
	a := httptest.NewRequest(http.MethodGet, "/api/locations/suggest?q=strand&limit=5", nil)
	b := httptest.NewRequest(http.MethodGet, "/api/locations/suggest?limit=5&q=strand", nil)
	c := httptest.NewRequest(http.MethodGet, "/api/locations/suggest?limit=5&q=camden", nil)

	assert.Equal(t, responseCacheKey(a), responseCacheKey(b))
	assert.NotEqual(t, responseCacheKey(a), responseCacheKey(c))
	assert.True(t, strings.HasPrefix(responseCacheKey(a), ResponseCachePrefix))
}

func TestCacheMiddleware_BypassesOnNoCache(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = io.WriteString(w, `{"total_locations":5}`)
	})
	mw := NewCacheMiddleware(newMapCache()).Middleware(handler)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/locations/stats", nil))
	}
	assert.Equal(t, 1, calls)

	req := httptest.NewRequest(http.MethodGet, "/api/locations/stats", nil)
	req.Header.Set("Cache-Control", "no-cache")
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	assert.Equal(t, 2, calls)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

// mapCache is a minimal CacheProvider for middleware tests
type mapCache struct {
	entries map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]byte{}}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.entries[key]
	if !ok {
		return nil, errors.New("miss")
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.entries[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func (c *mapCache) DeletePattern(context.Context, string) error {
	c.entries = map[string][]byte{}
	return nil
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	handler := LoggingMiddleware(jsonHandler("{}"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "edge-7f3a")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "edge-7f3a", rec.Header().Get(RequestIDHeader))

	for _, bad := range []string{"", "has space", strings.Repeat("a", maxRequestIDLength+1)} {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, bad)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		got := rec.Header().Get(RequestIDHeader)
		assert.NotEqual(t, bad, got)
		assert.Len(t, got, 36)
	}
}
