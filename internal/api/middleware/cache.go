package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/providers"
)

// ResponseCachePrefix prefixes every cached response key
const ResponseCachePrefix = "http:cache:"

// CacheMiddleware caches successful JSON responses of the read-mostly routes
type CacheMiddleware struct {
	cache providers.CacheProvider
	ttls  map[string]int
}

// NewCacheMiddleware creates a cache middleware.
// Search and detail are left out since open_now answers change with the clock.
func NewCacheMiddleware(cache providers.CacheProvider) *CacheMiddleware {
	return &CacheMiddleware{
		cache: cache,
		ttls: map[string]int{
			"/api/locations/stats":   600,
			"/api/locations/suggest": 180,
			"/api/geocode":           3600,
		},
	}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ttl, cacheable := m.ttls[r.URL.Path]
		if !cacheable || r.Method != http.MethodGet || m.cache == nil || noCache(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := responseCacheKey(r)
		if cached, err := m.cache.Get(r.Context(), key); err == nil {
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}

		w.Header().Set("X-Cache", "MISS")
		recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode != http.StatusOK || recorder.body.Len() == 0 {
			return
		}
		if err := m.cache.Set(r.Context(), key, recorder.body.Bytes(), ttl); err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("failed to cache response")
		}
	})
}

func noCache(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Cache-Control"), "no-cache")
}

// responseCacheKey hashes the path and the query with parameters in sorted order
func responseCacheKey(r *http.Request) string {
	key := r.URL.Path
	if query := r.URL.Query(); len(query) > 0 {
		key += "?" + query.Encode()
	}

	hash := sha256.Sum256([]byte(key))
	return ResponseCachePrefix + hex.EncodeToString(hash[:])
}

// responseRecorder tees the body it forwards
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
	written    bool
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if r.written {
		return
	}
	r.statusCode = statusCode
	r.written = true
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
