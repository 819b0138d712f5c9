package geolocation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/restaurantlocator/backend/internal/adapters/cache"
)

func newTestServer(t *testing.T, body string, status int, calls *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "BR3 5UF, UK", r.URL.Query().Get("address"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGoogleProvider_Geocode_FirstResult(t *testing.T) {
	var calls int32
	server := newTestServer(t, `{
		"status": "OK",
		"results": [
			{"formatted_address": "Beckenham BR3 5UF, UK", "geometry": {"location": {"lat": 51.4102928, "lng": -0.0213582}}},
			{"formatted_address": "Elsewhere", "geometry": {"location": {"lat": 1, "lng": 1}}}
		]
	}`, http.StatusOK, &calls)

	provider := NewGoogleGeolocationProvider(GoogleOptions{APIKey: "test-key", RegionHint: "UK", BaseURL: server.URL}, cache.NewMemoryAdapter())

	coords, err := provider.Geocode(context.Background(), "  BR3 5UF ")
	require.NoError(t, err)
	require.NotNil(t, coords)
	assert.Equal(t, 51.4102928, coords.Latitude)
	assert.Equal(t, -0.0213582, coords.Longitude)

	// second lookup is served from cache
	coords, err = provider.Geocode(context.Background(), "BR3 5UF")
	require.NoError(t, err)
	require.NotNil(t, coords)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGoogleProvider_Geocode_ZeroResultsIsCachedMiss(t *testing.T) {
	var calls int32
	server := newTestServer(t, `{"status": "ZERO_RESULTS", "results": []}`, http.StatusOK, &calls)
	provider := NewGoogleGeolocationProvider(GoogleOptions{APIKey: "test-key", RegionHint: "UK", BaseURL: server.URL}, cache.NewMemoryAdapter())

	for i := 0; i < 2; i++ {
		coords, err := provider.Geocode(context.Background(), "BR3 5UF")
		assert.NoError(t, err)
		assert.Nil(t, coords)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGoogleProvider_Geocode_CountryFilter(t *testing.T) {
	var components string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		components = r.URL.Query().Get("components")
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	t.Cleanup(server.Close)

	provider := NewGoogleGeolocationProvider(GoogleOptions{APIKey: "test-key", Country: "gb", BaseURL: server.URL}, nil)
	_, err := provider.Geocode(context.Background(), "Strand")
	require.NoError(t, err)
	assert.Equal(t, "country:GB", components)
}

func TestGoogleProvider_Geocode_Failures(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"denied", `{"status": "REQUEST_DENIED", "error_message": "bad key"}`, http.StatusOK},
		{"http error", `oops`, http.StatusInternalServerError},
		{"malformed", `{"status":`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := newTestServer(t, tt.body, tt.status, &calls)
			provider := NewGoogleGeolocationProvider(GoogleOptions{APIKey: "test-key", RegionHint: "UK", BaseURL: server.URL}, nil)

			coords, err := provider.Geocode(context.Background(), "BR3 5UF")
			assert.Error(t, err)
			assert.Nil(t, coords)
		})
	}
}

func TestGoogleProvider_Geocode_RequiresKeyAndAddress(t *testing.T) {
	provider := NewGoogleGeolocationProvider(GoogleOptions{}, nil)

	_, err := provider.Geocode(context.Background(), "BR3 5UF")
	assert.Error(t, err)

	_, err = provider.Geocode(context.Background(), "   ")
	assert.Error(t, err)
}
