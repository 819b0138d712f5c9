package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/providers"
	"github.com/zatekoja/restaurantlocator/backend/pkg/geo"
)

const (
	googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"
	geocodeKeyPrefix = "geo:v2:geocode:"

	defaultGeocodeCacheTTL = 30 * 24 * time.Hour
	defaultMissCacheTTL    = time.Hour
	defaultHTTPTimeout     = 8 * time.Second
)

var errNoAPIKey = errors.New("google maps api key is required")

// GoogleOptions configures the Google provider
type GoogleOptions struct {
	APIKey string
	// RegionHint is appended to every address, e.g. "UK" turns "BR3 5UF" into "BR3 5UF, UK"
	RegionHint string
	// Country, an ISO 3166-1 code such as "GB", restricts results with a components filter
	Country string
	// CacheTTL applies to found addresses, MissTTL to ZERO_RESULTS answers
	CacheTTL   time.Duration
	MissTTL    time.Duration
	BaseURL    string
	HTTPClient *http.Client
}

// GoogleGeolocationProvider geocodes through the Google Geocoding API and
// caches both answers and misses.
type GoogleGeolocationProvider struct {
	opts  GoogleOptions
	cache providers.CacheProvider
}

var _ providers.GeolocationProvider = (*GoogleGeolocationProvider)(nil)

// NewGoogleGeolocationProvider creates a Google provider. cache may be nil.
func NewGoogleGeolocationProvider(opts GoogleOptions, cache providers.CacheProvider) *GoogleGeolocationProvider {
	opts.RegionHint = strings.TrimSpace(opts.RegionHint)
	opts.Country = strings.ToUpper(strings.TrimSpace(opts.Country))
	if strings.TrimSpace(opts.BaseURL) == "" {
		opts.BaseURL = googleGeocodeURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultGeocodeCacheTTL
	}
	if opts.MissTTL <= 0 {
		opts.MissTTL = defaultMissCacheTTL
	}
	return &GoogleGeolocationProvider{opts: opts, cache: cache}
}

// cachedGeocode is the cache payload; Found is false for a remembered miss
type cachedGeocode struct {
	Found bool    `json:"found"`
	Lat   float64 `json:"lat,omitempty"`
	Lon   float64 `json:"lon,omitempty"`
}

// Geocode resolves an address to the coordinates of the first result.
// ZERO_RESULTS yields (nil, nil); other failures are returned as errors.
func (g *GoogleGeolocationProvider) Geocode(ctx context.Context, address string) (*geo.Coordinates, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errors.New("address is required")
	}

	query := address
	if g.opts.RegionHint != "" {
		query += ", " + g.opts.RegionHint
	}

	key := g.cacheKey(query)
	if hit, ok := g.lookup(ctx, key); ok {
		if !hit.Found {
			return nil, nil
		}
		return &geo.Coordinates{Latitude: hit.Lat, Longitude: hit.Lon}, nil
	}

	resp, err := g.request(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		g.store(ctx, key, cachedGeocode{}, g.opts.MissTTL)
		return nil, nil
	}

	loc := resp.Results[0].Geometry.Location
	g.store(ctx, key, cachedGeocode{Found: true, Lat: loc.Lat, Lon: loc.Lng}, g.opts.CacheTTL)
	return &geo.Coordinates{Latitude: loc.Lat, Longitude: loc.Lng}, nil
}

func (g *GoogleGeolocationProvider) cacheKey(query string) string {
	sum := sha256.Sum256([]byte(g.opts.Country + "|" + strings.ToLower(query)))
	return geocodeKeyPrefix + hex.EncodeToString(sum[:])
}

func (g *GoogleGeolocationProvider) lookup(ctx context.Context, key string) (cachedGeocode, bool) {
	var entry cachedGeocode
	if g.cache == nil {
		return entry, false
	}
	raw, err := g.cache.Get(ctx, key)
	if err != nil || len(raw) == 0 {
		return entry, false
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return entry, false
	}
	return entry, true
}

func (g *GoogleGeolocationProvider) store(ctx context.Context, key string, entry cachedGeocode, ttl time.Duration) {
	if g.cache == nil {
		return
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, key, raw, int(ttl.Seconds())); err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("failed to cache geocode result")
	}
}

func (g *GoogleGeolocationProvider) request(ctx context.Context, query string) (*geocodeResponse, error) {
	if g.opts.APIKey == "" {
		return nil, errNoAPIKey
	}

	params := url.Values{"address": {query}, "key": {g.opts.APIKey}}
	if g.opts.Country != "" {
		params.Set("components", "country:"+g.opts.Country)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.opts.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := g.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode request returned status %d", resp.StatusCode)
	}

	var payload geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	switch payload.Status {
	case "OK", "ZERO_RESULTS":
		return &payload, nil
	default:
		if payload.ErrorMessage != "" {
			return nil, fmt.Errorf("geocoder answered %s: %s", payload.Status, payload.ErrorMessage)
		}
		return nil, fmt.Errorf("geocoder answered %s", payload.Status)
	}
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}
