package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/restaurantlocator/backend/pkg/errors"
	"github.com/zatekoja/restaurantlocator/backend/pkg/geo"
)

// LocationSearcher resolves directory searches
type LocationSearcher interface {
	Search(ctx context.Context, query entities.SearchQuery) (*entities.SearchResult, error)
}

// LocationReader serves single locations and directory wide views
type LocationReader interface {
	Detail(ctx context.Context, slug string, from *geo.Coordinates) (*entities.LocationDetail, error)
	Stats(ctx context.Context) (*entities.LocationStats, error)
	Suggest(ctx context.Context, query string, limit int) ([]*entities.LocationSuggestion, error)
}

// LocationHandler handles location HTTP requests
type LocationHandler struct {
	searcher      LocationSearcher
	reader        LocationReader
	defaultCenter geo.Coordinates
}

// NewLocationHandler creates a new location handler. defaultCenter stands in for
// a visitor position that was requested but could not be read.
func NewLocationHandler(searcher LocationSearcher, reader LocationReader, defaultCenter geo.Coordinates) *LocationHandler {
	return &LocationHandler{
		searcher:      searcher,
		reader:        reader,
		defaultCenter: defaultCenter,
	}
}

// SearchLocations handles GET /api/locations/search
func (h *LocationHandler) SearchLocations(w http.ResponseWriter, r *http.Request) {
	query, err := h.parseSearchQuery(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	result, err := h.searcher.Search(r.Context(), query)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *LocationHandler) parseSearchQuery(r *http.Request) (entities.SearchQuery, error) {
	values := r.URL.Query()
	query := entities.SearchQuery{Text: strings.TrimSpace(values.Get("q"))}

	nearMe, err := queryBool(values, "near_me")
	if err != nil {
		return query, err
	}
	coords, present, ok := queryCoordinates(values)
	switch {
	case ok:
		query.Reference = coords
	case nearMe:
		// device position unavailable
		center := h.defaultCenter
		query.Reference = &center
	case present:
		return query, apperrors.NewParamError("lat", "lat and lon must both be valid coordinates")
	}

	radius, err := queryFloat(values, "radius")
	if err != nil {
		return query, err
	}
	if radius != nil {
		if *radius <= 0 {
			return query, apperrors.NewParamError("radius", "radius must be positive")
		}
		query.RadiusMeters = *radius
	}

	minRating, err := queryFloat(values, "min_rating")
	if err != nil {
		return query, err
	}
	if minRating != nil && (*minRating < 0 || *minRating > 5) {
		return query, apperrors.NewParamError("min_rating", "min_rating must be between 0 and 5")
	}
	query.MinRating = minRating

	if query.OpenNow, err = queryBool(values, "open_now"); err != nil {
		return query, err
	}

	sortBy, ok := entities.ParseSortKey(strings.TrimSpace(values.Get("sort")))
	if !ok {
		return query, apperrors.NewParamError("sort", "sort must be one of distance, rating, name")
	}
	query.SortBy = sortBy

	if query.Limit, err = queryInt(values, "limit", 0); err != nil {
		return query, err
	}
	if query.Offset, err = queryInt(values, "offset", 0); err != nil {
		return query, err
	}

	return query, nil
}

// SuggestLocations handles GET /api/locations/suggest
func (h *LocationHandler) SuggestLocations(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r.URL.Query(), "limit", 0)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	suggestions, err := h.reader.Suggest(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// GetStats handles GET /api/locations/stats
func (h *LocationHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reader.Stats(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// GetLocation handles GET /api/locations/{slug}
func (h *LocationHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		respondWithError(w, http.StatusBadRequest, "location slug is required")
		return
	}

	// distance display is optional, so bad coordinates are ignored here
	coords, _, _ := queryCoordinates(r.URL.Query())

	detail, err := h.reader.Detail(r.Context(), slug, coords)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, detail)
}
