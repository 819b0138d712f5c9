package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/entities"
)

const (
	defaultZeroResultLimit = 20
	maxZeroResultLimit     = 100
)

// ZeroResultLister lists searches that found nothing
type ZeroResultLister interface {
	GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error)
}

// AnalyticsHandler handles search analytics endpoints
type AnalyticsHandler struct {
	analytics ZeroResultLister
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics ZeroResultLister) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// GetZeroResultQueries handles GET /api/analytics/zero-result-queries
func (h *AnalyticsHandler) GetZeroResultQueries(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r.URL.Query(), "limit", defaultZeroResultLimit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if limit == 0 {
		limit = defaultZeroResultLimit
	}
	if limit > maxZeroResultLimit {
		limit = maxZeroResultLimit
	}

	events, err := h.analytics.GetZeroResultQueries(r.Context(), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": events,
		"count":   len(events),
	})
}
