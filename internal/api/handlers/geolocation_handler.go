package handlers

import (
	"net/http"
	"strings"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/providers"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/observability"
	"github.com/zatekoja/restaurantlocator/backend/pkg/postcode"
)

// GeocodeResponse is the body of a successful geocode lookup
type GeocodeResponse struct {
	Address   string  `json:"address"`
	Kind      string  `json:"kind"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// GeolocationHandler resolves addresses and postcodes to coordinates
type GeolocationHandler struct {
	provider providers.GeolocationProvider
}

// NewGeolocationHandler creates a new geolocation handler
func NewGeolocationHandler(provider providers.GeolocationProvider) *GeolocationHandler {
	return &GeolocationHandler{provider: provider}
}

// Geocode handles GET /api/geocode?address=...
func (h *GeolocationHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		respondWithError(w, http.StatusBadRequest, "address parameter is required")
		return
	}

	coords, err := h.provider.Geocode(r.Context(), address)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Str("address", address).Msg("geocode failed")
		respondWithError(w, http.StatusBadGateway, "failed to geocode address")
		return
	}
	if coords == nil {
		respondWithError(w, http.StatusNotFound, "address not found")
		return
	}

	respondWithJSON(w, http.StatusOK, GeocodeResponse{
		Address:   address,
		Kind:      postcode.Classify(address).String(),
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
	})
}
