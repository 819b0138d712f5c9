package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/restaurantlocator/backend/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
	Param string `json:"param,omitempty"`
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, errorResponse{Error: message})
}

// respondWithAppError maps a service error to a status code. Messages of
// internal failures stay in the log.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.LoggerFromContext(r.Context())
	appErr, ok := apperrors.As(err)
	if !ok {
		logger.Error().Err(err).Msg("unhandled error")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError || appErr.Type == apperrors.ErrorTypeExternal {
		logger.Error().Err(err).Str("type", string(appErr.Type)).Msg("request failed")
	}
	if !appErr.Public() {
		respondWithError(w, status, "internal server error")
		return
	}
	respondWithJSON(w, status, errorResponse{Error: appErr.Message, Param: appErr.Param})
}
