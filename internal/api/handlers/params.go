package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/zatekoja/restaurantlocator/backend/pkg/errors"
	"github.com/zatekoja/restaurantlocator/backend/pkg/geo"
)

func queryFloat(values url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.NewParamError(key, fmt.Sprintf("invalid %s parameter", key))
	}
	return &v, nil
}

func queryInt(values url.Values, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperrors.NewParamError(key, fmt.Sprintf("invalid %s parameter", key))
	}
	return v, nil
}

func queryBool(values url.Values, key string) (bool, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.NewParamError(key, fmt.Sprintf("invalid %s parameter", key))
	}
	return v, nil
}

// queryCoordinates reads lat and lon. ok is false when either is missing, unparseable or out of range.
func queryCoordinates(values url.Values) (coords *geo.Coordinates, present bool, ok bool) {
	latRaw := strings.TrimSpace(values.Get("lat"))
	lonRaw := strings.TrimSpace(values.Get("lon"))
	if latRaw == "" && lonRaw == "" {
		return nil, false, false
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, true, false
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil, true, false
	}
	return &geo.Coordinates{Latitude: lat, Longitude: lon}, true, true
}
