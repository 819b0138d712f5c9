package providers

import (
	"context"

	"github.com/zatekoja/restaurantlocator/backend/pkg/geo"
)

// GeolocationProvider defines the interface for geolocation services
type GeolocationProvider interface {
	// Geocode converts an address or postcode to the coordinates of its best match.
	// A nil result with a nil error means no match.
	Geocode(ctx context.Context, address string) (*geo.Coordinates, error)
}
