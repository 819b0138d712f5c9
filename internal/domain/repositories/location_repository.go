package repositories

import (
	"context"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/entities"
)

// Location columns that filters and ordering may reference
const (
	FieldID         = "id"
	FieldName       = "name"
	FieldAddress    = "address"
	FieldCity       = "city"
	FieldPostalCode = "postal_code"
	FieldRating     = "rating"
)

// MatchKind selects how a TextCondition compares its field
type MatchKind int

const (
	// MatchContains is a case-insensitive substring match
	MatchContains MatchKind = iota
	// MatchPrefix is a case-insensitive prefix match
	MatchPrefix
)

// TextCondition is a single case-insensitive text predicate on one field
type TextCondition struct {
	Field string
	Match MatchKind
	Value string
}

// LocationFilter defines filters for fetching locations.
// Text conditions are OR-combined; the rating threshold is AND-ed with them.
type LocationFilter struct {
	MinRating  *float64
	Text       []TextCondition
	OrderBy    string
	Descending bool
	// Limit of zero means no limit
	Limit  int
	Offset int
}

// LocationRepository defines the interface for location data operations
type LocationRepository interface {
	// Find returns the page selected by the filter and the exact count of all matching rows
	Find(ctx context.Context, filter LocationFilter) ([]*entities.Location, int, error)

	// Count returns the number of rows matching the filter, ignoring ordering and pagination
	Count(ctx context.Context, filter LocationFilter) (int, error)

	// GetBySlug retrieves a location by slug
	GetBySlug(ctx context.Context, slug string) (*entities.Location, error)

	// ReplaceAll deletes every location and inserts the given ones in batches, in one transaction
	ReplaceAll(ctx context.Context, locations []*entities.Location, batchSize int) (int, error)
}

// LocationSearchRepository defines the interface for the external search index (e.g. Typesense)
type LocationSearchRepository interface {
	// Suggest returns autocomplete matches on name, address, city and postcode
	Suggest(ctx context.Context, query string, limit int) ([]*entities.LocationSuggestion, error)

	// Index upserts a single location
	Index(ctx context.Context, location *entities.Location) error

	// BulkIndex upserts many locations
	BulkIndex(ctx context.Context, locations []*entities.Location) error

	// Delete removes a location from the index
	Delete(ctx context.Context, id int64) error
}
