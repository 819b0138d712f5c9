package entities

import (
	"github.com/zatekoja/restaurantlocator/backend/pkg/geo"
)

// Strategy identifies how the resolver obtained its candidate set
type Strategy string

const (
	// StrategyBrowse lists every candidate subject only to the rating filter
	StrategyBrowse Strategy = "browse"
	// StrategyNearby uses a caller supplied reference point
	StrategyNearby Strategy = "nearby"
	// StrategyTextMatch filters candidates by text, without a radius
	StrategyTextMatch Strategy = "text_match"
	// StrategyGeocoded uses a reference point resolved from the search text
	StrategyGeocoded Strategy = "geocoded"
)

// SortKey selects the result ordering
type SortKey string

const (
	SortByDistance SortKey = "distance"
	SortByRating   SortKey = "rating"
	SortByName     SortKey = "name"
)

// ParseSortKey maps a request value to a SortKey, defaulting to distance
func ParseSortKey(value string) (SortKey, bool) {
	switch SortKey(value) {
	case "", SortByDistance:
		return SortByDistance, true
	case SortByRating:
		return SortByRating, true
	case SortByName:
		return SortByName, true
	default:
		return SortByDistance, false
	}
}

// SearchQuery is a single directory search request
type SearchQuery struct {
	Text         string           `json:"search_text,omitempty"`
	Reference    *geo.Coordinates `json:"reference,omitempty"`
	RadiusMeters float64          `json:"radius_meters"`
	MinRating    *float64         `json:"min_rating,omitempty"`
	OpenNow      bool             `json:"open_now"`
	SortBy       SortKey          `json:"sort_by"`
	Limit        int              `json:"limit"`
	Offset       int              `json:"offset"`
}

// SearchResult is the ranked page returned for a SearchQuery
type SearchResult struct {
	Locations      []*Location      `json:"locations"`
	Total          int              `json:"total"`
	CandidateTotal int              `json:"candidate_total"`
	Strategy       Strategy         `json:"strategy"`
	Reference      *geo.Coordinates `json:"reference,omitempty"`
	Query          SearchQuery      `json:"query"`
}
