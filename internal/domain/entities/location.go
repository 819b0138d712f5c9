package entities

import (
	"encoding/json"
	"time"
)

// BusinessStatusOperational marks a location that is trading normally
const BusinessStatusOperational = "OPERATIONAL"

// Location represents a restaurant in the directory
type Location struct {
	ID             int64           `json:"id" db:"id"`
	Slug           string          `json:"slug" db:"slug"`
	Name           string          `json:"name" db:"name"`
	Address        string          `json:"address" db:"address"`
	Street         string          `json:"street,omitempty" db:"street"`
	City           string          `json:"city" db:"city"`
	PostalCode     string          `json:"postal_code" db:"postal_code"`
	Country        string          `json:"country" db:"country"`
	Latitude       float64         `json:"latitude" db:"latitude"`
	Longitude      float64         `json:"longitude" db:"longitude"`
	Phone          *string         `json:"phone,omitempty" db:"phone"`
	Website        *string         `json:"website,omitempty" db:"website"`
	Rating         *float64        `json:"rating" db:"rating"`
	ReviewsCount   int             `json:"reviews_count" db:"reviews_count"`
	ReviewsLink    *string         `json:"reviews_link,omitempty" db:"reviews_link"`
	BusinessStatus string          `json:"business_status" db:"business_status"`
	WorkingHours   string          `json:"working_hours" db:"working_hours"`
	Photo          *string         `json:"photo,omitempty" db:"photo"`
	PhotosCount    int             `json:"photos_count" db:"photos_count"`
	About          json.RawMessage `json:"about,omitempty" db:"about"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`

	// Distance in meters from the search reference point, set only by a search
	Distance *float64 `json:"distance,omitempty" db:"-"`
}

// RatingOrZero returns the rating, treating an absent rating as 0
func (l *Location) RatingOrZero() float64 {
	if l.Rating == nil {
		return 0
	}
	return *l.Rating
}

// IsOperational reports whether the location is trading normally
func (l *Location) IsOperational() bool {
	return l.BusinessStatus == BusinessStatusOperational
}

// LocationDetail is the detail page payload for a single location
type LocationDetail struct {
	*Location
	IsOpenNow       bool              `json:"is_open_now"`
	OpeningHours    map[string]string `json:"opening_hours"`
	DirectionsURL   string            `json:"directions_url"`
	DistanceDisplay string            `json:"distance_display,omitempty"`
}

// LocationStats summarizes the whole directory
type LocationStats struct {
	TotalLocations int     `json:"total_locations"`
	RatedLocations int     `json:"rated_locations"`
	AverageRating  float64 `json:"average_rating"`
	TotalReviews   int     `json:"total_reviews"`
}

// LocationSuggestion is a lightweight autocomplete entry
type LocationSuggestion struct {
	ID         int64  `json:"id"`
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}
