package services

import (
	"context"
	"encoding/xml"
	"math"
	"strings"
	"time"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantlocator/backend/internal/domain/repositories"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/restaurantlocator/backend/pkg/errors"
	"github.com/zatekoja/restaurantlocator/backend/pkg/geo"
	"github.com/zatekoja/restaurantlocator/backend/pkg/hours"
)

const (
	defaultSuggestLimit = 8
	maxSuggestLimit     = 25
	sitemapNamespace    = "http://www.sitemaps.org/schemas/sitemap/0.9"
	sitemapDateLayout   = "2006-01-02"
)

// LocationService handles read-side business logic for single locations and directory-wide views
type LocationService struct {
	repo       repositories.LocationRepository
	searchRepo repositories.LocationSearchRepository
	timeZone   *time.Location
	now        func() time.Time
}

// NewLocationService creates a new location service. searchRepo may be nil.
func NewLocationService(repo repositories.LocationRepository, searchRepo repositories.LocationSearchRepository, timeZone *time.Location) *LocationService {
	if timeZone == nil {
		timeZone = time.UTC
	}
	return &LocationService{
		repo:       repo,
		searchRepo: searchRepo,
		timeZone:   timeZone,
		now:        time.Now,
	}
}

// GetBySlug retrieves a location by slug
func (s *LocationService) GetBySlug(ctx context.Context, slug string) (*entities.Location, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, apperrors.NewValidationError("slug is required")
	}
	return s.repo.GetBySlug(ctx, slug)
}

// Detail builds the detail view of a location; from is the optional visitor position
func (s *LocationService) Detail(ctx context.Context, slug string, from *geo.Coordinates) (*entities.LocationDetail, error) {
	location, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	detail := &entities.LocationDetail{
		Location:      location,
		IsOpenNow:     hours.IsOpenAt(location.WorkingHours, s.now().In(s.timeZone)),
		OpeningHours:  hours.Display(location.WorkingHours),
		DirectionsURL: geo.DirectionsURL(location.Latitude, location.Longitude),
	}
	if from != nil {
		d := geo.Distance(from.Latitude, from.Longitude, location.Latitude, location.Longitude)
		location.Distance = &d
		detail.DistanceDisplay = geo.FormatDistance(d)
	}
	return detail, nil
}

// Stats summarizes the whole directory. Unrated locations are left out of the average.
func (s *LocationService) Stats(ctx context.Context) (*entities.LocationStats, error) {
	locations, _, err := s.repo.Find(ctx, repositories.LocationFilter{})
	if err != nil {
		return nil, err
	}

	stats := &entities.LocationStats{TotalLocations: len(locations)}
	var ratingSum float64
	for _, l := range locations {
		stats.TotalReviews += l.ReviewsCount
		if l.Rating != nil {
			ratingSum += *l.Rating
			stats.RatedLocations++
		}
	}
	if stats.RatedLocations > 0 {
		stats.AverageRating = math.Round(ratingSum/float64(stats.RatedLocations)*10) / 10
	}
	return stats, nil
}

// Suggest returns autocomplete entries, preferring the search index and falling back to the store
func (s *LocationService) Suggest(ctx context.Context, query string, limit int) ([]*entities.LocationSuggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*entities.LocationSuggestion{}, nil
	}
	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	if limit > maxSuggestLimit {
		limit = maxSuggestLimit
	}

	if s.searchRepo != nil {
		suggestions, err := s.searchRepo.Suggest(ctx, query, limit)
		if err == nil {
			return suggestions, nil
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("search index unavailable, suggesting from store")
	}

	locations, _, err := s.repo.Find(ctx, repositories.LocationFilter{
		Text:    freeTextConditions(query),
		OrderBy: repositories.FieldName,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}

	suggestions := make([]*entities.LocationSuggestion, 0, len(locations))
	for _, l := range locations {
		suggestions = append(suggestions, &entities.LocationSuggestion{
			ID:         l.ID,
			Slug:       l.Slug,
			Name:       l.Name,
			Address:    l.Address,
			City:       l.City,
			PostalCode: l.PostalCode,
		})
	}
	return suggestions, nil
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// Sitemap renders the sitemap: the home page, the listing page and one entry per location in id order
func (s *LocationService) Sitemap(ctx context.Context, baseURL string, now time.Time) ([]byte, error) {
	locations, _, err := s.repo.Find(ctx, repositories.LocationFilter{OrderBy: repositories.FieldID})
	if err != nil {
		return nil, err
	}

	baseURL = strings.TrimRight(baseURL, "/")
	generated := now.UTC().Format(sitemapDateLayout)

	set := sitemapURLSet{
		XMLNS: sitemapNamespace,
		URLs: []sitemapURL{
			{Loc: baseURL + "/", LastMod: generated, ChangeFreq: "daily", Priority: "1.0"},
			{Loc: baseURL + "/locations", LastMod: generated, ChangeFreq: "weekly", Priority: "0.8"},
		},
	}
	for _, l := range locations {
		lastMod := generated
		if !l.UpdatedAt.IsZero() {
			lastMod = l.UpdatedAt.UTC().Format(sitemapDateLayout)
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        baseURL + "/location/" + l.Slug,
			LastMod:    lastMod,
			ChangeFreq: "monthly",
			Priority:   "0.9",
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, apperrors.NewInternalError("failed to render sitemap", err)
	}
	return append([]byte(xml.Header), body...), nil
}
