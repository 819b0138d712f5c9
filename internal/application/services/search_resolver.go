package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantlocator/backend/internal/domain/providers"
	"github.com/zatekoja/restaurantlocator/backend/internal/domain/repositories"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/observability"
	"github.com/zatekoja/restaurantlocator/backend/pkg/config"
	apperrors "github.com/zatekoja/restaurantlocator/backend/pkg/errors"
	"github.com/zatekoja/restaurantlocator/backend/pkg/geo"
	"github.com/zatekoja/restaurantlocator/backend/pkg/hours"
	"github.com/zatekoja/restaurantlocator/backend/pkg/postcode"
)

// minGeocodeLength is the shortest free text worth sending to the geocoder
const minGeocodeLength = 3

// SearchTracker records resolved searches
type SearchTracker interface {
	TrackSearch(ctx context.Context, event *entities.SearchEvent)
}

// SearchResolverConfig holds the resolver's tunables
type SearchResolverConfig struct {
	DefaultRadiusMeters float64
	DefaultLimit        int
	MaxLimit            int
	PaginationMode      string
	CandidateCap        int
	GeocodeTimeout      time.Duration
	TimeZone            *time.Location
}

// ResolverConfigFrom builds a SearchResolverConfig from application config
func ResolverConfigFrom(cfg *config.SearchConfig) SearchResolverConfig {
	return SearchResolverConfig{
		DefaultRadiusMeters: cfg.DefaultRadiusMeters,
		DefaultLimit:        cfg.DefaultLimit,
		MaxLimit:            cfg.MaxLimit,
		PaginationMode:      cfg.PaginationMode,
		CandidateCap:        cfg.CandidateCap,
		GeocodeTimeout:      cfg.GeocodeTimeout,
		TimeZone:            cfg.Location(),
	}
}

// SearchResolver turns a SearchQuery into a ranked, filtered page of locations
type SearchResolver struct {
	repo     repositories.LocationRepository
	geocoder providers.GeolocationProvider
	tracker  SearchTracker
	metrics  *observability.Metrics
	cfg      SearchResolverConfig
	now      func() time.Time
}

// NewSearchResolver creates a new search resolver. tracker and metrics may be nil.
func NewSearchResolver(
	repo repositories.LocationRepository,
	geocoder providers.GeolocationProvider,
	tracker SearchTracker,
	metrics *observability.Metrics,
	cfg SearchResolverConfig,
) *SearchResolver {
	if cfg.DefaultRadiusMeters <= 0 {
		cfg.DefaultRadiusMeters = 20000
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 50
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit
	}
	if cfg.PaginationMode == "" {
		cfg.PaginationMode = config.PaginationFilterFirst
	}
	if cfg.CandidateCap <= 0 {
		cfg.CandidateCap = 5000
	}
	if cfg.TimeZone == nil {
		cfg.TimeZone = time.UTC
	}
	return &SearchResolver{
		repo:     repo,
		geocoder: geocoder,
		tracker:  tracker,
		metrics:  metrics,
		cfg:      cfg,
		now:      time.Now,
	}
}

// searchPlan is the outcome of strategy selection
type searchPlan struct {
	strategy    entities.Strategy
	reference   *geo.Coordinates
	text        []repositories.TextCondition
	applyRadius bool
}

// Search resolves the query
func (r *SearchResolver) Search(ctx context.Context, query entities.SearchQuery) (*entities.SearchResult, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "SearchResolver.Search")
	defer span.End()

	query = r.normalize(query)

	plan, err := r.plan(ctx, query)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	filter := repositories.LocationFilter{
		MinRating: query.MinRating,
		Text:      plan.text,
	}
	legacy := r.cfg.PaginationMode == config.PaginationLegacy
	if legacy {
		filter.Limit = query.Limit
		filter.Offset = query.Offset
	} else {
		filter.Limit = r.cfg.CandidateCap
	}

	candidates, candidateTotal, err := r.repo.Find(ctx, filter)
	if err != nil {
		observability.RecordError(span, err)
		return nil, storeError("failed to fetch locations", err)
	}

	located := annotate(candidates, plan.reference)
	if plan.applyRadius {
		located = withinRadius(located, query.RadiusMeters)
	}
	sortLocations(located, query.SortBy, plan.reference != nil)
	if query.OpenNow {
		located = openAt(located, r.now().In(r.cfg.TimeZone))
	}

	result := &entities.SearchResult{
		Strategy:       plan.strategy,
		Reference:      plan.reference,
		CandidateTotal: candidateTotal,
		Query:          query,
	}
	if legacy {
		result.Locations = located
		result.Total = candidateTotal
	} else {
		result.Locations = paginate(located, query.Offset, query.Limit)
		result.Total = len(located)
	}

	elapsed := time.Since(start)
	observability.SetSpanAttributes(span,
		attribute.String("search.strategy", string(plan.strategy)),
		attribute.Int("search.total", result.Total),
		attribute.Int("search.returned", len(result.Locations)),
	)
	observability.RecordSearchMetric(ctx, r.metrics, string(plan.strategy), len(result.Locations), elapsed)
	r.track(ctx, result, elapsed)

	return result, nil
}

func (r *SearchResolver) normalize(q entities.SearchQuery) entities.SearchQuery {
	q.Text = strings.TrimSpace(q.Text)
	if q.RadiusMeters <= 0 {
		q.RadiusMeters = r.cfg.DefaultRadiusMeters
	}
	if q.Limit <= 0 {
		q.Limit = r.cfg.DefaultLimit
	}
	if q.Limit > r.cfg.MaxLimit {
		q.Limit = r.cfg.MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.SortBy == "" {
		q.SortBy = entities.SortByDistance
	}
	return q
}

// plan selects the candidate strategy. A caller coordinate takes precedence
// over the text, and every plan with a reference applies the radius.
func (r *SearchResolver) plan(ctx context.Context, q entities.SearchQuery) (searchPlan, error) {
	if q.Reference != nil {
		return searchPlan{strategy: entities.StrategyNearby, reference: q.Reference, applyRadius: true}, nil
	}
	if q.Text == "" {
		return searchPlan{strategy: entities.StrategyBrowse}, nil
	}

	textMatch := func(conds []repositories.TextCondition) searchPlan {
		return searchPlan{strategy: entities.StrategyTextMatch, text: conds}
	}
	geocoded := func(coords *geo.Coordinates) searchPlan {
		return searchPlan{strategy: entities.StrategyGeocoded, reference: coords, applyRadius: true}
	}

	switch postcode.Classify(q.Text) {
	case postcode.Partial:
		conds := postcodeConditions(q.Text, repositories.MatchPrefix)
		probe, err := r.repo.Count(ctx, repositories.LocationFilter{MinRating: q.MinRating, Text: conds})
		if err != nil {
			return searchPlan{}, storeError("failed to probe postcode matches", err)
		}
		if probe > 0 {
			return textMatch(conds), nil
		}
		if coords := r.geocode(ctx, q.Text); coords != nil {
			return geocoded(coords), nil
		}
		// nothing left to restrict by
		return searchPlan{strategy: entities.StrategyBrowse}, nil

	case postcode.Full:
		if coords := r.geocode(ctx, q.Text); coords != nil {
			return geocoded(coords), nil
		}
		return textMatch(postcodeConditions(q.Text, repositories.MatchContains)), nil

	default:
		if utf8.RuneCountInString(q.Text) >= minGeocodeLength {
			if coords := r.geocode(ctx, q.Text); coords != nil {
				return geocoded(coords), nil
			}
		}
		return textMatch(freeTextConditions(q.Text)), nil
	}
}

// geocode never fails the search; errors and timeouts are a negative result
func (r *SearchResolver) geocode(ctx context.Context, text string) *geo.Coordinates {
	if r.geocoder == nil {
		return nil
	}

	if r.cfg.GeocodeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.GeocodeTimeout)
		defer cancel()
	}

	coords, err := r.geocoder.Geocode(ctx, text)
	switch {
	case err != nil:
		observability.RecordGeocodeMetric(ctx, r.metrics, "error")
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("query", text).Msg("geocoding failed, falling back to text search")
		return nil
	case coords == nil:
		observability.RecordGeocodeMetric(ctx, r.metrics, "miss")
		return nil
	default:
		observability.RecordGeocodeMetric(ctx, r.metrics, "hit")
		return coords
	}
}

func (r *SearchResolver) track(ctx context.Context, result *entities.SearchResult, elapsed time.Duration) {
	if r.tracker == nil {
		return
	}
	event := &entities.SearchEvent{
		Query:       result.Query.Text,
		Strategy:    string(result.Strategy),
		ResultCount: len(result.Locations),
		TotalCount:  result.Total,
		LatencyMs:   int(elapsed.Milliseconds()),
	}
	if result.Reference != nil {
		lat, lon := result.Reference.Latitude, result.Reference.Longitude
		event.ReferenceLatitude = &lat
		event.ReferenceLongitude = &lon
	}
	r.tracker.TrackSearch(ctx, event)
}

func postcodeConditions(text string, postalMatch repositories.MatchKind) []repositories.TextCondition {
	return []repositories.TextCondition{
		{Field: repositories.FieldPostalCode, Match: postalMatch, Value: text},
		{Field: repositories.FieldAddress, Match: repositories.MatchContains, Value: text},
		{Field: repositories.FieldCity, Match: repositories.MatchContains, Value: text},
	}
}

func freeTextConditions(text string) []repositories.TextCondition {
	return []repositories.TextCondition{
		{Field: repositories.FieldName, Match: repositories.MatchContains, Value: text},
		{Field: repositories.FieldAddress, Match: repositories.MatchContains, Value: text},
		{Field: repositories.FieldCity, Match: repositories.MatchContains, Value: text},
		{Field: repositories.FieldPostalCode, Match: repositories.MatchContains, Value: text},
	}
}

// annotate returns copies of the candidates carrying their distance from ref
func annotate(candidates []*entities.Location, ref *geo.Coordinates) []*entities.Location {
	out := make([]*entities.Location, 0, len(candidates))
	for _, c := range candidates {
		loc := *c
		loc.Distance = nil
		if ref != nil {
			d := geo.Distance(ref.Latitude, ref.Longitude, loc.Latitude, loc.Longitude)
			loc.Distance = &d
		}
		out = append(out, &loc)
	}
	return out
}

func withinRadius(locations []*entities.Location, radius float64) []*entities.Location {
	out := locations[:0]
	for _, loc := range locations {
		if loc.Distance != nil && *loc.Distance <= radius {
			out = append(out, loc)
		}
	}
	return out
}

func sortLocations(locations []*entities.Location, key entities.SortKey, hasReference bool) {
	switch key {
	case entities.SortByDistance:
		if !hasReference {
			return
		}
		sort.SliceStable(locations, func(i, j int) bool {
			return *locations[i].Distance < *locations[j].Distance
		})
	case entities.SortByRating:
		sort.SliceStable(locations, func(i, j int) bool {
			return locations[i].RatingOrZero() > locations[j].RatingOrZero()
		})
	case entities.SortByName:
		collator := collate.New(language.BritishEnglish, collate.IgnoreCase)
		sort.SliceStable(locations, func(i, j int) bool {
			return collator.CompareString(locations[i].Name, locations[j].Name) < 0
		})
	}
}

func openAt(locations []*entities.Location, now time.Time) []*entities.Location {
	out := locations[:0]
	for _, loc := range locations {
		if hours.IsOpenAt(loc.WorkingHours, now) {
			out = append(out, loc)
		}
	}
	return out
}

func paginate(locations []*entities.Location, offset, limit int) []*entities.Location {
	if offset >= len(locations) {
		return []*entities.Location{}
	}
	end := offset + limit
	if end > len(locations) {
		end = len(locations)
	}
	return locations[offset:end]
}

// storeError keeps typed adapter errors and wraps anything else as an upstream failure
func storeError(message string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.NewExternalError(message, err)
}
