package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantlocator/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/restaurantlocator/backend/pkg/errors"
	"github.com/zatekoja/restaurantlocator/backend/pkg/geo"
)

// fakeLocationRepository evaluates filters in memory the way the SQL adapter does
type fakeLocationRepository struct {
	mu        sync.Mutex
	locations []*entities.Location
	err       error
	countErr  error
	finds     []repositories.LocationFilter
	counts    []repositories.LocationFilter
}

func newFakeLocationRepository(locations ...*entities.Location) *fakeLocationRepository {
	return &fakeLocationRepository{locations: locations}
}

func (f *fakeLocationRepository) Find(_ context.Context, filter repositories.LocationFilter) ([]*entities.Location, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds = append(f.finds, filter)
	if f.err != nil {
		return nil, 0, f.err
	}

	matched := f.match(filter)
	total := len(matched)
	f.order(matched, filter)

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	out := make([]*entities.Location, 0, len(matched))
	for _, l := range matched {
		cp := *l
		out = append(out, &cp)
	}
	return out, total, nil
}

func (f *fakeLocationRepository) Count(_ context.Context, filter repositories.LocationFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = append(f.counts, filter)
	if f.countErr != nil {
		return 0, f.countErr
	}
	if f.err != nil {
		return 0, f.err
	}
	return len(f.match(filter)), nil
}

func (f *fakeLocationRepository) GetBySlug(_ context.Context, slug string) (*entities.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, l := range f.locations {
		if l.Slug == slug {
			cp := *l
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("location not found")
}

func (f *fakeLocationRepository) ReplaceAll(_ context.Context, locations []*entities.Location, _ int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.locations = append([]*entities.Location(nil), locations...)
	return len(locations), nil
}

func (f *fakeLocationRepository) match(filter repositories.LocationFilter) []*entities.Location {
	var out []*entities.Location
	for _, l := range f.locations {
		if filter.MinRating != nil && (l.Rating == nil || *l.Rating < *filter.MinRating) {
			continue
		}
		if len(filter.Text) > 0 && !matchesAny(l, filter.Text) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func (f *fakeLocationRepository) order(locations []*entities.Location, filter repositories.LocationFilter) {
	sort.SliceStable(locations, func(i, j int) bool {
		a, b := locations[i], locations[j]
		switch filter.OrderBy {
		case repositories.FieldName:
			if a.Name != b.Name {
				return (a.Name < b.Name) != filter.Descending
			}
		case repositories.FieldRating:
			if (a.Rating == nil) != (b.Rating == nil) {
				return b.Rating == nil
			}
			if a.Rating != nil && *a.Rating != *b.Rating {
				return (*a.Rating < *b.Rating) != filter.Descending
			}
		}
		return a.ID < b.ID
	})
}

func matchesAny(l *entities.Location, conds []repositories.TextCondition) bool {
	for _, c := range conds {
		var value string
		switch c.Field {
		case repositories.FieldName:
			value = l.Name
		case repositories.FieldAddress:
			value = l.Address
		case repositories.FieldCity:
			value = l.City
		case repositories.FieldPostalCode:
			value = l.PostalCode
		}
		value, needle := strings.ToLower(value), strings.ToLower(c.Value)
		if c.Match == repositories.MatchPrefix && strings.HasPrefix(value, needle) {
			return true
		}
		if c.Match == repositories.MatchContains && strings.Contains(value, needle) {
			return true
		}
	}
	return false
}

type mockGeocoder struct {
	mock.Mock
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (*geo.Coordinates, error) {
	args := m.Called(ctx, address)
	coords, _ := args.Get(0).(*geo.Coordinates)
	return coords, args.Error(1)
}

type mockSearchRepository struct {
	mock.Mock
}

func (m *mockSearchRepository) Suggest(ctx context.Context, query string, limit int) ([]*entities.LocationSuggestion, error) {
	args := m.Called(ctx, query, limit)
	suggestions, _ := args.Get(0).([]*entities.LocationSuggestion)
	return suggestions, args.Error(1)
}

func (m *mockSearchRepository) Index(ctx context.Context, location *entities.Location) error {
	return m.Called(ctx, location).Error(0)
}

func (m *mockSearchRepository) BulkIndex(ctx context.Context, locations []*entities.Location) error {
	return m.Called(ctx, locations).Error(0)
}

func (m *mockSearchRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type recordingTracker struct {
	mu     sync.Mutex
	events []*entities.SearchEvent
}

func (r *recordingTracker) TrackSearch(_ context.Context, event *entities.SearchEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func floatPtr(v float64) *float64 { return &v }

func everyDay(open, closing string) string {
	days := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	entries := make([]string, 0, len(days))
	for _, d := range days {
		entries = append(entries, d+","+open+","+closing)
	}
	return strings.Join(entries, "|")
}

// londonFixtures: ids 1..5, Brighton is the only one outside 20 km of BR3
func londonFixtures() []*entities.Location {
	return []*entities.Location{
		{
			ID: 1, Slug: "mcdonalds-strand-1", Name: "McDonald's Strand",
			Address: "1 Strand, London WC2N 5HR", City: "London", PostalCode: "WC2N 5HR",
			Latitude: 51.5087957, Longitude: -0.1245731, Rating: floatPtr(4.1), ReviewsCount: 1200,
			BusinessStatus: entities.BusinessStatusOperational, WorkingHours: everyDay("6am", "11pm"),
		},
		{
			ID: 2, Slug: "mcdonalds-oxford-street-2", Name: "McDonald's Oxford Street",
			Address: "8-10 Oxford Street, London", City: "London", PostalCode: "W1D 1AW",
			Latitude: 51.5164, Longitude: -0.1310, Rating: floatPtr(3.8), ReviewsCount: 900,
			BusinessStatus: entities.BusinessStatusOperational, WorkingHours: everyDay("6am", "11pm"),
		},
		{
			ID: 3, Slug: "mcdonalds-stratford-3", Name: "McDonald's Stratford",
			Address: "Westfield Avenue, London", City: "London", PostalCode: "E20 1EJ",
			Latitude: 51.5430, Longitude: -0.0090, ReviewsCount: 0,
			BusinessStatus: entities.BusinessStatusOperational, WorkingHours: everyDay("6pm", "4am"),
		},
		{
			ID: 4, Slug: "mcdonalds-brighton-4", Name: "McDonald's Brighton",
			Address: "1 Western Road, Brighton", City: "Brighton", PostalCode: "BN1 2AA",
			Latitude: 50.8225, Longitude: -0.1372, Rating: floatPtr(4.5), ReviewsCount: 300,
			BusinessStatus: entities.BusinessStatusOperational, WorkingHours: everyDay("7am", "10pm"),
		},
		{
			ID: 5, Slug: "mcdonalds-camden-5", Name: "McDonald's Camden",
			Address: "Camden High Street, London", City: "London", PostalCode: "NW1 0JH",
			Latitude: 51.5390, Longitude: -0.1426, Rating: floatPtr(3.5), ReviewsCount: 450,
			BusinessStatus: entities.BusinessStatusOperational, WorkingHours: everyDay("Open 24 hours", ""),
		},
	}
}

// fakeEventBus delivers published events to in-process subscribers
type fakeEventBus struct {
	mu         sync.Mutex
	published  []*entities.DatasetEvent
	subs       map[string][]chan *entities.DatasetEvent
	publishErr error
}

func newFakeEventBus() *fakeEventBus {
	return &fakeEventBus{subs: make(map[string][]chan *entities.DatasetEvent)}
}

func (b *fakeEventBus) Publish(_ context.Context, channel string, event *entities.DatasetEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published = append(b.published, event)
	for _, ch := range b.subs[channel] {
		ch <- event
	}
	return nil
}

func (b *fakeEventBus) Subscribe(_ context.Context, channel string) (<-chan *entities.DatasetEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan *entities.DatasetEvent, 4)
	b.subs[channel] = append(b.subs[channel], ch)
	return ch, nil
}

func (b *fakeEventBus) Unsubscribe(context.Context, string) error { return nil }

func (b *fakeEventBus) Close() error { return nil }

func (b *fakeEventBus) events() []*entities.DatasetEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*entities.DatasetEvent(nil), b.published...)
}
