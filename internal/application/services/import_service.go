package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantlocator/backend/internal/domain/providers"
	"github.com/zatekoja/restaurantlocator/backend/internal/domain/repositories"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/restaurantlocator/backend/pkg/errors"
	"github.com/zatekoja/restaurantlocator/backend/pkg/slug"
)

const (
	defaultImportBatchSize = 50
	defaultLocationName    = "McDonald's"
	defaultLocationCity    = "London"
	defaultLocationCountry = "United Kingdom"
)

// FlexibleNumber decodes a JSON number, a numeric string or null
type FlexibleNumber struct {
	Value float64
	Valid bool
}

// UnmarshalJSON accepts 4.1, "4.1", "" and null
func (n *FlexibleNumber) UnmarshalJSON(data []byte) error {
	*n = FlexibleNumber{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			return nil
		}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// unparseable values are treated as missing
		return nil
	}
	n.Value, n.Valid = v, true
	return nil
}

func (n FlexibleNumber) orZero() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

// RawLocation is one row of the source dataset
type RawLocation struct {
	Name           string          `json:"name"`
	Address        string          `json:"address"`
	Street         string          `json:"street"`
	City           string          `json:"city"`
	PostalCode     string          `json:"postal_code"`
	Country        string          `json:"country"`
	Phone          string          `json:"phone"`
	Website        string          `json:"website"`
	Latitude       FlexibleNumber  `json:"latitude"`
	Longitude      FlexibleNumber  `json:"longitude"`
	Rating         FlexibleNumber  `json:"rating"`
	ReviewsCount   FlexibleNumber  `json:"reviews_count"`
	ReviewsLink    string          `json:"reviews_link"`
	WorkingHours   string          `json:"working_hours"`
	Photo          string          `json:"photo"`
	PhotosCount    FlexibleNumber  `json:"photos_count"`
	BusinessStatus string          `json:"business_status"`
	About          json.RawMessage `json:"about"`
}

// ImportReport summarizes an import run
type ImportReport struct {
	Records    int  `json:"records"`
	Imported   int  `json:"imported"`
	Indexed    bool `json:"indexed"`
	FinalCount int  `json:"final_count"`
}

// ImportService replaces the location dataset and keeps the search index in step
type ImportService struct {
	repo       repositories.LocationRepository
	searchRepo repositories.LocationSearchRepository
	batchSize  int
	events     providers.EventPublisher
	now        func() time.Time
}

// NewImportService creates a new import service. searchRepo may be nil.
func NewImportService(repo repositories.LocationRepository, searchRepo repositories.LocationSearchRepository, batchSize int) *ImportService {
	if batchSize <= 0 {
		batchSize = defaultImportBatchSize
	}
	return &ImportService{
		repo:       repo,
		searchRepo: searchRepo,
		batchSize:  batchSize,
		now:        time.Now,
	}
}

// WithEventPublisher announces completed imports and reindexes on the location updates channel
func (s *ImportService) WithEventPublisher(events providers.EventPublisher) *ImportService {
	s.events = events
	return s
}

// DecodeDataset reads a JSON array of raw locations
func DecodeDataset(r io.Reader) ([]RawLocation, error) {
	var records []RawLocation
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid location dataset: %v", err))
	}
	return records, nil
}

// Import replaces every stored location with the given records, ids assigned 1..n in order
func (s *ImportService) Import(ctx context.Context, records []RawLocation) (*ImportReport, error) {
	logger := observability.LoggerFromContext(ctx)
	report := &ImportReport{Records: len(records)}

	stamp := s.now().UTC()
	locations := make([]*entities.Location, 0, len(records))
	for i, record := range records {
		locations = append(locations, convertRecord(record, int64(i+1), stamp))
	}

	imported, err := s.repo.ReplaceAll(ctx, locations, s.batchSize)
	if err != nil {
		return nil, err
	}
	report.Imported = imported
	logger.Info().Int("records", len(records)).Int("imported", imported).Msg("locations replaced")

	if s.searchRepo != nil {
		if err := s.searchRepo.BulkIndex(ctx, locations); err != nil {
			logger.Warn().Err(err).Msg("failed to sync search index after import")
		} else {
			report.Indexed = true
		}
	}

	count, err := s.repo.Count(ctx, repositories.LocationFilter{})
	if err != nil {
		return nil, err
	}
	report.FinalCount = count
	if count != len(records) {
		logger.Warn().Int("expected", len(records)).Int("actual", count).Msg("final location count differs from dataset")
	}

	s.publish(ctx, entities.DatasetEventReplaced, count)
	return report, nil
}

// Reindex pushes every stored location to the search index
func (s *ImportService) Reindex(ctx context.Context) (int, error) {
	if s.searchRepo == nil {
		return 0, apperrors.NewUnavailableError("search index is not configured")
	}
	locations, _, err := s.repo.Find(ctx, repositories.LocationFilter{})
	if err != nil {
		return 0, err
	}
	if err := s.searchRepo.BulkIndex(ctx, locations); err != nil {
		return 0, err
	}
	s.publish(ctx, entities.DatasetEventIndexRebuilt, len(locations))
	return len(locations), nil
}

// publish is best effort; the data change has already happened
func (s *ImportService) publish(ctx context.Context, eventType entities.DatasetEventType, count int) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, providers.EventChannelLocationUpdates, entities.NewDatasetEvent(eventType, count)); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("type", string(eventType)).Msg("failed to publish dataset event")
	}
}

func convertRecord(r RawLocation, id int64, stamp time.Time) *entities.Location {
	l := &entities.Location{
		ID:             id,
		Slug:           slug.Generate(r.Name, r.Address, id),
		Name:           orDefault(r.Name, defaultLocationName),
		Address:        r.Address,
		Street:         r.Street,
		City:           orDefault(r.City, defaultLocationCity),
		PostalCode:     r.PostalCode,
		Country:        orDefault(r.Country, defaultLocationCountry),
		Latitude:       r.Latitude.orZero(),
		Longitude:      r.Longitude.orZero(),
		Phone:          optional(r.Phone),
		Website:        optional(r.Website),
		ReviewsCount:   int(r.ReviewsCount.orZero()),
		ReviewsLink:    optional(r.ReviewsLink),
		BusinessStatus: orDefault(r.BusinessStatus, entities.BusinessStatusOperational),
		WorkingHours:   r.WorkingHours,
		Photo:          optional(r.Photo),
		PhotosCount:    int(r.PhotosCount.orZero()),
		CreatedAt:      stamp,
		UpdatedAt:      stamp,
	}
	// a zero rating in the dataset means unrated
	if r.Rating.Valid && r.Rating.Value != 0 {
		rating := r.Rating.Value
		l.Rating = &rating
	}
	if about := bytes.TrimSpace(r.About); len(about) > 0 && !bytes.Equal(about, []byte("null")) {
		l.About = about
	}
	return l
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func optional(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
