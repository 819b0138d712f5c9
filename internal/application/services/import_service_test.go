package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/restaurantlocator/backend/pkg/errors"
)

const sampleDataset = `[
  {
    "name": "McDonald's",
    "address": "1 Strand, London WC2N 5HR",
    "city": "London",
    "postal_code": "WC2N 5HR",
    "latitude": 51.5087957,
    "longitude": -0.1245731,
    "rating": "4.1",
    "reviews_count": 1200,
    "working_hours": "Monday,6am,11pm",
    "about": {"Service options": {"Drive-through": true}}
  },
  {
    "address": "Unit 4, Mystery Park",
    "rating": 3.6,
    "phone": "+44 20 7000 0000",
    "business_status": "CLOSED_TEMPORARILY",
    "about": null
  },
  {
    "name": "",
    "rating": "",
    "latitude": null,
    "reviews_count": "15"
  }
]`

func TestDecodeDataset(t *testing.T) {
	records, err := DecodeDataset(strings.NewReader(sampleDataset))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.True(t, records[0].Rating.Valid)
	assert.Equal(t, 4.1, records[0].Rating.Value)
	assert.Equal(t, 3.6, records[1].Rating.Value)
	assert.False(t, records[2].Rating.Valid)
	assert.False(t, records[2].Latitude.Valid)
	assert.Equal(t, 15.0, records[2].ReviewsCount.Value)

	_, err = DecodeDataset(strings.NewReader(`{"not": "a list"}`))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestImportService_AppliesDefaults(t *testing.T) {
	records, err := DecodeDataset(strings.NewReader(sampleDataset))
	require.NoError(t, err)

	repo := newFakeLocationRepository()
	svc := NewImportService(repo, nil, 0)
	stamp := time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return stamp }

	report, err := svc.Import(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, &ImportReport{Records: 3, Imported: 3, FinalCount: 3}, report)
	require.Len(t, repo.locations, 3)

	first := repo.locations[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "mcdonalds-1-strand-london-wc2n-5hr-1", first.Slug)
	require.NotNil(t, first.Rating)
	assert.Equal(t, 4.1, *first.Rating)
	assert.Equal(t, "United Kingdom", first.Country)
	assert.Equal(t, entities.BusinessStatusOperational, first.BusinessStatus)
	assert.JSONEq(t, `{"Service options": {"Drive-through": true}}`, string(first.About))
	assert.Equal(t, stamp, first.CreatedAt)

	second := repo.locations[1]
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, "McDonald's", second.Name)
	assert.Equal(t, "London", second.City)
	assert.Equal(t, "CLOSED_TEMPORARILY", second.BusinessStatus)
	require.NotNil(t, second.Phone)
	assert.Nil(t, second.Website)
	assert.Nil(t, second.About)
	// the slug is built from the raw name, not the default
	assert.Equal(t, "unit-4-mystery-park-2", second.Slug)

	third := repo.locations[2]
	assert.Equal(t, "location-3", third.Slug)
	assert.Nil(t, third.Rating)
	assert.Zero(t, third.Latitude)
	assert.Zero(t, third.Longitude)
	assert.Equal(t, 15, third.ReviewsCount)
}

func TestImportService_SyncsSearchIndex(t *testing.T) {
	searchRepo := new(mockSearchRepository)
	searchRepo.On("BulkIndex", mock.Anything, mock.MatchedBy(func(locs []*entities.Location) bool {
		return len(locs) == 2
	})).Return(nil).Once()

	svc := NewImportService(newFakeLocationRepository(londonFixtures()...), searchRepo, 50)
	report, err := svc.Import(context.Background(), []RawLocation{{Name: "A"}, {Name: "B"}})
	require.NoError(t, err)

	assert.True(t, report.Indexed)
	assert.Equal(t, 2, report.FinalCount)
	searchRepo.AssertExpectations(t)
}

func TestImportService_IndexFailureIsNotFatal(t *testing.T) {
	searchRepo := new(mockSearchRepository)
	searchRepo.On("BulkIndex", mock.Anything, mock.Anything).Return(errors.New("typesense down"))

	svc := NewImportService(newFakeLocationRepository(), searchRepo, 50)
	report, err := svc.Import(context.Background(), []RawLocation{{Name: "A"}})
	require.NoError(t, err)
	assert.False(t, report.Indexed)
	assert.Equal(t, 1, report.Imported)
}

func TestImportService_StoreFailure(t *testing.T) {
	repo := newFakeLocationRepository()
	repo.err = apperrors.NewExternalError("failed to replace locations", errors.New("disk full"))

	svc := NewImportService(repo, nil, 50)
	_, err := svc.Import(context.Background(), []RawLocation{{Name: "A"}})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestImportService_Reindex(t *testing.T) {
	searchRepo := new(mockSearchRepository)
	searchRepo.On("BulkIndex", mock.Anything, mock.Anything).Return(nil)

	svc := NewImportService(newFakeLocationRepository(londonFixtures()...), searchRepo, 50)
	n, err := svc.Reindex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = NewImportService(newFakeLocationRepository(), nil, 50).Reindex(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
}
