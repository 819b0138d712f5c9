package services

import (
	"context"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantlocator/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/restaurantlocator/backend/pkg/errors"
)

func newTestLocationService(repo repositories.LocationRepository, searchRepo repositories.LocationSearchRepository) *LocationService {
	svc := NewLocationService(repo, searchRepo, time.UTC)
	svc.now = func() time.Time { return nightOwl }
	return svc
}

func TestLocationService_Detail(t *testing.T) {
	svc := newTestLocationService(newFakeLocationRepository(londonFixtures()...), nil)

	detail, err := svc.Detail(context.Background(), "mcdonalds-camden-5", strand)
	require.NoError(t, err)

	assert.Equal(t, int64(5), detail.ID)
	assert.True(t, detail.IsOpenNow)
	assert.Equal(t, "Open 24 hours", detail.OpeningHours["Monday"])
	assert.Len(t, detail.OpeningHours, 7)
	assert.Equal(t, "https://www.google.com/maps/dir/?api=1&destination=51.539,-0.1426", detail.DirectionsURL)
	require.NotNil(t, detail.Distance)
	assert.True(t, strings.HasSuffix(detail.DistanceDisplay, " km"))
}

func TestLocationService_DetailWithoutVisitorPosition(t *testing.T) {
	svc := newTestLocationService(newFakeLocationRepository(londonFixtures()...), nil)

	detail, err := svc.Detail(context.Background(), "mcdonalds-strand-1", nil)
	require.NoError(t, err)

	assert.False(t, detail.IsOpenNow)
	assert.Equal(t, "6am - 11pm", detail.OpeningHours["Friday"])
	assert.Nil(t, detail.Distance)
	assert.Empty(t, detail.DistanceDisplay)
}

func TestLocationService_GetBySlug(t *testing.T) {
	svc := newTestLocationService(newFakeLocationRepository(londonFixtures()...), nil)

	_, err := svc.GetBySlug(context.Background(), "  ")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = svc.GetBySlug(context.Background(), "missing-99")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestLocationService_StatsIgnoresAbsentRatings(t *testing.T) {
	svc := newTestLocationService(newFakeLocationRepository(londonFixtures()...), nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalLocations)
	assert.Equal(t, 4, stats.RatedLocations)
	// (4.1 + 3.8 + 4.5 + 3.5) / 4 = 3.975
	assert.Equal(t, 4.0, stats.AverageRating)
	assert.Equal(t, 2850, stats.TotalReviews)
}

func TestLocationService_StatsEmpty(t *testing.T) {
	svc := newTestLocationService(newFakeLocationRepository(), nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.AverageRating)
	assert.Zero(t, stats.TotalLocations)
}

func TestLocationService_SuggestPrefersSearchIndex(t *testing.T) {
	searchRepo := new(mockSearchRepository)
	want := []*entities.LocationSuggestion{{ID: 1, Slug: "mcdonalds-strand-1", Name: "McDonald's Strand"}}
	searchRepo.On("Suggest", mock.Anything, "stra", 8).Return(want, nil)
	repo := newFakeLocationRepository(londonFixtures()...)
	svc := newTestLocationService(repo, searchRepo)

	got, err := svc.Suggest(context.Background(), "stra", 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Empty(t, repo.finds)
	searchRepo.AssertExpectations(t)
}

func TestLocationService_SuggestFallsBackToStore(t *testing.T) {
	searchRepo := new(mockSearchRepository)
	searchRepo.On("Suggest", mock.Anything, "London", 25).Return(nil, errors.New("typesense down"))
	repo := newFakeLocationRepository(londonFixtures()...)
	svc := newTestLocationService(repo, searchRepo)

	got, err := svc.Suggest(context.Background(), "London", 500)
	require.NoError(t, err)

	require.Len(t, got, 4)
	assert.Equal(t, "McDonald's Camden", got[0].Name)
	require.Len(t, repo.finds, 1)
	assert.Equal(t, repositories.FieldName, repo.finds[0].OrderBy)
	assert.Equal(t, 25, repo.finds[0].Limit)
}

func TestLocationService_SuggestEmptyQuery(t *testing.T) {
	svc := newTestLocationService(newFakeLocationRepository(londonFixtures()...), nil)

	got, err := svc.Suggest(context.Background(), " ", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLocationService_Sitemap(t *testing.T) {
	fixtures := londonFixtures()[:2]
	fixtures[0].UpdatedAt = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	svc := newTestLocationService(newFakeLocationRepository(fixtures...), nil)

	body, err := svc.Sitemap(context.Background(), "https://example.co.uk/", nightOwl)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(body), `<?xml version="1.0" encoding="UTF-8"?>`))

	var set struct {
		XMLName xml.Name `xml:"urlset"`
		URLs    []struct {
			Loc        string `xml:"loc"`
			LastMod    string `xml:"lastmod"`
			ChangeFreq string `xml:"changefreq"`
			Priority   string `xml:"priority"`
		} `xml:"url"`
	}
	require.NoError(t, xml.Unmarshal(body, &set))
	assert.Equal(t, "http://www.sitemaps.org/schemas/sitemap/0.9", set.XMLName.Space)
	require.Len(t, set.URLs, 4)

	assert.Equal(t, "https://example.co.uk/", set.URLs[0].Loc)
	assert.Equal(t, "daily", set.URLs[0].ChangeFreq)
	assert.Equal(t, "1.0", set.URLs[0].Priority)
	assert.Equal(t, "2026-10-19", set.URLs[0].LastMod)

	assert.Equal(t, "https://example.co.uk/locations", set.URLs[1].Loc)
	assert.Equal(t, "weekly", set.URLs[1].ChangeFreq)
	assert.Equal(t, "0.8", set.URLs[1].Priority)

	assert.Equal(t, "https://example.co.uk/location/mcdonalds-strand-1", set.URLs[2].Loc)
	assert.Equal(t, "2026-03-02", set.URLs[2].LastMod)
	assert.Equal(t, "monthly", set.URLs[2].ChangeFreq)
	assert.Equal(t, "0.9", set.URLs[2].Priority)

	assert.Equal(t, "https://example.co.uk/location/mcdonalds-oxford-street-2", set.URLs[3].Loc)
	assert.Equal(t, "2026-10-19", set.URLs[3].LastMod)
}
