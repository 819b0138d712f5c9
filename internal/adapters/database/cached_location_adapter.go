package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantlocator/backend/internal/domain/providers"
	"github.com/zatekoja/restaurantlocator/backend/internal/domain/repositories"
)

// Cache TTLs (in seconds)
const (
	locationBySlugTTL = 300
)

const locationSlugKeyPattern = "location:slug:*"

func locationSlugCacheKey(slug string) string {
	return fmt.Sprintf("location:slug:%s", slug)
}

// CachedLocationAdapter wraps a LocationRepository with read-through caching of slug lookups
type CachedLocationAdapter struct {
	repositories.LocationRepository
	cache providers.CacheProvider
}

// NewCachedLocationAdapter creates a new cached location adapter
func NewCachedLocationAdapter(adapter repositories.LocationRepository, cache providers.CacheProvider) *CachedLocationAdapter {
	return &CachedLocationAdapter{
		LocationRepository: adapter,
		cache:              cache,
	}
}

// GetBySlug retrieves a location by slug with caching
func (a *CachedLocationAdapter) GetBySlug(ctx context.Context, slug string) (*entities.Location, error) {
	cacheKey := locationSlugCacheKey(slug)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var location entities.Location
		uerr := json.Unmarshal(cached, &location)
		if uerr == nil {
			return &location, nil
		}
		log.Ctx(ctx).Warn().Err(uerr).Str("slug", slug).Msg("failed to unmarshal cached location")
	}

	location, err := a.LocationRepository.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	a.store(ctx, cacheKey, location)
	return location, nil
}

// ReplaceAll replaces the dataset and drops every cached slug lookup
func (a *CachedLocationAdapter) ReplaceAll(ctx context.Context, locations []*entities.Location, batchSize int) (int, error) {
	n, err := a.LocationRepository.ReplaceAll(ctx, locations, batchSize)
	if err != nil {
		return 0, err
	}

	if err := a.Invalidate(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to invalidate location cache")
	}
	return n, nil
}

// Invalidate drops every cached slug lookup
func (a *CachedLocationAdapter) Invalidate(ctx context.Context) error {
	return a.cache.DeletePattern(ctx, locationSlugKeyPattern)
}

// Prime stores a location under its slug without reading the store
func (a *CachedLocationAdapter) Prime(ctx context.Context, location *entities.Location) {
	a.store(ctx, locationSlugCacheKey(location.Slug), location)
}

func (a *CachedLocationAdapter) store(ctx context.Context, key string, location *entities.Location) {
	data, err := json.Marshal(location)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, key, data, locationBySlugTTL); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to cache location")
	}
}
