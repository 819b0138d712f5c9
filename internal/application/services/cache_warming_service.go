package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantlocator/backend/internal/domain/repositories"
)

const warmTopLocations = 50

// LocationCache is the slug lookup cache the warmer fills
type LocationCache interface {
	Prime(ctx context.Context, location *entities.Location)
	Invalidate(ctx context.Context) error
}

// CacheWarmingService handles cache warming for frequently accessed locations
type CacheWarmingService struct {
	repo  repositories.LocationRepository
	cache LocationCache
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(repo repositories.LocationRepository, cache LocationCache) *CacheWarmingService {
	return &CacheWarmingService{
		repo:  repo,
		cache: cache,
	}
}

// WarmCache caches the detail lookups of the top rated locations and returns how many were stored
func (s *CacheWarmingService) WarmCache(ctx context.Context) (int, error) {
	locations, _, err := s.repo.Find(ctx, repositories.LocationFilter{
		OrderBy:    repositories.FieldRating,
		Descending: true,
		Limit:      warmTopLocations,
	})
	if err != nil {
		return 0, err
	}

	for _, location := range locations {
		s.cache.Prime(ctx, location)
	}

	log.Ctx(ctx).Info().Int("locations", len(locations)).Msg("warmed location cache")
	return len(locations), nil
}

// StartPeriodicWarming warms once, then again every interval until ctx is done
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if _, err := s.WarmCache(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("initial cache warming failed")
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stopping cache warming")
				return
			case <-ticker.C:
				if _, err := s.WarmCache(ctx); err != nil {
					log.Ctx(ctx).Warn().Err(err).Msg("periodic cache warming failed")
				}
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("started periodic cache warming")
}

// InvalidateCache drops all cached location lookups
func (s *CacheWarmingService) InvalidateCache(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}
