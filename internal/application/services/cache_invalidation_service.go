package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantlocator/backend/internal/domain/providers"
)

// responseCachePattern matches every cached HTTP response
const responseCachePattern = "http:cache:*"

const invalidationTimeout = 5 * time.Second

// CacheInvalidationService drops cached lookups and responses when the dataset changes
type CacheInvalidationService struct {
	cache     providers.CacheProvider
	locations LocationCache
	eventBus  providers.EventBus
	warmer    *CacheWarmingService

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCacheInvalidationService creates a new cache invalidation service. warmer may be nil.
func NewCacheInvalidationService(cache providers.CacheProvider, locations LocationCache, eventBus providers.EventBus, warmer *CacheWarmingService) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:     cache,
		locations: locations,
		eventBus:  eventBus,
		warmer:    warmer,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins listening for dataset events
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelLocationUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to location updates: %w", err)
	}

	s.wg.Add(1)
	go s.processEvents(eventChan)
	log.Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops listening and waits for the event in flight
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	s.wg.Wait()
	log.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.DatasetEvent) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event != nil {
				s.handleEvent(event)
			}
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.DatasetEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), invalidationTimeout)
	defer cancel()

	logger := log.With().Str("event_id", event.ID).Str("type", string(event.Type)).Logger()

	switch event.Type {
	case entities.DatasetEventReplaced:
		if err := s.locations.Invalidate(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to invalidate location lookups")
		}
		if err := s.InvalidateResponses(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to invalidate cached responses")
		}
		if s.warmer != nil {
			if _, err := s.warmer.WarmCache(ctx); err != nil {
				logger.Warn().Err(err).Msg("failed to rewarm location cache")
			}
		}
	case entities.DatasetEventIndexRebuilt:
		// only suggestions come from the index
		if err := s.InvalidateResponses(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to invalidate cached responses")
		}
	default:
		logger.Debug().Msg("ignoring dataset event")
		return
	}

	logger.Info().Int("count", event.Count).Msg("caches invalidated")
}

// InvalidateResponses drops every cached HTTP response
func (s *CacheInvalidationService) InvalidateResponses(ctx context.Context) error {
	if err := s.cache.DeletePattern(ctx, responseCachePattern); err != nil {
		return fmt.Errorf("failed to invalidate pattern %s: %w", responseCachePattern, err)
	}
	return nil
}
