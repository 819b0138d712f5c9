package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/restaurantlocator/backend/internal/adapters/cache"
	"github.com/zatekoja/restaurantlocator/backend/internal/adapters/database"
	"github.com/zatekoja/restaurantlocator/backend/internal/adapters/events"
	"github.com/zatekoja/restaurantlocator/backend/internal/adapters/providers/geolocation"
	"github.com/zatekoja/restaurantlocator/backend/internal/adapters/search"
	"github.com/zatekoja/restaurantlocator/backend/internal/api/handlers"
	"github.com/zatekoja/restaurantlocator/backend/internal/api/middleware"
	"github.com/zatekoja/restaurantlocator/backend/internal/api/routes"
	"github.com/zatekoja/restaurantlocator/backend/internal/application/services"
	"github.com/zatekoja/restaurantlocator/backend/internal/domain/providers"
	"github.com/zatekoja/restaurantlocator/backend/internal/domain/repositories"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/clients/sqldb"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/observability"
	"github.com/zatekoja/restaurantlocator/backend/pkg/config"
	"github.com/zatekoja/restaurantlocator/backend/pkg/geo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, &cfg.OTEL, cfg.Environment)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	dbClient, err := sqldb.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database client")
	}
	defer dbClient.Close()

	if err := database.EnsureSchema(ctx, dbClient); err != nil {
		log.Fatal().Err(err).Msg("failed to apply database schema")
	}

	checks := map[string]handlers.Pinger{"database": dbClient}

	// Redis is optional; without it caching falls back to process memory
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-memory cache")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			checks["redis"] = redisClient
			eventBus = events.NewRedisEventBus(redisClient)
		}
	}
	if cacheProvider == nil {
		cacheProvider = cache.NewMemoryAdapter()
	}

	var searchRepo repositories.LocationSearchRepository
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("typesense unavailable, suggestions served from the database")
		} else if err := tsClient.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to initialize typesense schema")
		} else {
			searchRepo = search.NewTypesenseAdapter(tsClient)
			checks["typesense"] = tsClient
		}
	}

	var geocoder providers.GeolocationProvider
	switch cfg.Geolocation.Provider {
	case "google":
		geocoder = geolocation.NewGoogleGeolocationProvider(geolocation.GoogleOptions{
			APIKey:     cfg.Geolocation.APIKey,
			RegionHint: cfg.Geolocation.RegionHint,
			Country:    cfg.Geolocation.Country,
			CacheTTL:   cfg.Geolocation.CacheTTL,
		}, cacheProvider)
	default:
		log.Warn().Str("provider", cfg.Geolocation.Provider).Msg("using mock geolocation provider")
		geocoder = geolocation.NewMockGeolocationProvider()
	}

	locationAdapter := database.NewCachedLocationAdapter(database.NewLocationAdapter(dbClient), cacheProvider)
	analyticsAdapter := database.NewSearchAnalyticsAdapter(dbClient)

	analyticsService := services.NewSearchAnalyticsService(analyticsAdapter)
	resolver := services.NewSearchResolver(locationAdapter, geocoder, analyticsService, metrics, services.ResolverConfigFrom(&cfg.Search))
	locationService := services.NewLocationService(locationAdapter, searchRepo, cfg.Search.Location())

	warmingService := services.NewCacheWarmingService(locationAdapter, locationAdapter)
	warmingService.StartPeriodicWarming(ctx, 5*time.Minute)

	// imports and reindexes from other processes arrive over Redis pub/sub
	var invalidationService *services.CacheInvalidationService
	if eventBus != nil {
		defer eventBus.Close()
		invalidationService = services.NewCacheInvalidationService(cacheProvider, locationAdapter, eventBus, warmingService)
		if err := invalidationService.Start(); err != nil {
			log.Warn().Err(err).Msg("failed to start cache invalidation service")
			invalidationService = nil
		}
	}

	router := routes.NewRouter(
		handlers.NewLocationHandler(resolver, locationService, geo.Coordinates{
			Latitude:  cfg.Search.DefaultLatitude,
			Longitude: cfg.Search.DefaultLongitude,
		}),
		handlers.NewGeolocationHandler(geocoder),
		handlers.NewSitemapHandler(locationService, cfg.Site.BaseURL),
		handlers.NewAnalyticsHandler(analyticsService),
		handlers.NewHealthHandler(checks),
		middleware.NewCacheMiddleware(cacheProvider),
		cfg.Server.AllowedOrigins,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if invalidationService != nil {
		invalidationService.Stop()
	}

	// flush pending search events
	analyticsService.Wait()

	log.Info().Msg("server stopped")
}
