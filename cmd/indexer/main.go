package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/restaurantlocator/backend/internal/adapters/database"
	"github.com/zatekoja/restaurantlocator/backend/internal/adapters/events"
	"github.com/zatekoja/restaurantlocator/backend/internal/adapters/search"
	"github.com/zatekoja/restaurantlocator/backend/internal/application/services"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/clients/sqldb"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/observability"
	"github.com/zatekoja/restaurantlocator/backend/pkg/config"
)

// indexer copies every stored location into Typesense, once or on an interval.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	reset := flag.Bool("reset", false, "drop the Typesense collection before the first run")
	interval := flag.Duration("interval", cfg.Import.ReindexInterval, "repeat interval, e.g. 6h; 0 runs once")
	flag.Parse()

	observability.InitLogger("restaurant-locator-indexer", cfg.Environment, cfg.LogLevel)
	if *interval < 0 {
		log.Fatal().Dur("interval", *interval).Msg("interval must not be negative")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := sqldb.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer dbClient.Close()

	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to typesense")
	}
	if *reset {
		log.Info().Msg("dropping locations collection")
		if err := tsClient.DropSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to drop collection")
		}
	}

	importer := services.NewImportService(database.NewLocationAdapter(dbClient), search.NewTypesenseAdapter(tsClient), cfg.Import.BatchSize)

	// API instances drop cached suggestions once the index is rebuilt
	if cfg.Redis.Enabled {
		if redisClient, err := redis.NewClient(ctx, &cfg.Redis); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, not announcing reindex")
		} else {
			defer redisClient.Close()
			bus := events.NewRedisEventBus(redisClient)
			defer bus.Close()
			importer.WithEventPublisher(bus)
		}
	}

	run := func() {
		start := time.Now()
		if err := tsClient.InitSchema(ctx); err != nil {
			log.Error().Err(err).Msg("failed to initialize typesense schema")
			return
		}
		n, err := importer.Reindex(ctx)
		if err != nil {
			log.Error().Err(err).Msg("reindex failed")
			return
		}
		log.Info().Int("locations", n).Dur("took", time.Since(start)).Msg("indexed locations")
	}

	run()
	if *interval == 0 {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("indexer shutting down")
			return
		case <-ticker.C:
			run()
		}
	}
}
