package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/restaurantlocator/backend/internal/adapters/cache"
	"github.com/zatekoja/restaurantlocator/backend/internal/adapters/database"
	"github.com/zatekoja/restaurantlocator/backend/internal/adapters/events"
	"github.com/zatekoja/restaurantlocator/backend/internal/adapters/search"
	"github.com/zatekoja/restaurantlocator/backend/internal/application/services"
	"github.com/zatekoja/restaurantlocator/backend/internal/domain/repositories"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/clients/sqldb"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/observability"
	"github.com/zatekoja/restaurantlocator/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger("restaurant-locator-importer", cfg.Environment, cfg.LogLevel)

	var dataPath string
	flag.StringVar(&dataPath, "file", cfg.Import.DataPath, "path to the JSON location dataset")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, dataPath); err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}
}

func run(ctx context.Context, cfg *config.Config, dataPath string) error {
	file, err := os.Open(dataPath)
	if err != nil {
		return err
	}
	defer file.Close()

	records, err := services.DecodeDataset(file)
	if err != nil {
		return err
	}
	log.Info().Int("records", len(records)).Str("file", dataPath).Msg("loaded dataset")

	dbClient, err := sqldb.NewClient(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	if err := database.EnsureSchema(ctx, dbClient); err != nil {
		return err
	}

	var repo repositories.LocationRepository = database.NewLocationAdapter(dbClient)
	var bus *events.RedisEventBus

	// stale slug lookups are dropped together with the old rows
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, cached lookups will expire on their own")
		} else {
			defer redisClient.Close()
			repo = database.NewCachedLocationAdapter(repo, cache.NewRedisAdapter(redisClient))
			bus = events.NewRedisEventBus(redisClient)
			defer bus.Close()
		}
	}

	var searchRepo repositories.LocationSearchRepository
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("typesense unavailable, skipping index sync")
		} else if err := tsClient.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to initialize typesense schema, skipping index sync")
		} else {
			searchRepo = search.NewTypesenseAdapter(tsClient)
		}
	}

	importer := services.NewImportService(repo, searchRepo, cfg.Import.BatchSize)
	if bus != nil {
		importer.WithEventPublisher(bus)
	}

	report, err := importer.Import(ctx, records)
	if err != nil {
		return err
	}

	log.Info().
		Int("imported", report.Imported).
		Int("final_count", report.FinalCount).
		Bool("indexed", report.Indexed).
		Msg("import completed")
	return nil
}
