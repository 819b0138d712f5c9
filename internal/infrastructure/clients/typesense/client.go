package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/restaurantlocator/backend/pkg/config"
	"github.com/zatekoja/restaurantlocator/backend/pkg/retry"
)

const (
	LocationsCollection = "locations"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client and waits for the server with exponential backoff
func NewClient(ctx context.Context, cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	err := retry.Do(ctx, retry.DefaultConfig(), "typesense",
		func(ctx context.Context) error {
			healthy, err := client.Health(ctx, 2*time.Second)
			if err != nil {
				return err
			}
			if !healthy {
				return fmt.Errorf("typesense reported unhealthy")
			}
			return nil
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("typesense connection attempt failed")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// Ping checks the server health endpoint
func (c *Client) Ping(ctx context.Context) error {
	healthy, err := c.client.Health(ctx, 2*time.Second)
	if err != nil {
		return err
	}
	if !healthy {
		return fmt.Errorf("typesense reported unhealthy")
	}
	return nil
}

// LocationsSchema describes the locations collection
func LocationsSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: LocationsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "slug", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "address", Type: "string"},
			{Name: "city", Type: "string", Facet: pointer.True()},
			{Name: "postal_code", Type: "string"},
			{Name: "location", Type: "geopoint"},
			{Name: "rating", Type: "float", Optional: pointer.True()},
			{Name: "reviews_count", Type: "int32"},
			{Name: "business_status", Type: "string", Facet: pointer.True()},
		},
		DefaultSortingField: pointer.String("reviews_count"),
	}
}

// InitSchema ensures the locations collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	if _, err := c.client.Collection(LocationsCollection).Retrieve(ctx); err == nil {
		return nil
	}

	if _, err := c.client.Collections().Create(ctx, LocationsSchema()); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", LocationsCollection).Msg("created Typesense collection")
	return nil
}

// DropSchema deletes the locations collection if it exists
func (c *Client) DropSchema(ctx context.Context) error {
	if _, err := c.client.Collection(LocationsCollection).Retrieve(ctx); err != nil {
		return nil
	}
	if _, err := c.client.Collection(LocationsCollection).Delete(ctx); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}
