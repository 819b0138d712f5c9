//go:build integration

package database

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/repositories"
	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/clients/sqldb"
	"github.com/zatekoja/restaurantlocator/backend/pkg/config"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func newTestPostgresClient(t *testing.T) *sqldb.Client {
	t.Helper()
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("Skipping integration test: TEST_DB_HOST not set")
	}

	port, _ := strconv.Atoi(getEnv("TEST_DB_PORT", "5432"))
	cfg := &config.DatabaseConfig{
		Driver:   config.DriverPostgres,
		Host:     os.Getenv("TEST_DB_HOST"),
		Port:     port,
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getEnv("TEST_DB_NAME", "restaurant_locator_test"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}

	client, err := sqldb.NewClient(context.Background(), cfg)
	require.NoError(t, err, "Failed to create postgres client")
	t.Cleanup(func() { client.Close() })
	require.NoError(t, EnsureSchema(context.Background(), client))
	return client
}

func TestLocationAdapter_Postgres(t *testing.T) {
	client := newTestPostgresClient(t)
	adapter := NewLocationAdapter(client)
	ctx := context.Background()

	seedLocations(t, adapter)

	t.Run("postcode prefix probe", func(t *testing.T) {
		n, err := adapter.Count(ctx, repositories.LocationFilter{Text: []repositories.TextCondition{
			{Field: repositories.FieldPostalCode, Match: repositories.MatchPrefix, Value: "br3"},
		}})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("rating order puts unrated last", func(t *testing.T) {
		locations, total, err := adapter.Find(ctx, repositories.LocationFilter{OrderBy: repositories.FieldRating, Descending: true})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		require.Len(t, locations, 4)
		assert.Equal(t, int64(2), locations[0].ID)
		assert.Nil(t, locations[3].Rating)
	})

	t.Run("slug lookup keeps json about", func(t *testing.T) {
		loc, err := adapter.GetBySlug(ctx, "mcdonalds-strand-1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"Service options":{"Takeaway":true}}`, string(loc.About))
	})
}
