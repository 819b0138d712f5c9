package database

import (
	"context"
	"fmt"

	"github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/clients/sqldb"
)

const (
	locationsTable    = "locations"
	searchEventsTable = "search_events"
)

// schemaStatements is portable between PostgreSQL and SQLite
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS locations (
		id BIGINT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		street TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		phone TEXT,
		website TEXT,
		rating DOUBLE PRECISION,
		reviews_count INTEGER NOT NULL DEFAULT 0,
		reviews_link TEXT,
		business_status TEXT NOT NULL DEFAULT 'OPERATIONAL',
		working_hours TEXT NOT NULL DEFAULT '',
		photo TEXT,
		photos_count INTEGER NOT NULL DEFAULT 0,
		about TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_locations_postal_code ON locations (postal_code)`,
	`CREATE INDEX IF NOT EXISTS idx_locations_rating ON locations (rating)`,
	`CREATE TABLE IF NOT EXISTS search_events (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL DEFAULT '',
		strategy TEXT NOT NULL,
		result_count INTEGER NOT NULL DEFAULT 0,
		total_count INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		reference_latitude DOUBLE PRECISION,
		reference_longitude DOUBLE PRECISION,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_search_events_created_at ON search_events (created_at)`,
}

// EnsureSchema creates the tables and indexes if they do not exist
func EnsureSchema(ctx context.Context, client *sqldb.Client) error {
	for _, stmt := range schemaStatements {
		if _, err := client.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
