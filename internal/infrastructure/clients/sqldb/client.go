package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/zatekoja/restaurantlocator/backend/pkg/config"
	"github.com/zatekoja/restaurantlocator/backend/pkg/retry"
)

// Client wraps a database/sql pool together with the goqu dialect that matches its driver
type Client struct {
	db      *sql.DB
	dialect string
}

// NewClient opens the configured database and waits for it with exponential backoff
func NewClient(ctx context.Context, cfg *config.DatabaseConfig) (*Client, error) {
	driverName, dialect, err := driverFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	err = retry.Do(ctx, retry.DefaultConfig(), cfg.Driver,
		func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Str("driver", cfg.Driver).Msg("database connection attempt failed")
		},
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s after retries: %w", cfg.Driver, err)
	}

	log.Info().Str("driver", cfg.Driver).Msg("connected to database")
	return &Client{db: db, dialect: dialect}, nil
}

// NewFromDB wraps an already opened pool, e.g. an in-memory sqlite database or sqlmock in tests
func NewFromDB(db *sql.DB, driver string) (*Client, error) {
	_, dialect, err := driverFor(driver)
	if err != nil {
		return nil, err
	}
	return &Client{db: db, dialect: dialect}, nil
}

func driverFor(driver string) (driverName, dialect string, err error) {
	switch driver {
	case config.DriverPostgres:
		return "postgres", "postgres", nil
	case config.DriverSQLite:
		return "sqlite", "sqlite3", nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// Goqu returns a query builder bound to the pool, using prepared statements
func (c *Client) Goqu() *goqu.Database {
	return goqu.New(c.dialect, c.db)
}

// Dialect returns the goqu dialect name
func (c *Client) Dialect() string {
	return c.dialect
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// Ping verifies the connection to the database
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
