package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Pagination modes for the search resolver
const (
	// PaginationFilterFirst over-fetches, filters and sorts, then applies offset/limit
	PaginationFilterFirst = "filter_first"
	// PaginationLegacy lets the store apply offset/limit before client-side filtering
	PaginationLegacy = "legacy"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Typesense   TypesenseConfig
	Geolocation GeolocationConfig
	Search      SearchConfig
	Site        SiteConfig
	Import      ImportConfig
	OTEL        OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string
	SQLitePath string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	Enabled bool
	URL     string
	APIKey  string
}

// GeolocationConfig holds geolocation provider configuration
type GeolocationConfig struct {
	Provider   string
	APIKey     string
	RegionHint string
	Country    string
	CacheTTL   time.Duration
}

// SearchConfig holds search resolver configuration
type SearchConfig struct {
	DefaultRadiusMeters float64
	DefaultLimit        int
	MaxLimit            int
	PaginationMode      string
	CandidateCap        int
	GeocodeTimeout      time.Duration
	TimeZone            string
	DefaultLatitude     float64
	DefaultLongitude    float64
}

// SiteConfig holds public site settings used for the sitemap
type SiteConfig struct {
	BaseURL string
}

// ImportConfig holds dataset import settings
type ImportConfig struct {
	DataPath        string
	BatchSize       int
	// ReindexInterval repeats cmd/indexer runs; zero runs once
	ReindexInterval time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
	// SampleRatio is the fraction of root traces kept, 0 to 1
	SampleRatio float64
}

// Load loads configuration from an optional .env file and environment variables
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", ""),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", DriverPostgres),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvAsInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			Database:   getEnv("DB_NAME", "restaurant_locator"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("DB_SQLITE_PATH", "locations.db"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 0),
		},
		Typesense: TypesenseConfig{
			Enabled: getEnvAsBool("TYPESENSE_ENABLED", false),
			URL:     getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:  getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		Geolocation: GeolocationConfig{
			Provider:   getEnv("GEOLOCATION_PROVIDER", "mock"),
			APIKey:     getEnv("GEOLOCATION_API_KEY", ""),
			RegionHint: getEnv("GEOLOCATION_REGION_HINT", "UK"),
			Country:    getEnv("GEOLOCATION_COUNTRY", "GB"),
			CacheTTL:   getEnvAsDuration("GEOLOCATION_CACHE_TTL", 30*24*time.Hour),
		},
		Search: SearchConfig{
			DefaultRadiusMeters: getEnvAsFloat("SEARCH_DEFAULT_RADIUS_METERS", 20000),
			DefaultLimit:        getEnvAsInt("SEARCH_DEFAULT_LIMIT", 50),
			MaxLimit:            getEnvAsInt("SEARCH_MAX_LIMIT", 200),
			PaginationMode:      getEnv("SEARCH_PAGINATION_MODE", PaginationFilterFirst),
			CandidateCap:        getEnvAsInt("SEARCH_CANDIDATE_CAP", 5000),
			GeocodeTimeout:      getEnvAsDuration("SEARCH_GEOCODE_TIMEOUT", 5*time.Second),
			TimeZone:            getEnv("SEARCH_TIME_ZONE", "Europe/London"),
			DefaultLatitude:     getEnvAsFloat("SEARCH_DEFAULT_LATITUDE", 51.5074),
			DefaultLongitude:    getEnvAsFloat("SEARCH_DEFAULT_LONGITUDE", -0.1278),
		},
		Site: SiteConfig{
			BaseURL: strings.TrimRight(getEnv("SITE_BASE_URL", "http://localhost:3000"), "/"),
		},
		Import: ImportConfig{
			DataPath:        getEnv("IMPORT_DATA_PATH", "data/mcdonalds_locations.json"),
			BatchSize:       getEnvAsInt("IMPORT_BATCH_SIZE", 50),
			ReindexInterval: getEnvAsDuration("REINDEX_INTERVAL", 0),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "restaurant-locator"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
			SampleRatio:    getEnvAsFloat("OTEL_SAMPLE_RATIO", 1.0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Search.PaginationMode {
	case PaginationFilterFirst, PaginationLegacy:
	default:
		return fmt.Errorf("unsupported SEARCH_PAGINATION_MODE %q", c.Search.PaginationMode)
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("invalid search limits: default %d, max %d", c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	if _, err := time.LoadLocation(c.Search.TimeZone); err != nil {
		return fmt.Errorf("invalid SEARCH_TIME_ZONE: %w", err)
	}
	return nil
}

// Location returns the time zone used for opening hours
func (c *SearchConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DatabaseDSN returns the connection string for the configured driver
func (c *DatabaseConfig) DatabaseDSN() string {
	if c.Driver == DriverSQLite {
		return c.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
