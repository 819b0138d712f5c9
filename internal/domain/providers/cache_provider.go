package providers

import "context"

// CacheProvider is the key/value store behind slug lookups, geocode results
// and cached HTTP responses. Get fails on a miss; callers treat any error as one.
type CacheProvider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set with expirationSeconds <= 0 keeps the entry until it is deleted
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error
	Delete(ctx context.Context, key string) error
	// DeletePattern removes every key matching a glob such as "http:cache:*"
	DeletePattern(ctx context.Context, pattern string) error
}
