// Package cache holds the CacheProvider implementations: Redis when it is
// configured and reachable, process memory otherwise.
package cache

import "errors"

// ErrCacheMiss is returned by Get when the key does not exist or has expired
var ErrCacheMiss = errors.New("cache miss")
