package domain

import (
	"context"
	"time"
)

// Cache defines the interface for probe-result caching. The orchestrator
// consults it before dispatching an adapter so repeated searches for the
// same target do not re-pay slow external calls.
type Cache interface {
	// Get retrieves a value from cache. Returns nil, nil if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache.
	Delete(ctx context.Context, key string) error

	// GetResult retrieves a cached source result for (source, query).
	// Returns nil, nil on a miss.
	GetResult(ctx context.Context, source, query string) (*SourceResult, error)

	// SetResult caches a source result for (source, query).
	SetResult(ctx context.Context, source, query string, result *SourceResult, ttl time.Duration) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string

	// Local LRU cache settings
	LocalMaxSize int
	LocalTTL     time.Duration

	// Redis settings
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ResultTTL is how long probe results stay fresh.
	ResultTTL time.Duration
}
