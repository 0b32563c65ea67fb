package cache

import (
	"fmt"

	"github.com/openrecon/kite/internal/domain"
)

// New creates a new cache based on configuration.
// Standalone tier: in-process LRU. Distributed tier: Redis.
func New(cfg domain.CacheConfig) (domain.Cache, error) {
	switch cfg.Type {
	case "memory":
		return NewLRUCache(cfg.LocalMaxSize), nil

	case "redis":
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// resultKey builds the cache key for one (source, query) probe result.
func resultKey(source, query string) string {
	return "result:" + source + ":" + query
}
