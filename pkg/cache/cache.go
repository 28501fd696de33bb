package cache

import (
	"context"
	"time"
)

// Cache is a JSON-value cache with per-key TTL.
type Cache interface {
	// Get unmarshals the cached value into dest. Returns false on miss.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	// Set stores value under key for ttl (0 means no expiry).
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Close() error
}
