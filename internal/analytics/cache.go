package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/founder-insights/internal/pkg/logger"
)

// Cache is a small TTL cache over redis for raw upstream aggregates. Computed
// dashboard results are never cached; only the postgres rollup payloads are,
// so every request still recomputes the engine output from fresh inputs.
// A nil Cache (redis disabled) is valid and every method falls through.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache wraps a redis client with the configured entry lifetime.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(parts ...string) string {
	key := "founder"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// Get unmarshals a cached entry into dest, reporting whether it was present.
// Redis failures are logged and treated as misses; the cache never takes the
// dashboard down with it.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("cache get failed", "key", key, "error", err.Error())
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		logger.Warn("cache entry corrupt, ignoring", "key", key, "error", err.Error())
		return false
	}
	return true
}

// Set stores a value under the configured TTL. Failures are logged only.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Warn("cache marshal failed", "key", key, "error", err.Error())
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logger.Warn("cache set failed", "key", key, "error", err.Error())
	}
}

// Ping verifies redis connectivity for health checks.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("cache disabled")
	}
	return c.client.Ping(ctx).Err()
}
