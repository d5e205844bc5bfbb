package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turnosmed/booking-engine/pkg/logging"
)

const cacheKey = "catalog:snapshot"

// Cache stores the reference-data snapshot in Redis with a TTL. Cache
// failures are soft: a miss is returned and the loader falls through to the
// backend.
type Cache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCache creates a snapshot cache.
func NewCache(redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *Cache {
	if logger == nil {
		logger = logging.Default()
	}
	return &Cache{redis: redisClient, ttl: ttl, logger: logger}
}

// Get retrieves the cached snapshot, reporting a miss on absence or error.
func (c *Cache) Get(ctx context.Context) (*Snapshot, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, cacheKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("catalog cache read failed", "error", err)
		return nil, false
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.logger.Warn("catalog cache entry corrupt", "error", err)
		return nil, false
	}
	return &snap, true
}

// Set stores a snapshot. Errors are logged, never surfaced.
func (c *Cache) Set(ctx context.Context, snap *Snapshot) {
	if c == nil || c.redis == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		c.logger.Warn("catalog cache marshal failed", "error", err)
		return
	}
	if err := c.redis.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", "error", err)
	}
}

// Delete removes the cached snapshot.
func (c *Cache) Delete(ctx context.Context) {
	if c == nil || c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, cacheKey).Err(); err != nil {
		c.logger.Warn("catalog cache delete failed", "error", err)
	}
}
