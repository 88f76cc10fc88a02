package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"merchant-collections/internal/core/ports"
)

const statsCacheKey = "dashboard:stats"

// StatsCache implements ports.StatsCache. Dashboard aggregates are cheap to
// recompute but hit on every admin page load, so a short TTL absorbs the bulk
// of the traffic without risking stale totals for long.
type StatsCache struct {
	client *goredis.Client
}

// NewStatsCache creates a new Redis-backed dashboard stats cache.
func NewStatsCache(client *goredis.Client) *StatsCache {
	return &StatsCache{client: client}
}

// Get retrieves the cached stats. Returns (nil, nil) on a cache miss.
func (c *StatsCache) Get(ctx context.Context) (*ports.DashboardStats, error) {
	val, err := c.client.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis stats get: %w", err)
	}

	var stats ports.DashboardStats
	if err := json.Unmarshal(val, &stats); err != nil {
		return nil, fmt.Errorf("unmarshal cached stats: %w", err)
	}
	return &stats, nil
}

// Set stores the stats with a TTL.
func (c *StatsCache) Set(ctx context.Context, stats *ports.DashboardStats, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	if err := c.client.Set(ctx, statsCacheKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis stats set: %w", err)
	}
	return nil
}

// Invalidate drops the cached stats. Called after writes that change totals.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, statsCacheKey).Err(); err != nil {
		return fmt.Errorf("redis stats invalidate: %w", err)
	}
	return nil
}
