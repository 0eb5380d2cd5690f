package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	dom "github.com/tmdahr/impulse-ultra/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyStats    = "leaderboard:stats"
	keyRankings = "leaderboard:top:"
)

// LeaderboardCache caches rankings and global stats in Redis. Both are
// read far more often than scores are saved, and both are invalidated
// together on every save.
type LeaderboardCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewLeaderboardCache returns a new LeaderboardCache.
func NewLeaderboardCache(rdb *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{rdb: rdb, ttl: ttl}
}

// GetRankings returns the cached top-n list or nil if miss.
func (c *LeaderboardCache) GetRankings(ctx context.Context, n int) ([]dom.RankingEntry, error) {
	b, err := c.rdb.Get(ctx, keyRankings+strconv.Itoa(n)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []dom.RankingEntry
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetRankings stores the top-n list in cache.
func (c *LeaderboardCache) SetRankings(ctx context.Context, n int, list []dom.RankingEntry) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyRankings+strconv.Itoa(n), b, c.ttl).Err()
}

// GetStats returns the cached global stats or nil if miss.
func (c *LeaderboardCache) GetStats(ctx context.Context) (*dom.GlobalStats, error) {
	b, err := c.rdb.Get(ctx, keyStats).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s dom.GlobalStats
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SetStats stores the global stats in cache.
func (c *LeaderboardCache) SetStats(ctx context.Context, s dom.GlobalStats) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyStats, b, c.ttl).Err()
}

// Invalidate removes the stats key and every cached top-n list
// (cache invalidation on score save).
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, keyStats).Err(); err != nil {
		return err
	}
	iter := c.rdb.Scan(ctx, 0, keyRankings+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
