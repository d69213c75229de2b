package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ganaa/loantrack/internal/domain"
)

// StatsCache caches per-owner loan statistics in Redis. A nil *StatsCache is
// a valid no-op cache, so services built without Redis (tests) work unchanged.
type StatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStatsCache(rdb *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{rdb: rdb, ttl: ttl}
}

func statsKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("loanstats:%s", ownerID)
}

// Get returns the cached stats for the owner, or nil on miss or cache error.
func (c *StatsCache) Get(ctx context.Context, ownerID uuid.UUID) *domain.LoanStats {
	if c == nil || c.rdb == nil {
		return nil
	}

	raw, err := c.rdb.Get(ctx, statsKey(ownerID)).Bytes()
	if err != nil {
		return nil
	}

	var stats domain.LoanStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil
	}

	return &stats
}

// Set stores the stats under the owner's key. Cache errors are swallowed;
// the database remains the source of truth.
func (c *StatsCache) Set(ctx context.Context, ownerID uuid.UUID, stats *domain.LoanStats) {
	if c == nil || c.rdb == nil {
		return
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}

	c.rdb.Set(ctx, statsKey(ownerID), raw, c.ttl)
}

// Invalidate drops the owner's cached stats. Called after every loan or
// payment mutation.
func (c *StatsCache) Invalidate(ctx context.Context, ownerID uuid.UUID) {
	if c == nil || c.rdb == nil {
		return
	}

	c.rdb.Del(ctx, statsKey(ownerID))
}
