package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultSearchTTL      = 5 * time.Minute
	SearchCacheKeyPrefix  = "cache:kobis:search:"
	DefaultSearchMaxBytes = 1 << 20
)

// SearchCache keeps raw registry search responses for a short while so
// repeated queries do not hit the upstream quota.
type SearchCache struct {
	RDB *redis.Client
	ttl time.Duration
}

func NewSearchCache(rdb *redis.Client, ttl time.Duration) *SearchCache {
	if ttl <= 0 {
		ttl = DefaultSearchTTL
	}
	return &SearchCache{RDB: rdb, ttl: ttl}
}

// Get reports ok=false on a miss.
func (c *SearchCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.RDB.Get(ctx, SearchCacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *SearchCache) Set(ctx context.Context, key string, val []byte) error {
	if len(val) > DefaultSearchMaxBytes {
		return nil
	}
	return c.RDB.Set(ctx, SearchCacheKeyPrefix+key, val, c.ttl).Err()
}
