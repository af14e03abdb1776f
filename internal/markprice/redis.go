package markprice

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache wraps a Source with a Redis read-through cache so concurrent
// wallet runs do not hammer the upstream price API for the same conditions.
// Each leg's mark is stored as a plain string at "mark:{condition}:{leg}".
type RedisCache struct {
	rdb  *redis.Client
	next Source
	ttl  time.Duration
}

// RedisConfig holds connection parameters for the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisCache connects to Redis and wraps next with the cache. The
// connection is pinged so misconfiguration fails at startup, not mid-run.
func NewRedisCache(ctx context.Context, cfg RedisConfig, next Source) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{rdb: rdb, next: next, ttl: ttl}, nil
}

var _ Source = (*RedisCache)(nil)

func markKey(conditionID string, outcomeIndex int) string {
	return "mark:" + conditionID + ":" + strconv.Itoa(outcomeIndex)
}

// Price implements Source. Cache errors fall through to the wrapped source;
// a failed write-back is ignored, the price was already obtained.
func (c *RedisCache) Price(ctx context.Context, conditionID string, outcomeIndex int) (int64, bool, error) {
	key := markKey(conditionID, outcomeIndex)

	if raw, err := c.rdb.Get(ctx, key).Result(); err == nil {
		if micro, perr := strconv.ParseInt(raw, 10, 64); perr == nil && micro > 0 {
			return micro, true, nil
		}
	}

	if c.next == nil {
		return 0, false, nil
	}

	price, ok, err := c.next.Price(ctx, conditionID, outcomeIndex)
	if err != nil || !ok {
		return 0, false, err
	}

	_ = c.rdb.Set(ctx, key, strconv.FormatInt(price, 10), c.ttl).Err()
	return price, true, nil
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
