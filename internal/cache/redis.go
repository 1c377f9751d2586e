package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vedicvivaha/backend/internal/config"
)

// CandidateCountTTL bounds how stale a cached browse total may get.
const CandidateCountTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

func (c *RedisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.Client.Expire(ctx, key, ttl).Err()
}

// KeyForCandidateCount generates the Redis key for a viewer's browse total.
// The filter predicate is fully determined by the viewer's own gender, so the
// viewer id is the whole key. Totals self-heal within CandidateCountTTL when
// the candidate pool changes underneath them.
func (c *RedisCache) KeyForCandidateCount(viewerID string) string {
	return "candidates:count:" + viewerID
}

// InvalidateCandidateCount drops one viewer's cached browse total. Called
// when an admin edit changes that member's gender or active flag, since
// either changes which pool the member browses.
func (c *RedisCache) InvalidateCandidateCount(ctx context.Context, viewerID string) error {
	return c.Del(ctx, c.KeyForCandidateCount(viewerID))
}
