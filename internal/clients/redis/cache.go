package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/intentlab/intent-backend/internal/logger"
	"github.com/intentlab/intent-backend/internal/utils"
)

// Cache is a thin byte cache over redis used for read-heavy endpoints.
// Misses and backend errors are indistinguishable to callers on purpose;
// a broken cache must never break a request.
type Cache struct {
	client *goredis.Client
	log    *logger.Logger
}

// NewCacheFromEnv returns (nil, nil) when REDIS_ADDR is unset so callers can
// treat the cache as optional infrastructure.
func NewCacheFromEnv(ctx context.Context, log *logger.Logger) (*Cache, error) {
	addr := utils.GetEnv("REDIS_ADDR", "", log)
	if addr == "" {
		return nil, nil
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: utils.GetEnv("REDIS_PASSWORD", "", log),
		DB:       utils.GetEnvAsInt("REDIS_DB", 0, log),
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info("Redis cache connected", "addr", addr)
	return &Cache{client: client, log: log.With("client", "RedisCache")}, nil
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("Cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Warn("Cache write failed", "key", key, "error", err)
	}
}

func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("Cache delete failed", "keys", keys, "error", err)
	}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
