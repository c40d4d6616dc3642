// Package cache is a best-effort Redis cache: every failure reads as a miss.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisCache struct {
	rdb    *redis.Client
	prefix string
	logger *logging.Logger
}

func NewRedisCache(rdb *redis.Client, prefix string, logger *logging.Logger) *RedisCache {
	if logger == nil {
		logger = logging.Nop()
	}
	return &RedisCache{rdb: rdb, prefix: prefix, logger: logger}
}

// NewClient parses a redis:// URL, falling back to treating it as host:port.
func NewClient(url string) *redis.Client {
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	return redis.NewClient(opts)
}

func (r *RedisCache) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.logger.Debug(ctx, "cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return val, true
}

func (r *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if err := r.rdb.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		r.logger.Debug(ctx, "cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *RedisCache) Delete(ctx context.Context, key string) {
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		r.logger.Debug(ctx, "cache delete failed", zap.String("key", key), zap.Error(err))
	}
}
