package cache

import (
	"context"
	"time"

	"herdapi/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Redis is the shared Store for multi-process deployments.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	full := r.prefix + key

	cached, err := r.client.Get(ctx, full).Bytes()
	if err == nil {
		return cached, nil
	}
	if err != redis.Nil {
		// Redis недоступен — считаем на лету, кэш догонит
		logger.Warn("cache_redis_get_failed", logger.Fields{
			"key":   full,
			"error": err.Error(),
		})
	}

	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.client.Set(ctx, full, value, ttl).Err(); err != nil {
		logger.Warn("cache_redis_set_failed", logger.Fields{
			"key":   full,
			"error": err.Error(),
		})
	}
	return value, nil
}

func (r *Redis) Invalidate(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = r.prefix + key
	}
	return r.client.Del(ctx, full...).Err()
}
