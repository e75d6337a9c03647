package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenCache stores gateway bearer tokens between initiations
type TokenCache interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

type redisTokenCache struct {
	client *redis.Client
}

// NewRedisTokenCache creates a redis-backed token cache
func NewRedisTokenCache(addr string) TokenCache {
	return &redisTokenCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (r *redisTokenCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisTokenCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func tokenCacheKey(clientID string) string {
	return fmt.Sprintf("gateway:token:%s", clientID)
}
