package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectRedis initializes and returns a Redis client instance.
func ConnectRedis(addr, password string, db int, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("connected to Redis", zap.String("addr", addr), zap.Int("db", db))
	return rdb, nil
}

// DisconnectRedis closes the Redis client connection.
func DisconnectRedis(client *redis.Client, logger *zap.Logger) error {
	if client == nil {
		return nil
	}
	if err := client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	logger.Info("Redis connection closed")
	return nil
}

// JSONCache stores JSON-encoded values under a key prefix.
type JSONCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewJSONCache creates a JSONCache. A zero ttl disables caching.
func NewJSONCache(client *redis.Client, prefix string, ttl time.Duration) *JSONCache {
	return &JSONCache{client: client, prefix: strings.TrimSuffix(prefix, ":"), ttl: ttl}
}

func (c *JSONCache) key(key string) string {
	return c.prefix + ":" + key
}

// Get decodes the cached value for key into out. It reports false on a miss.
func (c *JSONCache) Get(ctx context.Context, key string, out interface{}) (bool, error) {
	if c.ttl <= 0 {
		return false, nil
	}
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		// a corrupt entry is a miss; drop it
		_ = c.client.Del(ctx, c.key(key)).Err()
		return false, nil
	}
	return true, nil
}

// Set stores v under key for the cache TTL.
func (c *JSONCache) Set(ctx context.Context, key string, v interface{}) error {
	if c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// GetOrLoad returns the cached value or calls load and caches its result.
// Cache failures are not fatal: load is still consulted.
func GetOrLoad[T any](ctx context.Context, c *JSONCache, key string, logger *zap.Logger, load func(context.Context) (T, error)) (T, error) {
	var cached T
	hit, err := c.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		return cached, nil
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if err := c.Set(ctx, key, v); err != nil {
		logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}
