package cache

import (
	"context"
	"encoding/json"
	"time"

	"civicserve-backend/pkg/logger"
	"civicserve-backend/pkg/metrics"

	"github.com/go-redis/redis/v8"
)

// Set stores a value in the cache with the given key and expiration time.
// A disabled cache silently accepts writes.
func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if RedisClient == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		logger.GlobalLogger.Errorf("failed to marshal value for key %s: %v", key, err)
		return err
	}
	if err := RedisClient.Set(ctx, key, data, expiration).Err(); err != nil {
		logger.GlobalLogger.Errorf("failed to set key %s: %v", key, err)
		return err
	}
	return nil
}

// Get retrieves a value and unmarshals it into dest. Returns false on a
// miss, on a disabled cache, or on any cache error: callers fall through
// to the upstream either way.
func Get(ctx context.Context, key string, dest interface{}) bool {
	if RedisClient == nil {
		return false
	}
	val, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logger.GlobalLogger.Errorf("failed to get key %s: %v", key, err)
		}
		metrics.CacheMissesTotal.Inc()
		return false
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		logger.GlobalLogger.Errorf("failed to unmarshal value for key %s: %v", key, err)
		metrics.CacheMissesTotal.Inc()
		return false
	}
	metrics.CacheHitsTotal.Inc()
	return true
}

// Delete removes a key from the cache.
func Delete(ctx context.Context, key string) error {
	if RedisClient == nil {
		return nil
	}
	if err := RedisClient.Del(ctx, key).Err(); err != nil {
		logger.GlobalLogger.Errorf("failed to delete key %s: %v", key, err)
		return err
	}
	return nil
}
