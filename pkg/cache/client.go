package cache

import (
	"context"
	"fmt"
	"time"

	"civicserve-backend/pkg/config"
	"civicserve-backend/pkg/logger"

	"github.com/go-redis/redis/v8"
)

var RedisClient *redis.Client

// InitRedis initializes the shared Redis client. The cache is optional:
// when redis is not enabled in config, every operation is a no-op miss and
// the in-process loaders carry the full load.
func InitRedis(cfg *config.Config) error {
	if !cfg.Redis.Enabled {
		logger.GlobalLogger.Println("Redis cache disabled; running without a shared cache")
		return nil
	}

	RedisClient = redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     10,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		logger.GlobalLogger.Errorf("failed to connect to Redis: %v", err)
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	logger.GlobalLogger.Println("Redis connected successfully")
	return nil
}

// Enabled reports whether a Redis client is live.
func Enabled() bool {
	return RedisClient != nil
}

// CloseRedis closes the Redis client connection.
func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logger.GlobalLogger.Errorf("error closing Redis: %v", err)
		} else {
			logger.GlobalLogger.Println("Redis connection closed")
		}
	}
}
