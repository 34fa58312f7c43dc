package cache

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/foxauth/internal/pkg/config"
)

var client *redis.Client

// SetupCache connects to the Redis compatible cache server. A failed ping is
// logged, not fatal; callers check Available before relying on it.
func SetupCache(cfg config.CacheConfig) *redis.Client {
	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Warnf("Could not connect to cache at %s: %v", cfg.Addr(), err)
	} else {
		log.Infof("Successfully connected to cache: %s", pong)
	}

	return client
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Available pings the cache with a short timeout.
func Available(ctx context.Context) bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}
