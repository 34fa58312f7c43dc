package middleware

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/foxauth/internal/pkg/apperror"
	"github.com/ManuelReschke/foxauth/internal/pkg/response"
)

// limiterDatabase keeps rate-limit counters apart from cache keys (DB 0).
const limiterDatabase = 3

// NewLimiterStorage returns Redis-backed counters shared by every instance,
// reusing the connection settings of the cache client. A nil client yields
// nil, which makes the limiter fall back to in-memory counters.
func NewLimiterStorage(client *redis.Client) fiber.Storage {
	if client == nil {
		return nil
	}

	opts := client.Options()
	host, port := "localhost", 6379
	if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	log.Infof("[RateLimit] Using Redis storage at %s:%d (db %d)", host, port, limiterDatabase)
	return redisstorage.New(redisstorage.Config{
		Host:     host,
		Port:     port,
		Username: opts.Username,
		Password: opts.Password,
		Database: limiterDatabase,
		Reset:    false,
	})
}

// RateLimit allows limit requests per window per client IP for the named
// route. Rejections use the JSON envelope with 429.
func RateLimit(name string, limit int, window time.Duration, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: window,
		Storage:    storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return name + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return response.Error(c, apperror.TooManyRequests("Too Many Attempts."))
		},
	})
}
