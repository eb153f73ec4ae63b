package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimitMiddleware enforces a fixed window per path. Authenticated
// requests are keyed by user id so a shared NAT egress does not starve users;
// anonymous requests fall back to the client IP. Redis failures fail open.
func RateLimitMiddleware(rdb *redis.Client, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		who := c.IP()
		if userID := GetUserID(c); userID != 0 {
			who = fmt.Sprintf("u%d", userID)
		}
		key := fmt.Sprintf("rl:%s:%s", c.Path(), who)

		ctx := c.Context()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			return c.Next() // fail open
		}

		if count == 1 {
			rdb.Expire(ctx, key, window)
		}

		if count > int64(limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}

		return c.Next()
	}
}
