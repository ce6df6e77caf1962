package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const senderLimitPrefix = "rl:sms:sender:"

// SenderRateLimit caps inbound relay callbacks per sender number within window.
// It falls back to the client IP when the form carries no sender, does nothing
// without Redis and lets traffic through when Redis errors.
func SenderRateLimit(cache *redis.Client, limit int, window time.Duration) fiber.Handler {
	if window <= 0 {
		window = time.Minute
	}
	return func(c *fiber.Ctx) error {
		if cache == nil || limit <= 0 {
			return c.Next()
		}

		sender := strings.TrimPrefix(strings.TrimSpace(c.FormValue("sender")), "+")
		if sender == "" {
			sender = c.IP()
		}
		key := senderLimitPrefix + sender

		ctx := c.UserContext()
		count, err := cache.Incr(ctx, key).Result()
		if err != nil {
			return c.Next()
		}
		if count == 1 {
			cache.Expire(ctx, key, window)
		}
		if count > int64(limit) {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many messages, try again later")
		}
		return c.Next()
	}
}
