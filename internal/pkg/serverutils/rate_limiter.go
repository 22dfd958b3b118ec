package serverutils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// UserRateLimiter allows max requests per window for each user_id found in
// the JSON body, falling back to the client IP. A non-positive max
// disables limiting.
func UserRateLimiter(max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:          max,
		Expiration:   window,
		KeyGenerator: userKey,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many chat requests, try again later")
		},
	})
}

func userKey(c *fiber.Ctx) string {
	var body struct {
		UserId string `json:"user_id"`
	}
	if err := c.App().Config().JSONDecoder(c.Body(), &body); err == nil && body.UserId != "" {
		return "user:" + body.UserId
	}
	return "ip:" + c.IP()
}
