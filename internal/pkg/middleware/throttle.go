package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/Chirper/internal/pkg/constants"
	"github.com/ManuelReschke/Chirper/internal/pkg/respond"
	"github.com/ManuelReschke/Chirper/internal/pkg/usercontext"
)

// Throttle allows max requests per window for each user, or per IP for guests.
// A nil storage counts in process memory.
func Throttle(max int, window time.Duration, storage fiber.Storage) fiber.Handler {
	cfg := limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id := usercontext.GetUserID(c); id != 0 {
				return "throttle:user:" + strconv.FormatUint(uint64(id), 10) + ":" + c.Route().Path
			}
			return "throttle:ip:" + c.IP() + ":" + c.Route().Path
		},
		LimitReached: func(c *fiber.Ctx) error {
			if respond.WantsJSON(c) {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": "Too Many Attempts."})
			}
			return flash.WithError(c, fiber.Map{"type": "error", "message": "Too many attempts. Please try again later."}).Redirect(constants.RouteVerifyNotice)
		},
	}
	if storage != nil {
		cfg.Storage = storage
	}
	return limiter.New(cfg)
}
