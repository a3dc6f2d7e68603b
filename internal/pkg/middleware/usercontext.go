package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Chirper/internal/pkg/auth"
	"github.com/ManuelReschke/Chirper/internal/pkg/usercontext"
)

// UserContextMiddleware resolves the session user for every web request.
// API routes authenticate with bearer tokens and are skipped.
func UserContextMiddleware(guard *auth.Guard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Next()
		}
		user, err := guard.User(c)
		if err != nil {
			// treat a broken session like a guest
			log.Warnw("failed to resolve session user", "error", err)
			user = nil
		}
		usercontext.Set(c, user)
		return c.Next()
	}
}
