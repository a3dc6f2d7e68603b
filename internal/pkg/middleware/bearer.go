package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Chirper/internal/pkg/apperror"
	"github.com/ManuelReschke/Chirper/internal/pkg/respond"
	"github.com/ManuelReschke/Chirper/internal/pkg/tokens"
	"github.com/ManuelReschke/Chirper/internal/pkg/usercontext"
)

// BearerAuth authenticates API requests carrying an access token.
func BearerAuth(svc *tokens.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plain := extractBearerToken(c)
		if plain == "" {
			return respond.JSONError(c, apperror.Unauthenticated())
		}

		user, token, err := svc.Validate(plain)
		if err != nil {
			return respond.JSONError(c, apperror.As(err))
		}

		usercontext.Set(c, user)
		c.Locals(usercontext.KeyToken, token)
		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
