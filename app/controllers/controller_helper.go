package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Chirper/internal/pkg/apperror"
)

const layoutMain = "layouts/main"

// parseBody binds the request body into out. A missing or unsupported body
// leaves out empty so validation can name the missing fields.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		if errors.Is(err, fiber.ErrUnprocessableEntity) {
			return nil
		}
		return apperror.Validation("body", "The request body is invalid.")
	}
	return nil
}

func paramUint(c *fiber.Ctx, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}
