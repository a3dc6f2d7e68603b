package router

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Chirper/internal/pkg/respond"
	"github.com/ManuelReschke/Chirper/internal/pkg/viewmodel"
)

// ErrorHandler turns errors that escaped the handlers into a JSON body for
// API clients and an error page for browsers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		log.Errorw("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
	}

	if respond.WantsJSON(c) {
		return c.Status(code).JSON(fiber.Map{"message": msg})
	}

	renderErr := c.Status(code).Render("errors/error", fiber.Map{
		"Layout":  viewmodel.NewLayout(c, "Error"),
		"Status":  code,
		"Message": msg,
	}, "layouts/main")
	if renderErr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}
