// Package respond shapes a handler result as JSON or as a redirect with a
// flash message, depending on what the client asked for.
package respond

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/Chirper/internal/pkg/apperror"
	"github.com/ManuelReschke/Chirper/internal/pkg/constants"
)

// Result is the transport independent outcome of an action.
type Result struct {
	Status   int
	Message  string
	Body     any
	Redirect string
}

// WantsJSON reports whether the request should get a JSON response.
func WantsJSON(c *fiber.Ctx) bool {
	if strings.HasPrefix(c.Path(), "/api/") {
		return true
	}
	return strings.Contains(strings.ToLower(c.Get(fiber.HeaderAccept)), "json")
}

// Send writes r as JSON or as a flash redirect.
func Send(c *fiber.Ctx, r Result) error {
	if WantsJSON(c) {
		status := r.Status
		if status == 0 {
			status = fiber.StatusOK
		}
		if status == fiber.StatusNoContent {
			return c.SendStatus(status)
		}
		if r.Body != nil {
			return c.Status(status).JSON(r.Body)
		}
		return c.Status(status).JSON(fiber.Map{"message": r.Message})
	}

	to := r.Redirect
	if to == "" {
		to = constants.RouteHome
	}
	if r.Message == "" {
		return c.Redirect(to)
	}
	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": r.Message}).Redirect(to)
}

// Error writes err in the shape the client expects. Web validation failures go
// back to the form in back with the old input, unauthenticated web requests go
// to the login page. Everything else becomes a *fiber.Error for the error handler.
func Error(c *fiber.Ctx, err error, back string, old fiber.Map) error {
	e := apperror.As(err)
	if e.Kind == apperror.KindInternal {
		log.Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", e)
	}

	if WantsJSON(c) {
		return JSONError(c, e)
	}

	switch e.Kind {
	case apperror.KindValidation, apperror.KindInvalidCredentials:
		data := fiber.Map{"type": "error", "message": e.Message}
		for k, v := range old {
			data["old_"+k] = v
		}
		if back == "" {
			back = constants.RouteHome
		}
		return flash.WithError(c, data).Redirect(back)
	case apperror.KindUnauthenticated:
		return c.Redirect(constants.RouteLogin, fiber.StatusSeeOther)
	case apperror.KindInternal:
		return fiber.NewError(fiber.StatusInternalServerError, "Server Error")
	default:
		return fiber.NewError(e.Status(), e.Message)
	}
}

// JSONError writes the {"message", "errors"} envelope.
func JSONError(c *fiber.Ctx, e *apperror.Error) error {
	msg := e.Message
	if e.Kind == apperror.KindInternal {
		msg = "Server Error"
	}
	body := fiber.Map{"message": msg}
	if len(e.Fields) > 0 {
		body["errors"] = e.Fields
	}
	return c.Status(e.Status()).JSON(body)
}
