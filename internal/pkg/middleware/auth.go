package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Chirper/internal/pkg/apperror"
	"github.com/ManuelReschke/Chirper/internal/pkg/constants"
	"github.com/ManuelReschke/Chirper/internal/pkg/respond"
	icuser "github.com/ManuelReschke/Chirper/internal/pkg/usercontext"
)

// RequireAuth ensures a logged-in web session; redirects to /login if missing.
func RequireAuth(c *fiber.Ctx) error {
	if icuser.User(c) == nil {
		return c.Redirect(constants.RouteLogin, fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireGuest keeps logged-in users away from the login and register pages.
func RequireGuest(c *fiber.Ctx) error {
	if icuser.User(c) != nil {
		return c.Redirect(constants.RouteHome, fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireVerified blocks users whose email is not confirmed. Web requests go
// to the verification notice, JSON requests get 403.
func RequireVerified(c *fiber.Ctx) error {
	user := icuser.User(c)
	if user == nil {
		if respond.WantsJSON(c) {
			return respond.JSONError(c, apperror.Unauthenticated())
		}
		return c.Redirect(constants.RouteLogin, fiber.StatusSeeOther)
	}
	if !user.IsVerified() {
		if respond.WantsJSON(c) {
			return respond.JSONError(c, apperror.Unverified())
		}
		return c.Redirect(constants.RouteVerifyNotice, fiber.StatusSeeOther)
	}
	return c.Next()
}

// RedirectIfVerified sends users who already confirmed their email home.
func RedirectIfVerified(c *fiber.Ctx) error {
	if user := icuser.User(c); user != nil && user.IsVerified() {
		return c.Redirect(constants.RouteHome, fiber.StatusSeeOther)
	}
	return c.Next()
}
