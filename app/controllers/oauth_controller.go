package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	gothfiber "github.com/shareed2k/goth_fiber"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/Chirper/internal/pkg/auth"
	"github.com/ManuelReschke/Chirper/internal/pkg/constants"
	"github.com/ManuelReschke/Chirper/internal/pkg/oauth"
)

type OAuthController struct {
	linker *oauth.Linker
	guard  *auth.Guard
}

func NewOAuthController(linker *oauth.Linker, guard *auth.Guard) *OAuthController {
	return &OAuthController{linker: linker, guard: guard}
}

// HandleRedirect sends the browser to the provider's consent page
func (oc *OAuthController) HandleRedirect(c *fiber.Ctx) error {
	if !oauth.IsProvider(c.Params("provider")) {
		return fiber.ErrNotFound
	}
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback completes the provider flow and logs the user in
func (oc *OAuthController) HandleOAuthCallback(c *fiber.Ctx) error {
	provider := c.Params("provider")
	if !oauth.IsProvider(provider) {
		return fiber.ErrNotFound
	}

	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		log.Warnw("oauth callback failed", "provider", provider, "error", err)
		return oc.fail(c, provider)
	}

	user, outcome, err := oc.linker.Resolve(oauth.IdentityFromGoth(u))
	if err != nil {
		log.Errorw("oauth account resolution failed", "provider", provider, "error", err)
		return oc.fail(c, provider)
	}

	if err := oc.guard.Login(c, user, true); err != nil {
		log.Errorw("oauth login failed", "provider", provider, "user_id", user.ID, "error", err)
		return oc.fail(c, provider)
	}

	return flash.WithSuccess(c, fiber.Map{
		"type":    "success",
		"message": oauth.SuccessMessage(provider, outcome),
	}).Redirect(constants.RouteHome)
}

func (oc *OAuthController) fail(c *fiber.Ctx, provider string) error {
	return flash.WithError(c, fiber.Map{
		"type":    "error",
		"message": "Failed to authenticate with " + oauth.ProviderLabel(provider),
	}).Redirect(constants.RouteLogin)
}
