package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Chirper/app/controllers"
	"github.com/ManuelReschke/Chirper/internal/pkg/middleware"
	"github.com/ManuelReschke/Chirper/internal/pkg/tokens"
)

type ApiRouter struct {
	limiter fiber.Storage
	tokens  *tokens.Service
	auth    *controllers.APIAuthController
	chirps  *controllers.ChirpController
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", middleware.Throttle(120, time.Minute, h.limiter))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// Public auth routes
	api.Post("/auth/register", h.auth.HandleRegister)
	api.Post("/auth/login", h.auth.HandleLogin)

	// Token protected routes
	protected := api.Group("", middleware.BearerAuth(h.tokens))
	protected.Post("/auth/logout", h.auth.HandleLogout)
	protected.Get("/auth/me", h.auth.HandleMe)
	protected.Post("/auth/refresh", h.auth.HandleRefresh)

	chirps := protected.Group("/chirps", middleware.RequireVerified)
	chirps.Get("/", h.chirps.HandleIndex)
	chirps.Post("/", h.chirps.HandleStore)
	chirps.Get("/:id", h.chirps.HandleShow)
	chirps.Put("/:id", h.chirps.HandleUpdate)
	chirps.Patch("/:id", h.chirps.HandleUpdate)
	chirps.Delete("/:id", h.chirps.HandleDestroy)
}

func NewApiRouter(d Deps, svc *Services) *ApiRouter {
	return &ApiRouter{
		limiter: d.LimiterStorage,
		tokens:  svc.Tokens,
		auth:    controllers.NewAPIAuthController(svc.Credentials, svc.Tokens, svc.Verification),
		chirps:  controllers.NewChirpController(svc.Chirps),
	}
}
