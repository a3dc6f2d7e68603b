package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/ManuelReschke/Chirper/app/controllers"
	"github.com/ManuelReschke/Chirper/internal/pkg/auth"
	"github.com/ManuelReschke/Chirper/internal/pkg/constants"
	"github.com/ManuelReschke/Chirper/internal/pkg/middleware"
	"github.com/ManuelReschke/Chirper/internal/pkg/session"
)

type HttpRouter struct {
	deps         Deps
	guard        *auth.Guard
	auth         *controllers.AuthController
	verification *controllers.VerificationController
	chirps       *controllers.ChirpController
	oauth        *controllers.OAuthController
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware(h.guard))

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter(d Deps, svc *Services) *HttpRouter {
	return &HttpRouter{
		deps:         d,
		guard:        svc.Guard,
		auth:         controllers.NewAuthController(svc.Guard, svc.Credentials, svc.Verification),
		verification: controllers.NewVerificationController(svc.Verification),
		chirps:       controllers.NewChirpController(svc.Chirps),
		oauth:        controllers.NewOAuthController(svc.Linker, svc.Guard),
	}
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Social OAuth
	app.Get("/auth/:provider/redirect", h.oauth.HandleRedirect)
	app.Get("/auth/:provider/callback", h.oauth.HandleOAuthCallback)
}

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:         "form:" + session.CSRFFormField,
		ContextKey:        session.CSRFContextKey,
		HandlerContextKey: session.CSRFHandlerKey,
		CookieName:        session.CSRFCookie,
		CookieSameSite:    "Lax",
		Expiration:        1 * time.Hour,
		CookieSecure:      h.deps.SecureCookies,
		Storage:           h.deps.CSRFStorage,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/") || strings.HasPrefix(c.Path(), "/auth/")
		},
	}
	throttle := middleware.Throttle(6, time.Minute, h.deps.LimiterStorage)

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get(constants.RouteHome, h.chirps.HandleIndex)

	// Auth
	group.Get(constants.RouteLogin, middleware.RequireGuest, h.auth.HandleLoginPage)
	group.Post(constants.RouteLogin, middleware.RequireGuest, h.auth.HandleLogin)
	group.Get(constants.RouteRegister, middleware.RequireGuest, h.auth.HandleRegisterPage)
	group.Post(constants.RouteRegister, middleware.RequireGuest, h.auth.HandleRegister)
	group.Post(constants.RouteLogout, middleware.RequireAuth, h.auth.HandleLogout)

	// Email verification
	group.Get(constants.RouteVerifyNotice, middleware.RequireAuth, middleware.RedirectIfVerified, h.verification.HandleNotice)
	group.Get(constants.RouteVerifyNotice+"/:id/:hash", middleware.RequireAuth, throttle, h.verification.HandleVerify)
	group.Post(constants.RouteResend, middleware.RequireAuth, throttle, h.verification.HandleResend)

	// Chirps
	chirps := group.Group(constants.RouteChirps, middleware.RequireAuth, middleware.RequireVerified)
	chirps.Post("/", h.chirps.HandleStore)
	chirps.Get("/:id/edit", h.chirps.HandleEdit)
	chirps.Put("/:id", h.chirps.HandleUpdate)
	chirps.Post("/:id/update", h.chirps.HandleUpdate)
	chirps.Delete("/:id", h.chirps.HandleDestroy)
	chirps.Post("/:id/delete", h.chirps.HandleDestroy)
}
