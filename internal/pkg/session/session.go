package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ManuelReschke/Chirper/internal/pkg/env"
)

const (
	CookieName = "session_id"

	KeyUserID   = "user_id"
	KeyUserName = "username"

	CSRFCookie     = "csrf_"
	CSRFFormField  = "_csrf"
	CSRFContextKey = "csrf"
	CSRFHandlerKey = "csrf_handler"
)

// NewSessionStore creates the cookie backed session store. A nil storage keeps
// sessions in process memory.
func NewSessionStore(storage fiber.Storage) *session.Store {
	cfg := session.Config{
		CookieHTTPOnly: true,
		CookieSecure:   env.GetEnv("SESSION_SECURE_COOKIE", "false") == "true",
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		Expiration:     time.Hour * 2,
		KeyLookup:      "cookie:" + CookieName,
	}
	if storage != nil {
		cfg.Storage = storage
	}
	return session.New(cfg)
}
