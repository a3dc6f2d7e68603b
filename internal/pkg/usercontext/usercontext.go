package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Chirper/app/models"
)

// UserContext represents the complete user context for a request
type UserContext struct {
	UserID     uint   `json:"user_id"`
	Username   string `json:"username"`
	IsLoggedIn bool   `json:"is_logged_in"`
	IsVerified bool   `json:"is_verified"`
}

// Set stores the authenticated user and the derived context on the request.
func Set(c *fiber.Ctx, user *models.User) {
	if user == nil {
		c.Locals(KeyContext, UserContext{})
		return
	}
	c.Locals(KeyUser, user)
	c.Locals(KeyContext, UserContext{
		UserID:     user.ID,
		Username:   user.Name,
		IsLoggedIn: true,
		IsVerified: user.IsVerified(),
	})
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(KeyContext).(UserContext); ok {
		return ctx
	}
	return UserContext{}
}

// User returns the authenticated user, nil for guests.
func User(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(KeyUser).(*models.User)
	return u
}

// Token returns the access token the request authenticated with, if any.
func Token(c *fiber.Ctx) *models.Token {
	t, _ := c.Locals(KeyToken).(*models.Token)
	return t
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// GetUserID returns the current user's ID, or 0 if not logged in
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}
