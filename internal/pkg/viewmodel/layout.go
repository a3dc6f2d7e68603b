package viewmodel

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/Chirper/internal/pkg/session"
	"github.com/ManuelReschke/Chirper/internal/pkg/usercontext"
)

// Layout carries what the main layout needs on every page.
type Layout struct {
	Page       string
	IsLoggedIn bool
	IsVerified bool
	UserID     uint
	Username   string
	CSRF       string
	Msg        fiber.Map
	MsgType    string
}

// NewLayout collects the user context, CSRF token and flash message of the request.
func NewLayout(c *fiber.Ctx, page string) Layout {
	uc := usercontext.GetUserContext(c)
	csrfToken, _ := c.Locals(session.CSRFContextKey).(string)
	msg := flash.Get(c)
	msgType, _ := msg["type"].(string)

	return Layout{
		Page:       page,
		IsLoggedIn: uc.IsLoggedIn,
		IsVerified: uc.IsVerified,
		UserID:     uc.UserID,
		Username:   uc.Username,
		CSRF:       csrfToken,
		Msg:        msg,
		MsgType:    msgType,
	}
}

// Old returns the input value flashed back after a failed form submission.
func (l Layout) Old(key string) string {
	v, ok := l.Msg["old_"+key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
