// Package auth implements the session login state machine for web requests.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Chirper/app/models"
	"github.com/ManuelReschke/Chirper/app/repository"
	"github.com/ManuelReschke/Chirper/internal/pkg/apperror"
	"github.com/ManuelReschke/Chirper/internal/pkg/credentials"
	"github.com/ManuelReschke/Chirper/internal/pkg/security"
	"github.com/ManuelReschke/Chirper/internal/pkg/session"
)

const (
	RememberCookie   = "remember_web"
	RememberLifetime = 400 * 24 * time.Hour
)

// Guard logs users in and out of the cookie session.
type Guard struct {
	sessions     *fibersession.Store
	users        repository.UserRepository
	creds        *credentials.Store
	signer       *security.Signer
	secureCookie bool
}

func NewGuard(sessions *fibersession.Store, users repository.UserRepository, creds *credentials.Store, signer *security.Signer, secureCookie bool) *Guard {
	return &Guard{
		sessions:     sessions,
		users:        users,
		creds:        creds,
		signer:       signer,
		secureCookie: secureCookie,
	}
}

// Attempt checks the credentials and logs the user in on success.
func (g *Guard) Attempt(c *fiber.Ctx, in credentials.LoginInput) (*models.User, error) {
	if err := g.creds.Validate(in); err != nil {
		return nil, err
	}
	user, err := g.creds.CheckCredentials(in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	if err := g.Login(c, user, in.Remember); err != nil {
		return nil, err
	}
	return user, nil
}

// Login binds the user to a fresh session id. With remember set a long lived
// cookie is issued that restores the login once the session is gone.
func (g *Guard) Login(c *fiber.Ctx, user *models.User, remember bool) error {
	sess, err := g.sessions.Get(c)
	if err != nil {
		return apperror.Internal("failed to load session", err)
	}
	if err := sess.Regenerate(); err != nil {
		return apperror.Internal("failed to regenerate session", err)
	}
	sess.Set(session.KeyUserID, user.ID)
	sess.Set(session.KeyUserName, user.Name)
	if err := sess.Save(); err != nil {
		return apperror.Internal("failed to save session", err)
	}

	if remember {
		if err := g.issueRememberCookie(c, user); err != nil {
			return err
		}
	}
	log.Infow("user logged in", "user_id", user.ID, "remember", remember)
	return nil
}

// Logout clears the identity, destroys the session, rotates the CSRF token and
// removes the remember cookie.
func (g *Guard) Logout(c *fiber.Ctx) error {
	sess, err := g.sessions.Get(c)
	if err != nil {
		return apperror.Internal("failed to load session", err)
	}

	userID, _ := sess.Get(session.KeyUserID).(uint)
	sess.Delete(session.KeyUserID)
	sess.Delete(session.KeyUserName)

	if err := sess.Destroy(); err != nil {
		return apperror.Internal("failed to destroy session", err)
	}

	if h, ok := c.Locals(session.CSRFHandlerKey).(*csrf.CSRFHandler); ok && c.Cookies(session.CSRFCookie) != "" {
		if err := h.DeleteToken(c); err != nil {
			return apperror.Internal("failed to rotate csrf token", err)
		}
	}

	g.clearRememberCookie(c)
	if userID != 0 {
		// cycling the stored token kills remember cookies on other devices too
		if err := g.users.UpdateRememberToken(userID, ""); err != nil {
			log.Errorw("failed to cycle remember token", "user_id", userID, "error", err)
		}
	}
	return nil
}

// User resolves the authenticated user of the request, nil for guests. A
// request without a session but with a valid remember cookie is logged back in.
func (g *Guard) User(c *fiber.Ctx) (*models.User, error) {
	sess, err := g.sessions.Get(c)
	if err != nil {
		return nil, apperror.Internal("failed to load session", err)
	}

	if id, ok := sess.Get(session.KeyUserID).(uint); ok && id != 0 {
		user, err := g.users.GetByID(id)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Internal("failed to load user", err)
		}
		// the user behind the session is gone
		sess.Delete(session.KeyUserID)
		sess.Delete(session.KeyUserName)
		if err := sess.Save(); err != nil {
			return nil, apperror.Internal("failed to save session", err)
		}
		return nil, nil
	}

	user := g.userFromRememberCookie(c)
	if user == nil {
		return nil, nil
	}
	if err := g.Login(c, user, false); err != nil {
		return nil, err
	}
	return user, nil
}

func (g *Guard) issueRememberCookie(c *fiber.Ctx, user *models.User) error {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return apperror.Internal("failed to generate remember token", err)
	}
	token := hex.EncodeToString(raw)
	if err := g.users.UpdateRememberToken(user.ID, models.HashToken(token)); err != nil {
		return apperror.Internal("failed to store remember token", err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     RememberCookie,
		Value:    g.signer.Sign(fmt.Sprintf("%d|%s", user.ID, token)),
		Expires:  time.Now().Add(RememberLifetime),
		HTTPOnly: true,
		Secure:   g.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

func (g *Guard) clearRememberCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     RememberCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   g.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (g *Guard) userFromRememberCookie(c *fiber.Ctx) *models.User {
	value := c.Cookies(RememberCookie)
	if value == "" {
		return nil
	}
	payload, err := g.signer.Unsign(value)
	if err != nil {
		return nil
	}
	idPart, token, ok := strings.Cut(payload, "|")
	if !ok || token == "" {
		return nil
	}
	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil {
		return nil
	}
	user, err := g.users.GetByID(uint(id))
	if err != nil {
		return nil
	}
	if user.RememberToken == "" || subtle.ConstantTimeCompare([]byte(user.RememberToken), []byte(models.HashToken(token))) != 1 {
		return nil
	}
	return user
}
