package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Chirper/internal/pkg/apperror"
	"github.com/ManuelReschke/Chirper/internal/pkg/auth"
	"github.com/ManuelReschke/Chirper/internal/pkg/constants"
	"github.com/ManuelReschke/Chirper/internal/pkg/credentials"
	"github.com/ManuelReschke/Chirper/internal/pkg/oauth"
	"github.com/ManuelReschke/Chirper/internal/pkg/respond"
	"github.com/ManuelReschke/Chirper/internal/pkg/verification"
	"github.com/ManuelReschke/Chirper/internal/pkg/viewmodel"
)

const msgLoginFailed = "The provided credentials do not match our records."

// AuthController serves the session based login, registration and logout pages.
type AuthController struct {
	guard        *auth.Guard
	creds        *credentials.Store
	verification *verification.Service
}

func NewAuthController(guard *auth.Guard, creds *credentials.Store, verification *verification.Service) *AuthController {
	return &AuthController{guard: guard, creds: creds, verification: verification}
}

// HandleLoginPage renders the login form
func (ac *AuthController) HandleLoginPage(c *fiber.Ctx) error {
	return c.Render("auth/login", fiber.Map{
		"Layout":    viewmodel.NewLayout(c, "Login"),
		"Providers": oauth.Providers,
	}, layoutMain)
}

// HandleLogin checks the credentials and starts a fresh session
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var in credentials.LoginInput
	if err := parseBody(c, &in); err != nil {
		return respond.Error(c, err, constants.RouteLogin, nil)
	}
	old := fiber.Map{"email": in.Email}

	if _, err := ac.guard.Attempt(c, in); err != nil {
		if apperror.Is(err, apperror.KindInvalidCredentials) {
			err = apperror.Validation("email", msgLoginFailed)
		}
		return respond.Error(c, err, constants.RouteLogin, old)
	}

	return respond.Send(c, respond.Result{Message: "Logged in successfully!", Redirect: constants.RouteHome})
}

// HandleRegisterPage renders the registration form
func (ac *AuthController) HandleRegisterPage(c *fiber.Ctx) error {
	return c.Render("auth/register", fiber.Map{
		"Layout": viewmodel.NewLayout(c, "Register"),
	}, layoutMain)
}

// HandleRegister creates the account, mails the verification link and logs the user in
func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	var in credentials.RegisterInput
	if err := parseBody(c, &in); err != nil {
		return respond.Error(c, err, constants.RouteRegister, nil)
	}
	old := fiber.Map{"name": in.Name, "email": in.Email}

	user, err := ac.creds.Create(in)
	if err != nil {
		return respond.Error(c, err, constants.RouteRegister, old)
	}

	if err := ac.verification.SendVerification(c.UserContext(), user); err != nil {
		log.Errorw("failed to send verification email", "user_id", user.ID, "error", err)
	}

	if err := ac.guard.Login(c, user, false); err != nil {
		return respond.Error(c, err, constants.RouteLogin, nil)
	}

	return respond.Send(c, respond.Result{
		Message:  "Registration successful! Please check your email to verify your account.",
		Redirect: constants.RouteVerifyNotice,
	})
}

// HandleLogout ends the session and forgets the remember cookie
func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	if err := ac.guard.Logout(c); err != nil {
		return respond.Error(c, err, constants.RouteHome, nil)
	}
	return respond.Send(c, respond.Result{Message: "Logged out successfully!", Redirect: constants.RouteHome})
}
