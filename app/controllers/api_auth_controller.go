package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Chirper/app/models"
	"github.com/ManuelReschke/Chirper/internal/pkg/apperror"
	"github.com/ManuelReschke/Chirper/internal/pkg/credentials"
	"github.com/ManuelReschke/Chirper/internal/pkg/respond"
	"github.com/ManuelReschke/Chirper/internal/pkg/tokens"
	"github.com/ManuelReschke/Chirper/internal/pkg/usercontext"
	"github.com/ManuelReschke/Chirper/internal/pkg/verification"
)

// ExpiresAtLayout renders expires_at as an ISO-8601 timestamp with offset.
const ExpiresAtLayout = "2006-01-02T15:04:05-07:00"

// APIAuthController issues and revokes bearer tokens.
type APIAuthController struct {
	creds        *credentials.Store
	tokens       *tokens.Service
	verification *verification.Service
}

func NewAPIAuthController(creds *credentials.Store, tokens *tokens.Service, verification *verification.Service) *APIAuthController {
	return &APIAuthController{creds: creds, tokens: tokens, verification: verification}
}

func tokenEnvelope(message string, user *models.User, issued *tokens.Issued) fiber.Map {
	body := fiber.Map{
		"message":      message,
		"access_token": issued.PlainText,
		"token_type":   tokens.TokenType,
		"expires_in":   tokens.ExpiresIn,
		"expires_at":   issued.ExpiresAt.Format(ExpiresAtLayout),
	}
	if user != nil {
		body["user"] = user
	}
	return body
}

// HandleRegister creates an account and returns its first token
func (ac *APIAuthController) HandleRegister(c *fiber.Ctx) error {
	var in credentials.RegisterInput
	if err := parseBody(c, &in); err != nil {
		return respond.JSONError(c, apperror.As(err))
	}

	user, err := ac.creds.Create(in)
	if err != nil {
		return respond.Error(c, err, "", nil)
	}

	if err := ac.verification.SendVerification(c.UserContext(), user); err != nil {
		log.Errorw("failed to send verification email", "user_id", user.ID, "error", err)
	}

	issued, err := ac.tokens.Issue(user)
	if err != nil {
		return respond.Error(c, err, "", nil)
	}

	return c.Status(fiber.StatusCreated).JSON(tokenEnvelope("User registered successfully. Please verify your email.", user, issued))
}

// HandleLogin exchanges credentials for a token
func (ac *APIAuthController) HandleLogin(c *fiber.Ctx) error {
	var in credentials.LoginInput
	if err := parseBody(c, &in); err != nil {
		return respond.JSONError(c, apperror.As(err))
	}
	if err := ac.creds.Validate(in); err != nil {
		return respond.Error(c, err, "", nil)
	}

	user, err := ac.creds.CheckCredentials(in.Email, in.Password)
	if err != nil {
		return respond.Error(c, err, "", nil)
	}

	issued, err := ac.tokens.Issue(user)
	if err != nil {
		return respond.Error(c, err, "", nil)
	}

	return c.JSON(tokenEnvelope("Login successful", user, issued))
}

// HandleLogout revokes every token of the current user
func (ac *APIAuthController) HandleLogout(c *fiber.Ctx) error {
	if err := ac.tokens.RevokeAll(usercontext.User(c)); err != nil {
		return respond.Error(c, err, "", nil)
	}
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// HandleMe returns the current user
func (ac *APIAuthController) HandleMe(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"user": usercontext.User(c)})
}

// HandleRefresh replaces all tokens of the current user with a new one
func (ac *APIAuthController) HandleRefresh(c *fiber.Ctx) error {
	issued, err := ac.tokens.Refresh(usercontext.User(c))
	if err != nil {
		return respond.Error(c, err, "", nil)
	}
	return c.JSON(tokenEnvelope("Token refreshed successfully", nil, issued))
}
