package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/Chirper/internal/pkg/apperror"
	"github.com/ManuelReschke/Chirper/internal/pkg/constants"
	"github.com/ManuelReschke/Chirper/internal/pkg/respond"
	"github.com/ManuelReschke/Chirper/internal/pkg/usercontext"
	"github.com/ManuelReschke/Chirper/internal/pkg/verification"
	"github.com/ManuelReschke/Chirper/internal/pkg/viewmodel"
)

type VerificationController struct {
	verification *verification.Service
}

func NewVerificationController(verification *verification.Service) *VerificationController {
	return &VerificationController{verification: verification}
}

// HandleNotice renders the "please verify your email" page
func (vc *VerificationController) HandleNotice(c *fiber.Ctx) error {
	return c.Render("auth/verify_email", fiber.Map{
		"Layout": viewmodel.NewLayout(c, "Verify Email"),
	}, layoutMain)
}

// HandleVerify consumes a signed verification link
func (vc *VerificationController) HandleVerify(c *fiber.Ctx) error {
	user := usercontext.User(c)
	id, ok := paramUint(c, "id")
	if !ok || user == nil || user.ID != id {
		return respond.Error(c, apperror.Forbidden(""), constants.RouteHome, nil)
	}

	signatureValid, notExpired := vc.verification.CheckSignature(c.Path(), c.Query("expires"), c.Query("signature"))
	already, err := vc.verification.Verify(c.UserContext(), id, c.Params("hash"), signatureValid, notExpired)
	if err != nil {
		if apperror.Is(err, apperror.KindInvalidVerificationLink) {
			return flash.WithError(c, fiber.Map{"type": "error", "message": apperror.As(err).Message}).Redirect(constants.RouteVerifyNotice)
		}
		return respond.Error(c, err, constants.RouteHome, nil)
	}

	msg := "Email verified successfully!"
	if already {
		msg = "Email already verified!"
	}
	return respond.Send(c, respond.Result{Message: msg, Redirect: constants.RouteHome})
}

// HandleResend mails a new verification link
func (vc *VerificationController) HandleResend(c *fiber.Ctx) error {
	user := usercontext.User(c)
	if user.IsVerified() {
		return c.Redirect(constants.RouteHome, fiber.StatusSeeOther)
	}
	if err := vc.verification.SendVerification(c.UserContext(), user); err != nil {
		return respond.Error(c, err, constants.RouteVerifyNotice, nil)
	}
	return respond.Send(c, respond.Result{Message: "Verification link sent!", Redirect: constants.RouteVerifyNotice})
}
