package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/foxauth/internal/pkg/auth"
	"github.com/ManuelReschke/foxauth/internal/pkg/response"
	"github.com/ManuelReschke/foxauth/internal/pkg/usercontext"
)

type VerificationController struct {
	svc       *auth.Service
	onSuccess string
}

// NewVerificationController redirects to onSuccess after a first
// successful verification.
func NewVerificationController(svc *auth.Service, onSuccess string) *VerificationController {
	return &VerificationController{svc: svc, onSuccess: onSuccess}
}

// HandleVerify GET /api/v1/auth/email/verify/:id/:hash
func (vc *VerificationController) HandleVerify(c *fiber.Ctx) error {
	outcome, err := vc.svc.VerifyEmail(c.UserContext(), auth.VerifyRequest{
		Path:      c.Path(),
		ID:        c.Params("id"),
		Hash:      c.Params("hash"),
		Expires:   c.Query("expires"),
		Signature: c.Query("signature"),
	})
	if err != nil {
		return response.Error(c, err)
	}

	if outcome == auth.AlreadyVerified {
		return response.OK(c, auth.MsgAlreadyVerified, nil)
	}
	return c.Redirect(vc.onSuccess, fiber.StatusFound)
}

// HandleResend POST /api/v1/auth/email/verification-notification
func (vc *VerificationController) HandleResend(c *fiber.Ctx) error {
	if err := vc.svc.ResendVerification(c.UserContext(), usercontext.GetUserContext(c).User); err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, auth.MsgVerificationSent, nil)
}
