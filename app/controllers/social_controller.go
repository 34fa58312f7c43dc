package controllers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/foxauth/internal/pkg/auth"
	"github.com/ManuelReschke/foxauth/internal/pkg/response"
)

// SocialController drives the stateless OAuth round trip
type SocialController struct {
	svc *auth.Service
}

func NewSocialController(svc *auth.Service) *SocialController {
	return &SocialController{svc: svc}
}

// HandleRedirect GET /api/v1/auth/socialite/:provider
func (sc *SocialController) HandleRedirect(c *fiber.Ctx) error {
	target, err := sc.svc.SocialRedirect(c.Params("provider"))
	if err != nil {
		return response.Error(c, err)
	}
	return c.Redirect(target, fiber.StatusFound)
}

// HandleCallback GET /api/v1/auth/socialite/:provider/callback
func (sc *SocialController) HandleCallback(c *fiber.Ctx) error {
	params, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		params = url.Values{}
	}

	session, err := sc.svc.SocialCallback(c.UserContext(), c.Params("provider"), params)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, auth.MsgLoggedIn, newTokenResource(session))
}
