package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/foxauth/internal/pkg/auth"
	"github.com/ManuelReschke/foxauth/internal/pkg/response"
	"github.com/ManuelReschke/foxauth/internal/pkg/usercontext"
)

// AuthController handles registration, login and the token lifecycle
type AuthController struct {
	svc *auth.Service
}

func NewAuthController(svc *auth.Service) *AuthController {
	return &AuthController{svc: svc}
}

// HandleRegister POST /api/v1/auth/register
func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	var in auth.RegisterInput
	if err := parseBody(c, &in); err != nil {
		return response.Error(c, err)
	}

	session, err := ac.svc.Register(c.UserContext(), in)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, fiber.StatusCreated, auth.MsgRegistered, newTokenResource(session))
}

// HandleLogin POST /api/v1/auth/login
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var in auth.LoginInput
	if err := parseBody(c, &in); err != nil {
		return response.Error(c, err)
	}

	session, err := ac.svc.Login(c.UserContext(), in)
	if err != nil {
		return response.Error(c, err)
	}

	msg := auth.MsgLoggedIn
	if !session.User.HasVerifiedEmail() {
		msg = auth.MsgLoggedInUnverified
	}
	return response.OK(c, msg, newTokenResource(session))
}

// HandleUser GET /api/v1/auth/user
func (ac *AuthController) HandleUser(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c).User
	return response.OK(c, auth.MsgAuthenticatedUser, newUserResource(user))
}

// HandleLogout POST /api/v1/auth/logout
func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	if err := ac.svc.Logout(c.UserContext(), usercontext.GetUserContext(c).Token); err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, auth.MsgLoggedOut, nil)
}

// HandleRefresh POST /api/v1/auth/refresh
func (ac *AuthController) HandleRefresh(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	session, err := ac.svc.Refresh(c.UserContext(), uc.User, uc.Token)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, auth.MsgRefreshed, newTokenResource(session))
}
