package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/foxauth/app/models"
	"github.com/ManuelReschke/foxauth/internal/pkg/apperror"
	"github.com/ManuelReschke/foxauth/internal/pkg/response"
	"github.com/ManuelReschke/foxauth/internal/pkg/usercontext"
)

// Authenticator resolves a bearer value. auth.Service satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, value string) (*models.User, *models.AccessToken, error)
}

// RequireBearer rejects requests without a valid bearer token and stores
// the token owner in the user context.
func RequireBearer(a Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		value := extractBearerToken(c)
		if value == "" {
			return response.Error(c, apperror.Unauthenticated())
		}

		user, tok, err := a.Authenticate(c.UserContext(), value)
		if err != nil {
			return response.Error(c, err)
		}

		usercontext.Set(c, user, tok)
		return c.Next()
	}
}

// RequireScopes must run after RequireBearer. It answers 403 when the
// token lacks any of the scopes.
func RequireScopes(scopes ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !usercontext.IsLoggedIn(c) {
			return response.Error(c, apperror.Unauthenticated())
		}
		if !usercontext.HasScopes(c, scopes...) {
			return response.Error(c, apperror.Forbidden("insufficient scope"))
		}
		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
