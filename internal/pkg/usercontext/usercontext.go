package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/foxauth/app/models"
)

// UserContext is the authenticated principal of a request.
type UserContext struct {
	User  *models.User
	Token *models.AccessToken
}

// Set stores the authenticated user and token on the request.
func Set(c *fiber.Ctx, user *models.User, tok *models.AccessToken) {
	c.Locals(KeyUser, user)
	c.Locals(KeyToken, tok)
}

// GetUserContext retrieves the user context from fiber context.
// User and Token are nil on unauthenticated requests.
func GetUserContext(c *fiber.Ctx) UserContext {
	user, _ := c.Locals(KeyUser).(*models.User)
	tok, _ := c.Locals(KeyToken).(*models.AccessToken)
	return UserContext{User: user, Token: tok}
}

// IsLoggedIn checks if the request carried a valid token
func IsLoggedIn(c *fiber.Ctx) bool {
	uc := GetUserContext(c)
	return uc.User != nil && uc.Token != nil
}

// GetUserID returns the current user's ID, or 0 if not logged in
func GetUserID(c *fiber.Ctx) uint {
	if u := GetUserContext(c).User; u != nil {
		return u.ID
	}
	return 0
}

// HasScopes reports whether the presented token carries every scope.
func HasScopes(c *fiber.Ctx, scopes ...string) bool {
	tok := GetUserContext(c).Token
	if tok == nil {
		return false
	}
	for _, s := range scopes {
		if !tok.HasScope(s) {
			return false
		}
	}
	return true
}
