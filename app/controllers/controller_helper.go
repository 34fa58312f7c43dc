package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/foxauth/app/models"
	"github.com/ManuelReschke/foxauth/internal/pkg/apperror"
	"github.com/ManuelReschke/foxauth/internal/pkg/auth"
	"github.com/ManuelReschke/foxauth/internal/pkg/token"
)

type userResource struct {
	ID              uint        `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	EmailVerifiedAt interface{} `json:"email_verified_at"`
	CreatedAt       string      `json:"created_at"`
	UpdatedAt       string      `json:"updated_at"`
}

type tokenResource struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt string       `json:"expires_at"`
	Scopes    []string     `json:"scopes"`
	User      userResource `json:"user"`
}

func newUserResource(u *models.User) userResource {
	return userResource{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		EmailVerifiedAt: formatTimePtr(u.EmailVerifiedAt),
		CreatedAt:       u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func newTokenResource(s *auth.Session) tokenResource {
	return tokenResource{
		Token:     s.Token.Value,
		TokenType: token.TokenType,
		ExpiresAt: s.Token.Token.ExpiresAt.UTC().Format(time.RFC3339),
		Scopes:    s.Token.Token.ScopeList(),
		User:      newUserResource(s.User),
	}
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// parseBody decodes the request body into out. An empty body leaves out
// untouched so that validation reports the missing fields. Undecodable
// bodies are validation errors, keyed by field when the decoder names one.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperror.FieldValidation(typeErr.Field, fmt.Sprintf("The %s field is invalid.", strings.ReplaceAll(typeErr.Field, "_", " ")))
		}
		return apperror.Validation(auth.MsgMalformedBody, nil)
	}
	return nil
}
