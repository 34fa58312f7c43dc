// Package response writes the JSON envelope shared by every API endpoint.
package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/foxauth/internal/pkg/apperror"
)

// Envelope is the stable response shape. All five keys are always present.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Errors  interface{} `json:"errors"`
	Meta    interface{} `json:"meta"`
}

// Success writes a success envelope with the given status.
func Success(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// OK is Success with 200.
func OK(c *fiber.Ctx, message string, data interface{}) error {
	return Success(c, fiber.StatusOK, message, data)
}

// Error maps err to its status and writes an error envelope. Errors that are
// not *apperror.Error are treated as internal; their details are logged and
// never sent to the client.
func Error(c *fiber.Ctx, err error) error {
	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.Internal(err)
	}
	if appErr.Kind == apperror.KindInternal {
		log.Errorf("[API] %s %s failed: %v", c.Method(), c.Path(), appErr)
	}

	var fields interface{}
	if len(appErr.Fields) > 0 {
		fields = appErr.Fields
	}

	return c.Status(appErr.Kind.Status()).JSON(Envelope{
		Success: false,
		Message: appErr.Message,
		Errors:  fields,
	})
}

// ErrorHandler is installed as fiber.Config.ErrorHandler so that routing
// errors (404, 405) and panics recovered by the recover middleware share
// the envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(Envelope{
			Success: false,
			Message: fe.Message,
		})
	}
	return Error(c, err)
}
