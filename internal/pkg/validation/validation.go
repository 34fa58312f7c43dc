// Package validation wraps go-playground/validator and turns its errors
// into field-keyed messages keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ManuelReschke/foxauth/internal/pkg/apperror"
)

const defaultMessage = "The given data was invalid."

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// max counts runes; maxbytes bounds the encoded length, e.g. for bcrypt input
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	return v
}

// Struct validates s and returns an *apperror.Error of kind validation, or nil.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Internal(fmt.Errorf("validate: %w", err))
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], message(fe))
	}

	return apperror.Validation(firstMessage(verrs, fields), fields)
}

func firstMessage(verrs validator.ValidationErrors, fields map[string][]string) string {
	if len(verrs) == 0 {
		return defaultMessage
	}
	msgs := fields[verrs[0].Field()]
	if len(msgs) == 0 {
		return defaultMessage
	}
	return msgs[0]
}

func message(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	case "min":
		return fmt.Sprintf("The %s field must be at least %s characters.", field, fe.Param())
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", field, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("The %s field must not be greater than %s bytes.", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("The %s does not match.", field)
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}
