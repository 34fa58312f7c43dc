// Package apperror defines the error kinds services return to the HTTP layer.
// Each kind maps to exactly one status code; the mapping happens once, in
// the response package.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const MsgUnauthenticated = "Unauthenticated."

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindLinkInvalid
	KindNotFound
	KindUpstream
	KindConflict
	KindBadRequest
	KindForbidden
	KindTooManyRequests
)

var kindNames = map[Kind]string{
	KindInternal:        "internal",
	KindValidation:      "validation",
	KindAuthentication:  "authentication",
	KindLinkInvalid:     "link_invalid",
	KindNotFound:        "not_found",
	KindUpstream:        "upstream",
	KindConflict:        "conflict",
	KindBadRequest:      "bad_request",
	KindForbidden:       "forbidden",
	KindTooManyRequests: "too_many_requests",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindAuthentication, KindUpstream:
		return http.StatusUnauthorized
	case KindLinkInvalid, KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a client-safe message plus optional field errors. Err holds
// the underlying cause for logging and is never sent to the client.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

func Validation(message string, fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// FieldValidation is a shortcut for a single failing field.
func FieldValidation(field, message string) *Error {
	return Validation(message, map[string][]string{field: {message}})
}

func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

// Unauthenticated is the error for a missing, unknown, revoked or expired token.
func Unauthenticated() *Error {
	return Authentication(MsgUnauthenticated)
}

func LinkInvalid(message string) *Error {
	return &Error{Kind: KindLinkInvalid, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func BadRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func TooManyRequests(message string) *Error {
	return &Error{Kind: KindTooManyRequests, Message: message}
}

// Internal wraps an unexpected failure. The client only sees a generic message.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}
