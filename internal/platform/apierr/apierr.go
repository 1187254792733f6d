package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Error carries the HTTP status and machine-readable code a handler should
// answer with when the wrapped error reaches the transport layer.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NotFound(code string, format string, args ...any) *Error {
	return New(http.StatusNotFound, code, fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...))
}

func Forbidden(code string, format string, args ...any) *Error {
	return New(http.StatusForbidden, code, fmt.Errorf("%w: "+format, append([]any{ErrForbidden}, args...)...))
}

func BadRequest(code string, format string, args ...any) *Error {
	return New(http.StatusBadRequest, code, fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...))
}

// Status resolves the HTTP status and code for err. Errors that carry no
// mapping are reported as 500 with fallbackCode.
func Status(err error, fallbackCode string) (int, string) {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		code := ae.Code
		if code == "" {
			code = fallbackCode
		}
		return ae.Status, code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, fallbackCode
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, fallbackCode
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, fallbackCode
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest, fallbackCode
	}
	return http.StatusInternalServerError, fallbackCode
}
