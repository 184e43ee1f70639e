package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries the HTTP status a failure should surface as
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
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(msg string) *Error {
	return New(http.StatusBadRequest, "validation_error", errors.New(msg))
}

func NotFound(err error) *Error {
	return New(http.StatusNotFound, "not_found", err)
}

func Provider(err error) *Error {
	return New(http.StatusInternalServerError, "provider_error", err)
}

func Auth(msg string) *Error {
	return New(http.StatusUnauthorized, "auth_error", errors.New(msg))
}

func Forbidden(msg string) *Error {
	return New(http.StatusForbidden, "forbidden", errors.New(msg))
}

// StatusOf returns the status attached to err, or 500.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}
