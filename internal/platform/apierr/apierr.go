package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrUpstream   = errors.New("upstream failure")
	ErrConfig     = errors.New("not configured")
)

type Error struct {
	Status  int
	Code    string
	Err     error
	Details string
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

func BadRequest(code string, format string, args ...any) *Error {
	return New(http.StatusBadRequest, code, fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...)))
}

func NotFound(code string, format string, args ...any) *Error {
	return New(http.StatusNotFound, code, fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...)))
}

// Upstream is reported as 500 with the upstream error text kept in Details.
func Upstream(code string, err error) *Error {
	e := New(http.StatusInternalServerError, code, fmt.Errorf("%w: %v", ErrUpstream, err))
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

func NotConfigured(code string, format string, args ...any) *Error {
	return New(http.StatusInternalServerError, code, fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...)))
}

// StatusOf maps any error onto an HTTP status and code.
func StatusOf(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status, ae.Code
	}
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
