// Package errors defines the closed error taxonomy surfaced by the platform.
// Every caller-visible failure is one of the sentinel kinds below, wrapped in
// an AppError carrying a human-readable message. Kind maps an error to its
// stable machine-readable identifier and HTTPStatusCode to its HTTP status.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnavailable        = errors.New("upstream unavailable")
	ErrFailedPrecondition = errors.New("failed precondition")
	ErrInvalidSchema      = errors.New("invalid product schema")
	ErrProductNotFound    = errors.New("product not found")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrInternal           = errors.New("internal error")
)

// AppError pairs a sentinel kind with a request-specific message and the
// HTTP status to report.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// Kind returns the stable machine-readable identifier for an error. Unknown
// errors report as "internal".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid-argument"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrFailedPrecondition):
		return "failed-precondition"
	case errors.Is(err, ErrInvalidSchema):
		return "invalid-schema"
	case errors.Is(err, ErrProductNotFound):
		return "not-found"
	case errors.Is(err, ErrRateLimited):
		return "rate-limited"
	default:
		return "internal"
	}
}

// Message returns the human-readable message carried by an AppError, or the
// plain Error() string for anything else.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrFailedPrecondition), errors.Is(err, ErrInvalidSchema):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
