package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Kind classifies an error into the platform's closed taxonomy. Handlers
// map kinds to HTTP statuses; services never reference HTTP.
type Kind string

const (
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindForbidden       Kind = "FORBIDDEN"
	KindValidation      Kind = "VALIDATION_ERROR"
	KindConflict        Kind = "CONFLICT"
	KindLimitExceeded   Kind = "LIMIT_EXCEEDED"
	KindNotFound        Kind = "NOT_FOUND"
	KindChannelFailure  Kind = "CHANNEL_FAILURE"
	KindUpstreamFailure Kind = "UPSTREAM_FAILURE"
	KindInternal        Kind = "INTERNAL"
)

// Error carries a kind plus a human-readable message. The wrapped cause,
// if any, is for logs only and never serialized to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so callers can compare against bare-kind sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Unauthenticated(format string, args ...interface{}) *Error {
	return newError(KindUnauthenticated, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newError(KindForbidden, format, args...)
}

func Validation(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newError(KindConflict, format, args...)
}

func LimitExceeded(format string, args ...interface{}) *Error {
	return newError(KindLimitExceeded, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

func ChannelFailure(err error, format string, args ...interface{}) *Error {
	e := newError(KindChannelFailure, format, args...)
	e.Err = err
	return e
}

func Upstream(err error, format string, args ...interface{}) *Error {
	e := newError(KindUpstreamFailure, format, args...)
	e.Err = err
	return e
}

// KindOf extracts the kind from err, defaulting to KindInternal for
// errors outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

var kindStatus = map[Kind]int{
	KindUnauthenticated: http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindValidation:      http.StatusBadRequest,
	KindConflict:        http.StatusConflict,
	KindLimitExceeded:   http.StatusPaymentRequired,
	KindNotFound:        http.StatusNotFound,
	KindChannelFailure:  http.StatusBadGateway,
	KindUpstreamFailure: http.StatusBadGateway,
}

// ErrorResponse is the standardized error body returned by every handler.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SendError writes err as a JSON error response using the kind mapping.
// Internal errors are masked to avoid leaking details.
func SendError(c echo.Context, err error) error {
	kind := KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	var resp ErrorResponse
	resp.Error.Code = string(kind)
	var e *Error
	if errors.As(err, &e) {
		resp.Error.Message = e.Message
	} else {
		resp.Error.Message = "operation could not be completed"
	}
	return c.JSON(status, resp)
}
