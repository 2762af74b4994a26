package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeIdempotency  Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"
)

// Metadata is the transport-facing description of a Code.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

func meta(status int, msg string, retryable, details bool) Metadata {
	return Metadata{HTTPStatus: status, Retryable: retryable, PublicMessage: msg, DetailsAllowed: details}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:   meta(http.StatusBadRequest, "validation failed", false, true),
	CodeUnauthorized: meta(http.StatusUnauthorized, "authentication required", false, false),
	CodeNotFound:     meta(http.StatusNotFound, "resource not found", false, false),
	CodeConflict:     meta(http.StatusConflict, "conflict detected", false, true),
	CodeIdempotency:  meta(http.StatusConflict, "idempotency key reused", false, true),
	CodeRateLimit:    meta(http.StatusTooManyRequests, "rate limit exceeded", false, false),
	CodeInternal:     meta(http.StatusInternalServerError, "internal server error", true, false),
	CodeDependency:   meta(http.StatusServiceUnavailable, "dependency unavailable", true, true),
}

// MetadataFor falls back to CodeInternal for codes it does not know.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

// Error is a coded error whose message is safe to show to API clients when
// the code allows it. The cause is kept for logs only.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Newf is New with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause != nil:
		return string(e.code) + ": " + e.message + ": " + e.cause.Error()
	default:
		return string(e.code) + ": " + e.message
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given typed code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
