// Package errors defines the structured error taxonomy the Core uses to
// decide whether to retry, fall back, or surface a failure (spec §7).
package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorType is one of the seven kinds of failure the engine distinguishes.
type ErrorType string

const (
	ErrorTypeInput         ErrorType = "input"
	ErrorTypeTransport     ErrorType = "transport"
	ErrorTypeRateLimited   ErrorType = "rate_limited"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeMatchRejected ErrorType = "match_rejected"
	ErrorTypeTimeout       ErrorType = "timeout"
	ErrorTypeInternal      ErrorType = "internal"
)

var statusCodes = map[ErrorType]int{
	ErrorTypeInput:         http.StatusBadRequest,
	ErrorTypeTransport:     http.StatusBadGateway,
	ErrorTypeRateLimited:   http.StatusTooManyRequests,
	ErrorTypeNotFound:      http.StatusNotFound,
	ErrorTypeMatchRejected: http.StatusUnprocessableEntity,
	ErrorTypeTimeout:       http.StatusRequestTimeout,
	ErrorTypeInternal:      http.StatusInternalServerError,
}

// AppError is a typed, wrappable error carrying an HTTP-equivalent status
// and optional free-form details, used across the pipeline and the
// internal admin surface.
type AppError struct {
	Type       ErrorType
	Message    string
	Details    string
	StatusCode int
	Cause      error
}

func New(t ErrorType, message string) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: statusCodes[t],
	}
}

func Newf(t ErrorType, format string, args ...interface{}) *AppError {
	return New(t, fmt.Sprintf(format, args...))
}

func Wrap(cause error, t ErrorType, message string) *AppError {
	err := New(t, message)
	err.Cause = cause
	return err
}

func Wrapf(cause error, t ErrorType, format string, args ...interface{}) *AppError {
	return Wrap(cause, t, fmt.Sprintf(format, args...))
}

func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Details != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Details)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithDetailsf(format string, args ...interface{}) *AppError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// Predefined constructors for the error kinds the router and verifier raise
// most often.

func NewInputError(reason string) *AppError {
	return New(ErrorTypeInput, reason)
}

func NewTransportError(op string, cause error) *AppError {
	return Wrapf(cause, ErrorTypeTransport, "transport operation failed: %s", op)
}

func NewTimeoutError(op string) *AppError {
	return Newf(ErrorTypeTimeout, "operation timed out: %s", op)
}

func NewRateLimitedError(retryAfter string) *AppError {
	return New(ErrorTypeRateLimited, "authority rate limit exceeded").WithDetails(retryAfter)
}

func NewMatchRejectedError(reason string) *AppError {
	return New(ErrorTypeMatchRejected, reason)
}

// IsType reports whether err is an *AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == t
}

// GetType returns err's ErrorType, or ErrorTypeInternal if err is not an
// *AppError.
func GetType(err error) ErrorType {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// GetStatusCode returns err's HTTP-equivalent status, or 500 if err is not
// an *AppError.
func GetStatusCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// ErrorMessages holds the client-safe text for error kinds whose internal
// Message may leak implementation detail.
var ErrorMessages = struct {
	ResourceNotFound  string
	OperationTimeout  string
	RateLimitExceeded string
	TransportFailure  string
}{
	ResourceNotFound:  "The requested citation could not be found in the authority database",
	OperationTimeout:  "The operation took too long to complete",
	RateLimitExceeded: "Too many requests to the authority service; please retry later",
	TransportFailure:  "An internal error occurred",
}

// SafeErrorMessage returns client-presentable text: the literal message for
// input/validation errors, a canned message for everything else, and a
// generic fallback for non-AppError values.
func SafeErrorMessage(err error) string {
	appErr, ok := err.(*AppError)
	if !ok {
		return "An unexpected error occurred"
	}
	switch appErr.Type {
	case ErrorTypeInput, ErrorTypeMatchRejected:
		return appErr.Message
	case ErrorTypeNotFound:
		return ErrorMessages.ResourceNotFound
	case ErrorTypeTimeout:
		return ErrorMessages.OperationTimeout
	case ErrorTypeRateLimited:
		return ErrorMessages.RateLimitExceeded
	default:
		return "An internal error occurred"
	}
}

// LogFields renders err as a structured field map suitable for
// internal/logging.Fields.
func LogFields(err error) map[string]interface{} {
	fields := map[string]interface{}{
		"error": err.Error(),
	}
	appErr, ok := err.(*AppError)
	if !ok {
		return fields
	}
	fields["error_type"] = string(appErr.Type)
	fields["status_code"] = appErr.StatusCode
	if appErr.Details != "" {
		fields["error_details"] = appErr.Details
	}
	if appErr.Cause != nil {
		fields["underlying_error"] = appErr.Cause.Error()
	}
	return fields
}

// Chain joins non-nil errors into a single error whose message concatenates
// each cause with " -> ". It returns nil if every argument is nil, and the
// sole error unwrapped if only one is non-nil.
func Chain(errs ...error) error {
	var msgs []string
	var kept []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		kept = append(kept, err)
		msgs = append(msgs, err.Error())
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return fmt.Errorf("%s", strings.Join(msgs, " -> "))
	}
}
