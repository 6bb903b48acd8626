package domain

import (
	"errors"
	"fmt"
)

// DomainError is a business error with a stable, machine readable code.
// Codes follow the pattern TR-<AREA>-<NNNN>; the last three digits mirror
// the HTTP status the error maps to where one applies.
type DomainError struct {
	Code    string // e.g. "TR-TOKN-4040"
	Message string
	Details string
	Cause   error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches another DomainError by code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a DomainError.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WithDetails returns a copy carrying details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Details: details, Cause: e.Cause}
}

// WithCause returns a copy wrapping cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Details: e.Details, Cause: cause}
}

// Wrap is an alias of WithCause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError reports whether err is a DomainError with the given code.
// An empty code matches any DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	return code == "" || de.Code == code
}

// GetErrorCode returns the code of a DomainError, or "".
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Token errors (TOKN).
var (
	// ErrTokenInvalid is returned when a collection token is unknown or inactive.
	ErrTokenInvalid = NewDomainError("TR-TOKN-4040", "invalid token")

	// ErrTokenNotFound is returned by admin lookups for unknown ids.
	ErrTokenNotFound = NewDomainError("TR-TOKN-4041", "token not found")

	// ErrTokenConflict is returned when id generation keeps colliding.
	ErrTokenConflict = NewDomainError("TR-TOKN-4090", "token id conflict")

	// ErrTokenMalformed is returned for ids that cannot be tokens.
	ErrTokenMalformed = NewDomainError("TR-TOKN-4000", "malformed token")
)

// Report errors (RPT).
var (
	// ErrMalformedPayload is returned when a report body cannot be parsed.
	ErrMalformedPayload = NewDomainError("TR-RPT-4000", "malformed payload")

	// ErrPayloadTooLarge is returned when a body or attachment exceeds the limit.
	ErrPayloadTooLarge = NewDomainError("TR-RPT-4130", "payload too large")

	// ErrReportNotFound is returned by report stores for unknown ids.
	ErrReportNotFound = NewDomainError("TR-RPT-4040", "report not found")
)

// Delivery errors (DLV). These never reach HTTP clients.
var (
	// ErrTransientDelivery marks a failed attempt that may succeed on retry.
	ErrTransientDelivery = NewDomainError("TR-DLV-5020", "transient delivery failure")

	// ErrPermanentDelivery marks a delivery that will not be retried
	// (rejected by the endpoint or retries exhausted).
	ErrPermanentDelivery = NewDomainError("TR-DLV-5021", "permanent delivery failure")
)

// Authentication errors (AUTH).
var (
	// ErrAPIKeyMissing is returned when no admin key was presented.
	ErrAPIKeyMissing = NewDomainError("TR-AUTH-4010", "api key not provided")

	// ErrAPIKeyInvalid is returned when the admin key does not match.
	ErrAPIKeyInvalid = NewDomainError("TR-AUTH-4011", "invalid api key")
)

// System errors (SYS).
var (
	ErrInternalServer = NewDomainError("TR-SYS-5000", "internal server error")
	ErrStorageError   = NewDomainError("TR-SYS-5001", "storage error")

	// ErrQueueFull is returned when the delivery queue cannot take more work.
	ErrQueueFull = NewDomainError("TR-SYS-5030", "delivery queue full")

	ErrBadRequest = NewDomainError("TR-SYS-4000", "bad request")

	// ErrCooldown is returned when a caller repeats a call inside its cooldown.
	ErrCooldown = NewDomainError("TR-SYS-4290", "too many requests")
)

// Argument errors (ARG).
var (
	ErrInvalidArgument = NewDomainError("TR-ARG-1001", "invalid argument")
	ErrMissingArgument = NewDomainError("TR-ARG-1002", "missing required argument")
)
