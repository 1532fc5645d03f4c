package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes surfaced to callers.
const (
	CodeIdentityUnresolved = "IDENTITY_UNRESOLVED"
	CodeAmbiguousIdentity  = "AMBIGUOUS_IDENTITY"
	CodeValidation         = "VALIDATION_FAILED"
	CodeIllegalTransition  = "ILLEGAL_TRANSITION"
	CodeVersionConflict    = "VERSION_CONFLICT"
	CodeNotFound           = "NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInternal           = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

// NewIdentityUnresolved reports an identity known to neither registry.
func NewIdentityUnresolved(message string) error {
	return NewDomainError(CodeIdentityUnresolved, message, http.StatusUnauthorized, nil)
}

// NewAmbiguousIdentity reports an identity present in both registries.
func NewAmbiguousIdentity(identity string) error {
	return NewDomainError(CodeAmbiguousIdentity,
		"identity is registered as both staff and guest",
		http.StatusConflict,
		map[string]any{"identity": identity})
}

// NewIllegalTransition names the current and requested states.
func NewIllegalTransition(current, requested string) error {
	return NewDomainError(CodeIllegalTransition,
		fmt.Sprintf("cannot %s a request in status %s", requested, current),
		http.StatusConflict,
		map[string]any{"current_status": current, "requested": requested})
}

// NewIllegalStatusTransition is NewIllegalTransition for an operation that
// targets a status, which is reported as requested_status.
func NewIllegalStatusTransition(current, requested, requestedStatus string) error {
	return NewDomainError(CodeIllegalTransition,
		fmt.Sprintf("cannot %s a request in status %s", requested, current),
		http.StatusConflict,
		map[string]any{"current_status": current, "requested": requested, "requested_status": requestedStatus})
}

// NewVersionConflict reports that the request changed since the caller read it.
func NewVersionConflict(message string, details map[string]any) error {
	if message == "" {
		message = "request state changed; refetch and retry"
	}
	return NewDomainError(CodeVersionConflict, message, http.StatusConflict, details)
}

// NewStoreUnavailable wraps a transient infrastructure failure.
func NewStoreUnavailable(err error) error {
	return &DomainError{
		Code:       CodeStoreUnavailable,
		Message:    "record store unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewStoreUnavailable(err).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// HasCode reports whether err carries the given domain code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// IsRetryable reports whether the caller may retry after refetching state.
func IsRetryable(err error) bool {
	return HasCode(err, CodeVersionConflict) || HasCode(err, CodeStoreUnavailable)
}
