package errors

import (
	"errors"
	"fmt"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nfe *NotFoundError
	if errors.As(err, &nfe) {
		return nfe, true
	}
	return nil, false
}

// ConflictError reports a uniqueness violation. Field names the input that collided.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(field, message string) *ConflictError {
	return &ConflictError{Field: field, Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// PreconditionFailedError reports an operation that is not valid in the user's current cart state.
type PreconditionFailedError struct {
	Field   string
	Message string
}

func (e *PreconditionFailedError) Error() string {
	return e.Message
}

func NewPreconditionFailedError(field, message string) *PreconditionFailedError {
	return &PreconditionFailedError{Field: field, Message: message}
}

func IsPreconditionFailedError(err error) (*PreconditionFailedError, bool) {
	var pe *PreconditionFailedError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

type UnauthenticatedError struct {
	Message string
}

func (e *UnauthenticatedError) Error() string {
	return e.Message
}

func NewUnauthenticatedError(message string) *UnauthenticatedError {
	return &UnauthenticatedError{Message: message}
}

func IsUnauthenticatedError(err error) (*UnauthenticatedError, bool) {
	var ue *UnauthenticatedError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

type TimeoutError struct {
	Message string
	Cause   error
}

func (e *TimeoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

func NewTimeoutError(message string, cause error) *TimeoutError {
	return &TimeoutError{Message: message, Cause: cause}
}

func IsTimeoutError(err error) (*TimeoutError, bool) {
	var te *TimeoutError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// UnavailableError means the store could not serve the request. Callers may retry.
type UnavailableError struct {
	Message string
	Cause   error
}

func (e *UnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

func NewUnavailableError(message string, cause error) *UnavailableError {
	return &UnavailableError{Message: message, Cause: cause}
}

func IsUnavailableError(err error) (*UnavailableError, bool) {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}

func IsInternalError(err error) (*InternalError, bool) {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

const (
	KindValidation         = "validation_failed"
	KindNotFound           = "not_found"
	KindConflict           = "conflict"
	KindPreconditionFailed = "precondition_failed"
	KindUnauthenticated    = "unauthenticated"
	KindTimeout            = "timeout"
	KindUnavailable        = "unavailable"
	KindInternal           = "internal"
)

// Kind names the category of err, or "" when err is not one of the types above.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case isType[*ValidationError](err):
		return KindValidation
	case isType[*NotFoundError](err):
		return KindNotFound
	case isType[*ConflictError](err):
		return KindConflict
	case isType[*PreconditionFailedError](err):
		return KindPreconditionFailed
	case isType[*UnauthenticatedError](err):
		return KindUnauthenticated
	case isType[*TimeoutError](err):
		return KindTimeout
	case isType[*UnavailableError](err):
		return KindUnavailable
	case isType[*InternalError](err):
		return KindInternal
	}
	return ""
}

func isType[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

const genericMessage = "an unexpected error occurred"

// Details flattens err into the field/message list returned to clients.
// Internal, timeout and unclassified errors never expose their cause.
func Details(err error) []ValidationDetail {
	if err == nil {
		return nil
	}

	if ve, ok := IsValidationError(err); ok {
		if len(ve.Details) > 0 {
			return ve.Details
		}
		return []ValidationDetail{{Field: "", Message: ve.Message}}
	}
	if ce, ok := IsConflictError(err); ok {
		return []ValidationDetail{{Field: ce.Field, Message: ce.Message}}
	}
	if pe, ok := IsPreconditionFailedError(err); ok {
		return []ValidationDetail{{Field: pe.Field, Message: pe.Message}}
	}
	if nfe, ok := IsNotFoundError(err); ok {
		return []ValidationDetail{{Field: "", Message: nfe.Message}}
	}
	if ue, ok := IsUnauthenticatedError(err); ok {
		return []ValidationDetail{{Field: "user", Message: ue.Message}}
	}
	if _, ok := IsUnavailableError(err); ok {
		return []ValidationDetail{{Field: "", Message: "service temporarily unavailable"}}
	}
	if _, ok := IsTimeoutError(err); ok {
		return []ValidationDetail{{Field: "", Message: "request timed out"}}
	}

	return []ValidationDetail{{Field: "", Message: genericMessage}}
}
