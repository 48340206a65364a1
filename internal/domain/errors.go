package domain

import (
	"errors"
	"fmt"
)

// Error codes carried by DomainError
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// DomainError is a coded failure raised before or around a backend call.
// Message is safe to show to the user; Err holds the low-level cause.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// NewDomainError creates a DomainError without a cause
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WithCause returns a copy of e wrapping err.
func (e *DomainError) WithCause(err error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Err: err}
}

func (e *DomainError) Error() string {
	msg := "[" + e.Code + "] " + e.Message
	if e.Err == nil {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is compares code and message, so a copy made by WithCause still matches
// its sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Code == t.Code && e.Message == t.Message
}

// Form validation failures
var (
	ErrInvalidRestaurantID = NewDomainError(ErrCodeValidation, "restaurant id must be a positive integer")
	ErrInvalidCost         = NewDomainError(ErrCodeValidation, "cost must be a number")
	ErrMissingCoordinates  = NewDomainError(ErrCodeValidation, "latitude and longitude are required")
	ErrInvalidCoordinates  = NewDomainError(ErrCodeValidation, "latitude and longitude must be numbers")
	ErrInvalidRadius       = NewDomainError(ErrCodeValidation, "radius must be a positive number")
	ErrEmptyQuery          = NewDomainError(ErrCodeValidation, "search text is required")
	ErrMissingImage        = NewDomainError(ErrCodeValidation, "an image file is required")
	ErrInvalidPage         = NewDomainError(ErrCodeValidation, "page must be a positive integer")
	ErrInvalidPageSize     = NewDomainError(ErrCodeValidation, "page size must be a positive integer")
)

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == ErrCodeValidation
}
