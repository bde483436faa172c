package core

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the services, the storage gateway and the HTTP layer.
var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateInvitation = errors.New("a pending invitation to this email already exists")
	ErrAlreadyResolved     = errors.New("already resolved")
	ErrExpired             = errors.New("invitation expired")
	ErrAlreadyCoupled      = errors.New("profile already belongs to a couple")
	ErrForbidden           = errors.New("forbidden")
	ErrGatewayUnavailable  = errors.New("gateway unavailable")

	// ErrLimitExceeded is a Forbidden: errors.Is(ErrLimitExceeded, ErrForbidden) holds.
	ErrLimitExceeded = fmt.Errorf("monthly transaction limit reached: %w", ErrForbidden)

	// ErrEmailTaken is returned when a profile with the same email exists.
	ErrEmailTaken = NewValidationError("email", "already registered")
)

// ValidationError reports bad caller input (amount, date, frequency, email...).
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

// NewValidationError builds a *ValidationError for the given field.
func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
