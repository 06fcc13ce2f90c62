package accounts

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned for an unknown email and for a wrong
	// password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound means the id or lookup key does not resolve to an
	// active account.
	ErrUserNotFound = errors.New("user not found")
)

// ValidationError reports missing or malformed input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: err.Error()}
}

// ConflictError reports that a new account's email or username is taken.
type ConflictError struct {
	Field string // "email" or "username"
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("an account with this %s already exists", e.Field)
}
