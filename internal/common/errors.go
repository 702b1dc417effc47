// Package common defines shared constants and sentinel errors used across
// the bookkeeper server layers. Callers should use errors.Is to match these
// values.
package common

import (
	"errors"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Validation errors. *ValidationError matches ErrValidation.
	ErrValidation = errors.New("validation error")

	// Uniqueness conflicts.
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrDuplicatePersonalID = errors.New("personal id code already registered")

	// Authentication rejections.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnverifiedAccount  = errors.New("account email is not verified")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrMissingToken = errors.New("missing token")

	// Account errors.
	ErrUserNotFound    = errors.New("user not found")
	ErrAlreadyVerified = errors.New("account already verified")

	// Configuration fault: a signing secret is absent.
	ErrSigning = errors.New("token signing is not configured")

	// Delivery of a required notification failed.
	ErrNotificationFailed = errors.New("notification delivery failed")

	// Company errors.
	ErrCompanyNotFound = errors.New("company not found")
)

// FieldError describes one violated rule of one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries one FieldError per violated rule.
type ValidationError struct {
	Fields []FieldError
}

// Add appends a violation.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any violation was recorded.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// OrNil returns e when it holds violations and nil otherwise.
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) true for any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
