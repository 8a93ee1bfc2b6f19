// Package common defines sentinel errors and shared constants used across
// the server layers of Decision Keeper. Callers should use errors.Is and
// errors.As to match these values.
package common

import (
	"errors"
	"strings"
)

var (
	// Repository-level errors.
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("user with this email already exists")

	// Service-level errors.
	ErrInternal           = errors.New("internal error")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Request gate errors.
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrInvalidToken           = errors.New("invalid token")
	ErrTokenExpired           = errors.New("token expired")

	// Throttling.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// FieldIssue describes a single rejected input field.
type FieldIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError carries every field-level problem found in one input.
type ValidationError struct {
	Issues []FieldIssue
}

// NewValidationError builds a ValidationError with a single issue.
func NewValidationError(path, message string) *ValidationError {
	return &ValidationError{Issues: []FieldIssue{{Path: path, Message: message}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Path+": "+is.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
