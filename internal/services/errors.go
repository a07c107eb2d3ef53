package services

import (
	"errors"
	"fmt"

	"github.com/classhub/quiz-service/internal/validator"
)

// Sentinel errors mapped to HTTP status codes in the handler layer.
var (
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrSessionNotFound  = errors.New("session not found")

	ErrQuizExists = errors.New("quiz already exists for this unit and category")

	// ErrSessionNotOwned is returned when a caller addresses a session token
	// belonging to another student.
	ErrSessionNotOwned = errors.New("session does not belong to this user")

	ErrUnauthorized = errors.New("unauthorized")
)

// PermissionError marks role or ownership failures.
type PermissionError struct {
	Action string
	Reason string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied for %s: %s", e.Action, e.Reason)
}

func NewPermissionError(action, reason string) *PermissionError {
	return &PermissionError{Action: action, Reason: reason}
}

// ValidationError wraps field-level validation failures for transport.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Errors.Error())
}

func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	return &ValidationError{Errors: errs}
}

// IsValidationError reports whether err carries field-level failures.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPermissionError reports whether err is a role or ownership failure.
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}
