package utils

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindAuth              ErrorKind = "AUTH_ERROR"
	KindUnauthorized      ErrorKind = "UNAUTHORIZED"
	KindValidation        ErrorKind = "VALIDATION_ERROR"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindInvalidTransition ErrorKind = "INVALID_STATE_TRANSITION"
	KindConflict          ErrorKind = "CONFLICT"
	KindDependency        ErrorKind = "DEPENDENCY_ERROR"
)

// AppError is the typed failure returned by every dispatch operation.
// Field is set for validation failures, Current/Requested for rejected
// state transitions.
type AppError struct {
	Kind      ErrorKind
	Message   string
	Field     string
	Current   string
	Requested string
	Err       error
}

// Sentinels for errors.Is; they match any AppError of the same kind.
var (
	ErrAuth              = &AppError{Kind: KindAuth}
	ErrUnauthorized      = &AppError{Kind: KindUnauthorized}
	ErrValidation        = &AppError{Kind: KindValidation}
	ErrNotFound          = &AppError{Kind: KindNotFound}
	ErrInvalidTransition = &AppError{Kind: KindInvalidTransition}
	ErrConflict          = &AppError{Kind: KindConflict}
	ErrDependency        = &AppError{Kind: KindDependency}
)

func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Retryable reports whether the caller may retry the operation with backoff.
func (e *AppError) Retryable() bool {
	return e.Kind == KindDependency
}

func NewAuthError(message string, err error) *AppError {
	return &AppError{Kind: KindAuth, Message: message, Err: err}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func NewValidationError(field, message string) *AppError {
	return &AppError{Kind: KindValidation, Field: field, Message: message}
}

func NewNotFoundError(resource, id string) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", resource, id)}
}

func NewInvalidTransitionError(entity, current, requested string) *AppError {
	return &AppError{
		Kind:      KindInvalidTransition,
		Message:   fmt.Sprintf("%s cannot move from %s to %s", entity, current, requested),
		Current:   current,
		Requested: requested,
	}
}

func NewConflictError(message string, err error) *AppError {
	return &AppError{Kind: KindConflict, Message: message, Err: err}
}

func NewDependencyError(message string, err error) *AppError {
	return &AppError{Kind: KindDependency, Message: message, Err: err}
}

// AsAppError returns the AppError in err's chain, if any.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
