// Package apperr defines the error taxonomy shared by the domain services.
//
// Every service error is classifiable into exactly one Kind. Domain packages
// declare their own sentinels with the constructors below, and callers match
// either the specific sentinel or the kind with errors.Is.
package apperr

import (
	"errors"

	"github.com/climatica/climatica/internal/api/models"
)

// Kind sentinels.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "unexpected"
	}
}

// KindOf returns the kind of err. Errors outside the taxonomy are unexpected.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnexpected
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindUnexpected
	}
}

// Error is a domain error with a client-safe message.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Unwrap returns the kind sentinel.
func (e *Error) Unwrap() error { return e.kind }

// NotFound returns an error of kind NotFound.
func NotFound(msg string) error { return &Error{kind: ErrNotFound, msg: msg} }

// Conflict returns an error of kind Conflict.
func Conflict(msg string) error { return &Error{kind: ErrConflict, msg: msg} }

// Unauthorized returns an error of kind Unauthorized.
func Unauthorized(msg string) error { return &Error{kind: ErrUnauthorized, msg: msg} }

// Forbidden returns an error of kind Forbidden.
func Forbidden(msg string) error { return &Error{kind: ErrForbidden, msg: msg} }

// ValidationError carries the field errors of a rejected input.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid returns a ValidationError for a single field.
func Invalid(field, message string) error {
	return &ValidationError{Errors: []models.FieldError{{Field: field, Message: message}}}
}

// Message returns the client-safe message carried by err, or "" when err is
// not a domain error.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.msg
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return ""
}
