// Package fault is the error taxonomy shared by every engine operation.
package fault

import (
	"errors"
	"fmt"
	"maps"
)

type Kind string

const (
	Validation         Kind = "validation_error"
	NotFound           Kind = "not_found"
	Conflict           Kind = "conflict"
	PreconditionFailed Kind = "precondition_failed"
	Unauthorized       Kind = "unauthorized"
	Internal           Kind = "internal_error"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
	cause   error
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches on Code so a derived error still satisfies errors.Is against its sentinel.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// Withf returns a copy of e with a formatted message and the same code.
func (e *Error) Withf(format string, args ...any) *Error {
	out := e.clone()
	out.Message = fmt.Sprintf(format, args...)
	return out
}

// WithCause returns a copy of e wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	out := e.clone()
	out.cause = cause
	return out
}

// WithFields returns a copy of e carrying field level messages.
func (e *Error) WithFields(fields map[string]string) *Error {
	out := e.clone()
	out.Fields = maps.Clone(fields)
	return out
}

func (e *Error) clone() *Error {
	out := *e
	out.Fields = maps.Clone(e.Fields)
	return &out
}

// Invalid builds a validation error from field messages.
func Invalid(fields map[string]string) *Error {
	return New(Validation, "validation_error", "payload validation failed").WithFields(fields)
}

// KindOf reports the taxonomy kind of err, Internal when err is not a *Error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Internal
}

// As extracts the *Error from err or wraps it as an internal failure.
func As(err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return New(Internal, "internal_error", "unexpected failure").WithCause(err)
}
