package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// PartialUpdateError indicates that a multi-document mutation could not be
// applied atomically; distinct from a plain not-found so callers can tell a
// consistency failure from a missing record.
type PartialUpdateError struct {
	Op  string
	Err error
}

func NewPartialUpdateError(op string, err error) error {
	return &PartialUpdateError{Op: op, Err: err}
}

func (err PartialUpdateError) Error() string {
	msg := "partial update: " + err.Op
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg
}

func (err PartialUpdateError) Unwrap() error { return err.Err }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
