package core

import (
	"fmt"

	"github.com/pkg/errors"
)

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

// PersistenceError indicates that a storage backend could not load or save
// the collection. It is never silently collapsed into an empty result:
// callers decide the fallback policy.
type PersistenceError struct {
	Op  string // "load" or "save"
	Err error
}

func NewPersistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

func (err PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", err.Op, err.Err)
}

func (err PersistenceError) Unwrap() error { return err.Err }

func IsPersistenceError(err error) bool {
	_, ok := errors.Cause(err).(*PersistenceError)
	return ok
}

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
