// Package errs defines the error kinds shared across inkwell.
//
// Callers test for a kind with errors.Is; the original cause stays in the
// chain so errors.Is/As keep working on it too.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrDatabase           = errors.New("database error")
)

// NotFound reports a missing resource of the given kind.
func NotFound(what, id string) error {
	return fmt.Errorf("%s %q: %w", what, id, ErrNotFound)
}

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Database wraps a persistence failure. Errors that already carry a kind
// are returned unchanged.
func Database(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDatabase) || errors.Is(err, ErrValidation) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrDatabase, err)
}

// Unavailable wraps a failure of an optional external service.
func Unavailable(service string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrServiceUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", service, ErrServiceUnavailable, err)
}
