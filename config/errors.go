package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration marks every settings validation failure.
var ErrInvalidConfiguration = errors.New("config: invalid configuration")

// FieldError names the offending settings field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config: invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidConfiguration) match.
func (e *FieldError) Unwrap() error { return ErrInvalidConfiguration }

func fieldErr(field, format string, args ...interface{}) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
