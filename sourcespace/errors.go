package sourcespace

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownLabel is returned when a requested label matches no source point.
	ErrUnknownLabel = errors.New("sourcespace: unknown label")

	// ErrEmptySourceSpace is returned when no point survives filtering.
	ErrEmptySourceSpace = errors.New("sourcespace: no source points left")
)

// LabelError names the label that matched nothing.
type LabelError struct {
	Label string
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("sourcespace: label %q has no source points", e.Label)
}

func (e *LabelError) Unwrap() error { return ErrUnknownLabel }
