// SPDX-License-Identifier: MIT
// Package transform: sentinel errors and the load-error detail type.

package transform

import (
	"errors"
	"fmt"
)

var (
	// ErrTransformLoad marks every failure to obtain a usable head↔MRI or
	// device↔head transform (missing, malformed, or wrong frames).
	ErrTransformLoad = errors.New("transform: cannot load transform")

	// ErrNotRigid indicates a rotation block that is not orthonormal with det +1.
	ErrNotRigid = errors.New("transform: rotation is not a proper rigid rotation")

	// ErrFrameMismatch indicates composing transforms whose frames do not chain.
	ErrFrameMismatch = errors.New("transform: frame mismatch")
)

// LoadError carries the reason a transform record was rejected.
// errors.Is(err, ErrTransformLoad) holds for every LoadError.
type LoadError struct {
	Source string // record identifier (file name or "device→head")
	Reason string
	Err    error // optional underlying cause
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("transform: load %q: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *LoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransformLoad}
	}

	return []error{ErrTransformLoad, e.Err}
}
