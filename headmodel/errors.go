// SPDX-License-Identifier: MIT
// Package headmodel: sentinel error set.
// Every solver failure is fatal for the run; no variant retries or degrades.

package headmodel

import "errors"

var (
	// ErrIllConditionedGeometry covers every geometric or numerical reason the
	// head model cannot be solved: open, degenerate, inward-facing or
	// non-nested surfaces, a (near-)singular BEM system, electrodes far from
	// the scalp.
	ErrIllConditionedGeometry = errors.New("headmodel: ill-conditioned geometry")

	// ErrUnknownModel is returned when a sphere-model name is not registered.
	ErrUnknownModel = errors.New("headmodel: unknown sphere model")

	// ErrSourceOutside is returned by State.Dipole for a source outside the
	// innermost compartment.
	ErrSourceOutside = errors.New("headmodel: source outside the innermost compartment")

	// ErrNoModality is returned when the sensor array has neither coils nor electrodes.
	ErrNoModality = errors.New("headmodel: nothing to solve for")
)
