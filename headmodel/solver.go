// SPDX-License-Identifier: MIT

package headmodel

import (
	"context"
	"fmt"

	"github.com/katalvlaran/leadfield/config"
	"github.com/katalvlaran/leadfield/sensors"
	"github.com/katalvlaran/leadfield/transform"
	"gonum.org/v1/gonum/spatial/r3"
)

// Method names the conductor model behind a State.
type Method int

const (
	MethodBEM Method = iota + 1
	MethodSphere
)

func (m Method) String() string {
	switch m {
	case MethodBEM:
		return "bem"
	case MethodSphere:
		return "sphere"
	default:
		return "unknown"
	}
}

// State is a solved head model. It is read-only after Solve and safe for
// concurrent use by any number of workers.
type State interface {
	Method() Method

	// NumMEG and NumEEG give the row split: coils first, then electrodes.
	NumMEG() int
	NumEEG() int

	// Dipole writes into dst[a][row] the response of every sensor row to a
	// unit dipole at rd (head coordinates) pointing along head axis a
	// (0=x, 1=y, 2=z). Each dst[a] must have NumMEG()+NumEEG() entries.
	Dipole(rd r3.Vec, dst [3][]float64) error

	state()
}

// Solver builds a State.
type Solver interface {
	Solve(ctx context.Context) (State, error)
}

// NewSolver picks the variant for the job. geom and array must already be in
// head coordinates and array restricted to the included modalities.
//
// Surfaces present ⇒ BEM for both modalities; otherwise the sphere variant
// (Sarvas for MEG, multilayer series or equivalent dipoles for EEG).
//
// Errors:
//   - ErrNoModality for an empty array.
//   - transform.ErrFrameMismatch when inputs are not in head coordinates.
//   - ErrUnknownModel / ErrIllConditionedGeometry for a bad sphere model.
func NewSolver(spec config.JobSpec, geom Geometry, array sensors.Array, opts ...Option) (Solver, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Registry == nil {
		o.Registry = NewRegistry()
	}

	if array.NumMEG()+array.NumEEG() == 0 {
		return nil, ErrNoModality
	}
	if array.NumMEG() > 0 && array.CoilFrame != transform.FrameHead {
		return nil, fmt.Errorf("coils in %s coordinates: %w", array.CoilFrame, transform.ErrFrameMismatch)
	}
	if array.NumEEG() > 0 && array.ElectrodeFrame != transform.FrameHead {
		return nil, fmt.Errorf("electrodes in %s coordinates: %w", array.ElectrodeFrame, transform.ErrFrameMismatch)
	}
	if (geom.HasBEM() || geom.Sphere != nil) && geom.Frame != transform.FrameHead {
		return nil, fmt.Errorf("head geometry in %s coordinates: %w", geom.Frame, transform.ErrFrameMismatch)
	}

	if geom.HasBEM() {
		return &bemSolver{geom: geom, array: array, accurate: spec.Accurate(), opts: o}, nil
	}

	s := &sphereSolver{
		origin:   spec.R0(),
		array:    array,
		accurate: spec.Accurate(),
		equiv:    spec.EEG().UseEquivalentSource,
		scale:    spec.EEG().ScaleElectrodes,
		opts:     o,
	}
	if geom.Sphere != nil {
		sp := *geom.Sphere
		s.origin = sp.Origin
		s.sphere = &sp
	}
	if array.NumEEG() > 0 && s.sphere == nil {
		sp, err := SphereFor(spec, o.Registry)
		if err != nil {
			return nil, err
		}
		s.sphere = &sp
	}

	return s, nil
}

// integrate accumulates Σ w·kernel(pos, dir) over a coil's nodes.
func integrate(points []sensors.IntegrationPoint, kernel func(pos, dir r3.Vec) r3.Vec) r3.Vec {
	var g r3.Vec
	for _, p := range points {
		g = r3.Add(g, r3.Scale(p.Weight, kernel(p.Pos, p.Dir)))
	}

	return g
}

func checkDst(dst [3][]float64, rows int) error {
	for a := range dst {
		if len(dst[a]) != rows {
			return fmt.Errorf("headmodel: dst[%d] has %d rows, want %d", a, len(dst[a]), rows)
		}
	}

	return nil
}
