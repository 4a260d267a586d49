// Package leadfield computes MEG/EEG forward solutions: the gain matrix that
// maps elementary current dipoles in a source space to the signals predicted
// at the sensors.
//
// What is in the box?
//
//   - Configuration: a loose settings bundle resolved into an immutable job
//   - Coordinate frames: rigid MRI↔head and device↔head transforms
//   - Source spaces: label restriction and distance filtering against the
//     innermost conductor boundary
//   - Head models: boundary-element (nested triangulated surfaces) and
//     layered spheres (Legendre series, Berg–Scherg equivalent dipoles,
//     Sarvas formula for MEG)
//   - Lead fields: free or fixed orientation, optional position gradients,
//     sequential or bounded-parallel evaluation
//   - Persistence: SQLite run ledger with gain and gradient rows
//
// Subpackages:
//
//	config/      Settings → JobSpec
//	transform/   Frame, Rigid, Resolve
//	geometry/    triangulated surfaces, solid angles, icospheres
//	sourcespace/ Space, Filter, omitted points
//	sensors/     coils, electrodes, arrays
//	headmodel/   Geometry, sphere-model registry, Solver, State
//	leadfield/   per-source gain columns
//	forward/     Run, Assemble, Result, Writer
//	matrix/      row-major Dense storage for gain matrices
//	archivist/   leveled logging
//	loader/      JSON/YAML input documents
//	store/       SQLite Writer
//	cmd/fwdcompute command-line shell
//
// Data flow:
//
//	settings ─► config.Resolve ─► transform.Resolve ∥ sourcespace.Filter
//	        ─► headmodel.Solve ─► leadfield.Compute ─► forward.Assemble ─► Writer
//
// Units are SI throughout (metres, S/m, A·m); the user-facing mindist is the
// one exception and is given in millimetres.
package leadfield
