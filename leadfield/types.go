// SPDX-License-Identifier: MIT

// Package leadfield evaluates a solved head model at every retained source
// and produces the gain columns, optionally with their spatial gradients.
//
// Each source yields one column (fixed orientation, along the source normal)
// or three (free orientation, along the output-frame axes). Columns are
// source-major and follow the input order exactly, whatever the completion
// order of the workers.
//
// Complexity:
//
//	– Time:  O(N · C_dipole), times 7 with gradients (centre ± 3 axes).
//	– Space: O(N · k · S) for N sources, k columns per source, S sensors.
//
// Options:
//
//	– Orientation: Free (default) or Fixed.
//	– Parallel / Workers: errgroup pool; Workers 0 means runtime.NumCPU().
//	– Gradient / Step: central differences with step 1e-5 m.
//	– Basis: output-frame axes expressed in head coordinates.
//
// Errors (sentinel):
//
//	– ErrLeadFieldComputation wrapped in *SourceError for a failing source.
//	– ErrNoSources for an empty point list.
package leadfield

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/leadfield/transform"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrLeadFieldComputation marks a source whose columns could not be produced.
	ErrLeadFieldComputation = errors.New("leadfield: lead-field computation failed")

	// ErrNoSources indicates an empty source list.
	ErrNoSources = errors.New("leadfield: no sources")
)

// SourceError reports the failing source by its position in the filtered list.
type SourceError struct {
	Index  int // position in the filtered list
	Vertex int // original vertex index
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("leadfield: source %d (vertex %d): %v", e.Index, e.Vertex, e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *SourceError) Unwrap() []error { return []error{ErrLeadFieldComputation, e.Err} }

// Orientation selects how many columns each source contributes.
type Orientation int

const (
	// Free gives three columns per source, one per output-frame axis.
	Free Orientation = iota
	// Fixed gives one column per source, along its surface normal.
	Fixed
)

// Columns returns the column count per source.
func (o Orientation) Columns() int {
	if o == Fixed {
		return 1
	}

	return 3
}

func (o Orientation) String() string {
	if o == Fixed {
		return "fixed"
	}

	return "free"
}

// DefaultStep is the finite-difference step in metres.
const DefaultStep = 1e-5

// Options configures Compute.
type Options struct {
	Orientation Orientation
	Parallel    bool
	Workers     int // 0 = runtime.NumCPU()
	Gradient    bool
	Step        float64
	Basis       [3]r3.Vec
}

// Option is a functional option for Compute.
type Option func(*Options)

// DefaultOptions returns free orientation, sequential, no gradient, head axes.
func DefaultOptions() Options {
	return Options{
		Orientation: Free,
		Step:        DefaultStep,
		Basis:       [3]r3.Vec{{X: 1}, {Y: 1}, {Z: 1}},
	}
}

// WithOrientation sets Free or Fixed.
func WithOrientation(o Orientation) Option {
	return func(opts *Options) { opts.Orientation = o }
}

// WithParallel enables the worker pool.
func WithParallel(on bool) Option {
	return func(opts *Options) { opts.Parallel = on }
}

// WithWorkers bounds the pool size. Panics if n < 0.
func WithWorkers(n int) Option {
	if n < 0 {
		panic("leadfield: WithWorkers requires n >= 0")
	}

	return func(opts *Options) { opts.Workers = n }
}

// WithGradient also computes the spatial derivatives of every column.
func WithGradient(on bool) Option {
	return func(opts *Options) { opts.Gradient = on }
}

// WithStep overrides the finite-difference step. Panics if h <= 0.
func WithStep(h float64) Option {
	if !(h > 0) {
		panic("leadfield: WithStep requires h > 0")
	}

	return func(opts *Options) { opts.Step = h }
}

// WithFrame expresses free-orientation columns and gradient axes in the
// target frame of headTo (a head→frame transform). The axes of that frame,
// seen from head coordinates, are the rows of its rotation.
func WithFrame(headTo transform.Rigid) Option {
	rot := headTo.Rotation()

	return func(opts *Options) {
		for k := 0; k < 3; k++ {
			opts.Basis[k] = r3.Vec{X: rot[k][0], Y: rot[k][1], Z: rot[k][2]}
		}
	}
}
