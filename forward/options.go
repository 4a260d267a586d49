// SPDX-License-Identifier: MIT

package forward

import (
	"time"

	"github.com/katalvlaran/leadfield/archivist"
	"github.com/katalvlaran/leadfield/headmodel"
)

// Options configures Run.
type Options struct {
	Logger   *archivist.Archivist
	Writer   Writer
	Clock    func() time.Time
	Registry *headmodel.Registry
	Solver   []headmodel.Option
}

// Option is a functional option for Run.
type Option func(*Options)

// DefaultOptions: discard logs, no writer, wall clock, built-in sphere models.
func DefaultOptions() Options {
	return Options{
		Logger: archivist.Discard(),
		Clock:  time.Now,
	}
}

// WithLogger routes stage logs to l. Panics on nil.
func WithLogger(l *archivist.Archivist) Option {
	if l == nil {
		panic("forward: WithLogger(nil)")
	}

	return func(o *Options) { o.Logger = l }
}

// WithWriter hands the finished result to w.
func WithWriter(w Writer) Option {
	return func(o *Options) { o.Writer = w }
}

// WithClock replaces time.Now for timestamps and stage timings. Panics on nil.
func WithClock(now func() time.Time) Option {
	if now == nil {
		panic("forward: WithClock(nil)")
	}

	return func(o *Options) { o.Clock = now }
}

// WithRegistry supplies sphere models read from a model file.
func WithRegistry(r *headmodel.Registry) Option {
	return func(o *Options) { o.Registry = r }
}

// WithSolverOptions forwards options to headmodel.NewSolver.
func WithSolverOptions(opts ...headmodel.Option) Option {
	return func(o *Options) { o.Solver = append(o.Solver, opts...) }
}
