// SPDX-License-Identifier: MIT

package headmodel

// Defaults for Options.
const (
	// DefaultTolerance is the smallest acceptable reciprocal condition number
	// of the deflated BEM system.
	DefaultTolerance = 1e-14

	// DefaultOrientationTol bounds |Ω − 4π| seen from a surface's centroid.
	DefaultOrientationTol = 1e-3

	// DefaultElectrodeSlack is the allowed relative deviation of unscaled
	// electrodes from the scalp radius in the sphere model.
	DefaultElectrodeSlack = 0.10
)

// Series truncation per precision.
const (
	fastTerms     = 100
	fastSeriesTol = 1e-8
	accTerms      = 400
	accSeriesTol  = 1e-12
)

// Options configures NewSolver.
type Options struct {
	Tolerance      float64   // reciprocal condition floor for the BEM system
	OrientationTol float64   // outward-orientation check slack (steradians)
	ElectrodeSlack float64   // sphere model: relative electrode radius slack
	Registry       *Registry // sphere models; nil means the built-ins
	MaxTerms       int       // Legendre terms; 0 picks 100 (fast) or 400 (accurate)
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the baseline configuration.
//
// Defaults:
//   - Tolerance 1e-14, OrientationTol 1e-3, ElectrodeSlack 0.10.
//   - Registry: built-in models; MaxTerms: chosen by the accurate flag.
func DefaultOptions() Options {
	return Options{
		Tolerance:      DefaultTolerance,
		OrientationTol: DefaultOrientationTol,
		ElectrodeSlack: DefaultElectrodeSlack,
	}
}

// WithTolerance sets the reciprocal-condition floor. Panics on tol <= 0.
func WithTolerance(tol float64) Option {
	if !(tol > 0) {
		panic("headmodel: WithTolerance requires tol > 0")
	}

	return func(o *Options) { o.Tolerance = tol }
}

// WithRegistry supplies sphere models loaded from a model file. Panics on nil.
func WithRegistry(r *Registry) Option {
	if r == nil {
		panic("headmodel: WithRegistry(nil)")
	}

	return func(o *Options) { o.Registry = r }
}

// WithMaxTerms caps the Legendre series. Panics on n < 1.
func WithMaxTerms(n int) Option {
	if n < 1 {
		panic("headmodel: WithMaxTerms requires n >= 1")
	}

	return func(o *Options) { o.MaxTerms = n }
}

// WithElectrodeSlack changes the unscaled-electrode tolerance. Panics on s < 0.
func WithElectrodeSlack(s float64) Option {
	if s < 0 {
		panic("headmodel: WithElectrodeSlack requires s >= 0")
	}

	return func(o *Options) { o.ElectrodeSlack = s }
}
