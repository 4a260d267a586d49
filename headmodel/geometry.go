// SPDX-License-Identifier: MIT

package headmodel

import (
	"fmt"
	"math"

	"github.com/katalvlaran/leadfield/config"
	"github.com/katalvlaran/leadfield/geometry"
	"github.com/katalvlaran/leadfield/sourcespace"
	"github.com/katalvlaran/leadfield/transform"
	"gonum.org/v1/gonum/spatial/r3"
)

// Shell is one concentric sphere layer in absolute units.
type Shell struct {
	Radius float64 // metres
	Sigma  float64 // S/m
}

// Sphere is a layered sphere centred at Origin, shells innermost first.
type Sphere struct {
	Origin r3.Vec
	Shells []Shell
}

// Radius is the scalp (outermost) radius.
// Zero for a sphere without shells.
func (s Sphere) Radius() float64 {
	if len(s.Shells) == 0 {
		return 0
	}

	return s.Shells[len(s.Shells)-1].Radius
}

// Geometry is the conductor description: either BEM surfaces or a sphere.
// When both are set the surfaces win.
type Geometry struct {
	Frame transform.Frame

	// Surfaces ordered outermost (scalp) to innermost (inner skull);
	// Sigma[k] is the conductivity inside Surfaces[k].
	Surfaces []*geometry.Surface
	Sigma    []float64

	// Sphere, when nil for a sphere job, is derived from the job's EEG model.
	Sphere *Sphere
}

// HasBEM reports whether boundary surfaces are present.
func (g Geometry) HasBEM() bool { return len(g.Surfaces) > 0 }

// Transformed maps every surface and the sphere origin with r.
func (g Geometry) Transformed(r transform.Rigid) (Geometry, error) {
	if g.Frame != r.From {
		return Geometry{}, fmt.Errorf("geometry in %s, transform from %s: %w", g.Frame, r.From, transform.ErrFrameMismatch)
	}
	out := Geometry{Frame: r.To, Sigma: append([]float64(nil), g.Sigma...)}
	for _, s := range g.Surfaces {
		m, err := s.Map(r.Apply)
		if err != nil {
			return Geometry{}, err
		}
		out.Surfaces = append(out.Surfaces, m)
	}
	if g.Sphere != nil {
		if err := validateSphere(*g.Sphere); err != nil {
			return Geometry{}, err
		}
		sp := Sphere{Origin: r.Apply(g.Sphere.Origin), Shells: append([]Shell(nil), g.Sphere.Shells...)}
		out.Sphere = &sp
	}

	return out, nil
}

// Validate checks the BEM surfaces: closed, non-degenerate, outward,
// free of crossing triangles, nested, with finite positive conductivities. A sphere-only geometry is
// checked shell by shell.
func (g Geometry) Validate(orientTol float64) error {
	if !g.HasBEM() {
		if g.Sphere != nil {
			return validateSphere(*g.Sphere)
		}

		return nil
	}
	if len(g.Sigma) != len(g.Surfaces) {
		return fmt.Errorf("%d surfaces, %d conductivities: %w", len(g.Surfaces), len(g.Sigma), ErrIllConditionedGeometry)
	}
	for k, s := range g.Surfaces {
		if sig := g.Sigma[k]; math.IsNaN(sig) || math.IsInf(sig, 0) || sig <= 0 {
			return fmt.Errorf("surface %q: conductivity %g: %w", s.ID, sig, ErrIllConditionedGeometry)
		}
		if err := s.CheckDegenerate(); err != nil {
			return fmt.Errorf("surface %q: %w: %w", s.ID, ErrIllConditionedGeometry, err)
		}
		if err := s.CheckClosed(); err != nil {
			return fmt.Errorf("surface %q: %w: %w", s.ID, ErrIllConditionedGeometry, err)
		}
		if err := s.CheckSelfIntersection(); err != nil {
			return fmt.Errorf("%w: %w", ErrIllConditionedGeometry, err)
		}
		if omega := s.SolidAngleFrom(s.Centroid()); math.Abs(omega-4*math.Pi) > orientTol {
			return fmt.Errorf("surface %q: solid angle %.6f from centroid, want 4π (inward normals?): %w",
				s.ID, omega, ErrIllConditionedGeometry)
		}
	}
	for k := 1; k < len(g.Surfaces); k++ {
		outer, inner := g.Surfaces[k-1], g.Surfaces[k]
		if err := geometry.CheckDisjoint(outer, inner); err != nil {
			return fmt.Errorf("%w: %w", ErrIllConditionedGeometry, err)
		}
		for i, v := range inner.Vertices {
			if !outer.Contains(v) {
				return fmt.Errorf("surface %q vertex %d is not inside %q: %w", inner.ID, i, outer.ID, ErrIllConditionedGeometry)
			}
		}
	}

	return nil
}

func validateSphere(s Sphere) error {
	if len(s.Shells) == 0 || !geometry.IsFinite(s.Origin) {
		return fmt.Errorf("sphere: no shells or bad origin: %w", ErrIllConditionedGeometry)
	}
	prev := 0.0
	for i, sh := range s.Shells {
		if math.IsNaN(sh.Radius) || math.IsInf(sh.Radius, 0) || sh.Radius <= prev {
			return fmt.Errorf("sphere shell %d radius %g: %w", i, sh.Radius, ErrIllConditionedGeometry)
		}
		if math.IsNaN(sh.Sigma) || math.IsInf(sh.Sigma, 0) || sh.Sigma <= 0 {
			return fmt.Errorf("sphere shell %d conductivity %g: %w", i, sh.Sigma, ErrIllConditionedGeometry)
		}
		prev = sh.Radius
	}

	return nil
}

// SphereFor builds the EEG sphere of a job: explicit layers, or the named
// model from reg, scaled by the scalp radius and centred at R0.
func SphereFor(spec config.JobSpec, reg *Registry) (Sphere, error) {
	eeg := spec.EEG()
	var layers []Layer
	if len(eeg.Layers) > 0 {
		for _, l := range eeg.Layers {
			layers = append(layers, Layer{Rel: l.Rel, Sigma: l.Sigma})
		}
	} else {
		if reg == nil {
			reg = NewRegistry()
		}
		m, err := reg.Lookup(eeg.ModelName)
		if err != nil {
			return Sphere{}, err
		}
		layers = m.Layers
	}
	if err := (SphereModel{Name: eeg.ModelName, Layers: layers}).Validate(); err != nil {
		return Sphere{}, err
	}

	out := Sphere{Origin: spec.R0(), Shells: make([]Shell, len(layers))}
	for i, l := range layers {
		out.Shells[i] = Shell{Radius: l.Rel * eeg.ScalpRadius, Sigma: l.Sigma}
	}

	return out, nil
}

// Boundary returns the innermost compartment sources must lie in: the inner
// skull surface for a BEM, the innermost shell of an explicit or EEG-derived
// sphere, and nil (no distance filter) for a MEG-only job without a sphere.
func Boundary(spec config.JobSpec, g Geometry, reg *Registry) (sourcespace.Boundary, error) {
	if g.HasBEM() {
		return sourcespace.SurfaceBoundary{Surface: g.Surfaces[len(g.Surfaces)-1]}, nil
	}
	sp := g.Sphere
	if sp == nil {
		if !spec.IncludeEEG() {
			return nil, nil
		}
		s, err := SphereFor(spec, reg)
		if err != nil {
			return nil, err
		}
		sp = &s
	}
	if err := validateSphere(*sp); err != nil {
		return nil, err
	}

	return sourcespace.SphereBoundary{Origin: sp.Origin, Radius: sp.Shells[0].Radius}, nil
}
