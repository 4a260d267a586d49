// SPDX-License-Identifier: MIT
// Package: headmodel
//
// sphere.go - layered-sphere variant.
//
// EEG, exact series: for a dipole q at r0 (|r0| = b) in the innermost shell
// and an electrode at R·û,
//
//	V = (1/(4πσ₁R²)) Σₙ (2n+1)/n · fₙ · tⁿ⁻¹ [ n (q·r̂0) Pₙ(x) + (q·û − x q·r̂0) Pₙ'(x) ],
//	t = b/R,  x = r̂0·û,
//
// with fₙ ≡ 1 for a homogeneous sphere. fₙ comes from matching potential and
// normal current at every interface, propagated from the scalp inwards.
//
// EEG, equivalent source: three dipoles λₖq at μₖr0 in a homogeneous sphere
// of conductivity σ₁ whose series Σ λₖ μₖⁿ⁻¹ fits fₙ (Berg & Scherg 1994).
//
// MEG: the Sarvas closed form, independent of the layer conductivities.

package headmodel

import (
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/leadfield/sensors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

type sphereSolver struct {
	origin   r3.Vec
	sphere   *Sphere // nil for MEG-only jobs without an explicit sphere
	array    sensors.Array
	accurate bool
	equiv    bool
	scale    bool
	opts     Options
}

type sphereState struct {
	origin r3.Vec
	coils  [][]sensors.IntegrationPoint
	nMEG   int
	nEEG   int

	// EEG
	dirs   []r3.Vec  // unit electrode directions from origin
	radius float64   // scalp radius R
	inner  float64   // innermost shell radius
	sigma1 float64   // innermost conductivity
	coef   []float64 // coef[n] = (2n+1)/n · fₙ, index 0 unused
	tol    float64
	berg   *bergParams
}

func (*sphereState) state() {}

func (*sphereState) Method() Method { return MethodSphere }
func (s *sphereState) NumMEG() int  { return s.nMEG }
func (s *sphereState) NumEEG() int  { return s.nEEG }

// Solve precomputes the series coefficients (and equivalent dipoles) and
// places the electrodes on the scalp.
func (p *sphereSolver) Solve(ctx context.Context) (State, error) {
	st := &sphereState{origin: p.origin, nMEG: p.array.NumMEG(), nEEG: p.array.NumEEG()}

	if st.nMEG > 0 {
		st.coils = make([][]sensors.IntegrationPoint, st.nMEG)
		for c, coil := range p.array.Coils {
			st.coils[c] = coil.Integration(p.accurate)
		}
	}
	if st.nEEG == 0 {
		return st, nil
	}

	sp := *p.sphere
	if err := validateSphere(sp); err != nil {
		return nil, err
	}
	st.radius = sp.Radius()
	st.inner = sp.Shells[0].Radius
	st.sigma1 = sp.Shells[0].Sigma

	st.dirs = make([]r3.Vec, st.nEEG)
	for e, el := range p.array.Electrodes {
		d := r3.Sub(el.Pos, sp.Origin)
		r := r3.Norm(d)
		if r == 0 {
			return nil, fmt.Errorf("electrode %s at the sphere origin: %w", el.Name, ErrIllConditionedGeometry)
		}
		if !p.scale && math.Abs(r-st.radius) > p.opts.ElectrodeSlack*st.radius {
			return nil, fmt.Errorf("electrode %s at radius %.4f m, scalp %.4f m: %w", el.Name, r, st.radius, ErrIllConditionedGeometry)
		}
		st.dirs[e] = r3.Scale(1/r, d)
	}

	terms, tol := fastTerms, fastSeriesTol
	if p.accurate {
		terms, tol = accTerms, accSeriesTol
	}
	if p.opts.MaxTerms > 0 {
		terms = p.opts.MaxTerms
	}
	st.tol = tol

	f := seriesFactors(sp, terms)
	st.coef = make([]float64, terms+1)
	for n := 1; n <= terms; n++ {
		st.coef[n] = float64(2*n+1) / float64(n) * f[n]
	}

	if p.equiv {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bp, err := fitBerg(f, len(sp.Shells))
		if err != nil {
			return nil, err
		}
		st.berg = &bp
	}

	return st, nil
}

// seriesFactors returns fₙ for n = 1..terms (index 0 unused). Terms whose
// propagation overflows are negligible and left at zero.
func seriesFactors(sp Sphere, terms int) []float64 {
	f := make([]float64, terms+1)
	big := len(sp.Shells) - 1
	radius := sp.Radius()

	for n := 1; n <= terms; n++ {
		nf := float64(n)
		// Outer shell: V = ρⁿ + c ρ⁻⁽ⁿ⁺¹⁾ with zero normal current at ρ = 1.
		a, c := 1.0, nf/(nf+1)
		for k := big; k > 0; k-- {
			rho := sp.Shells[k-1].Radius / radius
			v := a*math.Pow(rho, nf) + c*math.Pow(rho, -(nf+1))
			w := sp.Shells[k].Sigma * (nf*a*math.Pow(rho, nf-1) - (nf+1)*c*math.Pow(rho, -(nf+2)))
			a = ((nf+1)*v/rho + w/sp.Shells[k-1].Sigma) / ((2*nf + 1) * math.Pow(rho, nf-1))
			c = (v - a*math.Pow(rho, nf)) * math.Pow(rho, nf+1)
		}
		fn := nf / ((nf + 1) * c)
		if math.IsNaN(fn) || math.IsInf(fn, 0) {
			break
		}
		f[n] = fn
	}

	return f
}

// Dipole implements State.
func (s *sphereState) Dipole(rd r3.Vec, dst [3][]float64) error {
	if err := checkDst(dst, s.nMEG+s.nEEG); err != nil {
		return err
	}
	r0 := r3.Sub(rd, s.origin)

	for c, pts := range s.coils {
		g := integrate(pts, func(pos, dir r3.Vec) r3.Vec { return sarvasKernel(r3.Sub(pos, s.origin), r0, dir) })
		dst[0][c], dst[1][c], dst[2][c] = g.X, g.Y, g.Z
	}
	if s.nEEG == 0 {
		return nil
	}

	b := r3.Norm(r0)
	if b >= s.inner {
		return fmt.Errorf("source at %.4f m from the origin, innermost shell %.4f m: %w", b, s.inner, ErrSourceOutside)
	}
	for e, u := range s.dirs {
		var g r3.Vec
		if s.berg != nil {
			g = s.berg.gain(r3.Scale(s.radius, u), r0, s.sigma1)
		} else {
			g = s.seriesGain(u, r0, b)
		}
		dst[0][s.nMEG+e], dst[1][s.nMEG+e], dst[2][s.nMEG+e] = g.X, g.Y, g.Z
	}

	return nil
}

// seriesGain sums the Legendre series for electrode direction u.
func (s *sphereState) seriesGain(u, r0 r3.Vec, b float64) r3.Vec {
	r0hat := r3.Vec{Z: 1}
	if b > 1e-12*s.radius {
		r0hat = r3.Scale(1/b, r0)
	}
	t := b / s.radius
	x := r3.Dot(r0hat, u)

	// Pₙ and Pₙ' by the three-term recurrences, starting at n = 1.
	pPrev, p := 1.0, x
	dpPrev, dp := 0.0, 1.0
	tp := 1.0 // tⁿ⁻¹
	var s1, s2 float64
	for n := 1; n < len(s.coef); n++ {
		nf := float64(n)
		term := s.coef[n] * tp
		s1 += term * nf * p
		s2 += term * dp
		if n > 2 && term*nf*(nf+1) < s.tol*s.coef[1] {
			break
		}
		tp *= t
		if tp == 0 {
			break
		}
		pNext := ((2*nf+1)*x*p - nf*pPrev) / (nf + 1)
		dpNext := dpPrev + (2*nf+1)*p
		pPrev, p = p, pNext
		dpPrev, dp = dp, dpNext
	}

	pref := 1 / (4 * math.Pi * s.sigma1 * s.radius * s.radius)

	return r3.Scale(pref, r3.Add(r3.Scale(s1-x*s2, r0hat), r3.Scale(s2, u)))
}

// bergParams holds the equivalent dipoles: magnitudes λ and radial scalings μ.
type bergParams struct {
	mu     []float64
	lambda []float64
}

func (bp *bergParams) gain(r, r0 r3.Vec, sigma float64) r3.Vec {
	var g r3.Vec
	for k := range bp.mu {
		g = r3.Add(g, r3.Scale(bp.lambda[k], homogeneousSphereKernel(r, r3.Scale(bp.mu[k], r0), sigma)))
	}

	return g
}

// Equivalent-source fit settings.
const (
	bergDipoles = 3
	bergTerms   = 100
	bergStep    = 0.05
)

// fitBerg finds μ on a 0.05 grid (μ₁ < μ₂ < μ₃ < 1) and λ by linear least
// squares minimising Σₙ (fₙ − Σₖ λₖ μₖⁿ⁻¹)². A single shell is represented
// exactly by the dipole itself.
func fitBerg(f []float64, shells int) (bergParams, error) {
	if shells == 1 {
		return bergParams{mu: []float64{1}, lambda: []float64{f[1]}}, nil
	}
	terms := bergTerms
	if terms > len(f)-1 {
		terms = len(f) - 1
	}
	target := mat.NewVecDense(terms, append([]float64(nil), f[1:terms+1]...))

	var grid []float64
	for k := 1; float64(k)*bergStep < 1-1e-9; k++ {
		grid = append(grid, float64(k)*bergStep)
	}

	best := bergParams{}
	bestRes := math.Inf(1)
	design := mat.NewDense(terms, bergDipoles, nil)
	var lam, fit mat.VecDense
	for i := 0; i < len(grid); i++ {
		for j := i + 1; j < len(grid); j++ {
			for k := j + 1; k < len(grid); k++ {
				mu := [bergDipoles]float64{grid[i], grid[j], grid[k]}
				for n := 0; n < terms; n++ {
					for d := 0; d < bergDipoles; d++ {
						design.Set(n, d, math.Pow(mu[d], float64(n)))
					}
				}
				if err := lam.SolveVec(design, target); err != nil {
					continue
				}
				fit.MulVec(design, &lam)
				fit.SubVec(&fit, target)
				if res := mat.Norm(&fit, 2); res < bestRes {
					bestRes = res
					best = bergParams{
						mu:     mu[:],
						lambda: []float64{lam.AtVec(0), lam.AtVec(1), lam.AtVec(2)},
					}
				}
			}
		}
	}
	if best.mu == nil {
		return bergParams{}, fmt.Errorf("equivalent-source fit failed: %w", ErrIllConditionedGeometry)
	}

	return best, nil
}
