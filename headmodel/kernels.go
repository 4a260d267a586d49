// SPDX-License-Identifier: MIT
// Package: headmodel
//
// kernels.go - closed-form field kernels shared by the BEM and sphere variants.
//
// Every kernel returns the gain 3-vector G of a linear functional, so that the
// response to a dipole moment q is simply q·G. Units are SI throughout.

package headmodel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// mu0Over4Pi is μ0/(4π) in T·m/A.
const mu0Over4Pi = 1e-7

// potentialKernel is the unit-conductivity infinite-medium potential at r of
// a dipole at r0: V·σ = q·(r−r0)/(4π|r−r0|³).
func potentialKernel(r, r0 r3.Vec) r3.Vec {
	d := r3.Sub(r, r0)
	n := r3.Norm(d)

	return r3.Scale(1/(4*math.Pi*n*n*n), d)
}

// primaryFieldKernel is the infinite-medium field of a dipole at r0 measured
// along dir at r: B0·dir = (μ0/4π) q·((r−r0)×dir)/|r−r0|³.
func primaryFieldKernel(r, r0, dir r3.Vec) r3.Vec {
	d := r3.Sub(r, r0)
	n := r3.Norm(d)

	return r3.Scale(mu0Over4Pi/(n*n*n), r3.Cross(d, dir))
}

// homogeneousSphereKernel is the exact scalp potential of a dipole inside a
// homogeneous sphere (conductivity sigma, radius |r|), coordinates relative to
// the sphere centre:
//
//	V = (1/4πσ) q·[ 2d/|d|³ + (r/R + d/|d|) / (R² − r·r0 + R|d|) ],  d = r − r0.
func homogeneousSphereKernel(r, r0 r3.Vec, sigma float64) r3.Vec {
	d := r3.Sub(r, r0)
	dn := r3.Norm(d)
	rn := r3.Norm(r)
	den := rn*rn - r3.Dot(r, r0) + rn*dn

	g := r3.Add(
		r3.Scale(2/(dn*dn*dn), d),
		r3.Scale(1/den, r3.Add(r3.Scale(1/rn, r), r3.Scale(1/dn, d))),
	)

	return r3.Scale(1/(4*math.Pi*sigma), g)
}

// sarvasKernel is the field of a dipole at r0 in a spherically symmetric
// conductor measured along dir at r (Sarvas 1987), both relative to the centre:
//
//	B = μ0/(4πF²) (F q×r0 − (q×r0·r) ∇F),
//	F = a(ra + r² − r0·r),  a = r − r0.
//
// A source at the centre produces no external field.
func sarvasKernel(r, r0, dir r3.Vec) r3.Vec {
	if r3.Norm(r0) == 0 {
		return r3.Vec{}
	}
	a := r3.Sub(r, r0)
	an := r3.Norm(a)
	rn := r3.Norm(r)
	ar := r3.Dot(a, r)
	f := an * (rn*an + rn*rn - r3.Dot(r0, r))
	gradF := r3.Sub(
		r3.Scale(an*an/rn+ar/an+2*an+2*rn, r),
		r3.Scale(an+2*rn+ar/an, r0),
	)

	// dir·(q×r0) = q·(r0×dir); (q×r0)·r = q·(r0×r).
	g := r3.Sub(r3.Scale(f, r3.Cross(r0, dir)), r3.Scale(r3.Dot(dir, gradF), r3.Cross(r0, r)))

	return r3.Scale(mu0Over4Pi/(f*f), g)
}
