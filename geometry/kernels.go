// SPDX-License-Identifier: MIT

package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// IsFinite reports whether all three components are finite.
func IsFinite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// SolidAngle returns the signed solid angle of triangle (a,b,c) seen from p.
//
// Implementation (Van Oosterom & Strackee, 1983):
//
//	R_i = corner_i − p,  N = R1·(R2×R3),
//	D = |R1||R2||R3| + (R1·R2)|R3| + (R1·R3)|R2| + (R2·R3)|R1|,
//	Ω = 2·atan2(N, D).
//
// Sign: positive when the triangle is wound counter-clockwise as seen from p,
// so an outward-wound closed surface gives +4π from inside.
// Returns 0 when p coincides with a corner.
//
// Complexity: O(1).
func SolidAngle(p, a, b, c r3.Vec) float64 {
	r1 := r3.Sub(a, p)
	r2 := r3.Sub(b, p)
	r3v := r3.Sub(c, p)
	l1, l2, l3 := r3.Norm(r1), r3.Norm(r2), r3.Norm(r3v)
	if l1 == 0 || l2 == 0 || l3 == 0 {
		return 0
	}
	num := r3.Dot(r1, r3.Cross(r2, r3v))
	den := l1*l2*l3 + r3.Dot(r1, r2)*l3 + r3.Dot(r1, r3v)*l2 + r3.Dot(r2, r3v)*l1

	return 2 * math.Atan2(num, den)
}

// ClosestPointOnTriangle returns the point of triangle (a,b,c) closest to p
// (Voronoi-region walk; Ericson, Real-Time Collision Detection §5.1.5).
func ClosestPointOnTriangle(p, a, b, c r3.Vec) r3.Vec {
	ab := r3.Sub(b, a)
	ac := r3.Sub(c, a)
	ap := r3.Sub(p, a)
	d1, d2 := r3.Dot(ab, ap), r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := r3.Sub(p, b)
	d3, d4 := r3.Dot(ab, bp), r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return r3.Add(a, r3.Scale(d1/(d1-d3), ab))
	}

	cp := r3.Sub(p, c)
	d5, d6 := r3.Dot(ab, cp), r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return r3.Add(a, r3.Scale(d2/(d2-d6), ac))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return r3.Add(b, r3.Scale(w, r3.Sub(c, b)))
	}

	denom := 1 / (va + vb + vc)
	v, w := vb*denom, vc*denom

	return r3.Add(a, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac)))
}

// QuadPoint is a barycentric integration node with a weight summing to 1 per triangle.
type QuadPoint struct {
	L1, L2, L3 float64
	W          float64
}

// Point maps the barycentric node onto triangle (a,b,c).
func (q QuadPoint) Point(a, b, c r3.Vec) r3.Vec {
	return r3.Add(r3.Scale(q.L1, a), r3.Add(r3.Scale(q.L2, b), r3.Scale(q.L3, c)))
}

var centroidRule = []QuadPoint{{1.0 / 3, 1.0 / 3, 1.0 / 3, 1}}

// Dunavant degree-5, 7-point rule.
var gauss7Rule = func() []QuadPoint {
	const (
		a1, b1, w1 = 0.059715871789770, 0.470142064105115, 0.132394152788506
		a2, b2, w2 = 0.797426985353087, 0.101286507323456, 0.125939180544827
	)

	return []QuadPoint{
		{1.0 / 3, 1.0 / 3, 1.0 / 3, 0.225},
		{a1, b1, b1, w1}, {b1, a1, b1, w1}, {b1, b1, a1, w1},
		{a2, b2, b2, w2}, {b2, a2, b2, w2}, {b2, b2, a2, w2},
	}
}()

// Quadrature returns the triangle rule: 7-point Gauss when accurate, centroid otherwise.
// The returned slice is shared; callers must not modify it.
func Quadrature(accurate bool) []QuadPoint {
	if accurate {
		return gauss7Rule
	}

	return centroidRule
}
