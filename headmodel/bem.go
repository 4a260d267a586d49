// SPDX-License-Identifier: MIT
// Package: headmodel
//
// bem.go - boundary-element variant.
//
// Formulation: constant collocation at triangle centroids of the Geselowitz
// double-layer equation, with Hämäläinen–Sarvas deflation of the outer
// surface. With N triangles over all surfaces:
//
//	A = I − C + D,
//	C_ij = (σ_j⁻ − σ_j⁺) Ω_ij / (2π (σ_i⁻ + σ_i⁺)),  Ω_ii = 0,
//	D_ij = a_j / A_outer  for j on the outer surface,
//	g_i  = 2 / (σ_i⁻ + σ_i⁺),
//
// so that the surface potentials are V = A⁻¹ diag(g) v0 with v0 the
// unit-conductivity infinite-medium potential of the source. Only the
// sensor-facing transfer matrices
//
//	T_eeg = E A⁻¹ diag(g),  T_meg = M A⁻¹ diag(g)
//
// are kept; they are obtained with transposed LU solves so that A⁻¹ is never
// formed.
//
// Complexity: O(N²) assembly, O(N³) factorization, O(S·N) per source.

package headmodel

import (
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/leadfield/geometry"
	"github.com/katalvlaran/leadfield/sensors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

type bemSolver struct {
	geom     Geometry
	array    sensors.Array
	accurate bool
	opts     Options
}

// element is one flattened boundary triangle.
type element struct {
	centroid r3.Vec
	normal   r3.Vec
	area     float64
	inside   float64 // σ⁻
	outside  float64 // σ⁺
	nodes    []r3.Vec
	weights  []float64
}

type bemState struct {
	elements []element
	coils    [][]sensors.IntegrationPoint
	tMEG     *mat.Dense // nMEG × N, nil without coils
	tEEG     *mat.Dense // nEEG × N, nil without electrodes
	nMEG     int
	nEEG     int
}

func (*bemState) state() {}

func (*bemState) Method() Method { return MethodBEM }
func (s *bemState) NumMEG() int  { return s.nMEG }
func (s *bemState) NumEEG() int  { return s.nEEG }

// Solve validates the surfaces, factorizes the deflated system and builds the
// transfer matrices.
func (b *bemSolver) Solve(ctx context.Context) (State, error) {
	if err := b.geom.Validate(b.opts.OrientationTol); err != nil {
		return nil, err
	}

	elems, outerCount, outerArea := b.flatten()
	n := len(elems)

	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		ei := elems[i]
		row := a.RawRowView(i)
		scale := 1 / (2 * math.Pi * (ei.inside + ei.outside))
		for j := 0; j < n; j++ {
			ej := elems[j]
			var omega float64
			if i != j {
				c1, c2, c3 := ej.nodes[0], ej.nodes[1], ej.nodes[2]
				omega = geometry.SolidAngle(ei.centroid, c1, c2, c3)
			}
			row[j] = -(ej.inside - ej.outside) * omega * scale
			if j < outerCount {
				row[j] += ej.area / outerArea
			}
		}
		row[i] += 1
	}

	var lu mat.LU
	lu.Factorize(a)
	if rc := 1 / lu.Cond(); math.IsNaN(rc) || rc < b.opts.Tolerance {
		return nil, fmt.Errorf("BEM system reciprocal condition %.3g < %.3g: %w", rc, b.opts.Tolerance, ErrIllConditionedGeometry)
	}

	g := make([]float64, n)
	for i, e := range elems {
		g[i] = 2 / (e.inside + e.outside)
	}

	st := &bemState{elements: elems, nMEG: b.array.NumMEG(), nEEG: b.array.NumEEG()}

	if st.nEEG > 0 {
		et := b.electrodeWeights(elems[:outerCount])
		t, err := transfer(&lu, et, n, g)
		if err != nil {
			return nil, err
		}
		st.tEEG = t
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if st.nMEG > 0 {
		st.coils = make([][]sensors.IntegrationPoint, st.nMEG)
		for c, coil := range b.array.Coils {
			st.coils[c] = coil.Integration(b.accurate)
		}
		mt := magneticKernel(elems, st.coils)
		t, err := transfer(&lu, mt, n, g)
		if err != nil {
			return nil, err
		}
		st.tMEG = t
	}

	return st, nil
}

// flatten lists the triangles of all surfaces, outer surface first, and
// returns the outer triangle count and area.
func (b *bemSolver) flatten() ([]element, int, float64) {
	quad := geometry.Quadrature(b.accurate)
	var elems []element
	for k, s := range b.geom.Surfaces {
		outside := 0.0
		if k > 0 {
			outside = b.geom.Sigma[k-1]
		}
		for t := range s.Triangles {
			c1, c2, c3 := s.Corners(t)
			e := element{
				centroid: s.Centroids[t],
				normal:   s.Normals[t],
				area:     s.Areas[t],
				inside:   b.geom.Sigma[k],
				outside:  outside,
				nodes:    []r3.Vec{c1, c2, c3},
			}
			for _, q := range quad {
				e.nodes = append(e.nodes, q.Point(c1, c2, c3))
				e.weights = append(e.weights, q.W)
			}
			elems = append(elems, e)
		}
	}
	outer := b.geom.Surfaces[0]

	return elems, outer.NumTriangles(), outer.TotalArea()
}

// quadNodes returns the integration nodes of e (after its three corners).
func (e element) quadNodes() []r3.Vec { return e.nodes[3:] }

// electrodeWeights builds Eᵀ (N × nEEG): electrode e reads the potential of
// its nearest scalp triangle, or, in accurate mode, an inverse-distance blend
// of that triangle and its vertex neighbours around the projected point.
func (b *bemSolver) electrodeWeights(scalp []element) *mat.Dense {
	n := 0
	for _, s := range b.geom.Surfaces {
		n += s.NumTriangles()
	}
	surf := b.geom.Surfaces[0]
	et := mat.NewDense(n, b.array.NumEEG(), nil)

	var neighbours [][]int
	if b.accurate {
		neighbours = surf.VertexTriangles()
	}
	for e, el := range b.array.Electrodes {
		tri, q, _ := surf.Nearest(el.Pos)
		if !b.accurate {
			et.Set(tri, e, 1)
			continue
		}

		seen := map[int]bool{}
		var idx []int
		for _, v := range surf.Triangles[tri] {
			for _, t := range neighbours[v] {
				if !seen[t] {
					seen[t] = true
					idx = append(idx, t)
				}
			}
		}
		const eps = 1e-9
		var total float64
		w := make([]float64, len(idx))
		for k, t := range idx {
			w[k] = 1 / (r3.Norm(r3.Sub(q, scalp[t].centroid)) + eps)
			total += w[k]
		}
		for k, t := range idx {
			et.Set(t, e, w[k]/total)
		}
	}

	return et
}

// magneticKernel builds Mᵀ (N × nMEG): the secondary-field contribution of a
// unit potential on triangle j to coil c,
//
//	M_cj = −(μ0/4π)(σ_j⁻ − σ_j⁺) Σ_k w_k dir_k · ∫_j n_j × (r_k − r')/|r_k − r'|³ dS'.
func magneticKernel(elems []element, coils [][]sensors.IntegrationPoint) *mat.Dense {
	mt := mat.NewDense(len(elems), len(coils), nil)
	for j, e := range elems {
		scale := -mu0Over4Pi * (e.inside - e.outside) * e.area
		nodes := e.quadNodes()
		for c, pts := range coils {
			var sum float64
			for _, p := range pts {
				var tri float64
				for q, r := range nodes {
					d := r3.Sub(p.Pos, r)
					dn := r3.Norm(d)
					tri += e.weights[q] * r3.Dot(p.Dir, r3.Cross(e.normal, d)) / (dn * dn * dn)
				}
				sum += p.Weight * tri
			}
			mt.Set(j, c, scale*sum)
		}
	}

	return mt
}

// transfer solves Aᵀ X = Bᵀ and returns X ᵀ diag(g), i.e. B A⁻¹ diag(g).
func transfer(lu *mat.LU, bt *mat.Dense, n int, g []float64) (*mat.Dense, error) {
	var x mat.Dense
	if err := lu.SolveTo(&x, true, bt); err != nil {
		return nil, fmt.Errorf("BEM transfer solve: %w: %w", ErrIllConditionedGeometry, err)
	}
	_, rows := bt.Dims()
	t := mat.NewDense(rows, n, nil)
	for i := 0; i < n; i++ {
		xi := x.RawRowView(i)
		for r := 0; r < rows; r++ {
			t.Set(r, i, xi[r]*g[i])
		}
	}

	return t, nil
}

// Dipole implements State.
func (s *bemState) Dipole(rd r3.Vec, dst [3][]float64) error {
	if err := checkDst(dst, s.nMEG+s.nEEG); err != nil {
		return err
	}

	n := len(s.elements)
	v0 := mat.NewDense(n, 3, nil)
	for i, e := range s.elements {
		var k r3.Vec
		for q, p := range e.quadNodes() {
			k = r3.Add(k, r3.Scale(e.weights[q], potentialKernel(p, rd)))
		}
		v0.Set(i, 0, k.X)
		v0.Set(i, 1, k.Y)
		v0.Set(i, 2, k.Z)
	}

	if s.nMEG > 0 {
		var out mat.Dense
		out.Mul(s.tMEG, v0)
		for c, pts := range s.coils {
			b0 := integrate(pts, func(pos, dir r3.Vec) r3.Vec { return primaryFieldKernel(pos, rd, dir) })
			dst[0][c] = out.At(c, 0) + b0.X
			dst[1][c] = out.At(c, 1) + b0.Y
			dst[2][c] = out.At(c, 2) + b0.Z
		}
	}
	if s.nEEG > 0 {
		var out mat.Dense
		out.Mul(s.tEEG, v0)
		for e := 0; e < s.nEEG; e++ {
			for a := 0; a < 3; a++ {
				dst[a][s.nMEG+e] = out.At(e, a)
			}
		}
	}

	return nil
}
