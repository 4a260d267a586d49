// SPDX-License-Identifier: MIT
// Package: geometry
//
// surface.go - triangulated closed surfaces.
//
// Contract:
//   • Triangles are index triples into Vertices, wound counter-clockwise when
//     seen from outside (outward normals).
//   • NewSurface validates indices and finiteness and caches per-triangle
//     centroid, unit normal and area; it does not check closedness
//     (CheckClosed) so that open patches can still be inspected.
//
// Complexity:
//   • NewSurface O(V+T); CheckClosed O(T) expected (map of edges);
//     SolidAngleFrom / Nearest O(T) per query point.

package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DegenerateAreaTol is the area (m²) below which a triangle is degenerate.
const DegenerateAreaTol = 1e-14

// Surface is an immutable triangulated surface with cached per-triangle data.
type Surface struct {
	ID        string
	Vertices  []r3.Vec
	Triangles [][3]int

	Centroids []r3.Vec
	Normals   []r3.Vec // unit, outward for a correctly wound surface
	Areas     []float64
}

// NewSurface validates the raw mesh and computes the cached quantities.
//
// Errors:
//   - ErrEmptySurface, ErrBadIndex, ErrNonFinite.
//   - Degenerate triangles are not rejected here (see CheckDegenerate).
func NewSurface(id string, vertices []r3.Vec, triangles [][3]int) (*Surface, error) {
	if len(vertices) == 0 || len(triangles) == 0 {
		return nil, fmt.Errorf("NewSurface(%s): %w", id, ErrEmptySurface)
	}
	for i, v := range vertices {
		if !IsFinite(v) {
			return nil, fmt.Errorf("NewSurface(%s): vertex %d: %w", id, i, ErrNonFinite)
		}
	}

	s := &Surface{
		ID:        id,
		Vertices:  append([]r3.Vec(nil), vertices...),
		Triangles: append([][3]int(nil), triangles...),
		Centroids: make([]r3.Vec, len(triangles)),
		Normals:   make([]r3.Vec, len(triangles)),
		Areas:     make([]float64, len(triangles)),
	}
	nv := len(vertices)
	var a, b, c, n r3.Vec
	var ln float64
	for t, tri := range triangles {
		for _, k := range tri {
			if k < 0 || k >= nv {
				return nil, fmt.Errorf("NewSurface(%s): triangle %d: %w", id, t, ErrBadIndex)
			}
		}
		a, b, c = vertices[tri[0]], vertices[tri[1]], vertices[tri[2]]
		n = r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		ln = r3.Norm(n)
		s.Areas[t] = 0.5 * ln
		if ln > 0 {
			s.Normals[t] = r3.Scale(1/ln, n)
		}
		s.Centroids[t] = r3.Scale(1.0/3.0, r3.Add(a, r3.Add(b, c)))
	}

	return s, nil
}

// NumTriangles returns the triangle count.
func (s *Surface) NumTriangles() int { return len(s.Triangles) }

// Corners returns the three vertices of triangle t.
func (s *Surface) Corners(t int) (a, b, c r3.Vec) {
	tri := s.Triangles[t]

	return s.Vertices[tri[0]], s.Vertices[tri[1]], s.Vertices[tri[2]]
}

// TotalArea sums the triangle areas.
func (s *Surface) TotalArea() float64 {
	var sum float64
	for _, a := range s.Areas {
		sum += a
	}

	return sum
}

// Centroid is the area-weighted centroid of the surface.
func (s *Surface) Centroid() r3.Vec {
	var c r3.Vec
	var w float64
	for t, a := range s.Areas {
		c = r3.Add(c, r3.Scale(a, s.Centroids[t]))
		w += a
	}
	if w == 0 {
		return c
	}

	return r3.Scale(1/w, c)
}

// Map returns a copy with every vertex passed through f (e.g. a rigid transform).
func (s *Surface) Map(f func(r3.Vec) r3.Vec) (*Surface, error) {
	vs := make([]r3.Vec, len(s.Vertices))
	for i, v := range s.Vertices {
		vs[i] = f(v)
	}

	return NewSurface(s.ID, vs, s.Triangles)
}

// CheckDegenerate reports the first triangle whose area is below DegenerateAreaTol.
func (s *Surface) CheckDegenerate() error {
	for t, a := range s.Areas {
		if a < DegenerateAreaTol {
			return fmt.Errorf("%s: triangle %d (area %g): %w", s.ID, t, a, ErrDegenerateTriangle)
		}
	}

	return nil
}

// CheckClosed verifies that every undirected edge is shared by exactly two
// triangles and that the two traverse it in opposite directions
// (consistent winding).
func (s *Surface) CheckClosed() error {
	type edge struct{ u, v int }
	undirected := make(map[edge]int, 3*len(s.Triangles)/2)
	directed := make(map[edge]struct{}, 3*len(s.Triangles))

	var u, v int
	for t, tri := range s.Triangles {
		for k := 0; k < 3; k++ {
			u, v = tri[k], tri[(k+1)%3]
			if _, dup := directed[edge{u, v}]; dup {
				return fmt.Errorf("%s: triangle %d edge %d-%d: %w", s.ID, t, u, v, ErrInconsistentOrientation)
			}
			directed[edge{u, v}] = struct{}{}
			if u > v {
				u, v = v, u
			}
			undirected[edge{u, v}]++
		}
	}
	for e, n := range undirected {
		if n != 2 {
			return fmt.Errorf("%s: edge %d-%d used by %d triangles: %w", s.ID, e.u, e.v, n, ErrOpenSurface)
		}
	}

	return nil
}

// SolidAngleFrom returns the total solid angle subtended by the surface at p.
// For a closed outward-wound surface it is ≈4π inside, ≈0 outside.
func (s *Surface) SolidAngleFrom(p r3.Vec) float64 {
	var sum float64
	var a, b, c r3.Vec
	for t := range s.Triangles {
		a, b, c = s.Corners(t)
		sum += SolidAngle(p, a, b, c)
	}

	return sum
}

// Contains reports whether p lies inside the closed surface.
func (s *Surface) Contains(p r3.Vec) bool {
	return math.Abs(s.SolidAngleFrom(p)) > 2*math.Pi
}

// Nearest returns the triangle closest to p, the closest point on it and the distance.
func (s *Surface) Nearest(p r3.Vec) (tri int, q r3.Vec, dist float64) {
	dist = math.Inf(1)
	var a, b, c, cand r3.Vec
	var d float64
	for t := range s.Triangles {
		a, b, c = s.Corners(t)
		cand = ClosestPointOnTriangle(p, a, b, c)
		d = r3.Norm(r3.Sub(p, cand))
		if d < dist {
			tri, q, dist = t, cand, d
		}
	}

	return tri, q, dist
}

// Distance is the unsigned distance from p to the surface.
func (s *Surface) Distance(p r3.Vec) float64 {
	_, _, d := s.Nearest(p)

	return d
}

// VertexTriangles returns, for each vertex, the triangles that use it.
func (s *Surface) VertexTriangles() [][]int {
	out := make([][]int, len(s.Vertices))
	for t, tri := range s.Triangles {
		for _, k := range tri {
			out[k] = append(out[k], t)
		}
	}

	return out
}
