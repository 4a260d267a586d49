// SPDX-License-Identifier: MIT
// Package: geometry
//
// intersect.go - triangle/triangle crossing tests within and between surfaces.
//
// Contract:
//   • Two triangles cross when an edge of one pierces the interior of the
//     other. Touching at a shared vertex or along a shared edge is not a
//     crossing, so neighbouring triangles of a mesh never report.
//   • Broad phase is sweep-and-prune over axis-aligned boxes sorted by min X.
//
// Complexity:
//   • O(T log T) for the sort plus the number of X-overlapping box pairs,
//     which stays near-linear for a well-shaped closed mesh.

package geometry

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// crossEps is the relative margin by which a crossing must lie inside both
// the piercing edge and the pierced triangle.
const crossEps = 1e-9

type triBox struct {
	surf     int
	tri      int
	min, max r3.Vec
}

func boxesOf(s *Surface, surf int) []triBox {
	out := make([]triBox, len(s.Triangles))
	for t := range s.Triangles {
		a, b, c := s.Corners(t)
		out[t] = triBox{
			surf: surf,
			tri:  t,
			min:  r3.Vec{X: min(a.X, b.X, c.X), Y: min(a.Y, b.Y, c.Y), Z: min(a.Z, b.Z, c.Z)},
			max:  r3.Vec{X: max(a.X, b.X, c.X), Y: max(a.Y, b.Y, c.Y), Z: max(a.Z, b.Z, c.Z)},
		}
	}

	return out
}

// sweep calls visit for every pair of boxes that overlap on all three axes.
// visit returns false to stop early.
func sweep(boxes []triBox, visit func(p, q triBox) bool) {
	sort.SliceStable(boxes, func(i, j int) bool { return boxes[i].min.X < boxes[j].min.X })
	for i, p := range boxes {
		for _, q := range boxes[i+1:] {
			if q.min.X > p.max.X {
				break
			}
			if q.min.Y > p.max.Y || p.min.Y > q.max.Y || q.min.Z > p.max.Z || p.min.Z > q.max.Z {
				continue
			}
			if !visit(p, q) {
				return
			}
		}
	}
}

// CheckSelfIntersection reports the first pair of triangles of s whose
// interiors cross.
//
// Errors:
//   - ErrSelfIntersection.
func (s *Surface) CheckSelfIntersection() error {
	var err error
	sweep(boxesOf(s, 0), func(p, q triBox) bool {
		if trianglesCross(s, p.tri, s, q.tri) {
			err = fmt.Errorf("surface %s: triangles %d and %d: %w", s.ID, p.tri, q.tri, ErrSelfIntersection)
			return false
		}
		return true
	})

	return err
}

// CheckDisjoint reports the first triangle of a that crosses a triangle of b.
//
// Errors:
//   - ErrSurfacesIntersect.
func CheckDisjoint(a, b *Surface) error {
	boxes := append(boxesOf(a, 0), boxesOf(b, 1)...)
	var err error
	sweep(boxes, func(p, q triBox) bool {
		if p.surf == q.surf {
			return true
		}
		if p.surf == 1 {
			p, q = q, p
		}
		if trianglesCross(a, p.tri, b, q.tri) {
			err = fmt.Errorf("surface %s triangle %d and surface %s triangle %d: %w", a.ID, p.tri, b.ID, q.tri, ErrSurfacesIntersect)
			return false
		}
		return true
	})

	return err
}

func trianglesCross(s *Surface, i int, u *Surface, j int) bool {
	a0, a1, a2 := s.Corners(i)
	b0, b1, b2 := u.Corners(j)
	for _, e := range [3][2]r3.Vec{{a0, a1}, {a1, a2}, {a2, a0}} {
		if segmentPierces(e[0], e[1], b0, b1, b2) {
			return true
		}
	}
	for _, e := range [3][2]r3.Vec{{b0, b1}, {b1, b2}, {b2, b0}} {
		if segmentPierces(e[0], e[1], a0, a1, a2) {
			return true
		}
	}

	return false
}

// segmentPierces reports whether the open segment p→q meets the open
// triangle (a, b, c). Coplanar configurations never report.
func segmentPierces(p, q, a, b, c r3.Vec) bool {
	dir := r3.Sub(q, p)
	e1, e2 := r3.Sub(b, a), r3.Sub(c, a)
	h := r3.Cross(dir, e2)
	det := r3.Dot(e1, h)
	if math.Abs(det) <= 1e-12*r3.Norm(dir)*r3.Norm(e1)*r3.Norm(e2) {
		return false
	}
	inv := 1 / det
	s := r3.Sub(p, a)
	bu := inv * r3.Dot(s, h)
	if bu <= crossEps || bu >= 1-crossEps {
		return false
	}
	k := r3.Cross(s, e1)
	bv := inv * r3.Dot(dir, k)
	if bv <= crossEps || bu+bv >= 1-crossEps {
		return false
	}
	t := inv * r3.Dot(e2, k)

	return t > crossEps && t < 1-crossEps
}
