// SPDX-License-Identifier: MIT
// Package: geometry
//
// sphere.go - tessellated spheres grown from a Platonic base solid.
//
// Design:
//   • Single source of truth for the triangulated base solids (vertex
//     coordinates on the unit sphere and face lists).
//   • Each subdivision splits every triangle into four through edge
//     midpoints, re-projected onto the sphere; shared midpoints are cached
//     so the result stays a closed 2-manifold.
//   • Faces are re-wound outward after construction, so the face lists
//     below need not be consistently oriented.
//
// Determinism:
//   • Vertex and triangle order depend only on (base, subdivisions).
//
// Sizes: Icosahedron base gives V = 10·4^k + 2, T = 20·4^k;
// Octahedron base gives V = 4·4^k + 2, T = 8·4^k.

package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// BaseSolid enumerates the triangulated Platonic solids used as seeds.
type BaseSolid int

const (
	Octahedron  BaseSolid = iota // V=6,  T=8
	Icosahedron                  // V=12, T=20
)

// String provides a readable identifier for logs/errors.
func (b BaseSolid) String() string {
	switch b {
	case Octahedron:
		return "Octahedron"
	case Icosahedron:
		return "Icosahedron"
	default:
		return "Unknown"
	}
}

type baseMesh struct {
	vertices []r3.Vec
	faces    [][3]int
}

var baseSolids = map[BaseSolid]baseMesh{
	Octahedron: {
		vertices: []r3.Vec{
			{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
		},
		faces: [][3]int{
			{0, 2, 4}, {2, 1, 4}, {1, 3, 4}, {3, 0, 4},
			{2, 0, 5}, {1, 2, 5}, {3, 1, 5}, {0, 3, 5},
		},
	},
	Icosahedron: func() baseMesh {
		phi := (1 + math.Sqrt(5)) / 2
		raw := []r3.Vec{
			{X: -1, Y: phi}, {X: 1, Y: phi}, {X: -1, Y: -phi}, {X: 1, Y: -phi},
			{Y: -1, Z: phi}, {Y: 1, Z: phi}, {Y: -1, Z: -phi}, {Y: 1, Z: -phi},
			{X: phi, Z: -1}, {X: phi, Z: 1}, {X: -phi, Z: -1}, {X: -phi, Z: 1},
		}
		for i := range raw {
			raw[i] = r3.Unit(raw[i])
		}

		return baseMesh{
			vertices: raw,
			faces: [][3]int{
				{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
				{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
				{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
				{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
			},
		}
	}(),
}

// Sphere tessellates a sphere of the given radius around center.
//
// Errors:
//   - ErrBadSubdivision for radius <= 0, subdivisions < 0 or an unknown base.
//
// Complexity: O(T) with T the final triangle count.
func Sphere(id string, base BaseSolid, subdivisions int, center r3.Vec, radius float64) (*Surface, error) {
	seed, ok := baseSolids[base]
	if !ok || subdivisions < 0 || !(radius > 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("Sphere(%s, %d, r=%g): %w", base, subdivisions, radius, ErrBadSubdivision)
	}

	verts := append([]r3.Vec(nil), seed.vertices...)
	faces := append([][3]int(nil), seed.faces...)
	for k := 0; k < subdivisions; k++ {
		verts, faces = subdivide(verts, faces)
	}

	// Re-wind outward: unit-sphere normal must agree with the radial direction.
	var a, b, c r3.Vec
	for t, f := range faces {
		a, b, c = verts[f[0]], verts[f[1]], verts[f[2]]
		if r3.Dot(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)), r3.Add(a, r3.Add(b, c))) < 0 {
			faces[t] = [3]int{f[0], f[2], f[1]}
		}
	}

	out := make([]r3.Vec, len(verts))
	for i, v := range verts {
		out[i] = r3.Add(center, r3.Scale(radius, v))
	}

	return NewSurface(id, out, faces)
}

// subdivide splits each face into four, caching edge midpoints on the unit sphere.
func subdivide(verts []r3.Vec, faces [][3]int) ([]r3.Vec, [][3]int) {
	mid := make(map[[2]int]int, 3*len(faces)/2)
	midpoint := func(u, v int) int {
		key := [2]int{u, v}
		if u > v {
			key = [2]int{v, u}
		}
		if idx, ok := mid[key]; ok {
			return idx
		}
		verts = append(verts, r3.Unit(r3.Add(verts[u], verts[v])))
		mid[key] = len(verts) - 1

		return len(verts) - 1
	}

	next := make([][3]int, 0, 4*len(faces))
	for _, f := range faces {
		ab := midpoint(f[0], f[1])
		bc := midpoint(f[1], f[2])
		ca := midpoint(f[2], f[0])
		next = append(next,
			[3]int{f[0], ab, ca},
			[3]int{f[1], bc, ab},
			[3]int{f[2], ca, bc},
			[3]int{ab, bc, ca},
		)
	}

	return verts, next
}
