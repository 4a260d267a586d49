// SPDX-License-Identifier: MIT
// Package geometry: sentinel error set.

package geometry

import "errors"

var (
	// ErrEmptySurface is returned when a surface has no vertices or triangles.
	ErrEmptySurface = errors.New("geometry: empty surface")

	// ErrBadIndex indicates a triangle refers to a vertex that does not exist.
	ErrBadIndex = errors.New("geometry: triangle vertex index out of range")

	// ErrDegenerateTriangle signals a triangle with (near) zero area.
	ErrDegenerateTriangle = errors.New("geometry: degenerate triangle")

	// ErrOpenSurface indicates an edge not shared by exactly two triangles.
	ErrOpenSurface = errors.New("geometry: surface is not closed")

	// ErrInconsistentOrientation indicates neighbouring triangles with opposite winding.
	ErrInconsistentOrientation = errors.New("geometry: inconsistent triangle orientation")

	// ErrNonFinite signals a NaN or ±Inf coordinate.
	ErrNonFinite = errors.New("geometry: non-finite coordinate")

	// ErrSelfIntersection indicates two triangles of one surface whose interiors cross.
	ErrSelfIntersection = errors.New("geometry: surface intersects itself")

	// ErrSurfacesIntersect indicates a triangle of one surface crossing another surface.
	ErrSurfacesIntersect = errors.New("geometry: surfaces intersect")

	// ErrBadSubdivision is returned for a negative subdivision count or non-positive radius.
	ErrBadSubdivision = errors.New("geometry: invalid sphere tessellation parameters")
)
