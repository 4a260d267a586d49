// Package geometry holds the triangulated-surface primitives shared by the
// head-model solver and the source-space filter.
//
// What is inside:
//
//   - Surface: vertices + triangles with cached centroids, unit normals and
//     areas; closedness, degeneracy and orientation checks.
//   - SolidAngle: the Van Oosterom–Strackee solid angle of a triangle seen
//     from a point; Surface.Contains uses the total solid angle (≈4π inside).
//   - CheckSelfIntersection / CheckDisjoint: crossing triangles within one
//     surface or between two, found by a bounding-box sweep.
//   - ClosestPointOnTriangle / Surface.Nearest: exact point-to-mesh distance.
//   - Quadrature: centroid and 7-point Gauss rules on a triangle.
//   - Sphere: tessellated spheres grown from a Platonic base solid by
//     repeated midpoint subdivision (test fixtures and sphere BEM meshes).
//
// Vectors are gonum's r3.Vec; all lengths are metres.
package geometry
