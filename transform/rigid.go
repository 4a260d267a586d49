// SPDX-License-Identifier: MIT
// Package transform
//
// rigid.go - rotation + translation between two tagged frames.
//
// Contract:
//   • p_to = R·p_from + t.
//   • Rigid is a value type; every method returns a new value.
//   • Compose(a, b) = "a then b" and requires a.To == b.From.
//   • Identity is a valid instance; Inverse(r) = (Rᵀ, −Rᵀt).
//
// Complexity: all operations O(1).

package transform

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// RigidTol bounds ‖RᵀR − I‖ (max-abs) and |det R − 1| in Validate.
const RigidTol = 1e-6

// Rigid maps points from frame From to frame To.
type Rigid struct {
	From, To Frame
	rot      [3][3]float64
	move     r3.Vec
}

// Identity returns the identity transform between two frames.
func Identity(from, to Frame) Rigid {
	return Rigid{
		From: from,
		To:   to,
		rot:  [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	}
}

// New builds and validates a rigid transform.
//
// Errors:
//   - ErrNotRigid when rot is not orthonormal with det +1 (within RigidTol) or
//     any entry is non-finite.
func New(from, to Frame, rot [3][3]float64, move r3.Vec) (Rigid, error) {
	r := Rigid{From: from, To: to, rot: rot, move: move}
	if err := r.Validate(); err != nil {
		return Rigid{}, err
	}

	return r, nil
}

// Rotation returns a copy of the rotation block.
func (r Rigid) Rotation() [3][3]float64 { return r.rot }

// Translation returns the translation vector.
func (r Rigid) Translation() r3.Vec { return r.move }

// Validate checks finiteness and orthonormality using gonum.
func (r Rigid) Validate() error {
	data := make([]float64, 0, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := r.rot[i][j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("Validate: R[%d][%d]=%g: %w", i, j, v, ErrNotRigid)
			}
			data = append(data, v)
		}
	}
	for _, v := range []float64{r.move.X, r.move.Y, r.move.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("Validate: translation: %w", ErrNotRigid)
		}
	}

	R := mat.NewDense(3, 3, data)
	var rtr mat.Dense
	rtr.Mul(R.T(), R)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			if math.Abs(rtr.At(i, j)-want) > RigidTol {
				return fmt.Errorf("Validate: RᵀR[%d][%d]=%g: %w", i, j, rtr.At(i, j), ErrNotRigid)
			}
		}
	}
	if d := mat.Det(R); math.Abs(d-1) > RigidTol {
		return fmt.Errorf("Validate: det=%g: %w", d, ErrNotRigid)
	}

	return nil
}

// Apply maps a point.
func (r Rigid) Apply(p r3.Vec) r3.Vec {
	return r3.Add(r.ApplyVector(p), r.move)
}

// ApplyVector rotates a direction (no translation).
func (r Rigid) ApplyVector(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: r.rot[0][0]*v.X + r.rot[0][1]*v.Y + r.rot[0][2]*v.Z,
		Y: r.rot[1][0]*v.X + r.rot[1][1]*v.Y + r.rot[1][2]*v.Z,
		Z: r.rot[2][0]*v.X + r.rot[2][1]*v.Y + r.rot[2][2]*v.Z,
	}
}

// Inverse returns the transform To → From.
func (r Rigid) Inverse() Rigid {
	var rt [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rt[i][j] = r.rot[j][i]
		}
	}
	inv := Rigid{From: r.To, To: r.From, rot: rt}
	inv.move = r3.Scale(-1, inv.ApplyVector(r.move))

	return inv
}

// Compose returns "r then next": From = r.From, To = next.To.
//
// Errors:
//   - ErrFrameMismatch when r.To != next.From.
func (r Rigid) Compose(next Rigid) (Rigid, error) {
	if r.To != next.From {
		return Rigid{}, fmt.Errorf("Compose(%s→%s, %s→%s): %w", r.From, r.To, next.From, next.To, ErrFrameMismatch)
	}
	out := Rigid{From: r.From, To: next.To}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.rot[i][j] = next.rot[i][0]*r.rot[0][j] + next.rot[i][1]*r.rot[1][j] + next.rot[i][2]*r.rot[2][j]
		}
	}
	out.move = next.Apply(r.move)

	return out, nil
}

// ApproxEqual compares frames exactly and numbers within tol (max-abs).
func (r Rigid) ApproxEqual(o Rigid, tol float64) bool {
	if r.From != o.From || r.To != o.To {
		return false
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(r.rot[i][j]-o.rot[i][j]) > tol {
				return false
			}
		}
	}

	return math.Abs(r.move.X-o.move.X) <= tol &&
		math.Abs(r.move.Y-o.move.Y) <= tol &&
		math.Abs(r.move.Z-o.move.Z) <= tol
}

// IsIdentity reports whether the numeric part is the identity within tol.
func (r Rigid) IsIdentity(tol float64) bool {
	return Identity(r.From, r.To).ApproxEqual(r, tol)
}

// RotationZ returns a rotation about +z by angle theta (radians).
// Handy for registrations that differ by a yaw only.
func RotationZ(theta float64) [3][3]float64 {
	c, s := math.Cos(theta), math.Sin(theta)

	return [3][3]float64{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}
}
