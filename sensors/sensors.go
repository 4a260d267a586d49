// Package sensors describes MEG coils and EEG electrodes and brings them into
// head coordinates.
//
// Rows of the gain matrix follow Array order: every coil, then every
// electrode.
package sensors

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/leadfield/geometry"
	"github.com/katalvlaran/leadfield/transform"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrBadSensor indicates a coil or electrode with unusable geometry.
	ErrBadSensor = errors.New("sensors: invalid sensor definition")

	// ErrNoSensors is returned when the selection leaves no sensor at all.
	ErrNoSensors = errors.New("sensors: no sensors selected")
)

// Kind distinguishes MEG and EEG rows.
type Kind int

const (
	KindMEG Kind = iota + 1
	KindEEG
)

func (k Kind) String() string {
	switch k {
	case KindMEG:
		return "MEG"
	case KindEEG:
		return "EEG"
	default:
		return "unknown"
	}
}

// Unit returns the physical unit of a gain entry for this kind.
func (k Kind) Unit() string {
	switch k {
	case KindMEG:
		return "T/(A·m)"
	case KindEEG:
		return "V/(A·m)"
	default:
		return ""
	}
}

// IntegrationPoint is one flux-integration node of a coil.
// The coil output is Σ Weight · (B(Pos) · Dir).
type IntegrationPoint struct {
	Pos    r3.Vec
	Dir    r3.Vec // unit
	Weight float64
}

// Coil is a MEG sensor. Accurate integration points are optional and fall
// back to Points.
type Coil struct {
	Name     string
	Points   []IntegrationPoint
	Accurate []IntegrationPoint
}

// Integration returns the node set for the chosen precision.
func (c Coil) Integration(accurate bool) []IntegrationPoint {
	if accurate && len(c.Accurate) > 0 {
		return c.Accurate
	}

	return c.Points
}

// Electrode is an EEG sensor.
type Electrode struct {
	Name string
	Pos  r3.Vec
}

// Array is the ordered sensor set of one measurement.
type Array struct {
	Name           string
	CoilFrame      transform.Frame // usually device
	Coils          []Coil
	ElectrodeFrame transform.Frame // usually head
	Electrodes     []Electrode
	DevHead        *transform.Rigid // device→head registration, if any
}

// NumMEG returns the coil count.
func (a Array) NumMEG() int { return len(a.Coils) }

// NumEEG returns the electrode count.
func (a Array) NumEEG() int { return len(a.Electrodes) }

// Select keeps only the requested modalities.
//
// Errors:
//   - ErrNoSensors when the selection is empty.
func (a Array) Select(meg, eeg bool) (Array, error) {
	out := Array{Name: a.Name, CoilFrame: a.CoilFrame, ElectrodeFrame: a.ElectrodeFrame, DevHead: a.DevHead}
	if meg {
		out.Coils = a.Coils
	}
	if eeg {
		out.Electrodes = a.Electrodes
	}
	if len(out.Coils)+len(out.Electrodes) == 0 {
		return Array{}, fmt.Errorf("sensors %q (meg=%t eeg=%t): %w", a.Name, meg, eeg, ErrNoSensors)
	}

	return out, nil
}

// Validate checks every coil and electrode for finite, usable geometry.
func (a Array) Validate() error {
	for i, c := range a.Coils {
		if len(c.Points) == 0 {
			return fmt.Errorf("coil %d (%s): no integration points: %w", i, c.Name, ErrBadSensor)
		}
		for _, set := range [][]IntegrationPoint{c.Points, c.Accurate} {
			for _, p := range set {
				if !geometry.IsFinite(p.Pos) || !geometry.IsFinite(p.Dir) || math.IsNaN(p.Weight) || math.IsInf(p.Weight, 0) {
					return fmt.Errorf("coil %d (%s): non-finite integration point: %w", i, c.Name, ErrBadSensor)
				}
				if r3.Norm(p.Dir) == 0 {
					return fmt.Errorf("coil %d (%s): zero direction: %w", i, c.Name, ErrBadSensor)
				}
			}
		}
	}
	for i, e := range a.Electrodes {
		if !geometry.IsFinite(e.Pos) {
			return fmt.Errorf("electrode %d (%s): non-finite position: %w", i, e.Name, ErrBadSensor)
		}
	}

	return nil
}

// ToHead maps coils and electrodes into head coordinates using set, with
// the array's own DevHead taking precedence over set.DevHead for coils.
//
// Errors:
//   - *transform.LoadError when a required transform is missing.
func (a Array) ToHead(set transform.Set) (Array, error) {
	if a.DevHead != nil {
		set = transform.NewSet(set.MRIHead, a.DevHead)
	}
	out := Array{Name: a.Name, CoilFrame: transform.FrameHead, ElectrodeFrame: transform.FrameHead, DevHead: a.DevHead}

	if len(a.Coils) > 0 {
		r, err := set.ToHead(a.CoilFrame)
		if err != nil {
			return Array{}, fmt.Errorf("sensors %q: coils: %w", a.Name, err)
		}
		out.Coils = make([]Coil, len(a.Coils))
		for i, c := range a.Coils {
			out.Coils[i] = Coil{
				Name:     c.Name,
				Points:   mapPoints(r, c.Points),
				Accurate: mapPoints(r, c.Accurate),
			}
		}
	}

	if len(a.Electrodes) > 0 {
		r, err := set.ToHead(a.ElectrodeFrame)
		if err != nil {
			return Array{}, fmt.Errorf("sensors %q: electrodes: %w", a.Name, err)
		}
		out.Electrodes = make([]Electrode, len(a.Electrodes))
		for i, e := range a.Electrodes {
			out.Electrodes[i] = Electrode{Name: e.Name, Pos: r.Apply(e.Pos)}
		}
	}

	return out, nil
}

func mapPoints(r transform.Rigid, in []IntegrationPoint) []IntegrationPoint {
	if len(in) == 0 {
		return nil
	}
	out := make([]IntegrationPoint, len(in))
	for i, p := range in {
		out[i] = IntegrationPoint{Pos: r.Apply(p.Pos), Dir: r3.Unit(r.ApplyVector(p.Dir)), Weight: p.Weight}
	}

	return out
}

// Names returns sensor names in row order (coils, then electrodes).
func (a Array) Names() []string {
	out := make([]string, 0, len(a.Coils)+len(a.Electrodes))
	for _, c := range a.Coils {
		out = append(out, c.Name)
	}
	for _, e := range a.Electrodes {
		out = append(out, e.Name)
	}

	return out
}

// Kinds returns the per-row sensor kind.
func (a Array) Kinds() []Kind {
	out := make([]Kind, 0, len(a.Coils)+len(a.Electrodes))
	for range a.Coils {
		out = append(out, KindMEG)
	}
	for range a.Electrodes {
		out = append(out, KindEEG)
	}

	return out
}

// PointMagnetometer builds a single-point coil measuring the field along dir.
func PointMagnetometer(name string, pos, dir r3.Vec) Coil {
	return Coil{Name: name, Points: []IntegrationPoint{{Pos: pos, Dir: r3.Unit(dir), Weight: 1}}}
}

// PlanarGradiometer builds a two-point coil: (B(pos+½b·u) − B(pos−½b·u))/b
// along dir, with u the baseline direction.
func PlanarGradiometer(name string, pos, dir, baselineDir r3.Vec, baseline float64) Coil {
	u := r3.Scale(baseline/2, r3.Unit(baselineDir))
	d := r3.Unit(dir)

	return Coil{Name: name, Points: []IntegrationPoint{
		{Pos: r3.Add(pos, u), Dir: d, Weight: 1 / baseline},
		{Pos: r3.Sub(pos, u), Dir: d, Weight: -1 / baseline},
	}}
}

// SquareMagnetometer is a flat square loop of the given side: one centre
// node for normal precision, four quarter-point nodes for accurate mode.
func SquareMagnetometer(name string, pos, dir r3.Vec, side float64) Coil {
	n := r3.Unit(dir)
	e1 := perpendicular(n)
	e2 := r3.Cross(n, e1)
	q := side / 4

	c := Coil{Name: name, Points: []IntegrationPoint{{Pos: pos, Dir: n, Weight: 1}}}
	for _, s := range [][2]float64{{1, 1}, {-1, 1}, {-1, -1}, {1, -1}} {
		p := r3.Add(pos, r3.Add(r3.Scale(s[0]*q, e1), r3.Scale(s[1]*q, e2)))
		c.Accurate = append(c.Accurate, IntegrationPoint{Pos: p, Dir: n, Weight: 0.25})
	}

	return c
}

// perpendicular returns a unit vector orthogonal to the unit vector n.
func perpendicular(n r3.Vec) r3.Vec {
	axis := r3.Vec{X: 1}
	if math.Abs(n.X) > 0.9 {
		axis = r3.Vec{Y: 1}
	}

	return r3.Unit(r3.Cross(n, axis))
}
