// Package sourcespace holds the discretized source space and the filter that
// restricts it before lead fields are computed.
//
// Filtering is stable (input order is preserved) and idempotent for a fixed
// boundary and threshold: a point kept once is kept again.
package sourcespace

import (
	"fmt"

	"github.com/katalvlaran/leadfield/geometry"
	"github.com/katalvlaran/leadfield/transform"
	"gonum.org/v1/gonum/spatial/r3"
)

// Point is one candidate source location.
type Point struct {
	Index    int    `json:"index"`    // vertex index in the original space, preserved by filtering
	Pos      r3.Vec `json:"pos"`      // metres
	Normal   r3.Vec `json:"normal"`   // unit surface normal; zero when unknown
	Label    string `json:"label"`    // anatomical label, may be empty
	Inactive bool   `json:"inactive"` // not in use in the decimated space (kept only with do_all)
}

// Space is an ordered set of source points in one frame.
type Space struct {
	Name   string
	Frame  transform.Frame
	Points []Point
}

// Len returns the number of points.
func (s Space) Len() int { return len(s.Points) }

// Validate rejects non-finite positions or normals.
func (s Space) Validate() error {
	for i, p := range s.Points {
		if !geometry.IsFinite(p.Pos) || !geometry.IsFinite(p.Normal) {
			return fmt.Errorf("sourcespace %q: point %d (vertex %d): %w", s.Name, i, p.Index, geometry.ErrNonFinite)
		}
	}

	return nil
}

// Transformed maps positions and normals through r, which must start in s.Frame.
func (s Space) Transformed(r transform.Rigid) (Space, error) {
	if r.From != s.Frame {
		return Space{}, fmt.Errorf("sourcespace %q in %s, transform from %s: %w", s.Name, s.Frame, r.From, transform.ErrFrameMismatch)
	}
	out := Space{Name: s.Name, Frame: r.To, Points: make([]Point, len(s.Points))}
	for i, p := range s.Points {
		p.Pos = r.Apply(p.Pos)
		p.Normal = r.ApplyVector(p.Normal)
		out.Points[i] = p
	}

	return out, nil
}

// Indices returns the original vertex indices in order.
func (s Space) Indices() []int {
	out := make([]int, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Index
	}

	return out
}
