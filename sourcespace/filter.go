package sourcespace

import (
	"fmt"
	"math"

	"github.com/katalvlaran/leadfield/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// Boundary is the innermost conducting boundary the sources must lie inside.
type Boundary interface {
	// Locate returns the unsigned distance from p to the boundary and
	// whether p lies inside it.
	Locate(p r3.Vec) (dist float64, inside bool)
}

// SurfaceBoundary adapts a closed triangulated surface (inner skull).
type SurfaceBoundary struct {
	Surface *geometry.Surface
}

// Locate uses the exact point-to-mesh distance and the solid-angle inside test.
func (b SurfaceBoundary) Locate(p r3.Vec) (float64, bool) {
	return b.Surface.Distance(p), b.Surface.Contains(p)
}

// SphereBoundary is the innermost sphere-model layer.
type SphereBoundary struct {
	Origin r3.Vec
	Radius float64
}

// Locate returns |radius − |p − origin|| and whether p is inside.
func (b SphereBoundary) Locate(p r3.Vec) (float64, bool) {
	d := b.Radius - r3.Norm(r3.Sub(p, b.Origin))

	return math.Abs(d), d > 0
}

// OmitReason tells why a point was dropped by the distance filter.
type OmitReason int

const (
	OmitOutside  OmitReason = iota + 1 // outside the boundary
	OmitTooClose                       // inside but closer than MinDist
)

func (r OmitReason) String() string {
	switch r {
	case OmitOutside:
		return "outside"
	case OmitTooClose:
		return "too-close"
	default:
		return "unknown"
	}
}

// Omitted records a point removed by the distance filter.
type Omitted struct {
	Index    int
	Pos      r3.Vec
	Distance float64 // metres to the boundary
	Reason   OmitReason
}

// Options configures Filter.
type Options struct {
	Filter  bool     // apply the boundary / MinDist filter
	MinDist float64  // metres
	Labels  []string // restrict to these labels (nil = all)
	DoAll   bool     // keep inactive points too
}

// Result is the filtered space plus what the distance filter removed.
type Result struct {
	Space   Space
	Omitted []Omitted
}

// Filter restricts the space.
//
// Steps, in order:
//  1. drop inactive points unless DoAll;
//  2. restrict to Labels; every requested label must match at least one
//     remaining point, else *LabelError (errors.Is ErrUnknownLabel);
//  3. when Filter and boundary != nil, drop points outside the boundary or
//     closer than MinDist, recording each in Result.Omitted.
//
// Order is preserved. A nil boundary disables step 3 (the caller decides
// whether that is acceptable).
//
// Errors:
//   - *LabelError, ErrEmptySourceSpace, geometry.ErrNonFinite.
//
// Complexity: O(N·C) with C the cost of one boundary query.
func Filter(space Space, boundary Boundary, opts Options) (Result, error) {
	if err := space.Validate(); err != nil {
		return Result{}, err
	}

	pts := make([]Point, 0, len(space.Points))
	for _, p := range space.Points {
		if p.Inactive && !opts.DoAll {
			continue
		}
		pts = append(pts, p)
	}

	if len(opts.Labels) > 0 {
		want := make(map[string]int, len(opts.Labels))
		for _, l := range opts.Labels {
			want[l] = 0
		}
		kept := pts[:0:0]
		for _, p := range pts {
			if _, ok := want[p.Label]; ok {
				want[p.Label]++
				kept = append(kept, p)
			}
		}
		// Report in request order for a deterministic message.
		for _, l := range opts.Labels {
			if want[l] == 0 {
				return Result{}, &LabelError{Label: l}
			}
		}
		pts = kept
	}

	var omitted []Omitted
	if opts.Filter && boundary != nil {
		kept := pts[:0:0]
		for _, p := range pts {
			d, inside := boundary.Locate(p.Pos)
			switch {
			case !inside:
				omitted = append(omitted, Omitted{Index: p.Index, Pos: p.Pos, Distance: d, Reason: OmitOutside})
			case d < opts.MinDist:
				omitted = append(omitted, Omitted{Index: p.Index, Pos: p.Pos, Distance: d, Reason: OmitTooClose})
			default:
				kept = append(kept, p)
			}
		}
		pts = kept
	}

	if len(pts) == 0 {
		return Result{}, fmt.Errorf("sourcespace %q: %w", space.Name, ErrEmptySourceSpace)
	}

	return Result{
		Space:   Space{Name: space.Name, Frame: space.Frame, Points: pts},
		Omitted: omitted,
	}, nil
}
