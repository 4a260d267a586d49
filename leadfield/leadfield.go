// SPDX-License-Identifier: MIT

package leadfield

import (
	"context"
	"errors"
	"math"
	"runtime"

	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/katalvlaran/leadfield/headmodel"
	"github.com/katalvlaran/leadfield/sourcespace"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

var errZeroNormal = errors.New("fixed orientation needs a non-zero source normal")
var errNonFinite = errors.New("non-finite value in lead field")

// Columns holds the computed columns, source-major.
// Gain[i*PerSource+k] is column k of source i; Grad[3*j+m] is the derivative
// of gain column j along output axis m.
type Columns struct {
	Rows      int
	PerSource int
	Gain      [][]float64
	Grad      [][]float64 // nil unless gradients were requested
}

// Compute evaluates state at every point (head coordinates).
//
// Sequential mode walks the points in order on the calling goroutine.
// Parallel mode runs an errgroup limited to Workers goroutines; the first
// failure cancels the others. Either way each source writes only its own
// pre-allocated slots, so both modes produce bit-identical columns.
//
// Errors:
//   - ErrNoSources for an empty list.
//   - *SourceError (errors.Is ErrLeadFieldComputation) for the failing source.
//   - ctx.Err() on cancellation.
func Compute(ctx context.Context, state headmodel.State, points []sourcespace.Point, opts ...Option) (*Columns, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if len(points) == 0 {
		return nil, ErrNoSources
	}

	rows := state.NumMEG() + state.NumEEG()
	per := o.Orientation.Columns()
	out := &Columns{Rows: rows, PerSource: per, Gain: make([][]float64, len(points)*per)}
	for j := range out.Gain {
		out.Gain[j] = make([]float64, rows)
	}
	if o.Gradient {
		out.Grad = make([][]float64, 3*len(out.Gain))
		for j := range out.Grad {
			out.Grad[j] = make([]float64, rows)
		}
	}

	c := &computer{state: state, opts: o, rows: rows, out: out}

	if !o.Parallel {
		for i := range points {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := c.source(i, points[i]); err != nil {
				return nil, err
			}
		}

		return out, nil
	}

	workers := o.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range points {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			return c.source(i, points[i])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

type computer struct {
	state headmodel.State
	opts  Options
	rows  int
	out   *Columns
}

// scratch is the per-source working set.
type scratch struct {
	axes [3][]float64
	tmp  []float64
}

func (c *computer) newScratch() *scratch {
	s := &scratch{tmp: make([]float64, c.rows)}
	for a := range s.axes {
		s.axes[a] = make([]float64, c.rows)
	}

	return s
}

// directions returns the head-frame moment of every column of p.
func (c *computer) directions(p sourcespace.Point) ([]r3.Vec, error) {
	if c.opts.Orientation == Fixed {
		n := r3.Norm(p.Normal)
		if n == 0 {
			return nil, errZeroNormal
		}

		return []r3.Vec{r3.Scale(1/n, p.Normal)}, nil
	}

	return c.opts.Basis[:], nil
}

func (c *computer) source(i int, p sourcespace.Point) error {
	fail := func(err error) error { return &SourceError{Index: i, Vertex: p.Index, Err: err} }

	dirs, err := c.directions(p)
	if err != nil {
		return fail(err)
	}
	s := c.newScratch()
	base := i * len(dirs)

	if err := c.project(s, p.Pos, dirs, c.out.Gain[base:base+len(dirs)]); err != nil {
		return fail(err)
	}

	if c.opts.Gradient {
		h := c.opts.Step
		minus := make([][]float64, len(dirs))
		for k := range minus {
			minus[k] = make([]float64, c.rows)
		}
		for m, axis := range c.opts.Basis {
			plus := make([][]float64, len(dirs))
			for k := range dirs {
				plus[k] = c.out.Grad[3*(base+k)+m]
			}
			if err := c.project(s, r3.Add(p.Pos, r3.Scale(h, axis)), dirs, plus); err != nil {
				return fail(err)
			}
			if err := c.project(s, r3.Sub(p.Pos, r3.Scale(h, axis)), dirs, minus); err != nil {
				return fail(err)
			}
			// (plus − minus) / 2h, in place in the gradient slot.
			for k := range dirs {
				vecmath.ScaleBlock(s.tmp, minus[k], -1)
				vecmath.AddBlockInPlace(plus[k], s.tmp)
				vecmath.ScaleBlock(plus[k], plus[k], 1/(2*h))
			}
		}
	}

	for k := range dirs {
		if !finite(c.out.Gain[base+k]) {
			return fail(errNonFinite)
		}
		if c.opts.Gradient {
			for m := 0; m < 3; m++ {
				if !finite(c.out.Grad[3*(base+k)+m]) {
					return fail(errNonFinite)
				}
			}
		}
	}

	return nil
}

// project evaluates the head model at pos and writes, for every moment
// direction d, the column Σ_a d_a · response_a into dst.
func (c *computer) project(s *scratch, pos r3.Vec, dirs []r3.Vec, dst [][]float64) error {
	if err := c.state.Dipole(pos, s.axes); err != nil {
		return err
	}
	for k, d := range dirs {
		col := dst[k]
		vecmath.ScaleBlock(col, s.axes[0], d.X)
		vecmath.ScaleBlock(s.tmp, s.axes[1], d.Y)
		vecmath.AddBlockInPlace(col, s.tmp)
		vecmath.ScaleBlock(s.tmp, s.axes[2], d.Z)
		vecmath.AddBlockInPlace(col, s.tmp)
	}

	return nil
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}

	return true
}
