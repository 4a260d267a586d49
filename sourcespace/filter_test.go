package sourcespace_test

import (
	"errors"
	"math"
	"testing"

	"github.com/katalvlaran/leadfield/geometry"
	"github.com/katalvlaran/leadfield/sourcespace"
	"github.com/katalvlaran/leadfield/transform"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// lineSpace places points on the +x axis at the given radii.
func lineSpace(radii []float64, labels []string) sourcespace.Space {
	s := sourcespace.Space{Name: "line", Frame: transform.FrameHead}
	for i, r := range radii {
		p := sourcespace.Point{Index: 10 + i, Pos: r3.Vec{X: r}, Normal: r3.Vec{Z: 1}}
		if labels != nil {
			p.Label = labels[i]
		}
		s.Points = append(s.Points, p)
	}

	return s
}

func TestFilterSphereBoundary(t *testing.T) {
	space := lineSpace([]float64{0.01, 0.06, 0.075, 0.085, 0.09}, nil)
	b := sourcespace.SphereBoundary{Radius: 0.08}

	res, err := sourcespace.Filter(space, b, sourcespace.Options{Filter: true, MinDist: 0.01})
	require.NoError(t, err)
	require.Equal(t, []int{10, 11}, res.Space.Indices())
	require.Len(t, res.Omitted, 3)
	require.Equal(t, sourcespace.OmitTooClose, res.Omitted[0].Reason)
	require.InDelta(t, 0.005, res.Omitted[0].Distance, 1e-15)
	require.Equal(t, sourcespace.OmitOutside, res.Omitted[1].Reason)
	require.Equal(t, 13, res.Omitted[1].Index)

	// Retained count = original − omitted.
	require.Equal(t, space.Len()-len(res.Omitted), res.Space.Len())
}

func TestFilterIdempotent(t *testing.T) {
	surf, err := geometry.Sphere("inner_skull", geometry.Icosahedron, 3, r3.Vec{}, 0.07)
	require.NoError(t, err)
	b := sourcespace.SurfaceBoundary{Surface: surf}

	var space sourcespace.Space
	space.Frame = transform.FrameHead
	for i := 0; i < 40; i++ {
		r := 0.002 * float64(i)
		th := 0.37 * float64(i)
		space.Points = append(space.Points, sourcespace.Point{
			Index: i,
			Pos:   r3.Vec{X: r * math.Cos(th), Y: r * math.Sin(th), Z: 0.3 * r},
		})
	}
	opts := sourcespace.Options{Filter: true, MinDist: 0.005}

	first, err := sourcespace.Filter(space, b, opts)
	require.NoError(t, err)
	require.NotEmpty(t, first.Omitted)

	second, err := sourcespace.Filter(first.Space, b, opts)
	require.NoError(t, err)
	require.Empty(t, second.Omitted)
	require.Equal(t, first.Space.Indices(), second.Space.Indices())
}

func TestFilterDisabledKeepsEverything(t *testing.T) {
	space := lineSpace([]float64{0.01, 0.2}, nil)
	res, err := sourcespace.Filter(space, sourcespace.SphereBoundary{Radius: 0.08}, sourcespace.Options{})
	require.NoError(t, err)
	require.Equal(t, 2, res.Space.Len())
	require.Empty(t, res.Omitted)

	res, err = sourcespace.Filter(space, nil, sourcespace.Options{Filter: true, MinDist: 1})
	require.NoError(t, err)
	require.Equal(t, 2, res.Space.Len())
}

func TestFilterLabels(t *testing.T) {
	space := lineSpace([]float64{0.01, 0.02, 0.03, 0.04}, []string{"lh.V1", "rh.V1", "lh.V1", ""})

	res, err := sourcespace.Filter(space, nil, sourcespace.Options{Labels: []string{"lh.V1"}})
	require.NoError(t, err)
	require.Equal(t, []int{10, 12}, res.Space.Indices())

	_, err = sourcespace.Filter(space, nil, sourcespace.Options{Labels: []string{"lh.V1", "lh.MT"}})
	require.ErrorIs(t, err, sourcespace.ErrUnknownLabel)
	var le *sourcespace.LabelError
	require.True(t, errors.As(err, &le))
	require.Equal(t, "lh.MT", le.Label)
}

func TestFilterInactiveAndEmpty(t *testing.T) {
	space := lineSpace([]float64{0.01, 0.02}, nil)
	space.Points[0].Inactive = true

	res, err := sourcespace.Filter(space, nil, sourcespace.Options{})
	require.NoError(t, err)
	require.Equal(t, []int{11}, res.Space.Indices())

	res, err = sourcespace.Filter(space, nil, sourcespace.Options{DoAll: true})
	require.NoError(t, err)
	require.Equal(t, 2, res.Space.Len())

	_, err = sourcespace.Filter(space, sourcespace.SphereBoundary{Radius: 0.001}, sourcespace.Options{Filter: true})
	require.ErrorIs(t, err, sourcespace.ErrEmptySourceSpace)
}

func TestFilterRejectsNonFinite(t *testing.T) {
	space := lineSpace([]float64{math.NaN()}, nil)
	_, err := sourcespace.Filter(space, nil, sourcespace.Options{})
	require.ErrorIs(t, err, geometry.ErrNonFinite)
}

func TestTransformed(t *testing.T) {
	space := lineSpace([]float64{0.01}, nil)
	space.Frame = transform.FrameMRI
	r, err := transform.New(transform.FrameMRI, transform.FrameHead, transform.RotationZ(math.Pi/2), r3.Vec{Z: 0.04})
	require.NoError(t, err)

	head, err := space.Transformed(r)
	require.NoError(t, err)
	require.Equal(t, transform.FrameHead, head.Frame)
	require.InDelta(t, 0.01, head.Points[0].Pos.Y, 1e-15)
	require.InDelta(t, 0.04, head.Points[0].Pos.Z, 1e-15)
	require.InDelta(t, 1, head.Points[0].Normal.Z, 1e-15)
	require.Equal(t, 10, head.Points[0].Index)

	_, err = head.Transformed(r)
	require.ErrorIs(t, err, transform.ErrFrameMismatch)
}
