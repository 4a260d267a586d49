package transform_test

import (
	"errors"
	"math"
	"testing"

	"github.com/katalvlaran/leadfield/transform"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-12

func sampleRigid(t *testing.T, from, to transform.Frame, theta float64, move r3.Vec) transform.Rigid {
	t.Helper()
	r, err := transform.New(from, to, transform.RotationZ(theta), move)
	require.NoError(t, err)

	return r
}

func TestIdentityLaw(t *testing.T) {
	T := sampleRigid(t, transform.FrameMRI, transform.FrameHead, 0.3, r3.Vec{X: 0.01, Y: -0.02, Z: 0.04})

	left, err := transform.Identity(transform.FrameMRI, transform.FrameMRI).Compose(T)
	require.NoError(t, err)
	require.True(t, left.ApproxEqual(T, tol))

	right, err := T.Compose(transform.Identity(transform.FrameHead, transform.FrameHead))
	require.NoError(t, err)
	require.True(t, right.ApproxEqual(T, tol))
}

func TestInverseLaw(t *testing.T) {
	T := sampleRigid(t, transform.FrameMRI, transform.FrameHead, -1.1, r3.Vec{X: 0.1, Y: 0.2, Z: -0.3})

	id, err := T.Compose(T.Inverse())
	require.NoError(t, err)
	require.Equal(t, transform.FrameMRI, id.From)
	require.Equal(t, transform.FrameMRI, id.To)
	require.True(t, id.IsIdentity(1e-12))

	p := r3.Vec{X: 0.05, Y: -0.01, Z: 0.07}
	back := T.Inverse().Apply(T.Apply(p))
	require.InDelta(t, 0, r3.Norm(r3.Sub(back, p)), tol)
}

func TestComposeAssociative(t *testing.T) {
	a := sampleRigid(t, transform.FrameDevice, transform.FrameHead, 0.2, r3.Vec{X: 0.01})
	b := sampleRigid(t, transform.FrameHead, transform.FrameMRI, -0.7, r3.Vec{Y: 0.02})
	c := sampleRigid(t, transform.FrameMRI, transform.FrameHead, 1.3, r3.Vec{Z: -0.03})

	ab, err := a.Compose(b)
	require.NoError(t, err)
	abc1, err := ab.Compose(c)
	require.NoError(t, err)

	bc, err := b.Compose(c)
	require.NoError(t, err)
	abc2, err := a.Compose(bc)
	require.NoError(t, err)

	require.True(t, abc1.ApproxEqual(abc2, tol))

	_, err = a.Compose(c)
	require.ErrorIs(t, err, transform.ErrFrameMismatch)
}

func TestApplyVectorIgnoresTranslation(t *testing.T) {
	T := sampleRigid(t, transform.FrameMRI, transform.FrameHead, math.Pi/2, r3.Vec{X: 5})
	v := T.ApplyVector(r3.Vec{X: 1})
	require.InDelta(t, 0, v.X, tol)
	require.InDelta(t, 1, v.Y, tol)
	p := T.Apply(r3.Vec{X: 1})
	require.InDelta(t, 5, p.X, tol)
}

func TestNewRejectsNonRigid(t *testing.T) {
	scale := [3][3]float64{{2, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	_, err := transform.New(transform.FrameMRI, transform.FrameHead, scale, r3.Vec{})
	require.ErrorIs(t, err, transform.ErrNotRigid)

	mirror := [3][3]float64{{-1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	_, err = transform.New(transform.FrameMRI, transform.FrameHead, mirror, r3.Vec{})
	require.ErrorIs(t, err, transform.ErrNotRigid)

	_, err = transform.New(transform.FrameMRI, transform.FrameHead, transform.RotationZ(0), r3.Vec{X: math.NaN()})
	require.ErrorIs(t, err, transform.ErrNotRigid)
}

func TestResolve(t *testing.T) {
	good := &transform.Record{
		Name:        "sample-trans.json",
		From:        "head",
		To:          "MRI",
		Rotation:    transform.RotationZ(0.4),
		Translation: [3]float64{0.001, 0.002, 0.003},
	}
	mis := &transform.Record{Name: "dev.json", From: "device", To: "head", Rotation: transform.RotationZ(0)}
	broken := &transform.Record{Name: "bad.json", From: "mri", To: "head"} // zero rotation

	tests := []struct {
		name     string
		identity bool
		rec      *transform.Record
		wantErr  error
	}{
		{"identity ignores record", true, broken, nil},
		{"identity without record", true, nil, nil},
		{"missing record is an error", false, nil, transform.ErrTransformLoad},
		{"head to mri inverted", false, good, nil},
		{"wrong frames", false, mis, transform.ErrFrameMismatch},
		{"malformed rotation", false, broken, transform.ErrNotRigid},
		{"unknown frame", false, &transform.Record{From: "world", To: "head"}, transform.ErrTransformLoad},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := transform.Resolve(tc.identity, tc.rec)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.ErrorIs(t, err, transform.ErrTransformLoad)
				var le *transform.LoadError
				require.True(t, errors.As(err, &le))

				return
			}
			require.NoError(t, err)
			require.Equal(t, transform.FrameMRI, r.From)
			require.Equal(t, transform.FrameHead, r.To)
		})
	}

	// The inverted record maps its own translation back to the origin.
	r, err := transform.Resolve(false, good)
	require.NoError(t, err)
	p := r.Apply(r3.Vec{X: 0.001, Y: 0.002, Z: 0.003})
	require.InDelta(t, 0, r3.Norm(p), tol)
}

func TestSetToHead(t *testing.T) {
	mri := sampleRigid(t, transform.FrameMRI, transform.FrameHead, 0.1, r3.Vec{})
	s := transform.NewSet(mri, nil)

	_, err := s.ToHead(transform.FrameDevice)
	require.ErrorIs(t, err, transform.ErrTransformLoad)

	got, err := s.ToHead(transform.FrameMRI)
	require.NoError(t, err)
	require.True(t, got.ApproxEqual(mri, 0))

	back, err := s.FromHead(transform.FrameMRI)
	require.NoError(t, err)
	require.Equal(t, transform.FrameHead, back.From)

	wrong := sampleRigid(t, transform.FrameHead, transform.FrameDevice, 0, r3.Vec{})
	s = transform.NewSet(mri, &wrong)
	_, err = s.ToHead(transform.FrameDevice)
	require.ErrorIs(t, err, transform.ErrFrameMismatch)
}

func TestParseFrame(t *testing.T) {
	for in, want := range map[string]transform.Frame{
		"head": transform.FrameHead, " MRI ": transform.FrameMRI, "Device": transform.FrameDevice, "meg": transform.FrameDevice,
	} {
		got, err := transform.ParseFrame(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := transform.ParseFrame("talairach")
	require.Error(t, err)

	var f transform.Frame
	require.NoError(t, f.UnmarshalText([]byte("mri")))
	b, err := f.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "mri", string(b))
}
