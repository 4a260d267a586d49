package headmodel_test

import (
	"context"
	"testing"

	"github.com/katalvlaran/leadfield/config"
	"github.com/katalvlaran/leadfield/geometry"
	"github.com/katalvlaran/leadfield/headmodel"
	"github.com/katalvlaran/leadfield/transform"
	"gonum.org/v1/gonum/spatial/r3"
)

func benchDipole(b *testing.B, st headmodel.State) {
	rows := st.NumMEG() + st.NumEEG()
	dst := [3][]float64{make([]float64, rows), make([]float64, rows), make([]float64, rows)}
	rd := r3.Vec{X: 0.01, Y: 0.02, Z: 0.03}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := st.Dipole(rd, dst); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSphereSeries(b *testing.B) {
	spec := job(b, func(s *config.Settings) { s.UseEquivEEG = false; s.Accurate = true })
	s, err := headmodel.NewSolver(spec, headmodel.Geometry{}, eegArray())
	if err != nil {
		b.Fatal(err)
	}
	st, err := s.Solve(context.Background())
	if err != nil {
		b.Fatal(err)
	}
	benchDipole(b, st)
}

func BenchmarkBEMDipole(b *testing.B) {
	spec := job(b, func(s *config.Settings) { s.BEMName = "bem" })
	scalp, err := geometry.Sphere("scalp", geometry.Icosahedron, 2, r3.Vec{}, scalpR)
	if err != nil {
		b.Fatal(err)
	}
	g := headmodel.Geometry{Frame: transform.FrameHead, Surfaces: []*geometry.Surface{scalp}, Sigma: []float64{sigma}}
	s, err := headmodel.NewSolver(spec, g, eegArray())
	if err != nil {
		b.Fatal(err)
	}
	st, err := s.Solve(context.Background())
	if err != nil {
		b.Fatal(err)
	}
	benchDipole(b, st)
}
