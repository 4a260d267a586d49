package leadfield_test

import (
	"context"
	"math"
	"testing"

	"github.com/katalvlaran/leadfield/leadfield"
	"github.com/katalvlaran/leadfield/sourcespace"
	"gonum.org/v1/gonum/spatial/r3"
)

func grid(n int) []sourcespace.Point {
	pts := make([]sourcespace.Point, n)
	for k := range pts {
		a := float64(k) * 2 * math.Pi / float64(n)
		pts[k] = sourcespace.Point{Index: k, Pos: r3.Vec{X: 0.04 * math.Cos(a), Y: 0.04 * math.Sin(a), Z: 0.02}, Normal: r3.Vec{Z: 1}}
	}

	return pts
}

func benchCompute(b *testing.B, opts ...leadfield.Option) {
	st := sphereState(b, true, true)
	pts := grid(256)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := leadfield.Compute(context.Background(), st, pts, opts...); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkComputeSequential(b *testing.B) { benchCompute(b) }

func BenchmarkComputeParallel(b *testing.B) { benchCompute(b, leadfield.WithParallel(true)) }

func BenchmarkComputeGradient(b *testing.B) {
	benchCompute(b, leadfield.WithParallel(true), leadfield.WithGradient(true))
}
