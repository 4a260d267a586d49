package leadfield_test

import (
	"context"
	"fmt"

	"github.com/katalvlaran/leadfield/config"
	"github.com/katalvlaran/leadfield/headmodel"
	"github.com/katalvlaran/leadfield/leadfield"
	"github.com/katalvlaran/leadfield/sensors"
	"github.com/katalvlaran/leadfield/sourcespace"
	"github.com/katalvlaran/leadfield/transform"
	"gonum.org/v1/gonum/spatial/r3"
)

// ExampleCompute evaluates a fixed-orientation column for one cortical point
// in a homogeneous sphere seen by one magnetometer and two electrodes.
func ExampleCompute() {
	s := config.DefaultSettings()
	s.SrcName, s.MeasName, s.SolName = "src", "meas", "out"
	s.MRIHeadIdent, s.IncludeMEG, s.IncludeEEG = true, true, true
	s.EEGModelName = headmodel.ModelHomogeneous
	spec, err := config.Resolve(s)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	array := sensors.Array{
		CoilFrame:      transform.FrameHead,
		Coils:          []sensors.Coil{sensors.PointMagnetometer("MEG1", r3.Vec{Z: 0.11}, r3.Vec{Z: 1})},
		ElectrodeFrame: transform.FrameHead,
		Electrodes:     []sensors.Electrode{{Name: "Cz", Pos: r3.Vec{Z: 0.09}}, {Name: "T7", Pos: r3.Vec{X: -0.09}}},
	}
	solver, err := headmodel.NewSolver(spec, headmodel.Geometry{}, array)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	st, err := solver.Solve(context.Background())
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	pts := []sourcespace.Point{{Index: 7, Pos: r3.Vec{X: 0.01, Z: 0.05}, Normal: r3.Vec{X: 1}}}
	cols, err := leadfield.Compute(context.Background(), st, pts, leadfield.WithOrientation(leadfield.Fixed))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("%d rows, %d column(s) per source, %s orientation\n", cols.Rows, cols.PerSource, leadfield.Fixed)
	// Output:
	// 3 rows, 1 column(s) per source, fixed orientation
}
