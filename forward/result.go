// SPDX-License-Identifier: MIT

package forward

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/katalvlaran/leadfield/config"
	"github.com/katalvlaran/leadfield/leadfield"
	"github.com/katalvlaran/leadfield/matrix"
	"github.com/katalvlaran/leadfield/sensors"
	"github.com/katalvlaran/leadfield/sourcespace"
	"github.com/katalvlaran/leadfield/transform"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrBadAssembly indicates columns that do not match the sensors or sources.
var ErrBadAssembly = errors.New("forward: inconsistent assembly inputs")

// Metadata describes the rows and columns of a gain matrix.
type Metadata struct {
	RunID     uuid.UUID
	CreatedAt time.Time
	Method    string // "bem" or "sphere"
	Command   string

	SensorNames []string
	SensorKinds []sensors.Kind
	Units       []string // per row
	NumMEG      int
	NumEEG      int

	SourceIndices   []int
	SourcePositions []r3.Vec // CoordFrame
	SourceNormals   []r3.Vec // CoordFrame
	Orientation     leadfield.Orientation
	CoordFrame      transform.Frame

	SolutionName   string
	MindistOutName string
	MinDist        float64 // metres
	Accurate       bool
}

// Result is the immutable product of one run.
// Gain is rows × (sources·k); Grad, when present, has three columns per gain
// column ordered (x, y, z) of CoordFrame.
type Result struct {
	Gain    *matrix.Dense
	Grad    *matrix.Dense
	Meta    Metadata
	Omitted []sourcespace.Omitted // positions in CoordFrame
}

// Writer persists a Result. Implementations own file formats and storage.
type Writer interface {
	Write(ctx context.Context, res *Result) error
}

// Assembly gathers the inputs of Assemble. Sensors, Points and Omitted are in
// head coordinates; Output maps head to the reporting frame.
type Assembly struct {
	RunID     uuid.UUID
	CreatedAt time.Time
	Method    string
	Spec      config.JobSpec
	Sensors   sensors.Array
	Points    []sourcespace.Point
	Omitted   []sourcespace.Omitted
	Columns   *leadfield.Columns
	Output    transform.Rigid
}

// Assemble turns source-major columns into the row-major gain matrix and
// attaches the metadata. It performs no numerical work beyond copying and
// the rigid change of reporting frame.
//
// Errors:
//   - ErrBadAssembly when column or row counts disagree.
//   - matrix errors from construction.
func Assemble(in Assembly) (*Result, error) {
	cols := in.Columns
	if cols == nil {
		return nil, fmt.Errorf("Assemble: no columns: %w", ErrBadAssembly)
	}
	rows := in.Sensors.NumMEG() + in.Sensors.NumEEG()
	if cols.Rows != rows {
		return nil, fmt.Errorf("Assemble: %d rows, %d sensors: %w", cols.Rows, rows, ErrBadAssembly)
	}
	if len(cols.Gain) != len(in.Points)*cols.PerSource {
		return nil, fmt.Errorf("Assemble: %d columns for %d sources × %d: %w",
			len(cols.Gain), len(in.Points), cols.PerSource, ErrBadAssembly)
	}

	gain, err := rowMajor(cols.Gain, rows)
	if err != nil {
		return nil, fmt.Errorf("Assemble: gain: %w", err)
	}
	var grad *matrix.Dense
	if cols.Grad != nil {
		if grad, err = rowMajor(cols.Grad, rows); err != nil {
			return nil, fmt.Errorf("Assemble: gradient: %w", err)
		}
	}

	orient := leadfield.Free
	if cols.PerSource == 1 {
		orient = leadfield.Fixed
	}
	kinds := in.Sensors.Kinds()
	units := make([]string, len(kinds))
	for i, k := range kinds {
		units[i] = k.Unit()
	}

	meta := Metadata{
		RunID:           in.RunID,
		CreatedAt:       in.CreatedAt,
		Method:          in.Method,
		Command:         in.Spec.Command(),
		SensorNames:     in.Sensors.Names(),
		SensorKinds:     kinds,
		Units:           units,
		NumMEG:          in.Sensors.NumMEG(),
		NumEEG:          in.Sensors.NumEEG(),
		SourceIndices:   make([]int, len(in.Points)),
		SourcePositions: make([]r3.Vec, len(in.Points)),
		SourceNormals:   make([]r3.Vec, len(in.Points)),
		Orientation:     orient,
		CoordFrame:      in.Output.To,
		SolutionName:    in.Spec.SolutionName(),
		MindistOutName:  in.Spec.MindistOutName(),
		MinDist:         in.Spec.MinDist(),
		Accurate:        in.Spec.Accurate(),
	}
	for i, p := range in.Points {
		meta.SourceIndices[i] = p.Index
		meta.SourcePositions[i] = in.Output.Apply(p.Pos)
		meta.SourceNormals[i] = in.Output.ApplyVector(p.Normal)
	}

	var omitted []sourcespace.Omitted
	if len(in.Omitted) > 0 {
		omitted = make([]sourcespace.Omitted, len(in.Omitted))
		for i, o := range in.Omitted {
			o.Pos = in.Output.Apply(o.Pos)
			omitted[i] = o
		}
	}

	return &Result{Gain: gain, Grad: grad, Meta: meta, Omitted: omitted}, nil
}

// rowMajor lays the columns out as rows of a (cols × rows) matrix and
// transposes it into sensors × columns.
func rowMajor(columns [][]float64, rows int) (*matrix.Dense, error) {
	data := make([]float64, 0, len(columns)*rows)
	for _, c := range columns {
		data = append(data, c...)
	}
	sourceMajor, err := matrix.NewDenseFrom(len(columns), rows, data)
	if err != nil {
		return nil, err
	}

	return matrix.Transpose(sourceMajor)
}
