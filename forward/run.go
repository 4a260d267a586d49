// SPDX-License-Identifier: MIT

package forward

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/katalvlaran/leadfield/config"
	"github.com/katalvlaran/leadfield/headmodel"
	"github.com/katalvlaran/leadfield/leadfield"
	"github.com/katalvlaran/leadfield/sensors"
	"github.com/katalvlaran/leadfield/sourcespace"
	"github.com/katalvlaran/leadfield/transform"
	"golang.org/x/sync/errgroup"
)

// Stage tags used to wrap errors.
const (
	stageInputs    = "Inputs"
	stageTransform = "Transform"
	stageFilter    = "Filter"
	stageHeadModel = "HeadModel"
	stageLeadField = "LeadField"
	stageAssemble  = "Assemble"
	stageWrite     = "Write"
)

// Inputs are the deserialized artifacts of one run.
type Inputs struct {
	Source    sourcespace.Space
	Geometry  headmodel.Geometry
	Sensors   sensors.Array
	Transform *transform.Record // nil only with mri_head_ident
}

// Run executes the whole forward computation for spec.
//
// Stages:
//  1. transform resolution ∥ label/inactive restriction of the source space;
//  2. mapping sources, geometry and sensors into head coordinates;
//  3. distance filtering against the innermost boundary (FilterSpaces);
//  4. head-model solve; 5. lead fields; 6. assembly; 7. optional Writer.
//
// Any stage failure aborts the run; the error is wrapped as "<Stage>: …" and
// keeps its sentinel for errors.Is.
func Run(ctx context.Context, spec config.JobSpec, in Inputs, opts ...Option) (*Result, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.Logger
	runID := uuid.New()
	started := o.Clock()
	stageStart := started
	mark := func(stage string) {
		now := o.Clock()
		log.InfoF("run %s: %s done in %s", runID, stage, now.Sub(stageStart).Round(time.Microsecond))
		stageStart = now
	}
	fail := func(stage string, err error) (*Result, error) {
		log.ErrorF("run %s: %s failed: %s", runID, stage, err)

		return nil, fmt.Errorf("%s: %w", stage, err)
	}

	log.InfoF("run %s: %d source points, %d coils, %d electrodes, meg=%t eeg=%t bem=%t",
		runID, in.Source.Len(), in.Sensors.NumMEG(), in.Sensors.NumEEG(), spec.IncludeMEG(), spec.IncludeEEG(), in.Geometry.HasBEM())

	array, err := in.Sensors.Select(spec.IncludeMEG(), spec.IncludeEEG())
	if err != nil {
		return fail(stageInputs, err)
	}
	if err = array.Validate(); err != nil {
		return fail(stageInputs, err)
	}

	// 1. Transform ∥ label restriction.
	var (
		mriHead    transform.Rigid
		restricted sourcespace.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := transform.Resolve(spec.MRIHeadIdentity(), in.Transform)
		if err != nil {
			return fmt.Errorf("%s: %w", stageTransform, err)
		}
		mriHead = r

		return gctx.Err()
	})
	g.Go(func() error {
		r, err := sourcespace.Filter(in.Source, nil, sourcespace.Options{Labels: spec.Labels(), DoAll: spec.DoAll()})
		if err != nil {
			return fmt.Errorf("%s: %w", stageFilter, err)
		}
		restricted = r

		return gctx.Err()
	})
	if err = g.Wait(); err != nil {
		log.ErrorF("run %s: %s", runID, err)

		return nil, err
	}
	mark("transform and label restriction")

	// 2. Head coordinates.
	set := transform.NewSet(mriHead, array.DevHead)
	srcHead, geomHead, arrHead, err := toHead(set, restricted.Space, in.Geometry, array)
	if err != nil {
		return fail(stageTransform, err)
	}

	// 3. Distance filter.
	boundary, err := headmodel.Boundary(spec, geomHead, o.Registry)
	if err != nil {
		return fail(stageHeadModel, err)
	}
	if spec.FilterSpaces() && boundary == nil {
		log.Warning("no inner boundary for a MEG-only job without a sphere; distance filter skipped")
	}
	filtered, err := sourcespace.Filter(srcHead, boundary, sourcespace.Options{
		Filter:  spec.FilterSpaces(),
		MinDist: spec.MinDist(),
		DoAll:   true,
	})
	if err != nil {
		return fail(stageFilter, err)
	}
	if n := len(filtered.Omitted); n > 0 {
		log.InfoF("run %s: %d source points omitted (mindist %.4g m)", runID, n, spec.MinDist())
	}
	mark("filter")

	// 4. Head model.
	solverOpts := o.Solver
	if o.Registry != nil {
		solverOpts = append([]headmodel.Option{headmodel.WithRegistry(o.Registry)}, solverOpts...)
	}
	solver, err := headmodel.NewSolver(spec, geomHead, arrHead, solverOpts...)
	if err != nil {
		return fail(stageHeadModel, err)
	}
	state, err := solver.Solve(ctx)
	if err != nil {
		return fail(stageHeadModel, err)
	}
	mark("head model (" + state.Method().String() + ")")

	// 5. Lead fields.
	output, err := set.FromHead(spec.CoordFrame())
	if err != nil {
		return fail(stageTransform, err)
	}
	orient := leadfield.Free
	if spec.FixedOrientation() {
		orient = leadfield.Fixed
	}
	cols, err := leadfield.Compute(ctx, state, filtered.Space.Points,
		leadfield.WithOrientation(orient),
		leadfield.WithParallel(spec.Parallel()),
		leadfield.WithWorkers(spec.Workers()),
		leadfield.WithGradient(spec.ComputeGrad()),
		leadfield.WithFrame(output),
	)
	if err != nil {
		return fail(stageLeadField, err)
	}
	mark("lead field")

	// 6. Assembly.
	res, err := Assemble(Assembly{
		RunID:     runID,
		CreatedAt: started,
		Method:    state.Method().String(),
		Spec:      spec,
		Sensors:   arrHead,
		Points:    filtered.Space.Points,
		Omitted:   filtered.Omitted,
		Columns:   cols,
		Output:    output,
	})
	if err != nil {
		return fail(stageAssemble, err)
	}
	log.InfoF("run %s: gain %d×%d (%s orientation, %s frame)",
		runID, res.Gain.Rows(), res.Gain.Cols(), orient, spec.CoordFrame())

	// 7. Writer.
	if o.Writer != nil {
		if err = o.Writer.Write(ctx, res); err != nil {
			return fail(stageWrite, err)
		}
		mark("write")
	}
	log.InfoF("run %s: finished in %s", runID, o.Clock().Sub(started).Round(time.Microsecond))

	return res, nil
}

// toHead maps every input into head coordinates.
func toHead(set transform.Set, src sourcespace.Space, geom headmodel.Geometry, array sensors.Array) (sourcespace.Space, headmodel.Geometry, sensors.Array, error) {
	r, err := set.ToHead(src.Frame)
	if err != nil {
		return sourcespace.Space{}, headmodel.Geometry{}, sensors.Array{}, err
	}
	srcHead, err := src.Transformed(r)
	if err != nil {
		return sourcespace.Space{}, headmodel.Geometry{}, sensors.Array{}, err
	}

	geomHead := geom
	if geom.HasBEM() || geom.Sphere != nil {
		r, err = set.ToHead(geom.Frame)
		if err != nil {
			return sourcespace.Space{}, headmodel.Geometry{}, sensors.Array{}, err
		}
		if geomHead, err = geom.Transformed(r); err != nil {
			return sourcespace.Space{}, headmodel.Geometry{}, sensors.Array{}, err
		}
	}

	arrHead, err := array.ToHead(set)
	if err != nil {
		return sourcespace.Space{}, headmodel.Geometry{}, sensors.Array{}, err
	}

	return srcHead, geomHead, arrHead, nil
}
