package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/katalvlaran/leadfield/config"
	"github.com/katalvlaran/leadfield/forward"
	"github.com/katalvlaran/leadfield/headmodel"
	"github.com/katalvlaran/leadfield/sensors"
	"github.com/katalvlaran/leadfield/sourcespace"
	"github.com/katalvlaran/leadfield/store"
	"github.com/katalvlaran/leadfield/transform"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func run(t *testing.T, w forward.Writer, grad bool) *forward.Result {
	t.Helper()
	s := config.DefaultSettings()
	s.SrcName, s.MeasName, s.SolName = "src.json", "meas.json", "out.db"
	s.MRIHeadIdent, s.IncludeEEG = true, true
	s.EEGModelName = headmodel.ModelHomogeneous
	s.Mindist = 5
	s.ComputeGrad = grad
	spec, err := config.Resolve(s)
	require.NoError(t, err)

	src := sourcespace.Space{Name: "s", Frame: transform.FrameHead, Points: []sourcespace.Point{
		{Index: 0, Pos: r3.Vec{X: 0.01, Z: 0.03}, Normal: r3.Vec{Z: 1}},
		{Index: 1, Pos: r3.Vec{Y: -0.02, Z: 0.02}, Normal: r3.Vec{X: 1}},
		{Index: 2, Pos: r3.Vec{Z: 0.2}, Normal: r3.Vec{Z: 1}},
	}}
	arr := sensors.Array{Name: "eeg", ElectrodeFrame: transform.FrameHead, Electrodes: []sensors.Electrode{
		{Name: "Fz", Pos: r3.Vec{Y: 0.06364, Z: 0.06364}},
		{Name: "Cz", Pos: r3.Vec{Z: 0.09}},
	}}
	res, err := forward.Run(context.Background(), spec, forward.Inputs{Source: src, Sensors: arr}, forward.WithWriter(w))
	require.NoError(t, err)

	return res
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "fwd.db"))
	require.NoError(t, err)
	defer st.Close()

	res := run(t, st, true)

	gain, err := st.LoadGain(ctx, res.Meta.RunID)
	require.NoError(t, err)
	require.Equal(t, res.Gain.Values(), gain.Values())

	grad, err := st.LoadGrad(ctx, res.Meta.RunID)
	require.NoError(t, err)
	require.Equal(t, res.Grad.Values(), grad.Values())

	omitted, err := st.LoadOmitted(ctx, res.Meta.RunID)
	require.NoError(t, err)
	require.Equal(t, res.Omitted, omitted)
	require.Equal(t, sourcespace.OmitOutside, omitted[0].Reason)

	runs, err := st.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, res.Meta.RunID, runs[0].ID)
	require.Equal(t, "sphere", runs[0].Method)
	require.Equal(t, 2, runs[0].Rows)
	require.Equal(t, 6, runs[0].Cols)
}

func TestInMemoryAndMissing(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	res := run(t, st, false)
	grad, err := st.LoadGrad(ctx, res.Meta.RunID)
	require.NoError(t, err)
	require.Nil(t, grad)

	_, err = st.LoadGain(ctx, uuid.New())
	require.ErrorIs(t, err, store.ErrRunNotFound)

	// Same run id twice violates the primary key and rolls back.
	require.Error(t, st.Write(ctx, res))
	runs, err := st.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
}
