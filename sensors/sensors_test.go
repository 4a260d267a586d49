package sensors_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/leadfield/sensors"
	"github.com/katalvlaran/leadfield/transform"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func sampleArray() sensors.Array {
	return sensors.Array{
		Name:      "sample",
		CoilFrame: transform.FrameDevice,
		Coils: []sensors.Coil{
			sensors.PointMagnetometer("MEG 0111", r3.Vec{Z: 0.12}, r3.Vec{Z: 1}),
			sensors.PlanarGradiometer("MEG 0112", r3.Vec{X: 0.12}, r3.Vec{X: 1}, r3.Vec{Y: 1}, 0.0168),
		},
		ElectrodeFrame: transform.FrameHead,
		Electrodes: []sensors.Electrode{
			{Name: "EEG 001", Pos: r3.Vec{Z: 0.09}},
		},
	}
}

func TestNamesKindsOrder(t *testing.T) {
	a := sampleArray()
	require.Equal(t, []string{"MEG 0111", "MEG 0112", "EEG 001"}, a.Names())
	require.Equal(t, []sensors.Kind{sensors.KindMEG, sensors.KindMEG, sensors.KindEEG}, a.Kinds())
	require.Equal(t, "T/(A·m)", sensors.KindMEG.Unit())
	require.Equal(t, "V/(A·m)", sensors.KindEEG.Unit())
	require.NoError(t, a.Validate())
}

func TestSelect(t *testing.T) {
	a := sampleArray()
	eeg, err := a.Select(false, true)
	require.NoError(t, err)
	require.Equal(t, 0, eeg.NumMEG())
	require.Equal(t, 1, eeg.NumEEG())

	onlyMEG := sampleArray()
	onlyMEG.Electrodes = nil
	_, err = onlyMEG.Select(false, true)
	require.ErrorIs(t, err, sensors.ErrNoSensors)
}

func TestToHeadRequiresDeviceTransform(t *testing.T) {
	a := sampleArray()
	set := transform.NewSet(transform.Identity(transform.FrameMRI, transform.FrameHead), nil)

	_, err := a.ToHead(set)
	require.ErrorIs(t, err, transform.ErrTransformLoad)

	// EEG only needs no device transform.
	eeg, err := a.Select(false, true)
	require.NoError(t, err)
	_, err = eeg.ToHead(set)
	require.NoError(t, err)
}

func TestToHeadMapsCoils(t *testing.T) {
	a := sampleArray()
	dev, err := transform.New(transform.FrameDevice, transform.FrameHead, transform.RotationZ(math.Pi/2), r3.Vec{Z: -0.04})
	require.NoError(t, err)
	a.DevHead = &dev

	h, err := a.ToHead(transform.NewSet(transform.Identity(transform.FrameMRI, transform.FrameHead), nil))
	require.NoError(t, err)
	require.Equal(t, transform.FrameHead, h.CoilFrame)

	p := h.Coils[1].Points[0]
	// gradiometer at +x, baseline along y, rotated 90° about z
	require.InDelta(t, -0.0084, p.Pos.X, 1e-12)
	require.InDelta(t, 0.12, p.Pos.Y, 1e-12)
	require.InDelta(t, -0.04, p.Pos.Z, 1e-12)
	require.InDelta(t, 1, p.Dir.Y, 1e-12)

	require.Equal(t, a.Electrodes[0].Pos, h.Electrodes[0].Pos)
}

func TestValidateRejectsBadCoils(t *testing.T) {
	a := sampleArray()
	a.Coils = append(a.Coils, sensors.Coil{Name: "empty"})
	require.ErrorIs(t, a.Validate(), sensors.ErrBadSensor)

	b := sampleArray()
	b.Coils[0].Points[0].Dir = r3.Vec{}
	require.ErrorIs(t, b.Validate(), sensors.ErrBadSensor)

	c := sampleArray()
	c.Electrodes[0].Pos.X = math.Inf(1)
	require.ErrorIs(t, c.Validate(), sensors.ErrBadSensor)
}

func TestSquareMagnetometer(t *testing.T) {
	c := sensors.SquareMagnetometer("MAG", r3.Vec{Z: 0.1}, r3.Vec{Z: 2}, 0.02)
	require.Len(t, c.Integration(false), 1)
	acc := c.Integration(true)
	require.Len(t, acc, 4)
	var w float64
	var centre r3.Vec
	for _, p := range acc {
		w += p.Weight
		centre = r3.Add(centre, r3.Scale(p.Weight, p.Pos))
		require.InDelta(t, 0.1, p.Pos.Z, 1e-15)
		require.InDelta(t, 0.005*math.Sqrt2, r3.Norm(r3.Sub(p.Pos, r3.Vec{Z: 0.1})), 1e-15)
	}
	require.InDelta(t, 1, w, 1e-15)
	require.InDelta(t, 0, r3.Norm(r3.Sub(centre, r3.Vec{Z: 0.1})), 1e-15)
}
