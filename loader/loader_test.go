package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/katalvlaran/leadfield/config"
	"github.com/katalvlaran/leadfield/headmodel"
	"github.com/katalvlaran/leadfield/loader"
	"github.com/katalvlaran/leadfield/transform"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))

	return p
}

func TestLoadSettingsYAML(t *testing.T) {
	p := write(t, "job.yaml", `
srcname: src.json
measname: meas.json
solname: out.db
mri_head_ident: true
include_eeg: true
mindist: 5
labels: [lh, rh]
eeg_layers:
  - {rel: 0.9, sigma: 0.33}
  - {rel: 1.0, sigma: 0.33}
`)
	s, err := loader.LoadSettings(p)
	require.NoError(t, err)
	require.Equal(t, "src.json", s.SrcName)
	require.Equal(t, 5.0, s.Mindist)
	require.Equal(t, []string{"lh", "rh"}, s.Labels)
	require.Len(t, s.EEGLayers, 2)
	// Defaults survive.
	require.True(t, s.FilterSpaces)
	require.Equal(t, config.DefaultEEGSphereRad, s.EEGSphereRad)

	spec, err := config.Resolve(s)
	require.NoError(t, err)
	require.InDelta(t, 0.005, spec.MinDist(), 1e-15)
}

func TestLoadSettingsRejects(t *testing.T) {
	tests := []struct {
		name, file, body string
	}{
		{"unknown yaml key", "a.yaml", "srcname: x\nbogus: 1\n"},
		{"unknown json key", "a.json", `{"srcname": "x", "bogus": 1}`},
		{"bad json", "b.json", `{"srcname": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.LoadSettings(write(t, tt.file, tt.body))
			require.ErrorIs(t, err, loader.ErrDocument)
		})
	}

	_, err := loader.LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, loader.ErrDocument)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadSourceSpace(t *testing.T) {
	p := write(t, "src.json", `{"name": "lh-white", "points": [
		{"pos": [0.01, 0, 0.03], "normal": [0, 0, 1], "label": "lh"},
		{"index": 42, "pos": [0, -0.02, 0.02], "normal": [1, 0, 0], "inactive": true}
	]}`)
	sp, err := loader.LoadSourceSpace(p)
	require.NoError(t, err)
	require.Equal(t, "lh-white", sp.Name)
	require.Equal(t, transform.FrameMRI, sp.Frame)
	require.Equal(t, []int{0, 42}, sp.Indices())
	require.Equal(t, r3.Vec{X: 0.01, Z: 0.03}, sp.Points[0].Pos)
	require.True(t, sp.Points[1].Inactive)

	_, err = loader.LoadSourceSpace(write(t, "bad.json", `{"coord_frame": "scanner", "points": []}`))
	require.ErrorIs(t, err, loader.ErrShape)
}

func TestLoadGeometry(t *testing.T) {
	p := write(t, "bem.yaml", `
coord_frame: head
surfaces:
  - id: tetra
    sigma: 0.33
    vertices: [[0,0,0],[1,0,0],[0,1,0],[0,0,1]]
    triangles: [[0,2,1],[0,1,3],[0,3,2],[1,2,3]]
sphere:
  origin: [0, 0, 0.04]
  shells:
    - {radius: 0.08, sigma: 0.33}
    - {radius: 0.09, sigma: 0.33}
`)
	g, err := loader.LoadGeometry(p)
	require.NoError(t, err)
	require.Equal(t, transform.FrameHead, g.Frame)
	require.True(t, g.HasBEM())
	require.Equal(t, []float64{0.33}, g.Sigma)
	require.Equal(t, 4, g.Surfaces[0].NumTriangles())
	require.NoError(t, g.Surfaces[0].CheckClosed())
	require.InDelta(t, 0.09, g.Sphere.Radius(), 1e-15)
	require.Equal(t, r3.Vec{Z: 0.04}, g.Sphere.Origin)

	_, err = loader.LoadGeometry(write(t, "idx.json",
		`{"surfaces": [{"vertices": [[0,0,0],[1,0,0],[0,1,0]], "triangles": [[0,1,7]]}]}`))
	require.ErrorIs(t, err, loader.ErrShape)
}

func TestLoadSensors(t *testing.T) {
	p := write(t, "meas.json", `{
		"name": "run1",
		"coils": [
			{"name": "MEG0111", "pos": [0, 0, 0.11], "dir": [0, 0, 2]},
			{"name": "MEG0112", "type": "planar", "pos": [0, 0, 0.11], "dir": [0, 0, 1], "baseline_dir": [1, 0, 0], "baseline": 0.0168},
			{"name": "MEG0113", "type": "square", "pos": [0, 0, 0.11], "dir": [0, 0, 1], "side": 0.0258},
			{"name": "X", "type": "custom", "points": [{"pos": [0, 0, 0.12], "dir": [0, 0, 3], "weight": 1}]}
		],
		"electrodes": [{"name": "Cz", "pos": [0, 0, 0.09]}],
		"dev_head": {"from": "head", "to": "device",
			"rotation": [[1,0,0],[0,1,0],[0,0,1]], "translation": [0, 0, -0.04]}
	}`)
	arr, err := loader.LoadSensors(p)
	require.NoError(t, err)
	require.Equal(t, 4, arr.NumMEG())
	require.Equal(t, 1, arr.NumEEG())
	require.Equal(t, transform.FrameDevice, arr.CoilFrame)
	require.Equal(t, transform.FrameHead, arr.ElectrodeFrame)
	require.Equal(t, r3.Vec{Z: 1}, arr.Coils[0].Points[0].Dir)
	require.Len(t, arr.Coils[1].Points, 2)
	require.Len(t, arr.Coils[2].Accurate, 4)
	require.Equal(t, r3.Vec{Z: 1}, arr.Coils[3].Points[0].Dir)

	// head→device was inverted into device→head.
	require.NotNil(t, arr.DevHead)
	require.Equal(t, transform.FrameDevice, arr.DevHead.From)
	require.InDelta(t, 0.04, arr.DevHead.Apply(r3.Vec{}).Z, 1e-15)

	tests := []struct{ name, body string }{
		{"unknown type", `{"coils": [{"name": "a", "type": "axial"}]}`},
		{"planar without baseline", `{"coils": [{"name": "a", "type": "planar", "dir": [0,0,1]}]}`},
		{"custom without points", `{"coils": [{"name": "a", "type": "custom"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.LoadSensors(write(t, "m.json", tt.body))
			require.ErrorIs(t, err, loader.ErrShape)
		})
	}

	_, err = loader.LoadSensors(write(t, "m.json",
		`{"dev_head": {"from": "mri", "to": "head", "rotation": [[1,0,0],[0,1,0],[0,0,1]]}}`))
	require.ErrorIs(t, err, transform.ErrTransformLoad)
}

func TestLoadTransform(t *testing.T) {
	p := write(t, "trans.yaml", `
from: head
to: mri
rotation: [[0,-1,0],[1,0,0],[0,0,1]]
translation: [0.001, 0, 0]
`)
	rec, err := loader.LoadTransform(p)
	require.NoError(t, err)
	require.Equal(t, p, rec.Name)
	r, err := transform.Resolve(false, rec)
	require.NoError(t, err)
	require.Equal(t, transform.FrameMRI, r.From)

	tests := []struct{ name, file, body string }{
		{"not rigid", "a.json", `{"from": "mri", "to": "head", "rotation": [[2,0,0],[0,1,0],[0,0,1]]}`},
		{"bad frame", "b.json", `{"from": "mri", "to": "scanner", "rotation": [[1,0,0],[0,1,0],[0,0,1]]}`},
		{"garbage", "c.json", `[1, 2`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.LoadTransform(write(t, tt.file, tt.body))
			require.ErrorIs(t, err, transform.ErrTransformLoad)
		})
	}
	_, err = loader.LoadTransform(filepath.Join(t.TempDir(), "none.json"))
	require.ErrorIs(t, err, transform.ErrTransformLoad)
}

func TestLoadSphereModels(t *testing.T) {
	p := write(t, "models.yaml", `
models:
  - name: ThreeShell
    layers:
      - {rel: 0.87, sigma: 0.33}
      - {rel: 0.92, sigma: 0.0042}
      - {rel: 1.0, sigma: 0.33}
`)
	reg, err := loader.LoadSphereModels(p)
	require.NoError(t, err)
	m, err := reg.Lookup("threeshell")
	require.NoError(t, err)
	require.Len(t, m.Layers, 3)
	_, err = reg.Lookup(headmodel.ModelDefault)
	require.NoError(t, err)

	_, err = loader.LoadSphereModels(write(t, "bad.yaml", "models:\n  - name: Broken\n    layers: [{rel: 0.5, sigma: 0.3}]\n"))
	require.ErrorIs(t, err, headmodel.ErrIllConditionedGeometry)
}
