package config_test

import (
	"errors"
	"math"
	"testing"

	"github.com/katalvlaran/leadfield/config"
	"github.com/katalvlaran/leadfield/transform"
	"github.com/stretchr/testify/require"
)

// validEEG is a minimal EEG-only sphere-model bundle.
func validEEG() config.Settings {
	s := config.DefaultSettings()
	s.SrcName = "src.json"
	s.MeasName = "meas.json"
	s.SolName = "fwd.db"
	s.MRIHeadIdent = true
	s.IncludeEEG = true

	return s
}

func TestDefaults(t *testing.T) {
	s := config.DefaultSettings()
	require.True(t, s.FilterSpaces)
	require.True(t, s.UseEquivEEG)
	require.True(t, s.UseThreads)
	require.Equal(t, 0.09, s.EEGSphereRad)
	require.Equal(t, "Default", s.EEGModelName)
}

func TestResolveValid(t *testing.T) {
	in := validEEG()
	in.Mindist = 5
	in.CoordFrame = "MRI"
	in.Labels = []string{" lh.V1 ", "", "lh.V1", "rh.V1"}
	in.R0 = [3]float64{0, 0, 0.04}

	spec, err := config.Resolve(in)
	require.NoError(t, err)
	require.InDelta(t, 0.005, spec.MinDist(), 1e-15)
	require.Equal(t, transform.FrameMRI, spec.CoordFrame())
	require.Equal(t, []string{"lh.V1", "rh.V1"}, spec.Labels())
	require.True(t, spec.IncludeEEG())
	require.False(t, spec.IncludeMEG())
	require.True(t, spec.Parallel())
	require.Equal(t, 0.04, spec.R0().Z)
	require.Equal(t, "Default", spec.EEG().ModelName)
	require.False(t, spec.UsesBEM())
}

func TestJobSpecIsImmutable(t *testing.T) {
	in := validEEG()
	in.Labels = []string{"a"}
	in.EEGLayers = []config.LayerSetting{{Rel: 1, Sigma: 0.33}}
	spec, err := config.Resolve(in)
	require.NoError(t, err)

	in.Labels[0] = "mutated"
	in.EEGLayers[0].Sigma = 99
	spec.Labels()[0] = "mutated"
	spec.EEG().Layers[0].Sigma = 99

	require.Equal(t, []string{"a"}, spec.Labels())
	require.Equal(t, 0.33, spec.EEG().Layers[0].Sigma)
}

func TestResolveInvalid(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*config.Settings)
		field string
	}{
		{"neither MEG nor EEG", func(s *config.Settings) { s.IncludeEEG, s.IncludeMEG = false, false }, "include_meg/include_eeg"},
		{"no source space", func(s *config.Settings) { s.SrcName = "  " }, "srcname"},
		{"no measurement", func(s *config.Settings) { s.MeasName = "" }, "measname"},
		{"no output", func(s *config.Settings) { s.SolName = "" }, "solname"},
		{"no transform", func(s *config.Settings) { s.MRIHeadIdent = false }, "transname"},
		{"bad scalp radius", func(s *config.Settings) { s.EEGSphereRad = 0 }, "eeg_sphere_rad"},
		{"layers not increasing", func(s *config.Settings) {
			s.EEGLayers = []config.LayerSetting{{Rel: 0.9, Sigma: 1}, {Rel: 0.8, Sigma: 1}}
		}, "eeg_layers"},
		{"layers not ending at 1", func(s *config.Settings) {
			s.EEGLayers = []config.LayerSetting{{Rel: 0.9, Sigma: 1}}
		}, "eeg_layers"},
		{"layer sigma", func(s *config.Settings) {
			s.EEGLayers = []config.LayerSetting{{Rel: 1, Sigma: -1}}
		}, "eeg_layers"},
		{"negative mindist", func(s *config.Settings) { s.Mindist = -1 }, "mindist"},
		{"NaN mindist", func(s *config.Settings) { s.Mindist = math.NaN() }, "mindist"},
		{"unknown frame", func(s *config.Settings) { s.CoordFrame = "talairach" }, "coord_frame"},
		{"bad origin", func(s *config.Settings) { s.R0[1] = math.Inf(1) }, "r0"},
		{"negative workers", func(s *config.Settings) { s.Workers = -2 }, "workers"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validEEG()
			tc.edit(&in)
			_, err := config.Resolve(in)
			require.ErrorIs(t, err, config.ErrInvalidConfiguration)
			var fe *config.FieldError
			require.True(t, errors.As(err, &fe))
			require.Equal(t, tc.field, fe.Field)
		})
	}
}

func TestTransformSatisfiedByEitherName(t *testing.T) {
	in := validEEG()
	in.MRIHeadIdent = false
	in.MRIName = "T1.json"
	_, err := config.Resolve(in)
	require.NoError(t, err)

	in.MRIName = ""
	in.TransName = "trans.json"
	_, err = config.Resolve(in)
	require.NoError(t, err)
}

func TestBEMSkipsSphereChecks(t *testing.T) {
	in := validEEG()
	in.BEMName = "bem.json"
	in.EEGSphereRad = 0
	spec, err := config.Resolve(in)
	require.NoError(t, err)
	require.True(t, spec.UsesBEM())
}
