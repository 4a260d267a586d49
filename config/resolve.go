package config

import (
	"math"
	"strings"

	"github.com/katalvlaran/leadfield/transform"
	"gonum.org/v1/gonum/spatial/r3"
)

// mmToM converts the user-facing mindist (mm) to metres.
const mmToM = 1e-3

// Resolve validates raw settings and produces the immutable JobSpec.
//
// Validation order (first failure wins, reported as *FieldError):
//  1. at least one of include_meg / include_eeg;
//  2. srcname, measname, solname non-empty;
//  3. without mri_head_ident, transname or mriname non-empty;
//  4. EEG without a BEM: a sphere model (name or explicit layers) and a
//     finite eeg_sphere_rad > 0; explicit layers strictly increasing in
//     (0,1] ending at 1 with finite positive conductivities;
//  5. mindist finite and ≥ 0;
//  6. coord_frame ∈ {head, mri, device} (empty means head);
//  7. r0 finite;
//  8. workers ≥ 0.
//
// Labels are copied verbatim (blank entries dropped, duplicates removed);
// their existence is not checked here.
func Resolve(in Settings) (JobSpec, error) {
	if !in.IncludeMEG && !in.IncludeEEG {
		return JobSpec{}, fieldErr("include_meg/include_eeg", "at least one of MEG or EEG must be requested")
	}

	for _, f := range []struct{ name, value string }{
		{"srcname", in.SrcName},
		{"measname", in.MeasName},
		{"solname", in.SolName},
	} {
		if strings.TrimSpace(f.value) == "" {
			return JobSpec{}, fieldErr(f.name, "must not be empty")
		}
	}

	if !in.MRIHeadIdent && strings.TrimSpace(in.TransName) == "" && strings.TrimSpace(in.MRIName) == "" {
		return JobSpec{}, fieldErr("transname", "a head↔MRI transform (transname or mriname) is required unless mri_head_ident is set")
	}

	if in.IncludeEEG && strings.TrimSpace(in.BEMName) == "" {
		if err := validateSphereModel(in); err != nil {
			return JobSpec{}, err
		}
	}

	if math.IsNaN(in.Mindist) || math.IsInf(in.Mindist, 0) || in.Mindist < 0 {
		return JobSpec{}, fieldErr("mindist", "must be finite and >= 0, got %g", in.Mindist)
	}

	frame := transform.FrameHead
	if strings.TrimSpace(in.CoordFrame) != "" {
		f, err := transform.ParseFrame(in.CoordFrame)
		if err != nil {
			return JobSpec{}, fieldErr("coord_frame", "%q is not one of head, mri, device", in.CoordFrame)
		}
		frame = f
	}

	for i, v := range in.R0 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return JobSpec{}, fieldErr("r0", "component %d is not finite", i)
		}
	}

	if in.Workers < 0 {
		return JobSpec{}, fieldErr("workers", "must be >= 0, got %d", in.Workers)
	}

	modelName := strings.TrimSpace(in.EEGModelName)
	if modelName == "" {
		modelName = DefaultEEGModelName
	}

	return JobSpec{
		srcName:        in.SrcName,
		measName:       in.MeasName,
		mriName:        in.MRIName,
		transName:      in.TransName,
		bemName:        strings.TrimSpace(in.BEMName),
		solName:        in.SolName,
		mindistOutName: in.MindistOutName,
		command:        in.Command,
		mriHeadIdent:   in.MRIHeadIdent,
		filterSpaces:   in.FilterSpaces,
		accurate:       in.Accurate,
		fixedOri:       in.FixedOri,
		includeMEG:     in.IncludeMEG,
		includeEEG:     in.IncludeEEG,
		computeGrad:    in.ComputeGrad,
		parallel:       in.UseThreads,
		doAll:          in.DoAll,
		minDist:        in.Mindist * mmToM,
		coordFrame:     frame,
		labels:         normalizeLabels(in.Labels),
		r0:             r3.Vec{X: in.R0[0], Y: in.R0[1], Z: in.R0[2]},
		eeg: EEGModel{
			ModelFile:           in.EEGModelFile,
			ModelName:           modelName,
			ScalpRadius:         in.EEGSphereRad,
			Layers:              append([]LayerSetting(nil), in.EEGLayers...),
			UseEquivalentSource: in.UseEquivEEG,
			ScaleElectrodes:     in.ScaleEEGPos,
		},
		workers: in.Workers,
	}, nil
}

func validateSphereModel(in Settings) error {
	if r := in.EEGSphereRad; math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		return fieldErr("eeg_sphere_rad", "must be finite and > 0, got %g", r)
	}
	if len(in.EEGLayers) == 0 {
		// An empty name falls back to the built-in default model.
		return nil
	}

	prev := 0.0
	for i, l := range in.EEGLayers {
		if math.IsNaN(l.Rel) || l.Rel <= prev || l.Rel > 1 {
			return fieldErr("eeg_layers", "layer %d: relative radius %g must increase within (0,1]", i, l.Rel)
		}
		if math.IsNaN(l.Sigma) || math.IsInf(l.Sigma, 0) || l.Sigma <= 0 {
			return fieldErr("eeg_layers", "layer %d: conductivity %g must be finite and > 0", i, l.Sigma)
		}
		prev = l.Rel
	}
	if prev != 1 {
		return fieldErr("eeg_layers", "outermost layer must have relative radius 1, got %g", prev)
	}

	return nil
}

func normalizeLabels(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, l := range in {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	if len(out) == 0 {
		return nil
	}

	return out
}
