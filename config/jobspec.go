package config

import (
	"github.com/katalvlaran/leadfield/transform"
	"gonum.org/v1/gonum/spatial/r3"
)

// EEGModel holds the sphere-model choice for EEG.
type EEGModel struct {
	ModelFile           string         // optional document of named models
	ModelName           string         // model looked up by name
	ScalpRadius         float64        // metres, > 0
	Layers              []LayerSetting // explicit layers, innermost first; overrides ModelName when set
	UseEquivalentSource bool
	ScaleElectrodes     bool
}

// JobSpec is the validated, immutable description of one forward run.
// It is a value type; slices handed out by accessors are copies.
type JobSpec struct {
	srcName, measName, mriName, transName string
	bemName, solName, mindistOutName      string
	command                               string

	mriHeadIdent bool
	filterSpaces bool
	accurate     bool
	fixedOri     bool
	includeMEG   bool
	includeEEG   bool
	computeGrad  bool
	parallel     bool
	doAll        bool

	minDist    float64 // metres
	coordFrame transform.Frame
	labels     []string
	r0         r3.Vec
	eeg        EEGModel
	workers    int
}

func (s JobSpec) SourceSpaceName() string     { return s.srcName }
func (s JobSpec) MeasurementName() string     { return s.measName }
func (s JobSpec) MRIName() string             { return s.mriName }
func (s JobSpec) TransformName() string       { return s.transName }
func (s JobSpec) MRIHeadIdentity() bool       { return s.mriHeadIdent }
func (s JobSpec) BEMName() string             { return s.bemName }
func (s JobSpec) SolutionName() string        { return s.solName }
func (s JobSpec) MindistOutName() string      { return s.mindistOutName }
func (s JobSpec) Command() string             { return s.command }
func (s JobSpec) FilterSpaces() bool          { return s.filterSpaces }
func (s JobSpec) Accurate() bool              { return s.accurate }
func (s JobSpec) FixedOrientation() bool      { return s.fixedOri }
func (s JobSpec) IncludeMEG() bool            { return s.includeMEG }
func (s JobSpec) IncludeEEG() bool            { return s.includeEEG }
func (s JobSpec) ComputeGrad() bool           { return s.computeGrad }
func (s JobSpec) Parallel() bool              { return s.parallel }
func (s JobSpec) DoAll() bool                 { return s.doAll }
func (s JobSpec) MinDist() float64            { return s.minDist }
func (s JobSpec) CoordFrame() transform.Frame { return s.coordFrame }
func (s JobSpec) R0() r3.Vec                  { return s.r0 }
func (s JobSpec) Workers() int                { return s.workers }
func (s JobSpec) UsesBEM() bool               { return s.bemName != "" }

// Labels returns a copy of the requested label subset (nil = all).
func (s JobSpec) Labels() []string {
	if len(s.labels) == 0 {
		return nil
	}

	return append([]string(nil), s.labels...)
}

// EEG returns a copy of the sphere-model parameters.
func (s JobSpec) EEG() EEGModel {
	m := s.eeg
	m.Layers = append([]LayerSetting(nil), s.eeg.Layers...)

	return m
}
