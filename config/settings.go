// Package config turns a raw settings bundle into the immutable JobSpec that
// every stage of the forward computation receives.
//
// Settings is the loose, decoded form (YAML/JSON, defaults from
// DefaultSettings). Resolve validates it in a fixed order and reports the
// first offending field as a *FieldError wrapping ErrInvalidConfiguration.
// Resolve performs no I/O: file existence is the loaders' business, and label
// existence is checked by the source-space filter once the space is loaded.
//
// Units: mindist is given in millimetres (the command-line convention)
// and stored in metres; r0 and eeg_sphere_rad are metres.
package config

// LayerSetting is one explicit sphere-model layer: relative radius in (0,1]
// and conductivity in S/m.
type LayerSetting struct {
	Rel   float64 `yaml:"rel" json:"rel"`
	Sigma float64 `yaml:"sigma" json:"sigma"`
}

// Settings mirrors the recognised settings of the forward computation.
type Settings struct {
	SrcName        string `yaml:"srcname" json:"srcname"`               // source space
	MeasName       string `yaml:"measname" json:"measname"`             // measurement (sensor geometry)
	MRIName        string `yaml:"mriname" json:"mriname"`               // MRI file holding the head↔MRI transform
	TransName      string `yaml:"transname" json:"transname"`           // explicit head↔MRI transform file
	MRIHeadIdent   bool   `yaml:"mri_head_ident" json:"mri_head_ident"` // head and MRI coordinates coincide
	BEMName        string `yaml:"bemname" json:"bemname"`
	SolName        string `yaml:"solname" json:"solname"` // output
	MindistOutName string `yaml:"mindistoutname" json:"mindistoutname"`

	FilterSpaces bool       `yaml:"filter_spaces" json:"filter_spaces"`
	R0           [3]float64 `yaml:"r0" json:"r0"` // sphere origin, metres
	Accurate     bool       `yaml:"accurate" json:"accurate"`
	FixedOri     bool       `yaml:"fixed_ori" json:"fixed_ori"`
	IncludeMEG   bool       `yaml:"include_meg" json:"include_meg"`
	IncludeEEG   bool       `yaml:"include_eeg" json:"include_eeg"`
	ComputeGrad  bool       `yaml:"compute_grad" json:"compute_grad"`
	Command      string     `yaml:"command" json:"command"`
	Mindist      float64    `yaml:"mindist" json:"mindist"` // millimetres
	CoordFrame   string     `yaml:"coord_frame" json:"coord_frame"`
	DoAll        bool       `yaml:"do_all" json:"do_all"`
	Labels       []string   `yaml:"labels" json:"labels"`

	EEGModelFile string         `yaml:"eeg_model_file" json:"eeg_model_file"`
	EEGModelName string         `yaml:"eeg_model_name" json:"eeg_model_name"`
	EEGSphereRad float64        `yaml:"eeg_sphere_rad" json:"eeg_sphere_rad"`
	EEGLayers    []LayerSetting `yaml:"eeg_layers" json:"eeg_layers"`
	ScaleEEGPos  bool           `yaml:"scale_eeg_pos" json:"scale_eeg_pos"`
	UseEquivEEG  bool           `yaml:"use_equiv_eeg" json:"use_equiv_eeg"`
	UseThreads   bool           `yaml:"use_threads" json:"use_threads"`
	Workers      int            `yaml:"workers" json:"workers"` // 0 = one per CPU
}

// Defaults applied by DefaultSettings.
const (
	DefaultEEGSphereRad = 0.09      // m
	DefaultEEGModelName = "Default" // built-in four-layer model
	DefaultCoordFrame   = "head"
)

// DefaultSettings returns the bundle every decoder starts from.
//
// Defaults:
//   - FilterSpaces, UseEquivEEG, UseThreads: true.
//   - EEGSphereRad 0.09 m, EEGModelName "Default", CoordFrame "head".
//   - everything else zero.
func DefaultSettings() Settings {
	return Settings{
		FilterSpaces: true,
		CoordFrame:   DefaultCoordFrame,
		EEGModelName: DefaultEEGModelName,
		EEGSphereRad: DefaultEEGSphereRad,
		UseEquivEEG:  true,
		UseThreads:   true,
	}
}
