// SPDX-License-Identifier: MIT

package loader

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/leadfield/geometry"
	"github.com/katalvlaran/leadfield/headmodel"
	"github.com/katalvlaran/leadfield/sensors"
	"github.com/katalvlaran/leadfield/sourcespace"
	"github.com/katalvlaran/leadfield/transform"
	"gonum.org/v1/gonum/spatial/r3"
)

// Default frames when a document does not name one.
const (
	defaultSourceFrame    = "mri"
	defaultGeometryFrame  = "mri"
	defaultCoilFrame      = "device"
	defaultElectrodeFrame = "head"
)

type vec [3]float64

func (v vec) r3() r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

func frame(s, fallback string) (transform.Frame, error) {
	if strings.TrimSpace(s) == "" {
		s = fallback
	}
	f, err := transform.ParseFrame(s)
	if err != nil {
		return transform.FrameUnknown, fmt.Errorf("%w: %w", ErrShape, err)
	}

	return f, nil
}

type pointDoc struct {
	Index    *int   `json:"index" yaml:"index"`
	Pos      vec    `json:"pos" yaml:"pos"`
	Normal   vec    `json:"normal" yaml:"normal"`
	Label    string `json:"label" yaml:"label"`
	Inactive bool   `json:"inactive" yaml:"inactive"`
}

type sourceDoc struct {
	Name       string     `json:"name" yaml:"name"`
	CoordFrame string     `json:"coord_frame" yaml:"coord_frame"`
	Points     []pointDoc `json:"points" yaml:"points"`
}

// LoadSourceSpace reads a source-space document:
//
//	{"name": "...", "coord_frame": "mri", "points": [{"index": 0, "pos": [x,y,z],
//	  "normal": [x,y,z], "label": "lh", "inactive": false}, ...]}
//
// A point without "index" takes its position in the list. Positions are
// metres; the frame defaults to mri.
func LoadSourceSpace(path string) (sourcespace.Space, error) {
	var doc sourceDoc
	if err := decode(path, &doc); err != nil {
		return sourcespace.Space{}, fmt.Errorf("LoadSourceSpace: %w", err)
	}
	f, err := frame(doc.CoordFrame, defaultSourceFrame)
	if err != nil {
		return sourcespace.Space{}, fmt.Errorf("LoadSourceSpace(%s): %w", path, err)
	}
	name := doc.Name
	if name == "" {
		name = path
	}

	sp := sourcespace.Space{Name: name, Frame: f, Points: make([]sourcespace.Point, len(doc.Points))}
	for i, p := range doc.Points {
		idx := i
		if p.Index != nil {
			idx = *p.Index
		}
		sp.Points[i] = sourcespace.Point{
			Index:    idx,
			Pos:      p.Pos.r3(),
			Normal:   p.Normal.r3(),
			Label:    p.Label,
			Inactive: p.Inactive,
		}
	}
	if err = sp.Validate(); err != nil {
		return sourcespace.Space{}, fmt.Errorf("LoadSourceSpace(%s): %w", path, err)
	}

	return sp, nil
}

type surfaceDoc struct {
	ID        string   `json:"id" yaml:"id"`
	Sigma     float64  `json:"sigma" yaml:"sigma"`
	Vertices  []vec    `json:"vertices" yaml:"vertices"`
	Triangles [][3]int `json:"triangles" yaml:"triangles"`
}

type shellDoc struct {
	Radius float64 `json:"radius" yaml:"radius"`
	Sigma  float64 `json:"sigma" yaml:"sigma"`
}

type sphereDoc struct {
	Origin vec        `json:"origin" yaml:"origin"`
	Shells []shellDoc `json:"shells" yaml:"shells"`
}

type geometryDoc struct {
	CoordFrame string       `json:"coord_frame" yaml:"coord_frame"`
	Surfaces   []surfaceDoc `json:"surfaces" yaml:"surfaces"`
	Sphere     *sphereDoc   `json:"sphere" yaml:"sphere"`
}

// LoadGeometry reads a conductor document: BEM surfaces ordered outermost
// first, each with the conductivity of the compartment it encloses, and/or
// an explicit layered sphere (shells innermost first, absolute radii).
// Surface checks (closed, outward, nested) run when the head model is solved.
func LoadGeometry(path string) (headmodel.Geometry, error) {
	var doc geometryDoc
	if err := decode(path, &doc); err != nil {
		return headmodel.Geometry{}, fmt.Errorf("LoadGeometry: %w", err)
	}
	f, err := frame(doc.CoordFrame, defaultGeometryFrame)
	if err != nil {
		return headmodel.Geometry{}, fmt.Errorf("LoadGeometry(%s): %w", path, err)
	}

	g := headmodel.Geometry{Frame: f}
	for k, sd := range doc.Surfaces {
		id := sd.ID
		if id == "" {
			id = fmt.Sprintf("surface-%d", k)
		}
		verts := make([]r3.Vec, len(sd.Vertices))
		for i, v := range sd.Vertices {
			verts[i] = v.r3()
		}
		s, err := geometry.NewSurface(id, verts, sd.Triangles)
		if err != nil {
			return headmodel.Geometry{}, fmt.Errorf("LoadGeometry(%s): %w: %w", path, ErrShape, err)
		}
		g.Surfaces = append(g.Surfaces, s)
		g.Sigma = append(g.Sigma, sd.Sigma)
	}
	if doc.Sphere != nil {
		sp := &headmodel.Sphere{Origin: doc.Sphere.Origin.r3()}
		for _, s := range doc.Sphere.Shells {
			sp.Shells = append(sp.Shells, headmodel.Shell{Radius: s.Radius, Sigma: s.Sigma})
		}
		if len(sp.Shells) == 0 {
			return headmodel.Geometry{}, fmt.Errorf("LoadGeometry(%s): sphere without shells: %w", path, ErrShape)
		}
		g.Sphere = sp
	}

	return g, nil
}

type integrationDoc struct {
	Pos    vec     `json:"pos" yaml:"pos"`
	Dir    vec     `json:"dir" yaml:"dir"`
	Weight float64 `json:"weight" yaml:"weight"`
}

type coilDoc struct {
	Name        string           `json:"name" yaml:"name"`
	Type        string           `json:"type" yaml:"type"` // point, planar, square, custom
	Pos         vec              `json:"pos" yaml:"pos"`
	Dir         vec              `json:"dir" yaml:"dir"`
	BaselineDir vec              `json:"baseline_dir" yaml:"baseline_dir"`
	Baseline    float64          `json:"baseline" yaml:"baseline"`
	Side        float64          `json:"side" yaml:"side"`
	Points      []integrationDoc `json:"points" yaml:"points"`
	Accurate    []integrationDoc `json:"accurate" yaml:"accurate"`
}

type electrodeDoc struct {
	Name string `json:"name" yaml:"name"`
	Pos  vec    `json:"pos" yaml:"pos"`
}

type sensorDoc struct {
	Name           string            `json:"name" yaml:"name"`
	CoilFrame      string            `json:"coil_frame" yaml:"coil_frame"`
	Coils          []coilDoc         `json:"coils" yaml:"coils"`
	ElectrodeFrame string            `json:"electrode_frame" yaml:"electrode_frame"`
	Electrodes     []electrodeDoc    `json:"electrodes" yaml:"electrodes"`
	DevHead        *transform.Record `json:"dev_head" yaml:"dev_head"`
}

// LoadSensors reads a measurement document: MEG coils (in the device frame
// by default) and EEG electrodes (head frame by default), plus the optional
// device→head registration. Coil types:
//
//	point   single node at pos along dir
//	planar  two nodes ±baseline/2 along baseline_dir
//	square  flat loop of the given side (four nodes in accurate mode)
//	custom  explicit points / accurate node lists
func LoadSensors(path string) (sensors.Array, error) {
	var doc sensorDoc
	if err := decode(path, &doc); err != nil {
		return sensors.Array{}, fmt.Errorf("LoadSensors: %w", err)
	}
	cf, err := frame(doc.CoilFrame, defaultCoilFrame)
	if err != nil {
		return sensors.Array{}, fmt.Errorf("LoadSensors(%s): %w", path, err)
	}
	ef, err := frame(doc.ElectrodeFrame, defaultElectrodeFrame)
	if err != nil {
		return sensors.Array{}, fmt.Errorf("LoadSensors(%s): %w", path, err)
	}
	name := doc.Name
	if name == "" {
		name = path
	}

	arr := sensors.Array{Name: name, CoilFrame: cf, ElectrodeFrame: ef}
	for i, cd := range doc.Coils {
		c, err := coil(cd)
		if err != nil {
			return sensors.Array{}, fmt.Errorf("LoadSensors(%s): coil %d: %w", path, i, err)
		}
		arr.Coils = append(arr.Coils, c)
	}
	for _, ed := range doc.Electrodes {
		arr.Electrodes = append(arr.Electrodes, sensors.Electrode{Name: ed.Name, Pos: ed.Pos.r3()})
	}
	if doc.DevHead != nil {
		if doc.DevHead.Name == "" {
			doc.DevHead.Name = path + "#dev_head"
		}
		r, err := doc.DevHead.Rigid()
		if err != nil {
			return sensors.Array{}, fmt.Errorf("LoadSensors(%s): %w", path, err)
		}
		if r.From != transform.FrameDevice || r.To != transform.FrameHead {
			r = r.Inverse()
		}
		if r.From != transform.FrameDevice || r.To != transform.FrameHead {
			return sensors.Array{}, fmt.Errorf("LoadSensors(%s): %w", path,
				&transform.LoadError{Source: doc.DevHead.Name, Reason: fmt.Sprintf("expected device→head, got %s→%s", doc.DevHead.From, doc.DevHead.To)})
		}
		arr.DevHead = &r
	}

	return arr, nil
}

func coil(cd coilDoc) (sensors.Coil, error) {
	switch strings.ToLower(strings.TrimSpace(cd.Type)) {
	case "", "point":
		return sensors.PointMagnetometer(cd.Name, cd.Pos.r3(), cd.Dir.r3()), nil
	case "planar":
		if cd.Baseline <= 0 {
			return sensors.Coil{}, fmt.Errorf("%s: baseline %g: %w", cd.Name, cd.Baseline, ErrShape)
		}
		return sensors.PlanarGradiometer(cd.Name, cd.Pos.r3(), cd.Dir.r3(), cd.BaselineDir.r3(), cd.Baseline), nil
	case "square":
		if cd.Side <= 0 {
			return sensors.Coil{}, fmt.Errorf("%s: side %g: %w", cd.Name, cd.Side, ErrShape)
		}
		return sensors.SquareMagnetometer(cd.Name, cd.Pos.r3(), cd.Dir.r3(), cd.Side), nil
	case "custom":
		if len(cd.Points) == 0 {
			return sensors.Coil{}, fmt.Errorf("%s: custom coil without points: %w", cd.Name, ErrShape)
		}
		return sensors.Coil{Name: cd.Name, Points: nodes(cd.Points), Accurate: nodes(cd.Accurate)}, nil
	default:
		return sensors.Coil{}, fmt.Errorf("%s: unknown coil type %q: %w", cd.Name, cd.Type, ErrShape)
	}
}

func nodes(in []integrationDoc) []sensors.IntegrationPoint {
	if len(in) == 0 {
		return nil
	}
	out := make([]sensors.IntegrationPoint, len(in))
	for i, n := range in {
		out[i] = sensors.IntegrationPoint{Pos: n.Pos.r3(), Dir: r3.Unit(n.Dir.r3()), Weight: n.Weight}
	}

	return out
}

// LoadTransform reads a transform record. Every failure, including a
// missing file, is a *transform.LoadError so that errors.Is(err,
// transform.ErrTransformLoad) holds. The record is checked for rigidity
// here; frame direction is resolved by transform.Resolve.
func LoadTransform(path string) (*transform.Record, error) {
	var rec transform.Record
	if err := decode(path, &rec); err != nil {
		return nil, &transform.LoadError{Source: path, Reason: "unreadable", Err: err}
	}
	if rec.Name == "" {
		rec.Name = path
	}
	if _, err := rec.Rigid(); err != nil {
		return nil, err
	}

	return &rec, nil
}

type modelDoc struct {
	Name   string `json:"name" yaml:"name"`
	Layers []struct {
		Rel   float64 `json:"rel" yaml:"rel"`
		Sigma float64 `json:"sigma" yaml:"sigma"`
	} `json:"layers" yaml:"layers"`
}

type modelsDoc struct {
	Models []modelDoc `json:"models" yaml:"models"`
}

// LoadSphereModels reads a model file into a registry that also holds the
// built-in models. A model with a built-in name replaces it.
func LoadSphereModels(path string) (*headmodel.Registry, error) {
	var doc modelsDoc
	if err := decode(path, &doc); err != nil {
		return nil, fmt.Errorf("LoadSphereModels: %w", err)
	}

	reg := headmodel.NewRegistry()
	for _, md := range doc.Models {
		m := headmodel.SphereModel{Name: md.Name}
		for _, l := range md.Layers {
			m.Layers = append(m.Layers, headmodel.Layer{Rel: l.Rel, Sigma: l.Sigma})
		}
		if err := reg.Register(m); err != nil {
			return nil, fmt.Errorf("LoadSphereModels(%s): %w", path, err)
		}
	}

	return reg, nil
}
