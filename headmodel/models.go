// SPDX-License-Identifier: MIT

package headmodel

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

// Layer is one concentric shell: relative outer radius and conductivity (S/m).
type Layer struct {
	Rel   float64
	Sigma float64
}

// SphereModel is a named set of layers ordered innermost first; the last
// layer has Rel == 1 (the scalp).
type SphereModel struct {
	Name   string
	Layers []Layer
}

// Validate checks ordering and values.
func (m SphereModel) Validate() error {
	if len(m.Layers) == 0 {
		return fmt.Errorf("sphere model %q: no layers: %w", m.Name, ErrIllConditionedGeometry)
	}
	prev := 0.0
	for i, l := range m.Layers {
		if math.IsNaN(l.Rel) || l.Rel <= prev || l.Rel > 1 {
			return fmt.Errorf("sphere model %q: layer %d radius %g: %w", m.Name, i, l.Rel, ErrIllConditionedGeometry)
		}
		if math.IsNaN(l.Sigma) || math.IsInf(l.Sigma, 0) || l.Sigma <= 0 {
			return fmt.Errorf("sphere model %q: layer %d conductivity %g: %w", m.Name, i, l.Sigma, ErrIllConditionedGeometry)
		}
		prev = l.Rel
	}
	if prev != 1 {
		return fmt.Errorf("sphere model %q: outer radius %g != 1: %w", m.Name, prev, ErrIllConditionedGeometry)
	}

	return nil
}

// Built-in model names.
const (
	ModelDefault     = "Default"
	ModelHomogeneous = "Homogeneous"
)

func builtinModels() []SphereModel {
	return []SphereModel{
		{Name: ModelDefault, Layers: []Layer{
			{Rel: 0.90, Sigma: 0.33},   // brain
			{Rel: 0.92, Sigma: 1.0},    // CSF
			{Rel: 0.97, Sigma: 0.0042}, // skull
			{Rel: 1.0, Sigma: 0.33},    // scalp
		}},
		{Name: ModelHomogeneous, Layers: []Layer{{Rel: 1.0, Sigma: 0.33}}},
	}
}

// Registry maps case-insensitive model names to sphere models.
// Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	models map[string]SphereModel
}

// NewRegistry returns a registry preloaded with the built-in models.
func NewRegistry() *Registry {
	r := &Registry{models: make(map[string]SphereModel)}
	for _, m := range builtinModels() {
		r.models[strings.ToLower(m.Name)] = m
	}

	return r
}

// Register adds or replaces a model after validating it.
func (r *Registry) Register(m SphereModel) error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("sphere model without a name: %w", ErrIllConditionedGeometry)
	}
	if err := m.Validate(); err != nil {
		return err
	}
	m.Layers = append([]Layer(nil), m.Layers...)
	r.mu.Lock()
	r.models[strings.ToLower(m.Name)] = m
	r.mu.Unlock()

	return nil
}

// Lookup returns a copy of the named model.
func (r *Registry) Lookup(name string) (SphereModel, error) {
	r.mu.RLock()
	m, ok := r.models[strings.ToLower(strings.TrimSpace(name))]
	r.mu.RUnlock()
	if !ok {
		return SphereModel{}, fmt.Errorf("%q: %w", name, ErrUnknownModel)
	}
	m.Layers = append([]Layer(nil), m.Layers...)

	return m, nil
}

// Names lists registered model names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m.Name)
	}
	sort.Strings(out)

	return out
}
