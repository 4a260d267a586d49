// SPDX-License-Identifier: MIT

// Package loader reads the input documents of a forward run from disk.
//
// Every document may be JSON or YAML: files ending in .yaml or .yml go
// through gopkg.in/yaml.v3, everything else through encoding/json. Unknown
// fields are rejected in both. Loaders only translate documents into the
// in-memory types; validation beyond shape (closed surfaces, rigid
// rotations, label existence) stays with the owning package.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/katalvlaran/leadfield/config"
	"gopkg.in/yaml.v3"
)

var (
	// ErrDocument indicates a file that could not be read or decoded.
	ErrDocument = errors.New("loader: malformed document")

	// ErrShape indicates a decoded document with inconsistent contents
	// (bad indices, wrong vector length, unknown coil type).
	ErrShape = errors.New("loader: inconsistent document")
)

// decode reads path into v, picking the codec from the extension.
func decode(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", path, ErrDocument, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		err = dec.Decode(v)
	default:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		err = dec.Decode(v)
	}
	if err != nil {
		return fmt.Errorf("%s: %w: %w", path, ErrDocument, err)
	}

	return nil
}

// LoadSettings decodes a settings file on top of config.DefaultSettings, so
// omitted keys keep their defaults. The result still has to go through
// config.Resolve.
func LoadSettings(path string) (config.Settings, error) {
	s := config.DefaultSettings()
	if err := decode(path, &s); err != nil {
		return config.Settings{}, fmt.Errorf("LoadSettings: %w", err)
	}

	return s, nil
}
