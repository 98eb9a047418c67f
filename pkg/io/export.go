package io

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/matzehuels/topoview/pkg/topology"
)

// WriteModel encodes m as indented JSON.
func WriteModel(m topology.Model, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// WriteModelYAML encodes m as YAML.
func WriteModelYAML(m topology.Model, w io.Writer) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteModelFile writes m to path, as YAML for .yaml and .yml files and as
// JSON otherwise.
func WriteModelFile(m topology.Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = WriteModelYAML(m, f)
	default:
		err = WriteModel(m, f)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
