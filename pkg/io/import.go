package io

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"sigs.k8s.io/yaml"

	perrors "github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/topology"
)

// ReadModel decodes a JSON or YAML model from r.
//
// Errors carry [perrors.ErrCodeInvalidModel]. ReadModel does not close r.
func ReadModel(r io.Reader) (topology.Model, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return topology.Model{}, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return topology.Model{}, perrors.New(perrors.ErrCodeInvalidModel, "empty model")
	}

	// YAML is a superset of JSON, so one conversion covers both.
	data, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return topology.Model{}, perrors.Wrap(perrors.ErrCodeInvalidModel, err, "decode model")
	}
	var m topology.Model
	if err := json.Unmarshal(data, &m); err != nil {
		return topology.Model{}, perrors.Wrap(perrors.ErrCodeInvalidModel, err, "decode model")
	}
	if err := validate(m); err != nil {
		return topology.Model{}, err
	}
	return m, nil
}

// ReadModelFile reads the model stored at path.
func ReadModelFile(path string) (topology.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return topology.Model{}, perrors.Wrap(perrors.ErrCodeNotFound, err, "model file %s", path)
		}
		return topology.Model{}, err
	}
	defer f.Close()
	return ReadModel(f)
}

func validate(m topology.Model) error {
	for i, n := range m.Nodes {
		if err := perrors.ValidateElementID(n.ID); err != nil {
			return perrors.Wrap(perrors.ErrCodeInvalidModel, err, "node %d", i)
		}
	}
	for i, e := range m.Edges {
		if err := perrors.ValidateElementID(e.ID); err != nil {
			return perrors.Wrap(perrors.ErrCodeInvalidModel, err, "edge %d", i)
		}
		if e.Source == "" || e.Target == "" {
			return perrors.New(perrors.ErrCodeInvalidModel, "edge %q: source and target are required", e.ID)
		}
	}
	return nil
}
