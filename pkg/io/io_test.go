package io

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	perrors "github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/topology"
)

const modelJSON = `{
  "graph": {"id": "g", "type": "graph", "layout": "grid"},
  "nodes": [
    {"id": "ns", "type": "namespace", "group": true, "children": ["web"]},
    {"id": "web", "type": "deployment", "width": 80, "height": 40, "shape": "RECT"}
  ],
  "edges": [{"id": "e1", "type": "connects", "source": "ns", "target": "web"}]
}`

const modelYAML = `
graph:
  id: g
  type: graph
  layout: grid
nodes:
  - id: ns
    type: namespace
    group: true
    children: [web]
  - id: web
    type: deployment
    width: 80
    height: 40
    shape: rect
edges:
  - id: e1
    type: connects
    source: ns
    target: web
`

func TestReadModel(t *testing.T) {
	for name, src := range map[string]string{"json": modelJSON, "yaml": modelYAML} {
		t.Run(name, func(t *testing.T) {
			m, err := ReadModel(strings.NewReader(src))
			if err != nil {
				t.Fatalf("ReadModel: %v", err)
			}
			if m.Graph == nil || m.Graph.Layout != "grid" {
				t.Errorf("graph = %+v", m.Graph)
			}
			if len(m.Nodes) != 2 || len(m.Edges) != 1 {
				t.Fatalf("got %d nodes, %d edges", len(m.Nodes), len(m.Edges))
			}
			web := m.Nodes[1]
			if web.Shape != topology.ShapeRect {
				t.Errorf("shape = %q, want rect", web.Shape)
			}
			if web.Width == nil || *web.Width != 80 {
				t.Errorf("width = %v", web.Width)
			}
			if got := m.Nodes[0].Children; len(got) != 1 || got[0] != "web" {
				t.Errorf("children = %v", got)
			}
		})
	}
}

func TestReadModelErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", "  \n"},
		{"malformed", `{"nodes": [`},
		{"missing node id", `{"nodes": [{"type": "pod"}]}`},
		{"missing edge target", `{"nodes": [{"id": "a"}], "edges": [{"id": "e", "source": "a"}]}`},
		{"bad shape", `{"nodes": [{"id": "a", "shape": "hexagon"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadModel(strings.NewReader(tt.src))
			if !perrors.Is(err, perrors.ErrCodeInvalidModel) {
				t.Errorf("err = %v, want INVALID_MODEL", err)
			}
		})
	}
}

func TestReadModelFileMissing(t *testing.T) {
	_, err := ReadModelFile(filepath.Join(t.TempDir(), "nope.json"))
	if !perrors.Is(err, perrors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestWriteModelFileRoundTrip(t *testing.T) {
	m, err := ReadModel(strings.NewReader(modelJSON))
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"model.json", "model.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := WriteModelFile(m, path); err != nil {
				t.Fatal(err)
			}
			got, err := ReadModelFile(path)
			if err != nil {
				t.Fatal(err)
			}
			var a, b bytes.Buffer
			WriteModel(m, &a)
			WriteModel(got, &b)
			if a.String() != b.String() {
				t.Errorf("round trip mismatch:\n%s\nvs\n%s", a.String(), b.String())
			}
		})
	}
}
