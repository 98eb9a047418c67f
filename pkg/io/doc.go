// Package io reads and writes topology models as JSON or YAML.
//
// # Format
//
// A model has an optional graph block and two lists:
//
//	{
//	  "graph": {"id": "g", "type": "graph", "layout": "layered"},
//	  "nodes": [
//	    {"id": "ns", "type": "namespace", "group": true, "children": ["web", "db"]},
//	    {"id": "web", "type": "deployment", "width": 80, "height": 40},
//	    {"id": "db", "type": "statefulset", "shape": "rect"}
//	  ],
//	  "edges": [
//	    {"id": "web-db", "type": "connects", "source": "web", "target": "db"}
//	  ]
//	}
//
// The same document may be written as YAML; [ReadModel] accepts either and
// tells them apart by content, not by file extension.
//
// # Validation
//
// Reading checks structure only: every element needs a usable id. Whether
// edges point at existing nodes is decided when a controller loads the
// model, which skips and reports such edges instead of failing.
//
// # Export
//
// [WriteModel] emits indented JSON. [WriteModelFile] picks YAML when the
// path ends in .yaml or .yml.
package io
