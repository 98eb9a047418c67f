// Package pkg provides the libraries behind topoview.
//
// # Overview
//
// topoview lays out, renders and serves the topology view of a cluster
// console, and drives the console flows around it. The pkg directory is
// organized into four areas:
//
//  1. [topology], [geom] - the scene graph: elements, ownership, geometry
//  2. [layout], [surface], [debounce] - placing nodes and drawing frames
//  3. [pipeline], [io], [cache], [observability] - orchestration
//     (read → layout → render) with caching and metrics
//  4. [kube], [ocs], [tekton], [kubevirt] - cluster flows: storage node
//     selection, pipeline import and runs, virtual machine status
//
// # Architecture
//
// The typical data flow of a render:
//
//	Model file (JSON/YAML)
//	         ↓
//	    [io] package (decode + validate)
//	         ↓
//	    [pipeline] package (layout stage, cached by model hash)
//	         ↓
//	    [topology] Controller + [surface] (SVG frame)
//	         ↓
//	    SVG/JSON output, or a WebSocket frame
//
// # Quick Start
//
//	m, _ := io.ReadModelFile("app.yaml")
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, err := runner.Execute(ctx, m, pipeline.Options{Formats: []string{"svg"}})
//
// [topology]: github.com/matzehuels/topoview/pkg/topology
// [geom]: github.com/matzehuels/topoview/pkg/geom
// [layout]: github.com/matzehuels/topoview/pkg/layout
// [surface]: github.com/matzehuels/topoview/pkg/surface
// [debounce]: github.com/matzehuels/topoview/pkg/debounce
// [pipeline]: github.com/matzehuels/topoview/pkg/pipeline
// [io]: github.com/matzehuels/topoview/pkg/io
// [cache]: github.com/matzehuels/topoview/pkg/cache
// [observability]: github.com/matzehuels/topoview/pkg/observability
// [kube]: github.com/matzehuels/topoview/pkg/kube
// [ocs]: github.com/matzehuels/topoview/pkg/ocs
// [tekton]: github.com/matzehuels/topoview/pkg/tekton
// [kubevirt]: github.com/matzehuels/topoview/pkg/kubevirt
package pkg
