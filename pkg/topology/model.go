package topology

import (
	"fmt"
	"strings"
)

// ModelKind discriminates the three element variants.
type ModelKind string

// Element kinds.
const (
	KindGraph ModelKind = "graph"
	KindNode  ModelKind = "node"
	KindEdge  ModelKind = "edge"
)

// NodeShape selects the outline used for rendering and anchoring.
type NodeShape string

// Node shapes. The empty shape means "unset" and resolves to circle.
const (
	ShapeCircle NodeShape = "circle"
	ShapeRect   NodeShape = "rect"
)

// UnmarshalText accepts the shape names case-insensitively.
func (s *NodeShape) UnmarshalText(text []byte) error {
	switch v := NodeShape(strings.ToLower(string(text))); v {
	case "", ShapeCircle, ShapeRect:
		*s = v
		return nil
	default:
		return fmt.Errorf("unknown node shape %q", text)
	}
}

// AnchorEnd selects which end of connected edges an anchor serves.
type AnchorEnd int

const (
	AnchorTarget AnchorEnd = iota
	AnchorSource
	AnchorBoth
)

// PointTuple is an (x, y) pair as it appears in serialized models.
type PointTuple [2]float64

// State is free-form key/value state attached to a controller or element.
type State map[string]any

// ElementModel holds the fields shared by every element model.
type ElementModel struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Label    string         `json:"label,omitempty"`
	Visible  *bool          `json:"visible,omitempty"`
	Children []string       `json:"children,omitempty"`
	Data     any            `json:"data,omitempty"`
	Style    map[string]any `json:"style,omitempty"`
}

// NodeModel describes a node. Unset geometry keeps the element's current value.
type NodeModel struct {
	ElementModel
	X      *float64  `json:"x,omitempty"`
	Y      *float64  `json:"y,omitempty"`
	Width  *float64  `json:"width,omitempty"`
	Height *float64  `json:"height,omitempty"`
	Group  bool      `json:"group,omitempty"`
	Shape  NodeShape `json:"shape,omitempty"`
}

// EdgeModel describes an edge between two node ids.
type EdgeModel struct {
	ElementModel
	Source     string       `json:"source,omitempty"`
	Target     string       `json:"target,omitempty"`
	Bendpoints []PointTuple `json:"bendpoints,omitempty"`
}

// GraphModel describes the root graph and its viewport.
type GraphModel struct {
	ElementModel
	Layout string   `json:"layout,omitempty"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Scale  *float64 `json:"scale,omitempty"`
}

// Model is a serializable snapshot of a whole diagram.
type Model struct {
	Graph *GraphModel `json:"graph,omitempty"`
	Nodes []NodeModel `json:"nodes,omitempty"`
	Edges []EdgeModel `json:"edges,omitempty"`
}

// Bool returns a pointer to b, for optional model fields.
func Bool(b bool) *bool { return &b }

// Float returns a pointer to f, for optional model fields.
func Float(f float64) *float64 { return &f }
