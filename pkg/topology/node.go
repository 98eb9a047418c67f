package topology

import (
	"github.com/matzehuels/topoview/pkg/geom"
)

// StyleGroupPadding is the style key holding a group's padding around its
// children. Accepted values are a number, a [geom.Padding] or a map with
// top/right/bottom/left entries.
const StyleGroupPadding = "padding"

// Node is a positioned element. A node flagged as a group derives its bounds
// from its child nodes.
type Node struct {
	element

	bounds  geom.Rect
	group   bool
	shape   NodeShape
	anchors map[AnchorEnd]Anchor
}

// NewNode returns a detached node.
func NewNode(id, typ string) *Node {
	n := &Node{}
	n.init(n, KindNode, id, typ)
	return n
}

// Bounds returns the node's bounds in its parent's space. For a group with
// child nodes this is the union of the children expanded by the group
// padding.
func (n *Node) Bounds() geom.Rect {
	if n.group {
		var r geom.Rect
		has := false
		for _, c := range n.Nodes() {
			if !has {
				r, has = c.Bounds(), true
				continue
			}
			r = r.Union(c.Bounds())
		}
		if has {
			return r.Expand(groupPadding(n))
		}
	}
	return n.bounds
}

// SetBounds replaces the bounds. Moving a group with children moves the
// children by the same offset.
func (n *Node) SetBounds(r geom.Rect) {
	if n.group {
		if kids := n.Nodes(); len(kids) > 0 {
			cur := n.Bounds()
			dx, dy := r.X-cur.X, r.Y-cur.Y
			if dx != 0 || dy != 0 {
				for _, c := range kids {
					b := c.Bounds()
					b.Translate(dx, dy)
					c.SetBounds(b)
				}
			}
		}
	}
	n.bounds = r
	n.changed()
}

// Position returns the top-left corner.
func (n *Node) Position() geom.Point {
	b := n.Bounds()
	return geom.NewPoint(b.X, b.Y)
}

// SetPosition moves the node keeping its size.
func (n *Node) SetPosition(p geom.Point) {
	b := n.Bounds()
	n.SetBounds(*b.SetLocation(p.X, p.Y))
}

func (n *Node) Dimensions() geom.Dimensions { return n.Bounds().Dimensions() }

func (n *Node) SetDimensions(d geom.Dimensions) {
	b := n.bounds
	n.bounds = *b.SetSize(d.Width, d.Height)
	n.changed()
}

func (n *Node) IsGroup() bool { return n.group }

func (n *Node) SetGroup(group bool) {
	n.group = group
	n.changed()
}

// Shape returns the node outline. Unset shapes resolve to circle.
func (n *Node) Shape() NodeShape {
	if n.shape == "" {
		return ShapeCircle
	}
	return n.shape
}

func (n *Node) SetShape(shape NodeShape) {
	n.shape = shape
	n.changed()
}

// Nodes returns the node children.
func (n *Node) Nodes() []*Node {
	var out []*Node
	for _, c := range n.children {
		if cn, ok := c.(*Node); ok {
			out = append(out, cn)
		}
	}
	return out
}

// SourceEdges returns the edges leaving n, in document order.
func (n *Node) SourceEdges() []*Edge {
	return n.edges(func(e *Edge) bool { return e.source == n })
}

// TargetEdges returns the edges arriving at n, in document order.
func (n *Node) TargetEdges() []*Edge {
	return n.edges(func(e *Edge) bool { return e.target == n })
}

func (n *Node) edges(match func(*Edge) bool) []*Edge {
	if n.controller == nil || n.controller.graph == nil {
		return nil
	}
	var out []*Edge
	walk(n.controller.graph, func(el GraphElement) {
		if e, ok := el.(*Edge); ok && match(e) {
			out = append(out, e)
		}
	})
	return out
}

// Anchor returns the anchor used for the given edge end. Without an
// explicit anchor, circles use an ellipse and rects or groups use the box.
func (n *Node) Anchor(end AnchorEnd) Anchor {
	if a, ok := n.anchors[end]; ok {
		return a
	}
	if a, ok := n.anchors[AnchorBoth]; ok {
		return a
	}
	if n.group || n.Shape() == ShapeRect {
		return RectAnchor{Node: n}
	}
	return EllipseAnchor{Node: n}
}

// SetAnchor installs a for the given end. [AnchorBoth] replaces both ends.
func (n *Node) SetAnchor(a Anchor, end AnchorEnd) {
	if n.anchors == nil {
		n.anchors = map[AnchorEnd]Anchor{}
	}
	if end == AnchorBoth {
		delete(n.anchors, AnchorSource)
		delete(n.anchors, AnchorTarget)
	}
	n.anchors[end] = a
	n.changed()
}

// SetModel applies m. Unset geometry fields keep their current value.
func (n *Node) SetModel(m NodeModel) {
	n.applyModel(m.ElementModel)
	b := n.bounds
	if m.X != nil {
		b.X = *m.X
	}
	if m.Y != nil {
		b.Y = *m.Y
	}
	if m.Width != nil {
		b.Width = *m.Width
	}
	if m.Height != nil {
		b.Height = *m.Height
	}
	n.bounds = b
	n.group = n.group || m.Group
	if m.Shape != "" {
		n.shape = m.Shape
	}
	n.changed()
}

// Model returns a snapshot of the node.
func (n *Node) Model() NodeModel {
	b := n.Bounds()
	return NodeModel{
		ElementModel: n.elementModel(),
		X:            Float(b.X),
		Y:            Float(b.Y),
		Width:        Float(b.Width),
		Height:       Float(b.Height),
		Group:        n.group,
		Shape:        n.shape,
	}
}

func groupPadding(n *Node) geom.Padding {
	switch v := n.Style()[StyleGroupPadding].(type) {
	case float64:
		return geom.UniformPadding(v)
	case int:
		return geom.UniformPadding(float64(v))
	case geom.Padding:
		return v
	case map[string]any:
		f := func(k string) float64 {
			x, _ := v[k].(float64)
			return x
		}
		return geom.Padding{Top: f("top"), Right: f("right"), Bottom: f("bottom"), Left: f("left")}
	}
	return geom.Padding{}
}
