package topology

import (
	"math"

	"github.com/matzehuels/topoview/pkg/geom"
)

// Anchor computes where an edge attaches to a node. Points are in the
// graph's content space.
type Anchor interface {
	// Location returns the attachment point for an edge arriving from ref.
	Location(ref geom.Point) geom.Point
	// ReferencePoint is the point other ends aim at.
	ReferencePoint() geom.Point
}

// CenterAnchor attaches edges to the node's center.
type CenterAnchor struct{ Node *Node }

func (a CenterAnchor) Location(geom.Point) geom.Point { return a.ReferencePoint() }

func (a CenterAnchor) ReferencePoint() geom.Point { return absoluteBounds(a.Node).Center() }

// EllipseAnchor attaches edges to the ellipse inscribed in the node's bounds.
type EllipseAnchor struct{ Node *Node }

func (a EllipseAnchor) ReferencePoint() geom.Point { return absoluteBounds(a.Node).Center() }

func (a EllipseAnchor) Location(ref geom.Point) geom.Point {
	b := absoluteBounds(a.Node)
	c := b.Center()
	dx, dy := ref.X-c.X, ref.Y-c.Y
	rx, ry := b.Width/2, b.Height/2
	if (dx == 0 && dy == 0) || rx == 0 || ry == 0 {
		return c
	}
	t := 1 / math.Sqrt((dx*dx)/(rx*rx)+(dy*dy)/(ry*ry))
	return geom.NewPoint(c.X+dx*t, c.Y+dy*t)
}

// RectAnchor attaches edges to the border of the node's bounds.
type RectAnchor struct{ Node *Node }

func (a RectAnchor) ReferencePoint() geom.Point { return absoluteBounds(a.Node).Center() }

func (a RectAnchor) Location(ref geom.Point) geom.Point {
	b := absoluteBounds(a.Node)
	c := b.Center()
	dx, dy := ref.X-c.X, ref.Y-c.Y
	if dx == 0 && dy == 0 {
		return c
	}
	hw, hh := b.Width/2, b.Height/2
	t := math.Inf(1)
	if dx != 0 {
		t = math.Min(t, hw/math.Abs(dx))
	}
	if dy != 0 {
		t = math.Min(t, hh/math.Abs(dy))
	}
	if t > 1 {
		// ref lies inside the box
		return ref
	}
	return geom.NewPoint(c.X+dx*t, c.Y+dy*t)
}

// absoluteBounds returns n's bounds in the graph's content space, which is
// the space edges are drawn in.
func absoluteBounds(n *Node) geom.Rect {
	r := n.Bounds()
	if p := n.Parent(); p != nil {
		p.TranslateToAbsolute(&r)
		if g := n.Graph(); g != nil {
			g.TranslateFromParent(&r)
		}
	}
	return r
}
