package topology

import (
	"github.com/matzehuels/topoview/pkg/geom"
)

// Graph is the root element. Its bounds are the viewport: X and Y hold the
// pan offset and Width and Height the viewport size, both in parent
// (screen) space. Children live in content space, which maps to screen
// space by scaling by Scale and then translating by (X, Y).
type Graph struct {
	element

	bounds     geom.Rect
	scale      float64
	minScale   float64
	maxScale   float64
	layoutType string

	currentLayout     Layout
	currentLayoutType string
}

// NewGraph returns a detached graph with scale 1.
func NewGraph(id, typ string) *Graph {
	g := &Graph{scale: 1}
	g.init(g, KindGraph, id, typ)
	return g
}

// Bounds returns a copy of the viewport rectangle.
func (g *Graph) Bounds() geom.Rect { return g.bounds }

// SetBounds replaces the viewport rectangle. r is copied.
func (g *Graph) SetBounds(r geom.Rect) {
	if r.Equals(g.bounds) {
		return
	}
	g.bounds = r
	if g.controller != nil {
		Emit(g.controller, GraphBoundsChanged, r)
	}
}

// Scale returns the content-to-viewport zoom factor.
func (g *Graph) Scale() float64 { return g.scale }

// SetScale sets the zoom factor, clamped to the scale extent. Values <= 0
// are ignored.
func (g *Graph) SetScale(s float64) {
	if s <= 0 {
		return
	}
	s = g.clampScale(s)
	if s == g.scale {
		return
	}
	g.scale = s
	if g.controller != nil {
		Emit(g.controller, GraphScaleChanged, s)
	}
}

// SetScaleExtent bounds future scale changes. A zero bound is open.
func (g *Graph) SetScaleExtent(minScale, maxScale float64) {
	g.minScale, g.maxScale = minScale, maxScale
}

func (g *Graph) clampScale(s float64) float64 {
	if g.minScale > 0 && s < g.minScale {
		s = g.minScale
	}
	if g.maxScale > 0 && s > g.maxScale {
		s = g.maxScale
	}
	return s
}

// Layout returns the configured layout type.
func (g *Graph) Layout() string { return g.layoutType }

// SetLayout selects the layout type used by RunLayout.
func (g *Graph) SetLayout(typ string) {
	g.layoutType = typ
	g.changed()
}

// Nodes returns the top-level nodes.
func (g *Graph) Nodes() []*Node {
	var out []*Node
	for _, c := range g.children {
		if n, ok := c.(*Node); ok {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns the edges that are direct children of the graph.
func (g *Graph) Edges() []*Edge {
	var out []*Edge
	for _, c := range g.children {
		if e, ok := c.(*Edge); ok {
			out = append(out, e)
		}
	}
	return out
}

// Reset restores scale 1 and a zero pan offset.
func (g *Graph) Reset() {
	g.SetScale(1)
	b := g.bounds
	g.SetBounds(*b.SetLocation(0, 0))
}

// ScaleBy multiplies the scale by factor. The point at location, in
// viewport space, stays fixed; without a location the viewport center is
// used.
func (g *Graph) ScaleBy(factor float64, location *geom.Point) {
	if factor <= 0 {
		return
	}
	b := g.bounds
	l := geom.NewPoint(b.Width/2, b.Height/2)
	if location != nil {
		l = *location
	}
	// content coordinates under l
	cx := (l.X - b.X) / g.scale
	cy := (l.Y - b.Y) / g.scale

	g.SetScale(g.scale * factor)
	g.SetBounds(*b.SetLocation(l.X-cx*g.scale, l.Y-cy*g.scale))
}

// Fit scales and pans so the bounding box of the visible top-level nodes,
// expanded by padding on every side, fills the viewport. Without visible
// nodes the viewport is unchanged.
func (g *Graph) Fit(padding float64) {
	var box geom.Rect
	found := false
	for _, n := range g.Nodes() {
		if !n.Visible() {
			continue
		}
		if !found {
			box, found = n.Bounds(), true
			continue
		}
		box = box.Union(n.Bounds())
	}
	if !found {
		return
	}
	box = box.Expand(geom.UniformPadding(padding))
	if box.Width <= 0 || box.Height <= 0 {
		return
	}

	b := g.bounds
	s := g.clampScale(min(b.Width/box.Width, b.Height/box.Height))
	if s <= 0 {
		return
	}
	mid := box.Center()
	g.SetScale(s)
	g.SetBounds(*b.SetLocation(b.Width/2-mid.X*s, b.Height/2-mid.Y*s))
}

// PanOptions tunes PanIntoView.
type PanOptions struct {
	// Offset is a margin in viewport pixels kept around the node.
	Offset float64
	// MinimumVisible is the fraction of the node's area that must already
	// be in view for no pan to happen. Zero pans only when the node is
	// completely out of view.
	MinimumVisible float64
}

// PanIntoView translates the viewport so n is visible. The scale never
// changes. When n already satisfies opts nothing happens; otherwise the
// viewport moves the least distance that brings n plus the offset fully
// into view.
func (g *Graph) PanIntoView(n *Node, opts PanOptions) {
	r := n.Bounds()
	if p := n.Parent(); p != nil {
		p.TranslateToAbsolute(&r)
	}
	r = r.Expand(geom.UniformPadding(opts.Offset))

	b := g.bounds
	view := geom.NewRect(0, 0, b.Width, b.Height)
	vis := r.Intersect(view)
	area := r.Width * r.Height
	switch {
	case opts.MinimumVisible > 0 && area > 0:
		if vis.Width*vis.Height >= opts.MinimumVisible*area-geom.Epsilon {
			return
		}
	case !vis.IsEmpty():
		return
	}

	var dx, dy float64
	switch {
	case r.X < 0 || r.Width > view.Width:
		dx = -r.X
	case r.Right() > view.Width:
		dx = view.Width - r.Right()
	}
	switch {
	case r.Y < 0 || r.Height > view.Height:
		dy = -r.Y
	case r.Bottom() > view.Height:
		dy = view.Height - r.Bottom()
	}
	if dx == 0 && dy == 0 {
		return
	}
	g.SetBounds(*b.SetLocation(b.X+dx, b.Y+dy))
}

// RunLayout resolves the layout type through the controller's layout
// factories and runs it. A type no factory claims is not an error.
func (g *Graph) RunLayout() error {
	c := g.controller
	if c == nil {
		return nil
	}
	if g.currentLayout != nil && g.currentLayoutType != g.layoutType {
		g.currentLayout.Destroy()
		g.currentLayout = nil
	}
	if g.currentLayout == nil {
		l := c.Layout(g.layoutType)
		if l == nil {
			c.logger.Debug("no layout registered", "type", g.layoutType)
			return nil
		}
		g.currentLayout, g.currentLayoutType = l, g.layoutType
	}
	return g.currentLayout.Layout()
}

// TranslateToParent maps content space to viewport space.
func (g *Graph) TranslateToParent(t geom.Translatable) {
	t.Scale(g.scale, g.scale)
	t.Translate(g.bounds.X, g.bounds.Y)
}

// TranslateFromParent maps viewport space to content space.
func (g *Graph) TranslateFromParent(t geom.Translatable) {
	t.Translate(-g.bounds.X, -g.bounds.Y)
	t.Scale(1/g.scale, 1/g.scale)
}

// SetModel applies m.
func (g *Graph) SetModel(m GraphModel) {
	g.applyModel(m.ElementModel)
	if m.Layout != "" {
		g.layoutType = m.Layout
	}
	b := g.bounds
	if m.X != nil {
		b.X = *m.X
	}
	if m.Y != nil {
		b.Y = *m.Y
	}
	g.bounds = b
	if m.Scale != nil && *m.Scale > 0 {
		g.scale = *m.Scale
	}
	g.changed()
}

// Model returns a snapshot of the graph.
func (g *Graph) Model() GraphModel {
	m := GraphModel{
		ElementModel: g.elementModel(),
		Layout:       g.layoutType,
		X:            Float(g.bounds.X),
		Y:            Float(g.bounds.Y),
		Scale:        Float(g.scale),
	}
	m.Children = nil
	return m
}
